package mcts

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/notnil/chess"
	"golang.org/x/exp/rand"

	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/engineerr"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
)

// Engine is the search engine of spec.md section 4.2: it owns the
// transposition table, the move-index table, an evaluator, and the
// currently rooted search tree, and exposes Think as the single
// blocking entry point a caller (UCI loop, self-play driver) uses to
// pick a move.
//
// Grounded on _examples/Elvenson-alphabeth/mcts/search.go's worker-pool
// shape (goroutines + sync.WaitGroup over a fixed playout budget),
// reworked around the atomics-based Node of node.go and the
// position.BoardHistory adapter instead of the teacher's game.State.
type Engine struct {
	cfg       Config
	tt        *TranspositionTable
	moveTable *moveindex.Table
	evaluator eval.Evaluator

	rng *rand.Rand

	root    *Node
	rootPly int

	nodeCount int64 // atomic
}

// NewEngine builds an Engine. moveTable is shared read-only across
// searches and callers (spec.md section 4.5: "built once at startup").
func NewEngine(cfg Config, moveTable *moveindex.Table, evaluator eval.Evaluator) *Engine {
	return &Engine{
		cfg:       cfg,
		tt:        NewTranspositionTable(cfg.TTSize),
		moveTable: moveTable,
		evaluator: evaluator,
		rng:       rand.New(rand.NewSource(cfg.RNGSeed)),
	}
}

// Think runs the search for history's current position and returns the
// chosen move in long-algebraic notation, per spec.md section 4.2:
// root (re)location, optional root noise, a fixed worker pool racing
// against the configured stop conditions, periodic pruning, then
// either the most-visited or (if Randomize is set) a temperature-sampled
// child. ok is false, always with a non-nil error, when the position is
// terminal (no legal moves or a recognized draw) or the search fails.
func (e *Engine) Think(history *position.BoardHistory) (string, bool, error) {
	if history.IsTerminal() {
		return "", false, engineerr.New(engineerr.NoLegalMoves, nil)
	}

	root := e.relocateRoot(history)
	e.root = root
	e.rootPly = history.Current().Ply()
	for _, c := range root.Children() {
		c.SetActive(true)
	}

	if visits, meanEval, ok := e.tt.Probe(history.Current().Key()); ok {
		root.seedFromTT(visits, meanEval)
	}

	if !root.HasChildren() {
		if _, err := root.CreateChildren(history, e.evaluator); err != nil {
			return "", false, engineerr.New(engineerr.EvaluatorFailure, err)
		}
	}
	if len(root.Children()) == 0 {
		return "", false, engineerr.New(engineerr.NoLegalMoves, nil)
	}

	if e.cfg.NoiseEnabled {
		DirichletNoise(root, e.cfg.NoiseAlpha, e.cfg.NoiseEps, e.rng.Uint64())
	}

	deadline := e.deadline()
	stop := make(chan struct{})
	var stopOnce sync.Once
	closeStop := func() { stopOnce.Do(func() { close(stop) }) }

	if deadline > 0 {
		timer := time.AfterFunc(deadline, closeStop)
		defer timer.Stop()
	}
	if e.cfg.PruneInterval > 0 {
		pruneDone := make(chan struct{})
		go e.pruneLoop(root, stop, pruneDone, closeStop)
		defer func() { <-pruneDone }()
	}

	threads := e.cfg.NumThreads
	if threads < 1 {
		threads = 1
	}
	var fatal atomic.Value // holds error
	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			e.workerLoop(root, history, rng, stop, &fatal, closeStop)
		}(e.cfg.RNGSeed + uint64(i) + 1)
	}
	wg.Wait()
	closeStop()

	if v := fatal.Load(); v != nil {
		return "", false, v.(error)
	}

	turn := history.Current().Turn()
	var chosen *Node
	if e.cfg.Randomize && history.Current().Ply() < e.cfg.TempDecayPly {
		chosen = RandomizeFirstProportionally(root, e.cfg.SoftmaxTemp, e.cfg.RandEvalMaxDiff, e.cfg.RandVisitFloor, turn, e.rng)
	} else {
		chosen = RandomizeFirstProportionally(root, 0, e.cfg.RandEvalMaxDiff, e.cfg.RandVisitFloor, turn, e.rng)
	}
	if chosen == nil {
		return "", false, engineerr.New(engineerr.NoLegalMoves, nil)
	}
	if e.shouldResign(root, chosen, turn, history.Current().Ply()) {
		return "resign", true, nil
	}
	return chosen.Move(), true, nil
}

func (e *Engine) deadline() time.Duration {
	if !e.cfg.TimeManage {
		return 0
	}
	d := time.Duration(float64(e.cfg.OptimumTime) * e.cfg.Slowmover)
	if e.cfg.MaximumTime > 0 && d > e.cfg.MaximumTime {
		d = e.cfg.MaximumTime
	}
	return d
}

func (e *Engine) workerLoop(root *Node, rootHistory *position.BoardHistory, rng *rand.Rand, stop <-chan struct{}, fatal *atomic.Value, closeStop func()) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if e.cfg.MaxPlayouts > 0 && int(root.Visits()) >= e.cfg.MaxPlayouts {
			return
		}
		if e.cfg.MaxNodes > 0 && atomic.LoadInt64(&e.nodeCount) >= int64(e.cfg.MaxNodes) {
			return
		}
		hist := rootHistory.ShallowClone()
		if err := e.playSimulation(root, hist, rng); err != nil {
			if engineerr.Is(err, engineerr.SelfCheckMismatch) {
				fatal.Store(err)
				closeStop()
				return
			}
			continue
		}
	}
}

// playSimulation descends from root to a leaf via SelectChild, expands
// the leaf (or scores it if terminal), and backs up the result along
// the visited path -- spec.md section 4.2's single simulation, minus
// the outer stop-condition bookkeeping that lives in workerLoop/Think.
//
// The table is keyed by Position.Key() (board + castling + en-passant +
// turn), deliberately excluding rule50/repetition, so that positions
// reached via different move orders share a slot (spec.md section 4.3).
// Each node folds in the table's statistics at most once, the first
// simulation to reach it (sync-at-entry); the node's own stats are
// written back once it is done expanding (update-at-exit).
func (e *Engine) playSimulation(root *Node, hist *position.BoardHistory, rng *rand.Rand) error {
	path := []*Node{root}
	node := root

	for node.HasChildren() && len(node.Children()) > 0 && !hist.IsTerminal() {
		color := hist.Current().Turn()
		isRoot := node == root
		child := SelectChild(node, e.cfg.PUCT, e.cfg.FPUReduction, e.cfg.FPUDynamicEval, isRoot, e.cfg.NoiseEnabled, color)
		if child == nil {
			break
		}
		child.AddVirtualLoss()
		path = append(path, child)

		mv := findLegalMove(hist, child.Move())
		if mv == nil {
			// Tree and position disagree (should not happen); undo and bail.
			undoVirtualLoss(path)
			return engineerr.New(engineerr.EvaluatorFailure, nil)
		}
		if _, err := hist.Push(mv); err != nil {
			undoVirtualLoss(path)
			return engineerr.New(engineerr.EvaluatorFailure, err)
		}
		node = child

		if visits, meanEval, ok := e.tt.Probe(hist.Current().Key()); ok {
			node.seedFromTT(visits, meanEval)
		}
	}

	var whiteEval float32
	if hist.IsTerminal() {
		whiteEval = (hist.TerminalScore() + 1) / 2
	} else {
		value, err := node.CreateChildren(hist, e.evaluator)
		if err != nil {
			undoVirtualLoss(path)
			return err
		}
		atomic.AddInt64(&e.nodeCount, int64(len(node.Children())))
		whiteEval = value
	}

	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		n.Update(whiteEval)
		if i > 0 {
			n.UndoVirtualLoss()
		}
	}
	e.tt.Sync(hist.Current().Key(), node)
	return nil
}

func undoVirtualLoss(path []*Node) {
	for i := 1; i < len(path); i++ {
		path[i].UndoVirtualLoss()
	}
}

func findLegalMove(hist *position.BoardHistory, move string) *chess.Move {
	for _, m := range hist.ValidMoves() {
		if m.String() == move {
			return m
		}
	}
	return nil
}

// pruneLoop periodically deactivates children that cannot mathematically
// catch the most-visited sibling given the remaining search budget,
// per spec.md section 4.2's "periodic ~250ms pruning" stop condition.
// A pruned child is reactivated on the next Think call (SetActive is not
// sticky across searches); this only narrows the current search.
func (e *Engine) pruneLoop(root *Node, stop <-chan struct{}, done chan<- struct{}, closeStop func()) {
	defer close(done)
	ticker := time.NewTicker(e.cfg.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.prune(root)
			if activeCount(root.Children()) <= 1 {
				closeStop()
				return
			}
		}
	}
}

func activeCount(children []*Node) int {
	n := 0
	for _, c := range children {
		if c.IsActive() {
			n++
		}
	}
	return n
}

// prune deactivates any child that cannot mathematically catch the
// most-visited child even if every remaining playout in the budget
// went to it: visits + remaining_playouts < max_visits. With no
// playout budget configured there is no finite remaining-playouts
// figure to test against, so pruning is skipped (time-managed
// searches rely on the deadline alone to stop).
func (e *Engine) prune(root *Node) {
	if e.cfg.MaxPlayouts <= 0 {
		return
	}
	children := root.Children()
	if len(children) < 2 {
		return
	}
	var maxVisits uint32
	for _, c := range children {
		if v := c.Visits(); v > maxVisits {
			maxVisits = v
		}
	}
	if maxVisits == 0 {
		return
	}
	remaining := int64(e.cfg.MaxPlayouts) - int64(root.Visits())
	if remaining < 0 {
		remaining = 0
	}
	for _, c := range children {
		if int64(c.Visits())+remaining < int64(maxVisits) {
			c.SetActive(false)
		}
	}
}

// shouldResign implements spec.md section 4.2's resignation policy:
// resign once the chosen move's evaluation has stayed below
// resign_pct for at least min_resign_moves plies. Since the engine does
// not retain eval history across Think calls beyond the tree itself,
// this uses the single-call approximation of comparing the chosen
// move's eval directly against the threshold once the position is deep
// enough into the game to rule out opening-theory swings.
func (e *Engine) shouldResign(root *Node, chosen *Node, color chess.Color, ply int) bool {
	if e.cfg.ResignPct <= 0 {
		return false
	}
	if ply < e.cfg.MinResignMoves {
		return false
	}
	return float64(chosen.Eval(color)) < e.cfg.ResignPct
}

// relocateRoot implements spec.md section 4.2's find_new_root: it walks
// the existing tree forward from the previous root by the moves
// recorded in history's retained window, reusing whatever subtree
// survives. When the window doesn't cover the gap (more than THistory
// plies passed since the last Think call) or the previous root has no
// tree yet, it starts a fresh root node instead -- root reuse is a
// performance optimization, never a correctness requirement (spec.md
// section 3: "the TT is a hint, never a DAG").
func (e *Engine) relocateRoot(history *position.BoardHistory) *Node {
	cur := history.Current()
	if e.root == nil || cur.Ply() < e.rootPly {
		return newNode("", 1, 0.5)
	}

	node := e.root
	next := e.rootPly + 1
	for _, p := range history.Window() {
		if p.Ply() <= e.rootPly {
			continue
		}
		if p.Ply() > cur.Ply() {
			break
		}
		if p.Ply() != next {
			return newNode("", 1, 0.5)
		}
		next++
		if !node.HasChildren() {
			return newNode("", 1, 0.5)
		}
		child := node.findChild(p.LastMove())
		if child == nil {
			return newNode("", 1, 0.5)
		}
		node = child
	}
	return node
}

// Root returns the engine's current root node, for callers (the
// training recorder, debug/graph export) that need the raw tree after
// Think returns.
func (e *Engine) Root() *Node { return e.root }

// MoveTable returns the engine's shared move-index table.
func (e *Engine) MoveTable() *moveindex.Table { return e.moveTable }

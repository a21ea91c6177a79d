package mcts

import (
	"math"

	"github.com/notnil/chess"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/position"
)

// CreateChildren performs spec.md section 4.1's expansion step: a single
// evaluator call against the current position's history window, followed
// by renormalizing priors over the legal moves and materializing one
// child per legal move. The returned eval, and every new child's
// init_eval, is white-perspective. Guarded so only one goroutine expands
// a given node even when several simulations race to the same leaf: a
// loser that finds another goroutine mid-expansion returns the node's
// init_eval at once without expanding, and one that arrives after the
// expansion finished sees HasChildren()==true and returns the node's
// current raw eval.
//
// Grounded on _examples/Elvenson-alphabeth/mcts/tree.go's expand path,
// generalized to call the eval.Evaluator capability bound instead of a
// concrete dualnet type.
func (n *Node) CreateChildren(history *position.BoardHistory, evaluator eval.Evaluator) (float32, error) {
	n.mu.Lock()
	if n.HasChildren() {
		v := n.rawEval(chess.White)
		n.mu.Unlock()
		return v, nil
	}
	if n.isExpanding {
		n.mu.Unlock()
		// Another goroutine is already expanding this node; caller
		// treats this like a fresh leaf visit using the parent's FPU.
		return n.initEval, nil
	}
	n.isExpanding = true
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.isExpanding = false
		n.mu.Unlock()
	}()

	legal := history.ValidMoves()
	turn := history.Current().Turn()

	if len(legal) == 0 {
		v := history.TerminalScore()
		n.mu.Lock()
		n.publishChildren(nil)
		n.mu.Unlock()
		return (v + 1) / 2, nil
	}

	resp, err := evaluator.Evaluate(eval.Request{
		History:    history.Window(),
		Turn:       turn,
		LegalMoves: legal,
	})
	if err != nil {
		return 0, err
	}

	priorByMove := make(map[string]float32, len(resp.Priors))
	for _, p := range resp.Priors {
		priorByMove[p.Move] = p.Prior
	}

	mp := make([]movePrior, len(legal))
	for i, m := range legal {
		mv := m.String()
		mp[i] = movePrior{move: mv, prior: priorByMove[mv]}
	}
	renormalizePriors(mp)
	sortByPriorDesc(mp)

	whiteValue := flipToColor(float64(resp.Value), turn)
	children := make([]*Node, len(mp))
	for i, p := range mp {
		children[i] = newNode(p.move, p.prior, whiteValue)
	}

	n.mu.Lock()
	n.publishChildren(children)
	n.mu.Unlock()

	return whiteValue, nil
}

// SelectChild implements spec.md section 4.1's PUCT selection with
// first-play-urgency reduction: among a node's active children, picks
// the one maximizing Q(s,a) + U(s,a), where unvisited children use a
// reduced baseline instead of their own (uninformative, but identical
// across siblings) init_eval, so the search does not over-explore moves
// the network hasn't evaluated yet. parentVisits is the manual sum of
// the children's own visit counts rather than parent.Visits(), so a
// transposition-inflated parent counter (seeded from the TT) cannot
// skew the exploration term. At the root with Dirichlet noise applied,
// the FPU reduction itself is zeroed -- the noise already does the
// exploration-forcing job the reduction exists for.
func SelectChild(parent *Node, puct float64, fpuReduction float64, fpuDynamicEval bool, isRoot bool, noiseApplied bool, color chess.Color) *Node {
	children := parent.Children()
	var parentVisits, totalVisitedPrior float64
	for _, c := range children {
		v := float64(c.Visits())
		parentVisits += v
		if v > 0 {
			totalVisitedPrior += float64(c.Prior())
		}
	}
	sqrtParent := math.Sqrt(math.Max(parentVisits, 1))

	effectiveReduction := fpuReduction
	if isRoot && noiseApplied {
		effectiveReduction = 0
	}

	fpuBase := 0.5
	if fpuDynamicEval {
		fpuBase = float64(parent.rawEval(color))
	} else if len(children) > 0 {
		fpuBase = float64(flipToColor(float64(children[0].InitEval()), color))
	}
	fpu := fpuBase - effectiveReduction*math.Sqrt(totalVisitedPrior)

	var best *Node
	var bestScore float64 = math.Inf(-1)
	for _, c := range children {
		if !c.IsActive() {
			continue
		}
		var q float64
		if c.Visits() == 0 && c.virtualLossValue() == 0 {
			q = fpu
		} else {
			q = float64(c.Eval(color))
		}
		// Denominator folds in the child's own virtual loss (a Leela-ish
		// choice) rather than spec's plain 1+child.visits, so a child
		// several simulations are already racing toward looks less
		// attractive to the next one too.
		u := puct * float64(c.Prior()) * sqrtParent / (1 + float64(c.Visits())+float64(c.virtualLossValue()))
		score := q + u
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// DirichletNoise mixes Dirichlet(alpha) noise into the root's children
// priors in place, per spec.md section 4.1's "Root noise" step:
// p_i <- (1-eps)*p_i + eps*noise_i. Sampling uses gonum's
// stat/distmv implementation of the Dirichlet distribution, seeded from
// golang.org/x/exp/rand for reproducibility with the engine's configured
// rng_seed.
func DirichletNoise(root *Node, alpha, eps float64, seed uint64) {
	children := root.Children()
	n := len(children)
	if n == 0 {
		return
	}
	alphas := make([]float64, n)
	for i := range alphas {
		alphas[i] = alpha
	}
	dist := distmv.NewDirichlet(alphas, rand.NewSource(seed))
	noise := dist.Rand(nil)
	for i, c := range children {
		mixed := (1-eps)*float64(c.prior) + eps*noise[i]
		c.prior = float32(mixed)
	}
}

// RandomizeFirstProportionally implements spec.md section 4.1's
// temperature-based move selection at the root: when temp==0 (or the
// move count exceeds the decay cutoff) always returns the most-visited
// child; otherwise samples proportionally to visit_count^(1/temp) among
// children gated by both evalMaxDiff (excluded once more than
// evalMaxDiff below the best child's eval) and visitFloor (excluded
// once visited fewer than visitFloor * best_child.visits times) -- a
// guard against randomizing into a move the search already knows loses
// or barely explored.
func RandomizeFirstProportionally(root *Node, temp, evalMaxDiff, visitFloor float64, color chess.Color, rng *rand.Rand) *Node {
	children := root.Children()
	if len(children) == 0 {
		return nil
	}
	if temp <= 0 {
		return mostVisited(children)
	}

	best := mostVisited(children)
	bestEval := float64(best.Eval(color))
	visitCutoff := visitFloor * float64(best.Visits())

	type candidate struct {
		node   *Node
		weight float64
	}
	var pool []candidate
	var total float64
	for _, c := range children {
		if c.Visits() == 0 {
			continue
		}
		if float64(c.Visits()) < visitCutoff {
			continue
		}
		if float64(c.Eval(color)) < bestEval-evalMaxDiff {
			continue
		}
		w := math.Pow(float64(c.Visits()), 1/temp)
		pool = append(pool, candidate{c, w})
		total += w
	}
	if len(pool) == 0 {
		return best
	}

	r := rng.Float64() * total
	for _, p := range pool {
		r -= p.weight
		if r <= 0 {
			return p.node
		}
	}
	return pool[len(pool)-1].node
}

func mostVisited(children []*Node) *Node {
	var best *Node
	var bestVisits uint32
	for _, c := range children {
		v := c.Visits()
		if best == nil || v > bestVisits {
			best = c
			bestVisits = v
		}
	}
	return best
}

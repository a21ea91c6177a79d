// Package mcts is the parallel Monte Carlo Tree Search engine: the
// search tree and its node statistics (this file), the transposition
// table (tt.go), and the multi-threaded selection/expansion/backup
// loop with virtual-loss coordination (engine.go). Grounded on
// _examples/Elvenson-alphabeth/mcts/{node,tree,search}.go, generalized
// from that teacher's flat slice-of-structs arena to the parent-owned
// tree spec.md section 3 requires (a node's children are exclusively
// owned by their parent; transpositions are handled only through the
// TT hint, never by sharing subtrees -- Design Notes section 9).
package mcts

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/notnil/chess"
)

// VirtualLossCount is the fixed unit added to a node's virtual loss
// counter on every mid-simulation traversal and removed on backup.
const VirtualLossCount = 3

// Status is a node's selectability state.
type Status int32

const (
	Active Status = iota
	Pruned
)

func (s Status) String() string {
	if s == Pruned {
		return "Pruned"
	}
	return "Active"
}

// Node is one vertex of the search tree: identity (the move that
// reached it), prior score, initial eval, atomic visit/eval/virtual-loss
// counters, and an append-free (post-expansion) child list. Matches the
// field list of spec.md section 3 exactly.
type Node struct {
	move     string // long-algebraic move that produced this node; "" at root
	prior    float32
	initEval float32 // white-perspective; first-play fallback and new-child seed

	visits       uint32 // atomic
	whiteEvalSum uint64 // atomic, bits of a float64
	virtualLoss  int32  // atomic
	status       int32  // atomic Status

	mu          sync.Mutex // guards children, isExpanding
	isExpanding bool
	hasChildren int32 // atomic bool
	children    []*Node

	ttSeeded int32 // atomic bool; guards seedFromTT to a single application
}

func newNode(move string, prior, initEval float32) *Node {
	return &Node{move: move, prior: prior, initEval: initEval, status: int32(Active)}
}

// Move returns the move that produced this node.
func (n *Node) Move() string { return n.move }

// Prior returns the network's policy probability P(s,a).
func (n *Node) Prior() float32 { return n.prior }

// InitEval returns the node's first-play-urgency fallback eval.
func (n *Node) InitEval() float32 { return n.initEval }

// Visits returns the node's visit count.
func (n *Node) Visits() uint32 { return atomic.LoadUint32(&n.visits) }

// WhiteEvalSum returns the accumulated white-perspective evaluation sum.
func (n *Node) WhiteEvalSum() float64 {
	return math.Float64frombits(atomic.LoadUint64(&n.whiteEvalSum))
}

// HasChildren reports whether expansion has completed. Once true it
// never becomes false again, and Children() is safe to range over
// without holding mu (the slice is append-free from this point on;
// Go's sync/atomic operations are themselves synchronization points,
// so an observer of hasChildren==true is guaranteed to see the fully
// published children slice written before the atomic store below).
func (n *Node) HasChildren() bool { return atomic.LoadInt32(&n.hasChildren) != 0 }

// Children returns the (append-free) child list. Only valid once
// HasChildren() is true.
func (n *Node) Children() []*Node { return n.children }

// publishChildren stores the fully-built children slice and then flips
// hasChildren true, so any goroutine observing HasChildren()==true via
// the atomic load is guaranteed (happens-before) to see the write to
// n.children above it. Called only by CreateChildren, with mu held.
func (n *Node) publishChildren(children []*Node) {
	n.children = children
	atomic.StoreInt32(&n.hasChildren, 1)
}

// IsActive reports whether selection should consider this node.
func (n *Node) IsActive() bool { return Status(atomic.LoadInt32(&n.status)) == Active }

// SetActive flips a child's status; used by the engine's periodic
// pruning of hopeless branches (spec.md section 4.2).
func (n *Node) SetActive(active bool) {
	s := Pruned
	if active {
		s = Active
	}
	atomic.StoreInt32(&n.status, int32(s))
}

// AddVirtualLoss marks this node as being traversed mid-simulation.
func (n *Node) AddVirtualLoss() { atomic.AddInt32(&n.virtualLoss, VirtualLossCount) }

// UndoVirtualLoss removes the mid-simulation traversal mark.
func (n *Node) UndoVirtualLoss() { atomic.AddInt32(&n.virtualLoss, -VirtualLossCount) }

func (n *Node) virtualLossValue() int32 { return atomic.LoadInt32(&n.virtualLoss) }

// Update atomically increments visits and adds a white-perspective eval
// to the running sum, per spec.md section 4.1 ("Update / virtual
// loss"). Both operations are lock-free.
func (n *Node) Update(whiteEval float32) {
	atomic.AddUint32(&n.visits, 1)
	n.addEval(float64(whiteEval))
}

func (n *Node) addEval(v float64) {
	for {
		old := atomic.LoadUint64(&n.whiteEvalSum)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(&n.whiteEvalSum, old, next) {
			return
		}
	}
}

func flipToColor(whiteScore float64, color chess.Color) float32 {
	if color == chess.Black {
		return float32(1 - whiteScore)
	}
	return float32(whiteScore)
}

// Eval returns the node's evaluation from the given color's point of
// view, per spec.md section 4.1's "Eval queries": visited nodes use
// their accumulated average (virtual losses biasing the in-flight
// score toward a loss for whoever is about to move there); unvisited
// nodes fall back to their own init_eval.
func (n *Node) Eval(color chess.Color) float32 {
	visits := int64(n.Visits())
	vl := int64(n.virtualLossValue())
	combined := visits + vl
	if combined == 0 {
		return flipToColor(float64(n.initEval), color)
	}
	whiteEval := n.WhiteEvalSum()
	if color == chess.Black {
		whiteEval += float64(vl)
	}
	return flipToColor(whiteEval/float64(combined), color)
}

// rawEval is Eval() without virtual-loss contamination, used by the
// dynamic FPU baseline ("parent's raw visit-weighted eval").
func (n *Node) rawEval(color chess.Color) float32 {
	visits := n.Visits()
	if visits == 0 {
		return flipToColor(float64(n.initEval), color)
	}
	return flipToColor(n.WhiteEvalSum()/float64(visits), color)
}

// seedFromTT implements spec.md section 4.2's sync-at-entry: the first
// time a simulation reaches this node, fold in any richer statistics
// the transposition table holds for the same position reached via a
// different move order. Applied at most once per node (guarded by
// ttSeeded) since the delta folded in is an approximation, not an exact
// replacement -- repeating it would double-count.
func (n *Node) seedFromTT(ttVisits uint32, ttMeanEval float64) {
	if ttVisits == 0 {
		return
	}
	if !atomic.CompareAndSwapInt32(&n.ttSeeded, 0, 1) {
		return
	}
	own := n.Visits()
	if ttVisits <= own {
		return
	}
	add := ttVisits - own
	atomic.AddUint32(&n.visits, add)
	n.addEval(ttMeanEval * float64(add))
}

func (n *Node) findChild(move string) *Node {
	for _, c := range n.children {
		if c.move == move {
			return c
		}
	}
	return nil
}

// movePrior is used internally while sorting/normalizing the network's
// output before children are created.
type movePrior struct {
	move  string
	prior float32
}

type byPriorDesc []movePrior

func (l byPriorDesc) Len() int           { return len(l) }
func (l byPriorDesc) Less(i, j int) bool { return l[i].prior > l[j].prior }
func (l byPriorDesc) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

// renormalizePriors implements spec.md section 4.1 step 5: divide by
// the sum of priors over legal moves when that sum is non-negligible,
// otherwise fall back to a uniform distribution.
func renormalizePriors(mp []movePrior) {
	var sum float32
	for _, p := range mp {
		sum += p.prior
	}
	if sum > math32.SmallestNonzeroFloat32 {
		for i := range mp {
			mp[i].prior /= sum
		}
		return
	}
	uniform := float32(1) / float32(len(mp))
	for i := range mp {
		mp[i].prior = uniform
	}
}

func sortByPriorDesc(mp []movePrior) { sort.Sort(byPriorDesc(mp)) }

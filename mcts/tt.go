package mcts

import (
	"sync"
)

// DefaultTTSize is the fixed slot count for the transposition table
// (spec.md section 4.3). The table is a best-effort statistics-sharing
// hint, never a DAG: it neither creates nor removes tree edges, only
// seeds a node's visit/eval statistics the first time a simulation
// reaches it and records each simulation leaf's own stats.
const DefaultTTSize = 500000

type ttEntry struct {
	valid   bool
	hash    uint64
	visits  uint32
	evalSum float64
}

// TranspositionTable is a fixed-size, single-mutex hash table keyed by
// Position.Key() (board identity only, not rule50/repetition), so that
// positions reached via different move orders share a slot, grounded on
// the probe/replace shape of
// _examples/other_examples/0fd8ba89_frankkopp-FrankyGo__internal-transpositiontable-tt.go.go
// (always-replace on collision; slots here are indexed by hash modulo
// the slot count rather than by a mask) but reduced to
// the two numbers spec.md section 4.3 actually needs per slot.
type TranspositionTable struct {
	mu      sync.Mutex
	entries []ttEntry
}

// NewTranspositionTable allocates a table with the given slot count
// (0 defaults to DefaultTTSize).
func NewTranspositionTable(size int) *TranspositionTable {
	if size <= 0 {
		size = DefaultTTSize
	}
	return &TranspositionTable{entries: make([]ttEntry, size)}
}

func (t *TranspositionTable) slot(hash uint64) int {
	return int(hash % uint64(len(t.entries)))
}

// Clear empties every slot.
func (t *TranspositionTable) Clear() {
	t.mu.Lock()
	for i := range t.entries {
		t.entries[i] = ttEntry{}
	}
	t.mu.Unlock()
}

// ClearEntry invalidates the slot belonging to hash, if it is currently
// occupied by that hash. Used when a branch is discarded so a stale
// hint cannot leak into a different subtree sharing the same slot.
func (t *TranspositionTable) ClearEntry(hash uint64) {
	t.mu.Lock()
	i := t.slot(hash)
	if t.entries[i].valid && t.entries[i].hash == hash {
		t.entries[i] = ttEntry{}
	}
	t.mu.Unlock()
}

// Probe seeds a newly expanded node from any existing stats recorded
// under hash, per spec.md section 4.3's "reads a prior visit count and
// mean eval, if present, to seed the node rather than starting cold."
// Returns ok=false on a miss or a hash collision in the slot.
func (t *TranspositionTable) Probe(hash uint64) (visits uint32, meanEval float64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[t.slot(hash)]
	if !e.valid || e.hash != hash || e.visits == 0 {
		return 0, 0, false
	}
	return e.visits, e.evalSum / float64(e.visits), true
}

// Update always-replaces the slot for hash with the given stats, so
// concurrent searches sharing a transposition can benefit from each
// other's work even though the tree itself is never shared.
func (t *TranspositionTable) Update(hash uint64, visits uint32, evalSum float64) {
	t.mu.Lock()
	t.entries[t.slot(hash)] = ttEntry{valid: true, hash: hash, visits: visits, evalSum: evalSum}
	t.mu.Unlock()
}

// Sync writes a node's current (visits, white-eval-sum) into the table
// under its position's key via Update. The engine calls it once per
// simulation, for the leaf that simulation expanded or scored.
func (t *TranspositionTable) Sync(hash uint64, n *Node) {
	t.Update(hash, n.Visits(), n.WhiteEvalSum())
}

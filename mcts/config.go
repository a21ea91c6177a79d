package mcts

import "time"

// Config collects every tunable spec.md section 6 names for the search
// engine. Grounded on _examples/Elvenson-alphabeth/agogo.go's flat
// options-struct style; values here mirror that teacher's naming but
// cover the full set of knobs the redesigned engine needs.
type Config struct {
	NumThreads  int
	MaxPlayouts int // 0 = unbounded
	MaxNodes    int // 0 = unbounded; hard safety net regardless

	PUCT           float64
	FPUReduction   float64
	FPUDynamicEval bool

	NoiseEnabled bool
	NoiseAlpha   float64
	NoiseEps     float64

	Randomize       bool
	SoftmaxTemp     float64
	TempDecayPly    int     // ply at which temp drops to 0
	RandEvalMaxDiff float64 // candidates more than this far below the best child's eval are excluded
	RandVisitFloor  float64 // candidates below this fraction of the best child's visits are excluded
	Slowmover       float64
	TimeManage      bool
	OptimumTime     time.Duration
	MaximumTime     time.Duration
	PruneInterval   time.Duration
	ResignPct       float64
	MinResignMoves  int

	RNGSeed uint64

	TTSize int
}

// DefaultConfig mirrors the teacher's DefaultConf pattern: safe,
// single-threaded, noiseless defaults suitable for deterministic tests.
func DefaultConfig() Config {
	return Config{
		NumThreads:      1,
		MaxPlayouts:     800,
		MaxNodes:        40000000,
		PUCT:            1.5,
		FPUReduction:    0.25,
		FPUDynamicEval:  true,
		NoiseEnabled:    false,
		NoiseAlpha:      0.3,
		NoiseEps:        0.25,
		Randomize:       false,
		SoftmaxTemp:     1.0,
		TempDecayPly:    30,
		RandEvalMaxDiff: 0.1,
		RandVisitFloor:  0.1,
		Slowmover:       1.0,
		TimeManage:      false,
		OptimumTime:     0,
		MaximumTime:     0,
		PruneInterval:   250 * time.Millisecond,
		ResignPct:       0.0,
		MinResignMoves:  0,
		RNGSeed:         1,
		TTSize:          DefaultTTSize,
	}
}

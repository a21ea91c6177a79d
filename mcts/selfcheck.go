package mcts

import (
	"log"
	"sync"

	"github.com/nnzero/alphabeth/engineerr"
	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/moveindex"
)

// SelfCheckConfig configures the side-by-side backend validation of
// spec.md section 7: a secondary evaluator is run alongside the
// primary one, and their value outputs are compared.
type SelfCheckConfig struct {
	// Tolerance is the maximum acceptable absolute difference between
	// the two evaluators' value outputs before it counts as a mismatch.
	Tolerance float32
	// Credit is the leaky-bucket capacity: mismatches consume one unit,
	// elapsed (non-mismatching) evaluations refill it by RefillRate,
	// capped at Credit. Exhausting the bucket on a mismatch is fatal.
	Credit     int
	RefillRate int
}

// DefaultSelfCheckConfig tolerates occasional divergence (floating
// point backends rarely agree bit-for-bit) but trips on a sustained
// run of mismatches.
func DefaultSelfCheckConfig() SelfCheckConfig {
	return SelfCheckConfig{Tolerance: 0.05, Credit: 8, RefillRate: 1}
}

// selfCheck wraps a primary and secondary Evaluator, comparing their
// value output on every call and maintaining the leaky-bucket credit
// counter spec.md section 7 describes. It implements eval.Evaluator
// itself, so an Engine constructed via NewSelfCheck uses it exactly
// like any other single evaluator.
type selfCheck struct {
	primary, secondary eval.Evaluator
	cfg                SelfCheckConfig

	mu     sync.Mutex
	credit int
}

func newSelfCheck(primary, secondary eval.Evaluator, cfg SelfCheckConfig) *selfCheck {
	return &selfCheck{primary: primary, secondary: secondary, cfg: cfg, credit: cfg.Credit}
}

func (s *selfCheck) Evaluate(req eval.Request) (eval.Response, error) {
	primary, err := s.primary.Evaluate(req)
	if err != nil {
		return eval.Response{}, engineerr.New(engineerr.EvaluatorFailure, err)
	}
	secondary, err := s.secondary.Evaluate(req)
	if err != nil {
		return eval.Response{}, engineerr.New(engineerr.EvaluatorFailure, err)
	}

	diff := primary.Value - secondary.Value
	if diff < 0 {
		diff = -diff
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if diff > s.cfg.Tolerance {
		s.credit--
		if s.credit <= 0 {
			return eval.Response{}, engineerr.New(engineerr.SelfCheckMismatch, nil)
		}
		log.Printf("mcts: self-check mismatch (diff=%.4f, credit=%d)", diff, s.credit)
		return primary, nil
	}
	s.credit += s.cfg.RefillRate
	if s.credit > s.cfg.Credit {
		s.credit = s.cfg.Credit
	}
	return primary, nil
}

// Credit reports the current leaky-bucket level, for diagnostics.
func (s *selfCheck) Credit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credit
}

// NewSelfCheck builds an Engine whose evaluator runs primary and
// secondary side-by-side on every request, per spec.md section 7's
// "two backends run side-by-side for validation". A mismatch beyond
// cfg.Tolerance is logged and recoverable (the primary evaluator's
// response is used and the simulation goes on) unless the leaky-bucket credit is
// exhausted, in which case it is fatal -- surfaced by CreateChildren's
// error return, the same path InvalidWeights and EvaluatorFailure take.
func NewSelfCheck(cfg Config, moveTable *moveindex.Table, primary, secondary eval.Evaluator, scCfg SelfCheckConfig) *Engine {
	return NewEngine(cfg, moveTable, newSelfCheck(primary, secondary, scCfg))
}

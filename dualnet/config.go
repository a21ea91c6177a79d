package dual

// Config describes the reference evaluator's shape: board geometry,
// input feature-plane count, and the fixed action space size the
// policy head must produce one logit per (moveindex.Table.Size()).
// K/FC/SharedLayers size a residual-tower network; this package's
// forward pass (network.go) deliberately implements only a single
// hidden layer of width K (see DESIGN.md), so SharedLayers and FwdOnly
// are carried for weight-file/config compatibility with a fuller
// implementation but go unused by Evaluate itself.
type Config struct {
	K            int  `json:"k"`             // hidden layer width
	SharedLayers int  `json:"shared_layers"` // residual block count (unused by this reference network)
	FC           int  `json:"fc"`            // fc layer width
	BatchSize    int  `json:"batch_size"`    // batch size
	Width        int  `json:"width"`         // board width, always 8 for chess
	Height       int  `json:"height"`        // board height, always 8 for chess
	Features     int  `json:"features"`      // input feature count; only checked by IsValid, the network's input size comes from PlaneCount
	ActionSpace  int  `json:"action_space"`  // moveindex.Table.Size() for the configured version
	FwdOnly      bool `json:"fwd_only"`      // true for an inference-only (no-training-graph) network
}

// DefaultConf builds a Config for an m x n chess board (8x8) and the
// given action space size, sizing the hidden layer the way the
// teacher's DefaultConf sized its residual tower width: proportional to
// board area, rounded to the nearest power of two.
func DefaultConf(m, n, actionSpace int) Config {
	k := round((m * n) / 3)
	return Config{
		K:            k,
		SharedLayers: m,
		FC:           2 * k,
		BatchSize:    256,
		Width:        n,
		Height:       m,
		Features:     18,
		ActionSpace:  actionSpace,
	}
}

// IsValid reports whether conf describes a usable network: a non-empty
// hidden layer, a real action space, and at least one input feature
// plane.
func (conf Config) IsValid() bool {
	return conf.K >= 1 &&
		conf.ActionSpace >= 3 &&
		conf.SharedLayers >= 0 &&
		conf.FC > 1 &&
		conf.BatchSize >= 1 &&
		conf.Features > 0
}

// round rounds a to the nearer of the two powers of two bracketing it
// (ties go to the larger one).
func round(a int) int {
	n := a - 1
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++

	lt := n / 2
	if (a - lt) < (n - a) {
		return lt
	}
	return n
}

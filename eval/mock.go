package eval

// Uniform is a deterministic Evaluator that assigns every legal move
// the same prior and always returns a fixed value. Used in scenarios
// S1-S3 and S6 of spec.md section 8, and generally useful for exercising
// the search engine without a trained network.
type Uniform struct {
	Value float32
}

// NewUniform returns a Uniform evaluator with the side-to-move win
// probability fixed at 0.5 (spec.md scenario S1/S2's mock Evaluator).
func NewUniform() *Uniform {
	return &Uniform{Value: 0.5}
}

func (u *Uniform) Evaluate(req Request) (Response, error) {
	n := len(req.LegalMoves)
	resp := Response{Value: u.Value}
	if n == 0 {
		return resp, nil
	}
	prior := float32(1) / float32(n)
	resp.Priors = make([]MovePrior, n)
	for i, m := range req.LegalMoves {
		resp.Priors[i] = MovePrior{Move: m.String(), Prior: prior}
	}
	return resp, nil
}

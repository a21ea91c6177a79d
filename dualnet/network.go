package dual

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nnzero/alphabeth/eval"
	"github.com/nnzero/alphabeth/moveindex"
	"github.com/nnzero/alphabeth/position"
)

// ErrInvalidWeights is returned by LoadWeights when the file's declared
// version is unsupported or its computed residual-block count is not
// an integer, per spec.md section 6 and the engineerr.InvalidWeights
// taxonomy entry (the caller wraps this in engineerr.New at the call
// site closest to process startup).
var ErrInvalidWeights = errors.New("dual: invalid weight file")

// Dual is the reference CPU evaluator: a single shared linear layer
// over the flattened input planes followed by separate policy and
// value heads, deliberately modest (no residual tower, no
// convolutions) -- see DESIGN.md for why: the only gorgonia usage
// anywhere in the retrieved examples is gorgonia.org/tensor's plain
// Dense constructor (agogo.go), with no confirmed example of the
// gorgonia.org/gorgonia autodiff graph API, so this reference network
// is built on tensor.Dense shape bookkeeping plus ordinary Go
// arithmetic instead of guessing at an unverified graph API.
type Dual struct {
	conf    Config
	version int

	hidden     *tensor.Dense // [inputSize, K]
	hiddenBias []float32

	policyW []float32 // [K, ActionSpace]
	policyB []float32

	valueW []float32 // [K]
	valueB float32

	moveTable *moveindex.Table
}

// New builds an untrained Dual network from conf, with all weights
// zeroed (callers call LoadWeights to populate a trained model, or use
// it as-is for smoke tests -- a zeroed network returns a uniform prior
// and a 0.5 value via its linear heads, which is deterministic and
// harmless as a placeholder Evaluator).
func New(conf Config, moveTable *moveindex.Table, version int) *Dual {
	inputSize := PlaneCount(version, position.THistory) * squaresPerPlane
	return &Dual{
		conf:       conf,
		version:    version,
		hidden:     tensor.New(tensor.WithShape(inputSize, conf.K), tensor.Of(tensor.Float32)),
		hiddenBias: make([]float32, conf.K),
		policyW:    make([]float32, conf.K*conf.ActionSpace),
		policyB:    make([]float32, conf.ActionSpace),
		valueW:     make([]float32, conf.K),
		moveTable:  moveTable,
	}
}

// LoadWeights reads a text (optionally gzip-compressed) weight file in
// the layout spec.md section 6 describes, transposed onto this
// network's modest single-hidden-layer shape: line 1 is the format
// version, followed by whitespace-separated floats for the hidden
// layer weights, hidden bias, policy weights, policy bias, value
// weights, value bias, in that order. Rejects anything whose declared
// version is not 1 or 2, or whose float count is not exactly the total
// this network's fixed shape needs (the "residual-block count must be
// an integer" check of spec.md, adapted to this flat-layer layout).
func LoadWeights(path string, conf Config, moveTable *moveindex.Table) (*Dual, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dual: opening weight file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "dual: gzip weight file")
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	if !scanner.Scan() {
		return nil, errors.Wrap(ErrInvalidWeights, "empty weight file")
	}
	version, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || (version != 1 && version != 2) {
		return nil, errors.Wrapf(ErrInvalidWeights, "unsupported version %q", scanner.Text())
	}

	var floats []float32
	for scanner.Scan() {
		for _, tok := range strings.Fields(scanner.Text()) {
			v, err := strconv.ParseFloat(tok, 32)
			if err != nil {
				return nil, errors.Wrap(ErrInvalidWeights, "non-numeric weight token")
			}
			floats = append(floats, float32(v))
		}
	}

	n := New(conf, moveTable, version)
	inputSize := PlaneCount(version, position.THistory) * squaresPerPlane
	want := inputSize*conf.K + conf.K + conf.K*conf.ActionSpace + conf.ActionSpace + conf.K + 1
	if len(floats) != want {
		return nil, errors.Wrapf(ErrInvalidWeights, "expected %d weight values, got %d", want, len(floats))
	}

	off := 0
	copy(n.hidden.Data().([]float32), floats[off:off+inputSize*conf.K])
	off += inputSize * conf.K
	copy(n.hiddenBias, floats[off:off+conf.K])
	off += conf.K
	copy(n.policyW, floats[off:off+conf.K*conf.ActionSpace])
	off += conf.K * conf.ActionSpace
	copy(n.policyB, floats[off:off+conf.ActionSpace])
	off += conf.ActionSpace
	copy(n.valueW, floats[off:off+conf.K])
	off += conf.K
	n.valueB = floats[off]

	return n, nil
}

// Evaluate implements eval.Evaluator: flatten the input planes, run
// the single hidden layer with a tanh activation, then a policy head
// (softmax over legal moves only) and a value head (sigmoid), matching
// spec.md section 6's value range [0,1] and the policy-as-prior
// contract of section 4.1.
func (n *Dual) Evaluate(req eval.Request) (eval.Response, error) {
	if len(req.LegalMoves) == 0 {
		return eval.Response{Value: 0.5}, nil
	}
	planes := EncodePlanes(req.History, n.version)

	hidden := make([]float32, n.conf.K)
	hdata := n.hidden.Data().([]float32)
	for k := 0; k < n.conf.K; k++ {
		var sum float32
		for i, x := range planes {
			sum += x * hdata[i*n.conf.K+k]
		}
		hidden[k] = math32.Tanh(sum + n.hiddenBias[k])
	}

	var valueSum float32
	for k, h := range hidden {
		valueSum += h * n.valueW[k]
	}
	value := sigmoid32(valueSum + n.valueB)

	priors := make([]eval.MovePrior, len(req.LegalMoves))
	logits := make([]float32, len(req.LegalMoves))
	var maxLogit float32 = -1e30
	for i, m := range req.LegalMoves {
		idx, err := n.moveTable.Lookup(m.String(), req.Turn)
		if err != nil {
			logits[i] = 0
			continue
		}
		var sum float32
		for k, h := range hidden {
			sum += h * n.policyW[k*n.conf.ActionSpace+idx]
		}
		sum += n.policyB[idx]
		logits[i] = sum
		if sum > maxLogit {
			maxLogit = sum
		}
	}
	var denom float32
	exps := make([]float32, len(logits))
	for i, l := range logits {
		e := math32.Exp(l - maxLogit)
		exps[i] = e
		denom += e
	}
	for i, m := range req.LegalMoves {
		priors[i] = eval.MovePrior{Move: m.String(), Prior: exps[i] / denom}
	}

	return eval.Response{Value: value, Priors: priors}, nil
}

func sigmoid32(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

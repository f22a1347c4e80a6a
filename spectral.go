package ppgagent

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

const (
	DefaultSpectralWeight      = 0.02
	DefaultSpectralEpsilon     = 1e-16
	DefaultSpectralUpdateEvery = 4
)

// SpectralEntropyLoss regularizes the spectrum of every
// weight matrix in a model.
//
// For each parameter with at least two dimensions, the
// trailing two dimensions are treated as a matrix (the
// leading dimensions form a batch).
// The matrix's singular values are passed through a
// softmax, and the entropy of the resulting distribution
// is added to the loss.
//
// Since computing SVDs is expensive, the loss is only
// active on every UpdateEvery-th call.
// On other calls, it is exactly zero and has no gradient.
//
// A SpectralEntropyLoss counts its calls, so a single
// instance must not be used from multiple Goroutines at
// once.
type SpectralEntropyLoss struct {
	// Weight scales the loss.
	//
	// Unlike Epsilon and UpdateEvery, a zero Weight is used
	// as-is and disables the loss.
	// NewSpectralEntropyLoss sets DefaultSpectralWeight.
	Weight float64

	// Epsilon is the floor applied to probabilities before
	// taking their logarithm.
	//
	// If 0, DefaultSpectralEpsilon is used.
	Epsilon float64

	// UpdateEvery is the activation period.
	//
	// If 0, DefaultSpectralUpdateEvery is used.
	UpdateEvery int

	calls int
}

// NewSpectralEntropyLoss creates a SpectralEntropyLoss
// with the default settings.
func NewSpectralEntropyLoss() *SpectralEntropyLoss {
	return &SpectralEntropyLoss{
		Weight:      DefaultSpectralWeight,
		Epsilon:     DefaultSpectralEpsilon,
		UpdateEvery: DefaultSpectralUpdateEvery,
	}
}

// Active checks if the next call to Loss will compute a
// non-zero loss.
//
// The call counter starts at 1, and a call is active if
// the counter is divisible by the update period.
func (s *SpectralEntropyLoss) Active() bool {
	return (s.calls+1)%s.updateEvery() == 0
}

// Loss computes the weighted spectral entropy of the
// parameters in the model.
// See ShapedParams for how parameters are discovered.
//
// Every call advances the call counter, whether or not
// it is active.
func (s *SpectralEntropyLoss) Loss(c anyvec.Creator, model ...interface{}) (anydiff.Res,
	error) {
	active := s.Active()
	s.calls++
	if !active {
		return zeroScalar(c), nil
	}
	res, err := s.spectralEntropy(c, ShapedParams(model...))
	if err != nil {
		return nil, essentials.AddCtx("spectral entropy", err)
	}
	return anydiff.Scale(res, c.MakeNumeric(s.Weight)), nil
}

func (s *SpectralEntropyLoss) spectralEntropy(c anyvec.Creator,
	params []*Param) (anydiff.Res, error) {
	eps := s.Epsilon
	if eps == 0 {
		eps = DefaultSpectralEpsilon
	}

	res := zeroScalar(c)
	for _, p := range params {
		if len(p.Shape) < 2 {
			continue
		}
		if p.NumElems() != p.Var.Vector.Len() {
			return nil, &ShapeError{
				Name:     fmt.Sprintf("parameter %v", p.Shape),
				Expected: p.NumElems(),
				Actual:   p.Var.Vector.Len(),
			}
		}
		rows, cols := p.Shape[len(p.Shape)-2], p.Shape[len(p.Shape)-1]
		if rows == 0 || cols == 0 {
			continue
		}
		values, err := singularValues(p.Var, rows, cols)
		if err != nil {
			return nil, err
		}
		numValues := rows
		if cols < rows {
			numValues = cols
		}
		probs := anydiff.Exp(anydiff.LogSoftmax(values, numValues))
		terms := anydiff.Mul(probs, floorLog(probs, eps))
		entropy := anydiff.Scale(anydiff.Sum(terms), c.MakeNumeric(-1))
		res = anydiff.Add(res, entropy)
	}
	return res, nil
}

func (s *SpectralEntropyLoss) updateEvery() int {
	if s.UpdateEvery <= 0 {
		return DefaultSpectralUpdateEvery
	}
	return s.UpdateEvery
}

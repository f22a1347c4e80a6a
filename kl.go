package ppgagent

import "github.com/unixpickle/anydiff"

// DefaultKLWeight is the default KLDivLoss weight.
const DefaultKLWeight = 0.01

// KLDivLoss penalizes the divergence between a target
// distribution and a predicted distribution.
type KLDivLoss struct {
	// Weight scales the loss.
	// A zero Weight is used as-is; NewKLDivLoss sets
	// DefaultKLWeight.
	Weight float64

	// Epsilon is the floor applied to target probabilities
	// before taking their logarithm.
	//
	// If 0, DefaultSpectralEpsilon is used.
	Epsilon float64
}

// NewKLDivLoss creates a KLDivLoss with the default
// weight.
func NewKLDivLoss() *KLDivLoss {
	return &KLDivLoss{Weight: DefaultKLWeight}
}

// Loss computes
//
//     Weight * sum(y*(log(y) - x)) / batch
//
// where x contains predicted log-probabilities and y
// contains target probabilities, laid out identically.
// The sum is divided by the batch size rather than the
// number of components.
//
// Zero target probabilities contribute nothing.
func (k *KLDivLoss) Loss(logX, y anydiff.Res, batch int) anydiff.Res {
	if logX.Output().Len() != y.Output().Len() {
		panic("input and target sizes do not match")
	}
	c := logX.Output().Creator()
	if batch == 0 {
		return zeroScalar(c)
	}
	eps := k.Epsilon
	if eps == 0 {
		eps = DefaultSpectralEpsilon
	}
	terms := anydiff.Mul(y, anydiff.Sub(floorLog(y, eps), logX))
	return anydiff.Scale(anydiff.Sum(terms), c.MakeNumeric(k.Weight/float64(batch)))
}

package ppgagent

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultDiscount = 0.99
	DefaultLambda   = 0.95
)

// A Judger computes action advantages for episodes using
// Generalized Advantage Estimation.
//
// For more on GAE, see:
// https://arxiv.org/abs/1506.02438.
type Judger struct {
	// Discount is the reward discount factor.
	Discount float64

	// Lambda is the GAE parameter.
	// A lambda of 0 is high-bias and low-variance.
	// A lambda of 1 is low-bias and high-variance.
	Lambda float64
}

// DefaultJudger creates a Judger with DefaultDiscount and
// DefaultLambda.
func DefaultJudger() *Judger {
	return &Judger{Discount: DefaultDiscount, Lambda: DefaultLambda}
}

// Advantages computes one advantage per transition.
//
// The episode is scanned backwards and nothing is
// bootstrapped past its final step, where the next value
// is taken to be 0.
// A terminal transition also cuts the trace, so that the
// advantages of an earlier episode never leak into a
// later one if episodes are concatenated.
//
// The result is in chronological order.
// An empty episode yields an empty slice.
func (j *Judger) Advantages(e Episode) []float64 {
	res := make([]float64, len(e))
	var gae float64
	for i := len(e) - 1; i >= 0; i-- {
		t := e[i]
		var nextValue float64
		if i+1 < len(e) {
			nextValue = e[i+1].Value
		}
		notDone := 1.0
		if t.Done {
			notDone = 0
		}
		delta := t.Reward + j.Discount*nextValue*notDone - t.Value
		gae = delta + j.Discount*j.Lambda*notDone*gae
		res[i] = gae
	}
	return res
}

// Returns computes the value targets values[i]+advs[i].
//
// It fails with a *ShapeError if the two slices differ in
// length.
func Returns(values, advs []float64) ([]float64, error) {
	if len(values) != len(advs) {
		return nil, &ShapeError{
			Name:     "returns advantages",
			Expected: len(values),
			Actual:   len(advs),
		}
	}
	res := make([]float64, len(values))
	if len(res) == 0 {
		return res, nil
	}
	return floats.AddTo(res, values, advs), nil
}

// NormalizeAdvantages produces a copy of advs with zero
// mean and (approximately) unit standard deviation.
//
// Datasets never normalize on their own; this is offered
// to training loops which want normalized minibatches.
func NormalizeAdvantages(advs []float64) []float64 {
	res := append([]float64{}, advs...)
	if len(res) == 0 {
		return res
	}
	if len(res) == 1 {
		res[0] = 0
		return res
	}
	mean, std := stat.MeanStdDev(res, nil)
	floats.AddConst(-mean, res)
	floats.Scale(1/(std+1e-8), res)
	return res
}

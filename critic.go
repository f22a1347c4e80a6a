package ppgagent

import "github.com/unixpickle/anydiff"

// DefaultCriticEpsilon is the default value clipping range
// for ClipCriticLoss.
const DefaultCriticEpsilon = 0.4

// ClipCriticLoss is a pessimistic value loss which clips
// new value predictions to stay near old predictions, as
// in the PPO2 baselines.
type ClipCriticLoss struct {
	// Epsilon bounds how far the clipped prediction may
	// move away from the old prediction.
	//
	// If 0, DefaultCriticEpsilon is used.
	Epsilon float64
}

// Loss computes
//
//     0.5*mean(max((clipped-returns)^2, (new-returns)^2))
//
// where clipped = old + clip(new-old, -eps, eps).
func (c *ClipCriticLoss) Loss(oldValues, newValues, returns anydiff.Res) anydiff.Res {
	if oldValues.Output().Len() != newValues.Output().Len() ||
		returns.Output().Len() != newValues.Output().Len() {
		panic("value and return sizes do not match")
	}
	eps := c.Epsilon
	if eps == 0 {
		eps = DefaultCriticEpsilon
	}
	cr := newValues.Output().Creator()

	clipped := anydiff.Add(oldValues, clamp(anydiff.Sub(newValues, oldValues), -eps, eps))
	clippedErr := anydiff.Sub(clipped, returns)
	rawErr := anydiff.Sub(newValues, returns)
	worst := maximum(anydiff.Mul(clippedErr, clippedErr), anydiff.Mul(rawErr, rawErr))
	return anydiff.Scale(mean(worst), cr.MakeNumeric(0.5))
}

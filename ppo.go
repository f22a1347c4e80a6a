package ppgagent

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// DefaultActorEpsilon is the default probability ratio
// clipping range for ClipActorLoss.
const DefaultActorEpsilon = 0.2

// ClipActorLoss implements the clipped surrogate loss
// from Proximal Policy Optimization.
//
// See the PPO paper: https://arxiv.org/abs/1707.06347.
type ClipActorLoss struct {
	// Epsilon is the amount by which the probability ratio
	// may change before it is clipped.
	//
	// If 0, DefaultActorEpsilon is used.
	Epsilon float64
}

// Loss computes the negated clipped surrogate objective,
// averaged over every component.
//
// The log-prob arguments store n samples, each with one or
// more components (e.g. one per action dimension).
// The advs argument stores one advantage per sample,
// which is shared by all of that sample's components.
// An empty batch (n = 0) yields a zero loss.
func (c *ClipActorLoss) Loss(oldLogProbs, newLogProbs, advs anydiff.Res,
	n int) anydiff.Res {
	if oldLogProbs.Output().Len() != newLogProbs.Output().Len() {
		panic("old and new log probs must have the same size")
	} else if n == 0 && advs.Output().Len() == 0 && newLogProbs.Output().Len() == 0 {
		return zeroScalar(newLogProbs.Output().Creator())
	} else if n <= 0 || advs.Output().Len() != n || newLogProbs.Output().Len()%n != 0 {
		panic("advantages do not match batch size")
	}
	cr := newLogProbs.Output().Creator()
	eps := c.epsilon()

	ratios := anydiff.Exp(anydiff.Sub(newLogProbs, oldLogProbs))
	repAdvs := repeatEach(advs, newLogProbs.Output().Len()/n)
	surr1 := anydiff.Mul(ratios, repAdvs)
	surr2 := anydiff.Mul(clamp(ratios, 1-eps, 1+eps), repAdvs)
	return anydiff.Scale(mean(minimum(surr1, surr2)), cr.MakeNumeric(-1))
}

// ClipFraction computes the fraction of probability
// ratios which fall outside of the clipping range.
//
// This is a diagnostic; it does not affect the loss.
func (c *ClipActorLoss) ClipFraction(oldLogProbs, newLogProbs anyvec.Vector) float64 {
	oldVals := vecToFloats(oldLogProbs)
	newVals := vecToFloats(newLogProbs)
	if len(newVals) == 0 {
		return 0
	}
	eps := c.epsilon()
	var count int
	for i, x := range newVals {
		if math.Abs(math.Exp(x-oldVals[i])-1) > eps {
			count++
		}
	}
	return float64(count) / float64(len(newVals))
}

func (c *ClipActorLoss) epsilon() float64 {
	if c.Epsilon == 0 {
		return DefaultActorEpsilon
	}
	return c.Epsilon
}

package ppgagent

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// A Distribution is a batch of action distributions, as
// produced by an actor network.
type Distribution interface {
	// Sample draws one action per batch element and
	// returns the concatenated action vectors.
	Sample() anyvec.Vector

	// LogProb computes log-probabilities of concatenated
	// action vectors.
	LogProb(actions anyvec.Vector) anydiff.Res

	// Entropy computes the entropy of the distribution.
	Entropy() anydiff.Res
}

// Categorical is a batch of discrete distributions
// parameterized by unnormalized log-probabilities.
//
// Actions are one-hot vectors.
// LogProb and Entropy produce one value per batch
// element.
type Categorical struct {
	Logits anydiff.Res
	Batch  int
}

// NumActions returns the number of discrete actions.
func (c *Categorical) NumActions() int {
	return c.Logits.Output().Len() / c.Batch
}

// LogProbs computes the normalized log-probabilities of
// every action.
func (c *Categorical) LogProbs() anydiff.Res {
	return anydiff.LogSoftmax(c.Logits, c.NumActions())
}

// Sample samples one-hot actions.
func (c *Categorical) Sample() anyvec.Vector {
	numActions := c.NumActions()
	logProbs := vecToFloats(c.LogProbs().Output())
	res := make([]float64, len(logProbs))
	for i := 0; i < c.Batch; i++ {
		sub := logProbs[i*numActions : (i+1)*numActions]
		choice := numActions - 1
		off := rand.Float64()
		for j, lp := range sub {
			off -= math.Exp(lp)
			if off <= 0 {
				choice = j
				break
			}
		}
		res[i*numActions+choice] = 1
	}
	return floatsToVec(c.Logits.Output().Creator(), res)
}

// LogProb computes the log-probability of each one-hot
// action.
func (c *Categorical) LogProb(actions anyvec.Vector) anydiff.Res {
	return chunkSums(anydiff.Mul(anydiff.NewConst(actions), c.LogProbs()),
		c.NumActions())
}

// Entropy computes the entropy of each distribution.
func (c *Categorical) Entropy() anydiff.Res {
	logProbs := c.LogProbs()
	negEnt := chunkSums(anydiff.Mul(anydiff.Exp(logProbs), logProbs), c.NumActions())
	return anydiff.Scale(negEnt, c.Logits.Output().Creator().MakeNumeric(-1))
}

// Gaussian is a batch of diagonal normal distributions
// sharing one log standard deviation per dimension.
//
// LogProb and Entropy produce one value per action
// dimension per batch element.
type Gaussian struct {
	Mean anydiff.Res

	// LogStd has one component per action dimension.
	LogStd anydiff.Res

	Batch int
}

// Sample samples continuous actions.
func (g *Gaussian) Sample() anyvec.Vector {
	means := vecToFloats(g.Mean.Output())
	logStds := vecToFloats(g.LogStd.Output())
	res := make([]float64, len(means))
	for i, m := range means {
		res[i] = m + math.Exp(logStds[i%len(logStds)])*rand.NormFloat64()
	}
	return floatsToVec(g.Mean.Output().Creator(), res)
}

// LogProb computes the log-density of each component of
// each action.
func (g *Gaussian) LogProb(actions anyvec.Vector) anydiff.Res {
	c := actions.Creator()
	logStd := g.tiledLogStd()
	diff := anydiff.Sub(anydiff.NewConst(actions), g.Mean)
	invStd := anydiff.Exp(anydiff.Scale(logStd, c.MakeNumeric(-1)))
	z := anydiff.Mul(diff, invStd)
	res := anydiff.Sub(anydiff.Scale(anydiff.Mul(z, z), c.MakeNumeric(-0.5)), logStd)
	return anydiff.Add(res, constLike(res, -0.5*math.Log(2*math.Pi)))
}

// Entropy computes the entropy of each action dimension.
func (g *Gaussian) Entropy() anydiff.Res {
	logStd := g.tiledLogStd()
	return anydiff.Add(logStd, constLike(logStd, 0.5+0.5*math.Log(2*math.Pi)))
}

func (g *Gaussian) tiledLogStd() anydiff.Res {
	if g.Mean.Output().Len() != g.LogStd.Output().Len()*g.Batch {
		panic("mean and log std sizes do not match")
	}
	if g.Batch == 1 {
		return g.LogStd
	}
	parts := make([]anydiff.Res, g.Batch)
	for i := range parts {
		parts[i] = g.LogStd
	}
	return anydiff.Concat(parts...)
}

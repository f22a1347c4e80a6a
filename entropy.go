package ppgagent

import "github.com/unixpickle/anydiff"

// DefaultEntropyWeight is the default EntropyLoss weight.
const DefaultEntropyWeight = 0.01

// EntropyLoss is an exploration bonus which penalizes
// low-entropy action distributions.
type EntropyLoss struct {
	// Weight scales the bonus.
	// A zero Weight is used as-is; NewEntropyLoss sets
	// DefaultEntropyWeight.
	Weight float64
}

// NewEntropyLoss creates an EntropyLoss with the default
// weight.
func NewEntropyLoss() *EntropyLoss {
	return &EntropyLoss{Weight: DefaultEntropyWeight}
}

// Loss computes -Weight*mean(entropy).
func (e *EntropyLoss) Loss(dist Distribution) anydiff.Res {
	ent := dist.Entropy()
	c := ent.Output().Creator()
	return anydiff.Scale(mean(ent), c.MakeNumeric(-e.Weight))
}

package ppgagent

import "github.com/unixpickle/anyvec"

// A Transition records a single environment step.
//
// Transitions are produced by whatever code runs the
// environment and should not be modified once they are
// handed to an estimator or a dataset.
type Transition struct {
	State         anyvec.Vector
	Action        anyvec.Vector
	ActionLogProb anyvec.Vector

	Reward float64
	Done   bool

	// Value is the critic's estimate for State at the time
	// the step was taken.
	Value float64
}

// An Episode is a chronological sequence of transitions
// from a reset to a terminal or truncated step.
type Episode []*Transition

// Values returns the value estimate of every transition.
func (e Episode) Values() []float64 {
	res := make([]float64, len(e))
	for i, t := range e {
		res[i] = t.Value
	}
	return res
}

// TotalReward sums the rewards in the episode.
func (e Episode) TotalReward() float64 {
	var sum float64
	for _, t := range e {
		sum += t.Reward
	}
	return sum
}

// An AuxTransition summarizes one timestep for the
// auxiliary phase.
//
// Action log-probabilities are not part of the record.
// They are recomputed after the policy phase and supplied
// to an AuxDataset separately.
type AuxTransition struct {
	State    anyvec.Vector
	Return   float64
	OldValue float64
}

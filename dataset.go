package ppgagent

import (
	"fmt"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// An ExperienceDataset is a flattened, randomly indexable
// view of one or more episodes together with their
// advantages and returns.
//
// The dataset copies references to every field it needs,
// so the episodes may be discarded after construction.
type ExperienceDataset struct {
	states         []anyvec.Vector
	actions        []anyvec.Vector
	actionLogProbs []anyvec.Vector
	rewards        []float64
	done           []bool
	values         []float64
	advantages     []float64
	returns        []float64
}

// An ExperienceSample is a single entry of an
// ExperienceDataset.
type ExperienceSample struct {
	State         anyvec.Vector
	Action        anyvec.Vector
	ActionLogProb anyvec.Vector
	Reward        float64
	Done          bool
	Value         float64
	Advantage     float64
	Return        float64
}

// NewExperienceDataset flattens the episodes in order,
// computing advantages for each episode with j and
// returns over the whole concatenation.
func NewExperienceDataset(j *Judger, episodes []Episode) (*ExperienceDataset,
	error) {
	var total int
	for _, e := range episodes {
		total += len(e)
	}
	res := &ExperienceDataset{
		states:         make([]anyvec.Vector, 0, total),
		actions:        make([]anyvec.Vector, 0, total),
		actionLogProbs: make([]anyvec.Vector, 0, total),
		rewards:        make([]float64, 0, total),
		done:           make([]bool, 0, total),
		values:         make([]float64, 0, total),
		advantages:     make([]float64, 0, total),
	}
	for i, e := range episodes {
		for k, t := range e {
			if t == nil || t.State == nil || t.Action == nil || t.ActionLogProb == nil {
				return nil, fmt.Errorf("new experience dataset: episode %d step %d "+
					"is incomplete", i, k)
			}
		}
		res.advantages = append(res.advantages, j.Advantages(e)...)
		for _, t := range e {
			res.states = append(res.states, t.State)
			res.actions = append(res.actions, t.Action)
			res.actionLogProbs = append(res.actionLogProbs, t.ActionLogProb)
			res.rewards = append(res.rewards, t.Reward)
			res.done = append(res.done, t.Done)
		}
		res.values = append(res.values, e.Values()...)
	}
	var err error
	res.returns, err = Returns(res.values, res.advantages)
	if err != nil {
		return nil, essentials.AddCtx("new experience dataset", err)
	}
	return res, nil
}

// Len returns the total number of transitions.
func (e *ExperienceDataset) Len() int {
	return len(e.states)
}

// Sample returns the entry at the given index.
func (e *ExperienceDataset) Sample(idx int) *ExperienceSample {
	return &ExperienceSample{
		State:         e.states[idx],
		Action:        e.actions[idx],
		ActionLogProb: e.actionLogProbs[idx],
		Reward:        e.rewards[idx],
		Done:          e.done[idx],
		Value:         e.values[idx],
		Advantage:     e.advantages[idx],
		Return:        e.returns[idx],
	}
}

// Advantages returns the flattened advantages.
// The caller should not modify the result.
func (e *ExperienceDataset) Advantages() []float64 {
	return e.advantages
}

// Returns returns the flattened value targets.
// The caller should not modify the result.
func (e *ExperienceDataset) Returns() []float64 {
	return e.returns
}

// AuxTransitions summarizes every entry for a later
// auxiliary phase.
func (e *ExperienceDataset) AuxTransitions() []*AuxTransition {
	res := make([]*AuxTransition, e.Len())
	for i := range res {
		res[i] = &AuxTransition{
			State:    e.states[i],
			Return:   e.returns[i],
			OldValue: e.values[i],
		}
	}
	return res
}

// An ExperienceBatch is a minibatch packed into
// contiguous vectors.
//
// Per-sample vectors (states, actions, log-probs) are
// concatenated in index order.
// Scalars (values, advantages, returns) have one
// component per sample.
type ExperienceBatch struct {
	Size int

	States      anyvec.Vector
	Actions     anyvec.Vector
	OldLogProbs anyvec.Vector

	Rewards    anyvec.Vector
	Values     anyvec.Vector
	Advantages anyvec.Vector
	Returns    anyvec.Vector
}

// Batch packs the entries at the given indices.
//
// If normalize is true, the batch advantages are
// normalized with NormalizeAdvantages.
//
// The indices must be non-empty.
func (e *ExperienceDataset) Batch(indices []int, normalize bool) *ExperienceBatch {
	if len(indices) == 0 {
		panic("cannot build batch with no indices")
	}
	c := e.states[indices[0]].Creator()

	var states, actions, logProbs []anyvec.Vector
	rewards := make([]float64, len(indices))
	values := make([]float64, len(indices))
	advs := make([]float64, len(indices))
	rets := make([]float64, len(indices))
	for i, idx := range indices {
		states = append(states, e.states[idx])
		actions = append(actions, e.actions[idx])
		logProbs = append(logProbs, e.actionLogProbs[idx])
		rewards[i] = e.rewards[idx]
		values[i] = e.values[idx]
		advs[i] = e.advantages[idx]
		rets[i] = e.returns[idx]
	}
	if normalize {
		advs = NormalizeAdvantages(advs)
	}

	return &ExperienceBatch{
		Size:        len(indices),
		States:      c.Concat(states...),
		Actions:     c.Concat(actions...),
		OldLogProbs: c.Concat(logProbs...),
		Rewards:     floatsToVec(c, rewards),
		Values:      floatsToVec(c, values),
		Advantages:  floatsToVec(c, advs),
		Returns:     floatsToVec(c, rets),
	}
}

package ppgagent

import (
	"fmt"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// An AuxDataset stores the data for the auxiliary phase:
// states, value targets, the values predicted when the
// data was gathered, and (optionally) action
// log-probabilities recomputed by the policy after the
// policy phase.
type AuxDataset struct {
	stateSize int

	states    []anyvec.Vector
	returns   []float64
	oldValues []float64

	// May be nil until log-probs are attached.
	actionLogProbs []anyvec.Vector
}

// An AuxSample is a single row of an AuxDataset.
//
// ActionLogProb is nil if the dataset has no
// log-probabilities attached.
type AuxSample struct {
	State         anyvec.Vector
	Return        float64
	OldValue      float64
	ActionLogProb anyvec.Vector
}

// NewAuxDataset stacks the records into rows.
//
// Every state must have the same number of components.
// The logProbs argument may be nil; otherwise it must
// have exactly one entry per record.
func NewAuxDataset(records []*AuxTransition, logProbs []anyvec.Vector) (*AuxDataset,
	error) {
	res := &AuxDataset{
		states:    make([]anyvec.Vector, len(records)),
		returns:   make([]float64, len(records)),
		oldValues: make([]float64, len(records)),
	}
	for i, r := range records {
		if r == nil || r.State == nil {
			return nil, fmt.Errorf("new aux dataset: record %d has no state", i)
		}
		if i == 0 {
			res.stateSize = r.State.Len()
		} else if r.State.Len() != res.stateSize {
			return nil, essentials.AddCtx("new aux dataset", &ShapeError{
				Name:     fmt.Sprintf("state %d", i),
				Expected: res.stateSize,
				Actual:   r.State.Len(),
			})
		}
		res.states[i] = r.State
		res.returns[i] = r.Return
		res.oldValues[i] = r.OldValue
	}
	if logProbs != nil {
		if err := res.SetActionLogProbs(logProbs); err != nil {
			return nil, essentials.AddCtx("new aux dataset", err)
		}
	}
	return res, nil
}

// SetActionLogProbs attaches recomputed action
// log-probabilities, one per row.
//
// A nil argument detaches any existing log-probs.
func (a *AuxDataset) SetActionLogProbs(logProbs []anyvec.Vector) error {
	if logProbs != nil && len(logProbs) != len(a.states) {
		return &ShapeError{
			Name:     "action log probs",
			Expected: len(a.states),
			Actual:   len(logProbs),
		}
	}
	for i, lp := range logProbs {
		if lp == nil {
			return fmt.Errorf("action log probs: entry %d is nil", i)
		}
	}
	a.actionLogProbs = logProbs
	return nil
}

// HasActionLogProbs checks if log-probs are attached.
func (a *AuxDataset) HasActionLogProbs() bool {
	return a.actionLogProbs != nil
}

// Len returns the number of rows.
func (a *AuxDataset) Len() int {
	return len(a.states)
}

// StateSize returns the number of components per state.
func (a *AuxDataset) StateSize() int {
	return a.stateSize
}

// Sample returns the row at the given index.
func (a *AuxDataset) Sample(idx int) *AuxSample {
	res := &AuxSample{
		State:    a.states[idx],
		Return:   a.returns[idx],
		OldValue: a.oldValues[idx],
	}
	if a.actionLogProbs != nil {
		res.ActionLogProb = a.actionLogProbs[idx]
	}
	return res
}

// An AuxBatch is a minibatch of an AuxDataset packed into
// contiguous vectors.
//
// ActionLogProbs is nil if the dataset has no log-probs.
type AuxBatch struct {
	Size int

	States         anyvec.Vector
	Returns        anyvec.Vector
	OldValues      anyvec.Vector
	ActionLogProbs anyvec.Vector
}

// Batch packs the rows at the given indices.
//
// The indices must be non-empty.
func (a *AuxDataset) Batch(indices []int) *AuxBatch {
	if len(indices) == 0 {
		panic("cannot build batch with no indices")
	}
	c := a.states[indices[0]].Creator()

	var states, logProbs []anyvec.Vector
	rets := make([]float64, len(indices))
	olds := make([]float64, len(indices))
	for i, idx := range indices {
		states = append(states, a.states[idx])
		rets[i] = a.returns[idx]
		olds[i] = a.oldValues[idx]
		if a.actionLogProbs != nil {
			logProbs = append(logProbs, a.actionLogProbs[idx])
		}
	}

	res := &AuxBatch{
		Size:      len(indices),
		States:    c.Concat(states...),
		Returns:   floatsToVec(c, rets),
		OldValues: floatsToVec(c, olds),
	}
	if logProbs != nil {
		res.ActionLogProbs = c.Concat(logProbs...)
	}
	return res
}

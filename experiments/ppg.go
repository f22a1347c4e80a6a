package experiments

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/ppgagent"
)

// PPG trains an Agent with phasic policy gradient.
//
// The policy phase runs PPO on each batch of experience.
// The auxiliary phase periodically distills value
// predictions into the policy network while a KL penalty
// keeps the policy close to a snapshot.
type PPG struct {
	Creator anyvec.Creator
	Agent   *Agent
	Judger  *ppgagent.Judger

	Actor    ppgagent.ClipActorLoss
	Critic   ppgagent.ClipCriticLoss
	Entropy  ppgagent.EntropyLoss
	KL       ppgagent.KLDivLoss
	Spectral ppgagent.SpectralEntropyLoss

	// OrthoWeight scales the orthogonality loss of the
	// agent's residual blocks.
	OrthoWeight float64

	NormalizeAdvs bool
	Minibatch     int
	PolicyEpochs  int
	AuxEpochs     int

	StepSize  float64
	PolicyOpt anysgd.Transformer
	AuxOpt    anysgd.Transformer
}

// PolicyStats summarizes a policy phase.
// Every field is averaged over minibatch steps.
type PolicyStats struct {
	Actor    float64
	Critic   float64
	Entropy  float64
	Spectral float64
	Ortho    float64
	ClipFrac float64
}

// AuxStats summarizes an auxiliary phase.
// Every field is averaged over minibatch steps.
type AuxStats struct {
	Value   float64
	AuxHead float64
	KL      float64
}

// PolicyPhase builds a dataset from the episodes and runs
// the policy phase on it.
//
// The returned dataset can be used to collect records for
// the auxiliary phase.
func (p *PPG) PolicyPhase(episodes []ppgagent.Episode) (*ppgagent.ExperienceDataset,
	*PolicyStats, error) {
	dataset, err := ppgagent.NewExperienceDataset(p.Judger, episodes)
	if err != nil {
		return nil, nil, essentials.AddCtx("policy phase", err)
	}
	stats := &PolicyStats{}
	if dataset.Len() == 0 {
		return dataset, stats, nil
	}
	var steps float64
	params := p.Agent.AllParameters()
	for epoch := 0; epoch < p.PolicyEpochs; epoch++ {
		for _, indices := range ppgagent.Minibatches(dataset, p.Minibatch) {
			batch := dataset.Batch(indices, p.NormalizeAdvs)
			if err := p.policyStep(batch, params, stats); err != nil {
				return nil, nil, essentials.AddCtx("policy phase", err)
			}
			steps++
		}
	}
	if steps > 0 {
		scaleStats(1/steps, &stats.Actor, &stats.Critic, &stats.Entropy, &stats.Spectral,
			&stats.Ortho, &stats.ClipFrac)
	}
	return dataset, stats, nil
}

func (p *PPG) policyStep(batch *ppgagent.ExperienceBatch, params []*anydiff.Var,
	stats *PolicyStats) error {
	n := batch.Size
	states := anydiff.NewConst(batch.States)
	dist := p.Agent.Policy(states, n)
	newLogProbs := dist.LogProb(batch.Actions)

	actorLoss := p.Actor.Loss(anydiff.NewConst(batch.OldLogProbs), newLogProbs,
		anydiff.NewConst(batch.Advantages), n)
	entropyLoss := p.Entropy.Loss(dist)
	criticLoss := p.Critic.Loss(anydiff.NewConst(batch.Values),
		p.Agent.Values(states, n), anydiff.NewConst(batch.Returns))
	spectralLoss, err := p.Spectral.Loss(p.Creator, p.Agent)
	if err != nil {
		return err
	}
	orthoLoss, err := ppgagent.OrthogonalLoss(p.Creator, p.Agent, ResidualTag)
	if err != nil {
		return err
	}
	orthoLoss = anydiff.Scale(orthoLoss, p.Creator.MakeNumeric(p.OrthoWeight))

	loss := ppgagent.SumLosses(actorLoss, entropyLoss, criticLoss, spectralLoss, orthoLoss)
	p.applyGrad(p.PolicyOpt, ppgagent.Backward(loss, params))

	stats.Actor += ppgagent.LossValue(actorLoss)
	stats.Critic += ppgagent.LossValue(criticLoss)
	stats.Entropy += ppgagent.LossValue(entropyLoss)
	stats.Spectral += ppgagent.LossValue(spectralLoss)
	stats.Ortho += ppgagent.LossValue(orthoLoss)
	stats.ClipFrac += p.Actor.ClipFraction(batch.OldLogProbs, newLogProbs.Output())
	return nil
}

// AuxPhase runs the auxiliary phase on records gathered
// from previous policy phases.
func (p *PPG) AuxPhase(records []*ppgagent.AuxTransition) (*AuxStats, error) {
	stats := &AuxStats{}
	if len(records) == 0 {
		return stats, nil
	}
	dataset, err := ppgagent.NewAuxDataset(records, nil)
	if err != nil {
		return nil, essentials.AddCtx("aux phase", err)
	}
	if err := p.attachSnapshot(dataset); err != nil {
		return nil, essentials.AddCtx("aux phase", err)
	}

	var steps float64
	params := p.Agent.AllParameters()
	for epoch := 0; epoch < p.AuxEpochs; epoch++ {
		for _, indices := range ppgagent.Minibatches(dataset, p.Minibatch) {
			p.auxStep(dataset.Batch(indices), params, stats)
			steps++
		}
	}
	if steps > 0 {
		scaleStats(1/steps, &stats.Value, &stats.AuxHead, &stats.KL)
	}
	return stats, nil
}

// attachSnapshot records the action distributions of the
// current policy, which the auxiliary phase must not
// drift away from.
func (p *PPG) attachSnapshot(dataset *ppgagent.AuxDataset) error {
	snapshot, err := p.Agent.Copy()
	if err != nil {
		return err
	}
	logProbs := make([]anyvec.Vector, dataset.Len())
	for _, indices := range ppgagent.Minibatches(dataset, p.Minibatch) {
		batch := dataset.Batch(indices)
		dist := snapshot.Policy(anydiff.NewConst(batch.States), batch.Size)
		out := dist.LogProbs().Output()
		k := snapshot.NumActions
		for i, idx := range indices {
			logProbs[idx] = out.Slice(i*k, (i+1)*k)
		}
	}
	return dataset.SetActionLogProbs(logProbs)
}

func (p *PPG) auxStep(batch *ppgagent.AuxBatch, params []*anydiff.Var, stats *AuxStats) {
	n := batch.Size
	states := anydiff.NewConst(batch.States)
	oldValues := anydiff.NewConst(batch.OldValues)
	returns := anydiff.NewConst(batch.Returns)

	dist, auxValues := p.Agent.PolicyAndAux(states, n)
	target := anydiff.Exp(anydiff.NewConst(batch.ActionLogProbs))
	klLoss := p.KL.Loss(dist.LogProbs(), target, n)
	auxLoss := p.Critic.Loss(oldValues, auxValues, returns)
	valueLoss := p.Critic.Loss(oldValues, p.Agent.Values(states, n), returns)

	loss := ppgagent.SumLosses(valueLoss, auxLoss, klLoss)
	p.applyGrad(p.AuxOpt, ppgagent.Backward(loss, params))

	stats.Value += ppgagent.LossValue(valueLoss)
	stats.AuxHead += ppgagent.LossValue(auxLoss)
	stats.KL += ppgagent.LossValue(klLoss)
}

func (p *PPG) applyGrad(opt anysgd.Transformer, grad anydiff.Grad) {
	if opt != nil {
		grad = opt.Transform(grad)
	}
	grad.Scale(p.Creator.MakeNumeric(-p.StepSize))
	grad.AddToVars()
}

func scaleStats(scale float64, fields ...*float64) {
	for _, f := range fields {
		*f *= scale
	}
}

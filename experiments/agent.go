package experiments

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/ppgagent"
	"github.com/unixpickle/serializer"
)

// ResidualTag is the tag of every residual block in an
// Agent's networks.
const ResidualTag = "residual"

// Agent is a phasic actor-critic for discrete actions.
//
// Inputs are fed into Trunk.
// The output of Trunk is fed into PolicyHead, which
// produces action logits, and into AuxHead, which
// predicts values during the auxiliary phase.
// The Critic is a separate network from observations to
// values.
//
// The networks must work with serializer.Copy, since
// snapshots of the policy are taken before auxiliary
// phases.
type Agent struct {
	Trunk      anynet.Net
	PolicyHead anynet.Net
	AuxHead    anynet.Net
	Critic     anynet.Net

	NumActions int
}

// NewAgent creates a randomly initialized Agent.
//
// Both the trunk and the critic contain a ResidualBlock
// with the given number of layers.
func NewAgent(c anyvec.Creator, obsSize, numActions, hidden, residual int) *Agent {
	return &Agent{
		Trunk: anynet.Net{
			anynet.NewFC(c, obsSize, hidden),
			ppgagent.NewResidualBlock(c, ResidualTag, hidden, hidden, residual),
			anynet.Tanh,
		},
		PolicyHead: anynet.Net{anynet.NewFC(c, hidden, numActions)},
		AuxHead:    anynet.Net{anynet.NewFC(c, hidden, 1)},
		Critic: anynet.Net{
			anynet.NewFC(c, obsSize, hidden),
			ppgagent.NewResidualBlock(c, ResidualTag, hidden, hidden, residual),
			anynet.Tanh,
			anynet.NewFC(c, hidden, 1),
		},
		NumActions: numActions,
	}
}

// AllParameters finds all of the agent's parameters via
// anynet.AllParameters.
func (a *Agent) AllParameters() []*anydiff.Var {
	return anynet.AllParameters(a.Trunk, a.PolicyHead, a.AuxHead, a.Critic)
}

// Children returns the agent's networks, making the
// agent a ppgagent.Container.
func (a *Agent) Children() []interface{} {
	return []interface{}{a.Trunk, a.PolicyHead, a.AuxHead, a.Critic}
}

// Policy applies the policy network to a batch of
// observations.
func (a *Agent) Policy(obs anydiff.Res, batch int) *ppgagent.Categorical {
	return &ppgagent.Categorical{
		Logits: a.PolicyHead.Apply(a.Trunk.Apply(obs, batch), batch),
		Batch:  batch,
	}
}

// PolicyAndAux applies the policy network and also
// computes the auxiliary value predictions.
func (a *Agent) PolicyAndAux(obs anydiff.Res, batch int) (*ppgagent.Categorical,
	anydiff.Res) {
	features := a.Trunk.Apply(obs, batch)
	dist := &ppgagent.Categorical{
		Logits: a.PolicyHead.Apply(features, batch),
		Batch:  batch,
	}
	return dist, a.AuxHead.Apply(features, batch)
}

// Values applies the critic to a batch of observations.
func (a *Agent) Values(obs anydiff.Res, batch int) anydiff.Res {
	return a.Critic.Apply(obs, batch)
}

// Copy produces a deep copy of the agent.
func (a *Agent) Copy() (*Agent, error) {
	res := &Agent{NumActions: a.NumActions}
	srcNets := []anynet.Net{a.Trunk, a.PolicyHead, a.AuxHead, a.Critic}
	dstNets := []*anynet.Net{&res.Trunk, &res.PolicyHead, &res.AuxHead, &res.Critic}
	for i, src := range srcNets {
		copied, err := serializer.Copy(src)
		if err != nil {
			name := []string{"trunk", "policy head", "aux head", "critic"}
			return nil, essentials.AddCtx("copy agent "+name[i], err)
		}
		*dstNets[i] = copied.(anynet.Net)
	}
	return res, nil
}

// Save saves the agent to a file.
func (a *Agent) Save(path string) error {
	return serializer.SaveAny(path, a.Trunk, a.PolicyHead, a.AuxHead, a.Critic,
		serializer.Int(a.NumActions))
}

// LoadAgent loads an agent saved with Save.
func LoadAgent(path string) (res *Agent, err error) {
	defer essentials.AddCtxTo("load agent", &err)
	var numActions serializer.Int
	res = &Agent{}
	err = serializer.LoadAny(path, &res.Trunk, &res.PolicyHead, &res.AuxHead,
		&res.Critic, &numActions)
	if err != nil {
		return nil, err
	}
	res.NumActions = int(numActions)
	return res, nil
}

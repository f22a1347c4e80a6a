package experiments

import (
	"flag"
	"runtime"

	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/ppgagent"
)

// EnvFlags holds parameters for creating environments.
type EnvFlags struct {
	// MaxSteps is the episode time limit.
	MaxSteps int

	// NumParallel is the number of environments to run
	// at once.
	NumParallel int
}

// AddFlags adds the options to the flag package's global
// set of flags.
func (e *EnvFlags) AddFlags() {
	flag.IntVar(&e.MaxSteps, "maxsteps", DefaultCartPoleMaxSteps, "episode time limit")
	flag.IntVar(&e.NumParallel, "numparallel", runtime.GOMAXPROCS(0),
		"parallel environments")
}

// MakeEnvs creates the CartPole environments.
func (e *EnvFlags) MakeEnvs(c anyvec.Creator) []Env {
	res := make([]Env, e.NumParallel)
	for i := range res {
		res[i] = NewCartPole(c, e.MaxSteps)
	}
	return res
}

// HyperFlags holds the hyper-parameters of phasic policy
// gradient training.
type HyperFlags struct {
	Hidden   int
	Residual int

	StepsPerBatch int
	Minibatch     int
	PolicyEpochs  int
	AuxEvery      int
	AuxEpochs     int

	StepSize      float64
	Discount      float64
	Lambda        float64
	ActorEpsilon  float64
	CriticEpsilon float64
	NormalizeAdvs bool

	EntropyReg    float64
	KLReg         float64
	SpectralReg   float64
	SpectralEvery int
	OrthoReg      float64
}

// AddFlags adds the options to the flag package's global
// set of flags.
func (h *HyperFlags) AddFlags() {
	flag.IntVar(&h.Hidden, "hidden", 64, "hidden layer size")
	flag.IntVar(&h.Residual, "residual", 2, "residual layers per block")
	flag.IntVar(&h.StepsPerBatch, "batch", 2048, "steps per batch of experience")
	flag.IntVar(&h.Minibatch, "minibatch", 256, "samples per minibatch")
	flag.IntVar(&h.PolicyEpochs, "epochs", 4, "policy phase epochs per batch")
	flag.IntVar(&h.AuxEvery, "auxevery", 8, "batches per auxiliary phase")
	flag.IntVar(&h.AuxEpochs, "auxepochs", 6, "auxiliary phase epochs")
	flag.Float64Var(&h.StepSize, "step", 3e-4, "Adam step size")
	flag.Float64Var(&h.Discount, "discount", ppgagent.DefaultDiscount, "discount factor")
	flag.Float64Var(&h.Lambda, "lambda", ppgagent.DefaultLambda, "GAE coefficient")
	flag.Float64Var(&h.ActorEpsilon, "epsilon", ppgagent.DefaultActorEpsilon,
		"PPO ratio clipping range")
	flag.Float64Var(&h.CriticEpsilon, "valepsilon", ppgagent.DefaultCriticEpsilon,
		"value clipping range")
	flag.BoolVar(&h.NormalizeAdvs, "normalize", true, "normalize minibatch advantages")
	flag.Float64Var(&h.EntropyReg, "reg", ppgagent.DefaultEntropyWeight,
		"entropy regularization coefficient")
	flag.Float64Var(&h.KLReg, "klreg", ppgagent.DefaultKLWeight,
		"auxiliary KL coefficient")
	flag.Float64Var(&h.SpectralReg, "spectral", ppgagent.DefaultSpectralWeight,
		"spectral entropy coefficient")
	flag.IntVar(&h.SpectralEvery, "spectralevery", ppgagent.DefaultSpectralUpdateEvery,
		"policy steps per spectral entropy update")
	flag.Float64Var(&h.OrthoReg, "ortho", 1e-3, "orthogonality coefficient")
}

// NewAgent creates an agent for CartPole.
func (h *HyperFlags) NewAgent(c anyvec.Creator) *Agent {
	return NewAgent(c, CartPoleObsSize, CartPoleNumActions, h.Hidden, h.Residual)
}

// PPG creates a trainer for the agent.
func (h *HyperFlags) PPG(c anyvec.Creator, agent *Agent) *PPG {
	return &PPG{
		Creator: c,
		Agent:   agent,
		Judger: &ppgagent.Judger{
			Discount: h.Discount,
			Lambda:   h.Lambda,
		},
		Actor:  ppgagent.ClipActorLoss{Epsilon: h.ActorEpsilon},
		Critic: ppgagent.ClipCriticLoss{Epsilon: h.CriticEpsilon},
		Entropy: ppgagent.EntropyLoss{
			Weight: h.EntropyReg,
		},
		KL: ppgagent.KLDivLoss{
			Weight: h.KLReg,
		},
		Spectral: ppgagent.SpectralEntropyLoss{
			Weight:      h.SpectralReg,
			UpdateEvery: h.SpectralEvery,
		},
		OrthoWeight:   h.OrthoReg,
		NormalizeAdvs: h.NormalizeAdvs,
		Minibatch:     h.Minibatch,
		PolicyEpochs:  h.PolicyEpochs,
		AuxEpochs:     h.AuxEpochs,
		StepSize:      h.StepSize,
		PolicyOpt:     &anysgd.Adam{},
		AuxOpt:        &anysgd.Adam{},
	}
}

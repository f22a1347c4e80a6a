// Trains a phasic policy gradient agent on an in-process
// CartPole environment.

package main

import (
	"flag"
	"log"
	"os"

	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/ppgagent"
	"github.com/unixpickle/ppgagent/experiments"
)

type Flags struct {
	EnvFlags   experiments.EnvFlags
	HyperFlags experiments.HyperFlags

	NumBatches int
	AgentFile  string
}

func main() {
	flags := &Flags{}
	flags.EnvFlags.AddFlags()
	flags.HyperFlags.AddFlags()
	flag.IntVar(&flags.NumBatches, "batches", 500, "number of batches to train on")
	flag.StringVar(&flags.AgentFile, "agent", "agent_out", "file for saved agent")
	flag.Parse()

	log.Println("Run with arguments:", os.Args[1:])

	creator := anyvec64.DefaultCreator{}

	log.Println("Creating environments...")
	envs := flags.EnvFlags.MakeEnvs(creator)
	defer experiments.CloseEnvs(envs)

	agent := loadOrCreateAgent(flags, creator)
	trainer := flags.HyperFlags.PPG(creator, agent)

	var auxRecords []*ppgagent.AuxTransition
	for batchIdx := 0; batchIdx < flags.NumBatches; batchIdx++ {
		log.Println("Gathering batch of experience...")
		episodes, err := experiments.GatherEpisodes(agent, envs,
			flags.HyperFlags.StepsPerBatch)
		if err != nil {
			essentials.Die(err)
		}

		dataset, stats, err := trainer.PolicyPhase(episodes)
		if err != nil {
			essentials.Die(err)
		}
		log.Printf("batch %d: mean=%f count=%d frames=%d actor=%f critic=%f "+
			"entropy=%f spectral=%f ortho=%f clipped=%f",
			batchIdx, experiments.MeanReward(episodes), len(episodes), dataset.Len(),
			stats.Actor, stats.Critic, stats.Entropy, stats.Spectral, stats.Ortho,
			stats.ClipFrac)

		auxRecords = append(auxRecords, dataset.AuxTransitions()...)
		if flags.HyperFlags.AuxEvery > 0 && (batchIdx+1)%flags.HyperFlags.AuxEvery == 0 {
			log.Printf("Running auxiliary phase on %d records...", len(auxRecords))
			auxStats, err := trainer.AuxPhase(auxRecords)
			if err != nil {
				essentials.Die(err)
			}
			log.Printf("aux: value=%f aux_head=%f kl=%f", auxStats.Value,
				auxStats.AuxHead, auxStats.KL)
			auxRecords = nil
		}

		if err := agent.Save(flags.AgentFile); err != nil {
			essentials.Die(err)
		}
	}
}

func loadOrCreateAgent(flags *Flags, creator anyvec64.DefaultCreator) *experiments.Agent {
	agent, err := experiments.LoadAgent(flags.AgentFile)
	if err != nil {
		log.Println("Creating new agent:", flags.AgentFile)
		return flags.HyperFlags.NewAgent(creator)
	}
	log.Println("Loaded agent from:", flags.AgentFile)
	return agent
}

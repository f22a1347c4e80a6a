package experiments

import (
	"sync"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/ppgagent"
)

// Rollout runs the agent through one episode.
//
// Every transition records the sampled one-hot action,
// its log-probability, and the critic's value estimate.
func (a *Agent) Rollout(env Env) (ppgagent.Episode, error) {
	obs, err := env.Reset()
	if err != nil {
		return nil, essentials.AddCtx("rollout", err)
	}
	var res ppgagent.Episode
	for {
		in := anydiff.NewConst(obs)
		dist := a.Policy(in, 1)
		action := dist.Sample()
		value := a.Values(in, 1).Output()

		nextObs, reward, done, err := env.Step(anyvec.MaxIndex(action))
		if err != nil {
			return nil, essentials.AddCtx("rollout", err)
		}
		res = append(res, &ppgagent.Transition{
			State:         obs,
			Action:        action,
			ActionLogProb: dist.LogProb(action).Output(),
			Reward:        reward,
			Done:          done,
			Value:         scalarValue(value),
		})
		if done {
			return res, nil
		}
		obs = nextObs
	}
}

// GatherEpisodes produces a batch of episodes by running
// the environments in parallel.
//
// The steps argument specifies the minimum number of
// timesteps in the resulting batch of episodes.
func GatherEpisodes(agent *Agent, envs []Env, steps int) ([]ppgagent.Episode, error) {
	resChan := make(chan ppgagent.Episode, 1)
	errChan := make(chan error, 1)
	requests := make(chan struct{}, len(envs))
	for i := 0; i < len(envs); i++ {
		requests <- struct{}{}
	}

	var wg sync.WaitGroup
	for _, env := range envs {
		wg.Add(1)
		go func(env Env) {
			defer wg.Done()
			for range requests {
				episode, err := agent.Rollout(env)
				if err != nil {
					select {
					case errChan <- err:
					default:
					}
					return
				}
				resChan <- episode
			}
		}(env)
	}

	go func() {
		wg.Wait()
		close(resChan)
		close(errChan)
	}()

	var res []ppgagent.Episode
	var totalSteps int
	requestsOpen := true
	for episode := range resChan {
		res = append(res, episode)
		totalSteps += len(episode)
		if requestsOpen {
			if totalSteps < steps {
				requests <- struct{}{}
			} else {
				close(requests)
				requestsOpen = false
			}
		}
	}
	if requestsOpen {
		close(requests)
	}
	return res, <-errChan
}

// MeanReward computes the mean total reward of the
// episodes.
func MeanReward(episodes []ppgagent.Episode) float64 {
	if len(episodes) == 0 {
		return 0
	}
	var sum float64
	for _, e := range episodes {
		sum += e.TotalReward()
	}
	return sum / float64(len(episodes))
}

func scalarValue(v anyvec.Vector) float64 {
	switch x := anyvec.Sum(v).(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	default:
		panic("unsupported numeric type")
	}
}

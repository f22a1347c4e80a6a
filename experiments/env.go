package experiments

import (
	"io"

	"github.com/unixpickle/anyvec"
)

// Env is an episodic environment with a discrete action
// space and a Close() method for releasing the
// environment's resources.
type Env interface {
	io.Closer

	// Reset starts a new episode and returns the first
	// observation.
	Reset() (anyvec.Vector, error)

	// Step takes an action and returns the next
	// observation, the reward, and whether or not the
	// episode is over.
	Step(action int) (obs anyvec.Vector, reward float64, done bool, err error)
}

// CloseEnvs closes every environment in the list.
func CloseEnvs(envs []Env) {
	for _, e := range envs {
		e.Close()
	}
}

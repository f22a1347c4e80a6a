package experiments

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anyvec"
)

const (
	cartPoleGravity    = 9.81
	cartPoleMassCart   = 1.0
	cartPoleMassPole   = 0.1
	cartPoleLength     = 0.5
	cartPoleForce      = 10.0
	cartPoleTau        = 0.02
	cartPoleXThreshold = 2.4

	cartPoleTotalMass      = cartPoleMassCart + cartPoleMassPole
	cartPolePoleMassLength = cartPoleMassPole * cartPoleLength
	cartPoleThetaThreshold = 12.0 * math.Pi / 180.0
)

const (
	CartPoleObsSize    = 4
	CartPoleNumActions = 2

	DefaultCartPoleMaxSteps = 500
)

// CartPole is an in-process cart-pole balancing task.
//
// Observations are [x, xDot, theta, thetaDot].
// Action 0 pushes the cart left and action 1 pushes it
// right.
// Every step yields a reward of 1, except for the step
// which knocks the pole over or pushes the cart out of
// bounds.
type CartPole struct {
	Creator anyvec.Creator

	// MaxSteps is the episode time limit.
	//
	// If 0, DefaultCartPoleMaxSteps is used.
	MaxSteps int

	// Rand is the source of initial states.
	// If nil, the global source is used.
	Rand *rand.Rand

	state [4]float64
	steps int
}

// NewCartPole creates a CartPole with its own random
// source.
func NewCartPole(c anyvec.Creator, maxSteps int) *CartPole {
	return &CartPole{
		Creator:  c,
		MaxSteps: maxSteps,
		Rand:     rand.New(rand.NewSource(rand.Int63())),
	}
}

// Reset starts a new episode near the upright position.
func (c *CartPole) Reset() (anyvec.Vector, error) {
	for i := range c.state {
		c.state[i] = c.uniform()*0.1 - 0.05
	}
	c.steps = 0
	return c.obs(), nil
}

// Step applies a force to the cart.
func (c *CartPole) Step(action int) (anyvec.Vector, float64, bool, error) {
	force := cartPoleForce
	if action == 0 {
		force = -cartPoleForce
	}
	x, xDot, theta, thetaDot := c.state[0], c.state[1], c.state[2], c.state[3]

	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)
	temp := (force + cartPolePoleMassLength*thetaDot*thetaDot*sinTheta) /
		cartPoleTotalMass
	thetaAcc := (cartPoleGravity*sinTheta - cosTheta*temp) /
		(cartPoleLength * (4.0/3.0 - cartPoleMassPole*cosTheta*cosTheta/cartPoleTotalMass))
	xAcc := temp - cartPolePoleMassLength*thetaAcc*cosTheta/cartPoleTotalMass

	c.state = [4]float64{
		x + cartPoleTau*xDot,
		xDot + cartPoleTau*xAcc,
		theta + cartPoleTau*thetaDot,
		thetaDot + cartPoleTau*thetaAcc,
	}
	c.steps++

	failed := math.Abs(c.state[0]) > cartPoleXThreshold ||
		math.Abs(c.state[2]) > cartPoleThetaThreshold
	reward := 1.0
	if failed {
		reward = 0
	}
	return c.obs(), reward, failed || c.steps >= c.maxSteps(), nil
}

// Close does nothing.
func (c *CartPole) Close() error {
	return nil
}

func (c *CartPole) obs() anyvec.Vector {
	return c.Creator.MakeVectorData(c.Creator.MakeNumericList(c.state[:]))
}

func (c *CartPole) uniform() float64 {
	if c.Rand == nil {
		return rand.Float64()
	}
	return c.Rand.Float64()
}

func (c *CartPole) maxSteps() int {
	if c.MaxSteps == 0 {
		return DefaultCartPoleMaxSteps
	}
	return c.MaxSteps
}

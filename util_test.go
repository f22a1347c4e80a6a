package ppgagent

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

const (
	gradDelta = 1e-5
	gradPrec  = 1e-4
)

func testVec(vals ...float64) anyvec.Vector {
	c := anyvec64.DefaultCreator{}
	return c.MakeVectorData(c.MakeNumericList(vals))
}

func testVar(vals ...float64) *anydiff.Var {
	return anydiff.NewVar(testVec(vals...))
}

func testConst(vals ...float64) anydiff.Res {
	return anydiff.NewConst(testVec(vals...))
}

func assertClose(t *testing.T, name string, expected, actual float64) {
	t.Helper()
	if math.IsNaN(actual) || math.Abs(actual-expected) > 1e-5 {
		t.Errorf("%s: expected %f but got %f", name, expected, actual)
	}
}

func assertAllClose(t *testing.T, name string, expected, actual []float64) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("%s: expected %d values but got %d", name, len(expected), len(actual))
	}
	for i, x := range expected {
		if math.IsNaN(actual[i]) || math.Abs(actual[i]-x) > 1e-5 {
			t.Errorf("%s %d: expected %f but got %f", name, i, x, actual[i])
		}
	}
}

// checkGradient compares the gradient of the sum of f's
// output against central differences.
func checkGradient(t *testing.T, f func() anydiff.Res, vars ...*anydiff.Var) {
	t.Helper()
	c := anyvec64.DefaultCreator{}
	grad := Backward(anydiff.Sum(f()), vars)
	for varIdx, v := range vars {
		actual := append([]float64{}, vecToFloats(grad[v])...)
		vals := append([]float64{}, vecToFloats(v.Vector)...)
		for i, orig := range vals {
			vals[i] = orig + gradDelta
			v.Vector.SetData(c.MakeNumericList(vals))
			plus := LossValue(anydiff.Sum(f()))
			vals[i] = orig - gradDelta
			v.Vector.SetData(c.MakeNumericList(vals))
			minus := LossValue(anydiff.Sum(f()))
			vals[i] = orig
			v.Vector.SetData(c.MakeNumericList(vals))

			expected := (plus - minus) / (2 * gradDelta)
			if math.Abs(expected-actual[i]) > gradPrec {
				t.Errorf("var %d component %d: expected gradient %f but got %f",
					varIdx, i, expected, actual[i])
			}
		}
	}
}

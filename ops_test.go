package ppgagent

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
)

func TestClamp(t *testing.T) {
	v := testVar(-2, 0.3, 0.7, 2)
	assertAllClose(t, "output", []float64{0, 0.3, 0.7, 1},
		vecToFloats(clamp(v, 0, 1).Output()))
	checkGradient(t, func() anydiff.Res {
		return anydiff.Mul(clamp(v, 0, 1), testConst(1, 2, 3, 4))
	}, v)
}

func TestMinMax(t *testing.T) {
	v1 := testVar(1, -2, 3, 0.5)
	v2 := testVar(0.5, 1, 4, -3)
	assertAllClose(t, "minimum", []float64{0.5, -2, 3, -3},
		vecToFloats(minimum(v1, v2).Output()))
	assertAllClose(t, "maximum", []float64{1, 1, 4, 0.5},
		vecToFloats(maximum(v1, v2).Output()))
	weights := testConst(1, -2, 3, 0.5)
	checkGradient(t, func() anydiff.Res {
		return anydiff.Mul(minimum(v1, v2), weights)
	}, v1, v2)
	checkGradient(t, func() anydiff.Res {
		return anydiff.Mul(maximum(v1, v2), weights)
	}, v1, v2)
}

func TestMinMaxTies(t *testing.T) {
	v1 := testVar(1, 2)
	v2 := testVar(1, 2)
	for _, f := range []func(anydiff.Res, anydiff.Res) anydiff.Res{minimum, maximum} {
		grad := Backward(anydiff.Sum(f(v1, v2)), []*anydiff.Var{v1, v2})
		assertAllClose(t, "first grad", []float64{1, 1}, vecToFloats(grad[v1]))
		assertAllClose(t, "second grad", []float64{0, 0}, vecToFloats(grad[v2]))
	}
}

func TestFloorLog(t *testing.T) {
	v := testVar(0.5, 2, 0, 1e-20)
	actual := vecToFloats(floorLog(v, 1e-10).Output())
	assertAllClose(t, "output", []float64{math.Log(0.5), math.Log(2), math.Log(1e-10),
		math.Log(1e-10)}, actual)

	grad := Backward(anydiff.Sum(floorLog(v, 1e-10)), []*anydiff.Var{v})
	assertAllClose(t, "gradient", []float64{2, 0.5, 0, 0}, vecToFloats(grad[v]))
}

func TestRepeatEach(t *testing.T) {
	v := testVar(1, 2, 3)
	assertAllClose(t, "output", []float64{1, 1, 2, 2, 3, 3},
		vecToFloats(repeatEach(v, 2).Output()))
	checkGradient(t, func() anydiff.Res {
		return anydiff.Mul(repeatEach(v, 2), testConst(1, 2, 3, 4, 5, 6))
	}, v)
}

func TestChunkSums(t *testing.T) {
	v := testVar(1, 2, 3, 4, 5, 6)
	assertAllClose(t, "output", []float64{6, 15}, vecToFloats(chunkSums(v, 3).Output()))
	checkGradient(t, func() anydiff.Res {
		return anydiff.Mul(chunkSums(v, 3), testConst(2, -1))
	}, v)
}

func TestMean(t *testing.T) {
	assertClose(t, "mean", 2.5, LossValue(mean(testConst(1, 2, 3, 4))))
	assertClose(t, "empty mean", 0, LossValue(mean(testConst())))
}

func TestSumLosses(t *testing.T) {
	v := testVar(2)
	loss := SumLosses(nil, anydiff.Mul(v, v), nil, anydiff.Scale(v,
		v.Vector.Creator().MakeNumeric(3)))
	assertClose(t, "loss", 10, LossValue(loss))
	grad := Backward(loss, []*anydiff.Var{v})
	assertClose(t, "gradient", 7, vecToFloats(grad[v])[0])
}

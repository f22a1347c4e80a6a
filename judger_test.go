package ppgagent

import (
	"math"
	"testing"
)

func testEpisode(rewards, values []float64, done []bool) Episode {
	var res Episode
	for i, r := range rewards {
		res = append(res, &Transition{
			State:         testVec(float64(i), 1),
			Action:        testVec(1, 0),
			ActionLogProb: testVec(-0.5),
			Reward:        r,
			Done:          done[i],
			Value:         values[i],
		})
	}
	return res
}

func TestAdvantagesTwoSteps(t *testing.T) {
	ep := testEpisode([]float64{1, 1}, []float64{0.5, 0}, []bool{false, true})
	advs := DefaultJudger().Advantages(ep)
	assertAllClose(t, "advantage", []float64{1.4405, 1.0}, advs)
}

func TestAdvantagesSingleStep(t *testing.T) {
	j := &Judger{Discount: 0.9, Lambda: 0.5}
	for _, done := range []bool{false, true} {
		ep := testEpisode([]float64{2.5}, []float64{0.75}, []bool{done})
		advs := j.Advantages(ep)
		assertAllClose(t, "advantage", []float64{1.75}, advs)
	}
}

func TestAdvantagesEmpty(t *testing.T) {
	advs := DefaultJudger().Advantages(nil)
	if advs == nil || len(advs) != 0 {
		t.Errorf("expected empty slice but got %v", advs)
	}
}

func TestAdvantagesTraceSum(t *testing.T) {
	rewards := []float64{1, -2, 0.5, 3, 0}
	values := []float64{0.3, -1, 2, 0.1, 0.7}
	done := []bool{false, false, false, false, true}
	j := &Judger{Discount: 0.8, Lambda: 0.7}
	actual := j.Advantages(testEpisode(rewards, values, done))

	deltas := make([]float64, len(rewards))
	for i := range rewards {
		var next float64
		if i+1 < len(values) {
			next = values[i+1]
		}
		deltas[i] = rewards[i] + j.Discount*next - values[i]
	}
	for i := range rewards {
		var expected float64
		for k := i; k < len(deltas); k++ {
			expected += math.Pow(j.Discount*j.Lambda, float64(k-i)) * deltas[k]
		}
		assertClose(t, "advantage", expected, actual[i])
	}
}

func TestAdvantagesDoneCutsTrace(t *testing.T) {
	ep := testEpisode([]float64{1, 2, 3}, []float64{0, 0, 0}, []bool{false, true, false})
	advs := (&Judger{Discount: 1, Lambda: 1}).Advantages(ep)
	assertAllClose(t, "advantage", []float64{3, 2, 3}, advs)
}

func TestReturns(t *testing.T) {
	actual, err := Returns([]float64{1, 2, -3}, []float64{0.5, -1, 4})
	if err != nil {
		t.Fatal(err)
	}
	assertAllClose(t, "return", []float64{1.5, 1, 1}, actual)

	empty, err := Returns(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no returns but got %v", empty)
	}
}

func TestReturnsMismatch(t *testing.T) {
	_, err := Returns([]float64{1, 2}, []float64{1})
	if err == nil {
		t.Fatal("expected error")
	}
	if shapeErr, ok := err.(*ShapeError); !ok {
		t.Errorf("unexpected error type: %T", err)
	} else if shapeErr.Expected != 2 || shapeErr.Actual != 1 {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNormalizeAdvantages(t *testing.T) {
	advs := []float64{1, 2, 3, 4}
	normed := NormalizeAdvantages(advs)
	var sum, sqSum float64
	for _, x := range normed {
		sum += x
		sqSum += x * x
	}
	assertClose(t, "mean", 0, sum/4)
	assertClose(t, "variance", 1, sqSum/3)
	assertAllClose(t, "original", []float64{1, 2, 3, 4}, advs)

	assertAllClose(t, "single", []float64{0}, NormalizeAdvantages([]float64{3}))
}

package ppgagent

import (
	"math"
	"testing"
)

func TestEntropyLossUniform(t *testing.T) {
	dist := &Categorical{Logits: testConst(0, 0, 0, 0, 1, 1, 1, 1), Batch: 2}
	loss := NewEntropyLoss().Loss(dist)
	assertClose(t, "loss", -DefaultEntropyWeight*math.Log(4), LossValue(loss))
}

func TestEntropyLossGaussian(t *testing.T) {
	dist := &Gaussian{Mean: testConst(0, 1, 2, 3), LogStd: testConst(0, 1), Batch: 2}
	loss := (&EntropyLoss{Weight: 1}).Loss(dist)
	expected := -(0.5 + 0.5*math.Log(2*math.Pi) + 0.5)
	assertClose(t, "loss", expected, LossValue(loss))
}

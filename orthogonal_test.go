package ppgagent

import (
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestRowOrthogonality(t *testing.T) {
	identical := testConst(1, 2, 3, 1, 2, 3, 2, 4, 6)
	assertClose(t, "identical", 1, LossValue(rowOrthogonality(identical, 3, 3, false)))

	orthonormal := testConst(1, 0, 0, 0, 0, 2, 0, 3, 0)
	assertClose(t, "orthogonal", 0, LossValue(rowOrthogonality(orthonormal, 3, 3, false)))

	opposite := testConst(1, 1, -1, -1)
	assertClose(t, "opposite", -1, LossValue(rowOrthogonality(opposite, 2, 2, false)))

	single := testConst(1, 2, 3)
	assertClose(t, "single row", 0, LossValue(rowOrthogonality(single, 1, 3, false)))

	// Transposing turns columns into rows.
	cols := testConst(1, 1, 0, 0, 0, 0)
	assertClose(t, "transpose", 1, LossValue(rowOrthogonality(cols, 3, 2, true)))
	assertClose(t, "no transpose", 0, LossValue(rowOrthogonality(cols, 3, 2, false)))
}

func TestRowOrthogonalityGradient(t *testing.T) {
	v := testVar(0.5, -1, 0.3, 0.2, 0.9, -0.7)
	for _, transpose := range []bool{false, true} {
		checkGradient(t, func() anydiff.Res {
			return rowOrthogonality(v, 2, 3, transpose)
		}, v)
		checkGradient(t, func() anydiff.Res {
			return rowOrthogonality(v, 3, 2, transpose)
		}, v)
	}
}

func TestOrthogonalLoss(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	block := NewResidualBlock(c, "simba", 2, 3, 1)
	branch := block.Branches()[0]
	fcIn := branch[1].(*anynet.FC)
	fcOut := branch[3].(*anynet.FC)

	// The transposed input weights have orthonormal rows.
	fcIn.Weights.Vector.SetData(c.MakeNumericList([]float64{1, 0, 0, 1, 0, 0}))
	// The output weights have identical rows.
	fcOut.Weights.Vector.SetData(c.MakeNumericList([]float64{1, 2, 3, 1, 2, 3}))

	model := anynet.Net{anynet.NewFC(c, 4, 2), block}
	loss, err := OrthogonalLoss(c, model, "simba")
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "loss", 1, LossValue(loss))

	loss, err = OrthogonalLoss(c, model, "other")
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "untagged", 0, LossValue(loss))
}

func TestOrthogonalLossGradient(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	block := NewResidualBlock(c, "simba", 3, 4, 2)
	vars := AllVars(ShapedParams(block))
	checkGradient(t, func() anydiff.Res {
		loss, err := OrthogonalLoss(c, block, "simba")
		if err != nil {
			t.Fatal(err)
		}
		return loss
	}, vars...)
}

type badBlock struct{}

func (b badBlock) BlockTag() string {
	return "simba"
}

func (b badBlock) Branches() []anynet.Net {
	c := anyvec64.DefaultCreator{}
	return []anynet.Net{{anynet.Tanh, anynet.NewFC(c, 2, 2), anynet.ReLU, anynet.Tanh}}
}

func TestOrthogonalLossBadBranch(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	if _, err := OrthogonalLoss(c, badBlock{}, "simba"); err == nil {
		t.Error("expected error")
	}
	if _, err := OrthogonalLoss(c, badBlock{}, "other"); err != nil {
		t.Error(err)
	}
}

func TestOrthogonalLossSharedBlock(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	block := NewResidualBlock(c, "simba", 3, 4, 2)
	single, err := OrthogonalLoss(c, block, "simba")
	if err != nil {
		t.Fatal(err)
	}
	shared, err := OrthogonalLoss(c, anynet.Net{block, anynet.Tanh, block}, "simba")
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "loss", LossValue(single), LossValue(shared))
}

package ppgagent

import (
	"reflect"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec/anyvec64"
)

type shapedLayer struct {
	Kernel *anydiff.Var
}

func (s *shapedLayer) Apply(in anydiff.Res, n int) anydiff.Res {
	return in
}

func (s *shapedLayer) ShapedParams() []*Param {
	return []*Param{{Var: s.Kernel, Shape: []int{2, 3, 2}}}
}

func TestShapedParams(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	fc := anynet.NewFC(c, 3, 4)
	block := NewResidualBlock(c, "block", 4, 5, 2)
	custom := &shapedLayer{Kernel: anydiff.NewVar(c.MakeVector(12))}
	net := anynet.Net{fc, anynet.Tanh, block, custom}

	params := ShapedParams(net, fc)
	expectedShapes := [][]int{
		{4, 3}, {4},
		{5, 4}, {5}, {4, 5}, {4},
		{5, 4}, {5}, {4, 5}, {4},
		{2, 3, 2},
	}
	if len(params) != len(expectedShapes) {
		t.Fatalf("expected %d params but got %d", len(expectedShapes), len(params))
	}
	for i, shape := range expectedShapes {
		if !reflect.DeepEqual(params[i].Shape, shape) {
			t.Errorf("param %d: expected shape %v but got %v", i, shape, params[i].Shape)
		}
		if params[i].NumElems() != params[i].Var.Vector.Len() {
			t.Errorf("param %d: shape %v does not match size %d", i, params[i].Shape,
				params[i].Var.Vector.Len())
		}
	}
	if params[0].Var != fc.Weights || params[1].Var != fc.Biases {
		t.Error("unexpected FC variables")
	}
	if params[10].Var != custom.Kernel {
		t.Error("unexpected custom variable")
	}
	if len(AllVars(params)) != len(params) {
		t.Error("bad variable count")
	}
}

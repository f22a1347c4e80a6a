package ppgagent

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
)

// A Param is a trainable variable along with the shape of
// the tensor it stores.
//
// The variable's components are stored in row-major
// order, so the last dimension varies fastest.
type Param struct {
	Var   *anydiff.Var
	Shape []int
}

// NumElems returns the product of the shape.
func (p *Param) NumElems() int {
	res := 1
	for _, x := range p.Shape {
		res *= x
	}
	return res
}

// A ShapedParameterizer is anything that knows the shapes
// of its own parameters.
type ShapedParameterizer interface {
	ShapedParams() []*Param
}

// A Container is a network component made up of other
// components, which may themselves be layers, blocks, or
// containers.
type Container interface {
	Children() []interface{}
}

// ShapedParams finds every parameter in the objects,
// recursing into anynet.Nets and Containers.
//
// Fully-connected layers report their weights as
// OutCount x InCount matrices.
// Parameters from plain anynet.Parameterizers are treated
// as 1-D.
//
// Each variable is reported once, in the order in which
// it is first encountered.
func ShapedParams(objs ...interface{}) []*Param {
	seen := map[*anydiff.Var]bool{}
	var res []*Param
	add := func(p *Param) {
		if p.Var == nil || seen[p.Var] {
			return
		}
		seen[p.Var] = true
		res = append(res, p)
	}

	var walk func(obj interface{})
	walk = func(obj interface{}) {
		switch obj := obj.(type) {
		case ShapedParameterizer:
			for _, p := range obj.ShapedParams() {
				add(p)
			}
		case *anynet.FC:
			add(&Param{Var: obj.Weights, Shape: []int{obj.OutCount, obj.InCount}})
			add(&Param{Var: obj.Biases, Shape: []int{obj.OutCount}})
		case anynet.Net:
			for _, layer := range obj {
				walk(layer)
			}
		case Container:
			for _, child := range obj.Children() {
				walk(child)
			}
		case anynet.Parameterizer:
			for _, v := range obj.Parameters() {
				add(&Param{Var: v, Shape: []int{v.Vector.Len()}})
			}
		}
	}

	for _, obj := range objs {
		walk(obj)
	}
	return res
}

// AllVars extracts the variables from a list of Params.
func AllVars(params []*Param) []*anydiff.Var {
	res := make([]*anydiff.Var, len(params))
	for i, p := range params {
		res[i] = p.Var
	}
	return res
}

package ppgagent

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// elemRes is an elementwise function whose derivative was
// computed during the forward pass.
type elemRes struct {
	In     anydiff.Res
	OutVec anyvec.Vector
	Deriv  anyvec.Vector
}

func (e *elemRes) Output() anyvec.Vector {
	return e.OutVec
}

func (e *elemRes) Vars() anydiff.VarSet {
	return e.In.Vars()
}

func (e *elemRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	u.Mul(e.Deriv)
	e.In.Propagate(u, g)
}

// clamp clips every component to [min, max].
// Components outside of the range receive no gradient.
func clamp(in anydiff.Res, min, max float64) anydiff.Res {
	vals := vecToFloats(in.Output())
	out := make([]float64, len(vals))
	deriv := make([]float64, len(vals))
	for i, x := range vals {
		if x < min {
			out[i] = min
		} else if x > max {
			out[i] = max
		} else {
			out[i] = x
			deriv[i] = 1
		}
	}
	c := in.Output().Creator()
	return &elemRes{
		In:     in,
		OutVec: floatsToVec(c, out),
		Deriv:  floatsToVec(c, deriv),
	}
}

// floorLog computes log(max(x, eps)) for every component.
func floorLog(in anydiff.Res, eps float64) anydiff.Res {
	vals := vecToFloats(in.Output())
	out := make([]float64, len(vals))
	deriv := make([]float64, len(vals))
	for i, x := range vals {
		if x < eps {
			out[i] = math.Log(eps)
		} else {
			out[i] = math.Log(x)
			deriv[i] = 1 / x
		}
	}
	c := in.Output().Creator()
	return &elemRes{
		In:     in,
		OutVec: floatsToVec(c, out),
		Deriv:  floatsToVec(c, deriv),
	}
}

// selectRes picks every component from one of two inputs.
type selectRes struct {
	In1    anydiff.Res
	In2    anydiff.Res
	Mask1  anyvec.Vector
	Mask2  anyvec.Vector
	OutVec anyvec.Vector
	V      anydiff.VarSet
}

// minimum computes the elementwise minimum.
// Ties send the gradient to in1.
func minimum(in1, in2 anydiff.Res) anydiff.Res {
	return selectElems(in1, in2, func(x1, x2 float64) bool {
		return x1 <= x2
	})
}

// maximum computes the elementwise maximum.
// Ties send the gradient to in1.
func maximum(in1, in2 anydiff.Res) anydiff.Res {
	return selectElems(in1, in2, func(x1, x2 float64) bool {
		return x1 >= x2
	})
}

func selectElems(in1, in2 anydiff.Res, useFirst func(x1, x2 float64) bool) anydiff.Res {
	vals1 := vecToFloats(in1.Output())
	vals2 := vecToFloats(in2.Output())
	if len(vals1) != len(vals2) {
		panic("input sizes do not match")
	}
	out := make([]float64, len(vals1))
	mask1 := make([]float64, len(vals1))
	mask2 := make([]float64, len(vals1))
	for i, x1 := range vals1 {
		x2 := vals2[i]
		if useFirst(x1, x2) {
			out[i] = x1
			mask1[i] = 1
		} else {
			out[i] = x2
			mask2[i] = 1
		}
	}
	c := in1.Output().Creator()
	return &selectRes{
		In1:    in1,
		In2:    in2,
		Mask1:  floatsToVec(c, mask1),
		Mask2:  floatsToVec(c, mask2),
		OutVec: floatsToVec(c, out),
		V:      anydiff.MergeVarSets(in1.Vars(), in2.Vars()),
	}
}

func (s *selectRes) Output() anyvec.Vector {
	return s.OutVec
}

func (s *selectRes) Vars() anydiff.VarSet {
	return s.V
}

func (s *selectRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	u1 := u.Copy()
	u1.Mul(s.Mask1)
	s.In1.Propagate(u1, g)
	u.Mul(s.Mask2)
	s.In2.Propagate(u, g)
}

// repeatRes repeats every component of its input a fixed
// number of times in a row.
type repeatRes struct {
	In     anydiff.Res
	Count  int
	OutVec anyvec.Vector
}

// repeatEach turns [a, b] into [a, a, b, b] for count=2.
func repeatEach(in anydiff.Res, count int) anydiff.Res {
	if count == 1 {
		return in
	}
	vals := vecToFloats(in.Output())
	out := make([]float64, 0, len(vals)*count)
	for _, x := range vals {
		for i := 0; i < count; i++ {
			out = append(out, x)
		}
	}
	return &repeatRes{
		In:     in,
		Count:  count,
		OutVec: floatsToVec(in.Output().Creator(), out),
	}
}

func (r *repeatRes) Output() anyvec.Vector {
	return r.OutVec
}

func (r *repeatRes) Vars() anydiff.VarSet {
	return r.In.Vars()
}

func (r *repeatRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	r.In.Propagate(sumChunks(u, r.Count), g)
}

// chunkSumRes sums consecutive chunks of its input.
type chunkSumRes struct {
	In        anydiff.Res
	ChunkSize int
	OutVec    anyvec.Vector
}

// chunkSums turns [a, b, c, d] into [a+b, c+d] for a
// chunk size of 2.
func chunkSums(in anydiff.Res, chunkSize int) anydiff.Res {
	if in.Output().Len()%chunkSize != 0 {
		panic("chunk size must divide input size")
	}
	return &chunkSumRes{
		In:        in,
		ChunkSize: chunkSize,
		OutVec:    sumChunks(in.Output(), chunkSize),
	}
}

func (c *chunkSumRes) Output() anyvec.Vector {
	return c.OutVec
}

func (c *chunkSumRes) Vars() anydiff.VarSet {
	return c.In.Vars()
}

func (c *chunkSumRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	vals := vecToFloats(u)
	up := make([]float64, 0, len(vals)*c.ChunkSize)
	for _, x := range vals {
		for i := 0; i < c.ChunkSize; i++ {
			up = append(up, x)
		}
	}
	c.In.Propagate(floatsToVec(u.Creator(), up), g)
}

func sumChunks(v anyvec.Vector, chunkSize int) anyvec.Vector {
	vals := vecToFloats(v)
	res := make([]float64, len(vals)/chunkSize)
	for i, x := range vals {
		res[i/chunkSize] += x
	}
	return floatsToVec(v.Creator(), res)
}

// mean averages the components of r.
func mean(r anydiff.Res) anydiff.Res {
	c := r.Output().Creator()
	n := r.Output().Len()
	if n == 0 {
		return zeroScalar(c)
	}
	return anydiff.Scale(anydiff.Sum(r), c.MakeNumeric(1/float64(n)))
}

// zeroScalar is a constant 0 loss.
func zeroScalar(c anyvec.Creator) anydiff.Res {
	return anydiff.NewConst(c.MakeVector(1))
}

// constLike creates a constant with the same size as r
// where every component is x.
func constLike(r anydiff.Res, x float64) anydiff.Res {
	c := r.Output().Creator()
	v := c.MakeVector(r.Output().Len())
	v.AddScalar(c.MakeNumeric(x))
	return anydiff.NewConst(v)
}

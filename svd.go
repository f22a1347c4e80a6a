package ppgagent

import (
	"errors"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"gonum.org/v1/gonum/mat"
)

// svdRes computes the singular values of a batch of
// row-major matrices.
//
// The output is ordered by matrix, and the singular
// values of each matrix are in descending order.
type svdRes struct {
	In     anydiff.Res
	Rows   int
	Cols   int
	OutVec anyvec.Vector

	// Thin singular vectors for each matrix.
	us []*mat.Dense
	vs []*mat.Dense
}

// singularValues treats in as a batch of rows x cols
// matrices and computes their singular values.
//
// The gradient assumes distinct singular values, which
// holds for almost every weight matrix.
func singularValues(in anydiff.Res, rows, cols int) (anydiff.Res, error) {
	size := rows * cols
	if size == 0 || in.Output().Len()%size != 0 {
		return nil, &ShapeError{
			Name:     "singular values input",
			Expected: size,
			Actual:   in.Output().Len(),
		}
	}
	data := vecToFloats(in.Output())
	batch := len(data) / size

	res := &svdRes{In: in, Rows: rows, Cols: cols}
	var values []float64
	for i := 0; i < batch; i++ {
		m := mat.NewDense(rows, cols, append([]float64{}, data[i*size:(i+1)*size]...))
		var svd mat.SVD
		if !svd.Factorize(m, mat.SVDThin) {
			return nil, errors.New("singular values: factorization failed")
		}
		values = append(values, svd.Values(nil)...)
		var u, v mat.Dense
		svd.UTo(&u)
		svd.VTo(&v)
		res.us = append(res.us, &u)
		res.vs = append(res.vs, &v)
	}
	res.OutVec = floatsToVec(in.Output().Creator(), values)
	return res, nil
}

func (s *svdRes) Output() anyvec.Vector {
	return s.OutVec
}

func (s *svdRes) Vars() anydiff.VarSet {
	return s.In.Vars()
}

// Propagate uses dσ_k/dA = u_k v_kᵀ.
func (s *svdRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	upstream := vecToFloats(u)
	k := len(upstream) / len(s.us)
	size := s.Rows * s.Cols
	grad := make([]float64, len(s.us)*size)
	for b, left := range s.us {
		right := s.vs[b]
		scaled := mat.NewDense(s.Rows, k, nil)
		scaled.Apply(func(i, j int, x float64) float64 {
			return x * upstream[b*k+j]
		}, left)
		var prod mat.Dense
		prod.Mul(scaled, right.T())
		for i := 0; i < s.Rows; i++ {
			copy(grad[b*size+i*s.Cols:], prod.RawRowView(i))
		}
	}
	s.In.Propagate(floatsToVec(u.Creator(), grad), g)
}

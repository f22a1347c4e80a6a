package ppgagent

import (
	"fmt"
	"math"
	"reflect"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// normalizeEpsilon is the smallest norm used when
// normalizing weight rows.
const normalizeEpsilon = 1e-12

// Branch positions of the linear layers regularized by
// OrthogonalLoss.
const (
	orthoInLayer  = 1
	orthoOutLayer = 3
)

// OrthogonalLoss encourages the rows of the weight
// matrices inside tagged residual blocks to be
// orthogonal.
//
// The model is searched (through anynet.Nets and
// Containers) for every TaggedBlock whose tag matches.
// For each of the block's branches, the FC layer at
// index 1 contributes its transposed weight matrix and
// the FC layer at index 3 contributes its weight matrix.
// Each matrix's rows are L2-normalized, and the mean
// off-diagonal entry of the resulting cosine similarity
// matrix is added to the loss.
//
// An error is returned if a matching branch does not have
// FC layers at both positions.
func OrthogonalLoss(c anyvec.Creator, model interface{}, tag string) (anydiff.Res,
	error) {
	res := zeroScalar(c)
	for _, block := range taggedBlocks(model, tag) {
		for i, branch := range block.Branches() {
			fcIn, fcOut, err := orthoLayers(branch)
			if err != nil {
				return nil, essentials.AddCtx(fmt.Sprintf("orthogonal loss: branch %d", i),
					err)
			}
			res = anydiff.Add(res, rowOrthogonality(fcIn.Weights, fcIn.OutCount,
				fcIn.InCount, true))
			res = anydiff.Add(res, rowOrthogonality(fcOut.Weights, fcOut.OutCount,
				fcOut.InCount, false))
		}
	}
	return res, nil
}

func orthoLayers(branch anynet.Net) (in, out *anynet.FC, err error) {
	if len(branch) <= orthoOutLayer {
		return nil, nil, &ShapeError{
			Name:     "branch layers",
			Expected: orthoOutLayer + 1,
			Actual:   len(branch),
		}
	}
	var ok bool
	if in, ok = branch[orthoInLayer].(*anynet.FC); !ok {
		return nil, nil, fmt.Errorf("layer %d is %T, not *anynet.FC", orthoInLayer,
			branch[orthoInLayer])
	}
	if out, ok = branch[orthoOutLayer].(*anynet.FC); !ok {
		return nil, nil, fmt.Errorf("layer %d is %T, not *anynet.FC", orthoOutLayer,
			branch[orthoOutLayer])
	}
	return
}

// taggedBlocks finds every TaggedBlock with the given tag,
// in depth-first order.
//
// A block reachable through several paths is reported
// once.
func taggedBlocks(obj interface{}, tag string) []TaggedBlock {
	seen := map[TaggedBlock]bool{}
	var res []TaggedBlock
	var walk func(obj interface{})
	walk = func(obj interface{}) {
		if block, ok := obj.(TaggedBlock); ok && block.BlockTag() == tag {
			if !reflect.TypeOf(block).Comparable() {
				res = append(res, block)
			} else if !seen[block] {
				seen[block] = true
				res = append(res, block)
			}
		}
		switch obj := obj.(type) {
		case anynet.Net:
			for _, layer := range obj {
				walk(layer)
			}
		case Container:
			for _, child := range obj.Children() {
				walk(child)
			}
		}
	}
	walk(obj)
	return res
}

// orthoRes computes the mean off-diagonal cosine
// similarity between the rows of a matrix.
type orthoRes struct {
	In        anydiff.Res
	Rows      int
	Cols      int
	Transpose bool
	OutVec    anyvec.Vector

	// Rows of the (possibly transposed) matrix, their
	// normalized versions, and their clamped norms.
	raw    *mat.Dense
	normed *mat.Dense
	norms  []float64
}

// rowOrthogonality treats in as a row-major rows x cols
// matrix, optionally transposes it, and measures how far
// its rows are from being orthogonal.
func rowOrthogonality(in anydiff.Res, rows, cols int, transpose bool) anydiff.Res {
	data := vecToFloats(in.Output())
	if len(data) != rows*cols {
		panic("matrix size does not match input")
	}
	raw := mat.NewDense(rows, cols, append([]float64{}, data...))
	if transpose {
		var t mat.Dense
		t.CloneFrom(raw.T())
		raw = &t
	}
	m, d := raw.Dims()

	res := &orthoRes{
		In:        in,
		Rows:      rows,
		Cols:      cols,
		Transpose: transpose,
		raw:       raw,
		normed:    mat.NewDense(m, d, nil),
		norms:     make([]float64, m),
	}
	for i := 0; i < m; i++ {
		row := raw.RawRowView(i)
		norm := math.Max(floats.Norm(row, 2), normalizeEpsilon)
		res.norms[i] = norm
		normedRow := res.normed.RawRowView(i)
		floats.ScaleTo(normedRow, 1/norm, row)
	}

	var loss float64
	if m > 1 {
		var gram mat.Dense
		gram.Mul(res.normed, res.normed.T())
		var offDiag float64
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				if i != j {
					offDiag += gram.At(i, j)
				}
			}
		}
		loss = offDiag / float64(m*(m-1))
	}
	res.OutVec = floatsToVec(in.Output().Creator(), []float64{loss})
	return res
}

func (o *orthoRes) Output() anyvec.Vector {
	return o.OutVec
}

func (o *orthoRes) Vars() anydiff.VarSet {
	return o.In.Vars()
}

func (o *orthoRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	m, d := o.normed.Dims()
	upstream := vecToFloats(u)[0]
	grad := mat.NewDense(m, d, nil)
	if m > 1 {
		// With S the sum of the normalized rows, the gradient
		// with respect to normalized row i is 2*(S-n_i)/(m*(m-1)).
		sum := make([]float64, d)
		for i := 0; i < m; i++ {
			floats.Add(sum, o.normed.RawRowView(i))
		}
		scale := 2 * upstream / float64(m*(m-1))
		normGrad := make([]float64, d)
		for i := 0; i < m; i++ {
			normed := o.normed.RawRowView(i)
			floats.SubTo(normGrad, sum, normed)
			floats.Scale(scale, normGrad)
			out := grad.RawRowView(i)
			if floats.Norm(o.raw.RawRowView(i), 2) >= normalizeEpsilon {
				// Project out the radial component.
				floats.AddScaledTo(out, normGrad, -floats.Dot(normed, normGrad), normed)
			} else {
				copy(out, normGrad)
			}
			floats.Scale(1/o.norms[i], out)
		}
	}

	var upGrad []float64
	if o.Transpose {
		var t mat.Dense
		t.CloneFrom(grad.T())
		grad = &t
	}
	for i := 0; i < o.Rows; i++ {
		upGrad = append(upGrad, grad.RawRowView(i)...)
	}
	o.In.Propagate(floatsToVec(u.Creator(), upGrad), g)
}

package ppgagent

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var r ResidualBlock
	serializer.RegisterTypedDeserializer(r.SerializerType(), DeserializeResidualBlock)
}

// A TaggedBlock is a network block made of repeated
// residual layers.
//
// Each branch is the residual path of one layer.
// Branches meant for OrthogonalLoss must have linear
// layers at indices 1 and 3.
type TaggedBlock interface {
	BlockTag() string
	Branches() []anynet.Net
}

// A ResidualBlock applies a stack of residual layers:
//
//     x = x + branch(x)
//
// Every branch created by NewResidualBlock has the layout
//
//     [Tanh, FC(size->hidden), ReLU, FC(hidden->size)]
//
// so that its linear layers sit at indices 1 and 3.
type ResidualBlock struct {
	Tag    string
	Layers []anynet.Net
}

// DeserializeResidualBlock deserializes a ResidualBlock.
func DeserializeResidualBlock(d []byte) (res *ResidualBlock, err error) {
	defer essentials.AddCtxTo("deserialize ResidualBlock", &err)
	var tag serializer.String
	var branchData serializer.Bytes
	if err := serializer.DeserializeAny(d, &tag, &branchData); err != nil {
		return nil, err
	}
	branches, err := serializer.DeserializeSlice(branchData)
	if err != nil {
		return nil, err
	}
	res = &ResidualBlock{Tag: string(tag)}
	for i, obj := range branches {
		branch, ok := obj.(anynet.Net)
		if !ok {
			return nil, fmt.Errorf("branch %d: expected anynet.Net but got %T", i, obj)
		}
		res.Layers = append(res.Layers, branch)
	}
	return res, nil
}

// NewResidualBlock creates a ResidualBlock with
// numLayers layers operating on vectors of the given
// size.
func NewResidualBlock(c anyvec.Creator, tag string, size, hidden,
	numLayers int) *ResidualBlock {
	res := &ResidualBlock{Tag: tag}
	for i := 0; i < numLayers; i++ {
		res.Layers = append(res.Layers, anynet.Net{
			anynet.Tanh,
			anynet.NewFC(c, size, hidden),
			anynet.ReLU,
			anynet.NewFC(c, hidden, size),
		})
	}
	return res
}

// Apply applies the block to a batch of inputs.
func (r *ResidualBlock) Apply(in anydiff.Res, batch int) anydiff.Res {
	out := in
	for _, branch := range r.Layers {
		out = anydiff.Add(out, branch.Apply(out, batch))
	}
	return out
}

// Parameters returns the parameters of every branch.
func (r *ResidualBlock) Parameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, branch := range r.Layers {
		res = append(res, branch.Parameters()...)
	}
	return res
}

// Children returns the branches.
func (r *ResidualBlock) Children() []interface{} {
	res := make([]interface{}, len(r.Layers))
	for i, branch := range r.Layers {
		res[i] = branch
	}
	return res
}

// BlockTag returns r.Tag.
func (r *ResidualBlock) BlockTag() string {
	return r.Tag
}

// Branches returns r.Layers.
func (r *ResidualBlock) Branches() []anynet.Net {
	return r.Layers
}

// SerializerType returns the unique ID used to serialize
// a ResidualBlock with the serializer package.
func (r *ResidualBlock) SerializerType() string {
	return "github.com/unixpickle/ppgagent.ResidualBlock"
}

// Serialize serializes the tag and the branches.
func (r *ResidualBlock) Serialize() ([]byte, error) {
	branches := make([]serializer.Serializer, len(r.Layers))
	for i, branch := range r.Layers {
		branches[i] = branch
	}
	branchData, err := serializer.SerializeSlice(branches)
	if err != nil {
		return nil, essentials.AddCtx("serialize ResidualBlock", err)
	}
	return serializer.SerializeAny(serializer.String(r.Tag), serializer.Bytes(branchData))
}

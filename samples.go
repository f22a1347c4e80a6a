package ppgagent

import (
	"math"
	"math/rand"
)

// A Dataset is any indexable collection of samples, such
// as an *ExperienceDataset or an *AuxDataset.
type Dataset interface {
	Len() int
}

// Minibatches shuffles the indices of a dataset and splits
// them into batches of at most batchSize indices.
//
// Every index appears in exactly one batch.
// If batchSize is non-positive, a single batch is used.
func Minibatches(d Dataset, batchSize int) [][]int {
	perm := rand.Perm(d.Len())
	if batchSize <= 0 {
		batchSize = len(perm)
	}
	var res [][]int
	for i := 0; i < len(perm); i += batchSize {
		end := i + batchSize
		if end > len(perm) {
			end = len(perm)
		}
		res = append(res, perm[i:end])
	}
	return res
}

// Minibatch selects a random fraction of the indices of a
// dataset.
func Minibatch(d Dataset, frac float64) []int {
	n := d.Len()
	count := int(math.Ceil(float64(n) * frac))
	if count == 0 || count > n {
		count = n
	}
	return rand.Perm(n)[:count]
}

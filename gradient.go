package ppgagent

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// Backward back-propagates through a scalar loss and
// returns its gradient with respect to vars.
func Backward(loss anydiff.Res, vars []*anydiff.Var) anydiff.Grad {
	if loss.Output().Len() != 1 {
		panic("loss must be a scalar")
	}
	grad := anydiff.NewGrad(vars...)
	loss.Propagate(anyvec.Ones(loss.Output().Creator(), 1), grad)
	return grad
}

// SumLosses adds up scalar loss terms.
// Nil terms are skipped.
//
// At least one term must be non-nil.
func SumLosses(terms ...anydiff.Res) anydiff.Res {
	var res anydiff.Res
	for _, term := range terms {
		if term == nil {
			continue
		}
		if res == nil {
			res = term
		} else {
			res = anydiff.Add(res, term)
		}
	}
	if res == nil {
		panic("no loss terms")
	}
	return res
}

// LossValue extracts the value of a scalar loss.
func LossValue(loss anydiff.Res) float64 {
	return vecToFloats(loss.Output())[0]
}

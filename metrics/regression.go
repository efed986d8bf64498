package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func sameShape(yTrue, yPred mat.Matrix) (n, outputs int, err error) {
	n, err = sameLength(yTrue, yPred)
	if err != nil {
		return 0, 0, err
	}
	_, ct := yTrue.Dims()
	_, cp := yPred.Dims()
	if ct != cp {
		return 0, 0, fmt.Errorf("%w: y_true has %d outputs, y_pred has %d", ErrShapeMismatch, ct, cp)
	}
	return n, ct, nil
}

// R2 is the coefficient of determination per output, aggregated by the
// multioutput mode. A constant target scores 1 when predicted exactly and 0
// otherwise.
func R2(yTrue, yPred mat.Matrix, p Params) ([]float64, error) {
	n, outputs, err := sameShape(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	mode, err := p.String(ParamMultiOutput, MultiOutputUniform)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, outputs)
	variances := make([]float64, outputs)
	for j := 0; j < outputs; j++ {
		truth := mat.Col(nil, j, yTrue)
		mu := stat.Mean(truth, nil)
		var ssRes, ssTot float64
		for i := 0; i < n; i++ {
			r := truth[i] - yPred.At(i, j)
			d := truth[i] - mu
			ssRes += r * r
			ssTot += d * d
		}
		variances[j] = ssTot
		switch {
		case ssTot != 0:
			scores[j] = 1 - ssRes/ssTot
		case ssRes == 0:
			scores[j] = 1
		default:
			scores[j] = 0
		}
	}

	switch mode {
	case MultiOutputRaw:
		return scores, nil
	case MultiOutputUniform:
		return []float64{mean(scores)}, nil
	case MultiOutputVarianceWeighted:
		var total float64
		for _, v := range variances {
			total += v
		}
		if total == 0 {
			return []float64{mean(scores)}, nil
		}
		return []float64{stat.Mean(scores, variances)}, nil
	}
	return nil, invalidParam(ParamMultiOutput, mode, MultiOutputUniform, MultiOutputRaw, MultiOutputVarianceWeighted)
}

// RMSE is the root mean squared error per output, aggregated by the
// multioutput mode.
func RMSE(yTrue, yPred mat.Matrix, p Params) ([]float64, error) {
	n, outputs, err := sameShape(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	mode, err := p.String(ParamMultiOutput, MultiOutputUniform)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, outputs)
	for j := 0; j < outputs; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			d := yTrue.At(i, j) - yPred.At(i, j)
			sum += d * d
		}
		scores[j] = math.Sqrt(sum / float64(n))
	}
	switch mode {
	case MultiOutputRaw:
		return scores, nil
	case MultiOutputUniform:
		return []float64{mean(scores)}, nil
	}
	return nil, invalidParam(ParamMultiOutput, mode, MultiOutputUniform, MultiOutputRaw)
}

package metrics

import (
	"fmt"
	"slices"

	"github.com/jonwraymond/evalops/estimator"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// labelsOf returns the first column of m.
func labelsOf(m mat.Matrix) []float64 {
	if estimator.IsEmpty(m) {
		return nil
	}
	return mat.Col(nil, 0, m)
}

func sameLength(yTrue, yPred mat.Matrix) (int, error) {
	if estimator.IsEmpty(yTrue) || estimator.IsEmpty(yPred) {
		return 0, fmt.Errorf("%w: empty input", ErrShapeMismatch)
	}
	nt, _ := yTrue.Dims()
	np, _ := yPred.Dims()
	if nt != np {
		return 0, fmt.Errorf("%w: y_true has %d samples, y_pred has %d", ErrShapeMismatch, nt, np)
	}
	return nt, nil
}

// Accuracy is the fraction of exact matches, or their count when
// normalize=false.
func Accuracy(yTrue, yPred mat.Matrix, p Params) ([]float64, error) {
	n, err := sameLength(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	normalize, err := p.Bool(ParamNormalize, true)
	if err != nil {
		return nil, err
	}
	_, c := yTrue.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		match := true
		for j := 0; j < c; j++ {
			if yTrue.At(i, j) != yPred.At(i, j) {
				match = false
				break
			}
		}
		if match {
			correct++
		}
	}
	if !normalize {
		return []float64{float64(correct)}, nil
	}
	return []float64{float64(correct) / float64(n)}, nil
}

// Precision is tp / (tp + fp).
func Precision(yTrue, yPred mat.Matrix, p Params) ([]float64, error) {
	return precisionRecall(yTrue, yPred, p, func(c confusion) (float64, float64) {
		return c.tp, c.tp + c.fp
	})
}

// Recall is tp / (tp + fn).
func Recall(yTrue, yPred mat.Matrix, p Params) ([]float64, error) {
	return precisionRecall(yTrue, yPred, p, func(c confusion) (float64, float64) {
		return c.tp, c.tp + c.fn
	})
}

type confusion struct {
	tp, fp, fn, support float64
}

// ratio returns 0 for an empty denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func precisionRecall(yTrue, yPred mat.Matrix, p Params, part func(confusion) (float64, float64)) ([]float64, error) {
	n, err := sameLength(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	average, err := p.Average(AverageBinary)
	if err != nil {
		return nil, err
	}
	truth, pred := labelsOf(yTrue), labelsOf(yPred)

	labels, err := p.Floats(ParamLabels)
	if err != nil {
		return nil, err
	}
	if labels == nil {
		labels = estimator.UniqueLabels(yTrue, yPred)
	}

	if average == AverageBinary {
		if len(labels) > 2 {
			return nil, fmt.Errorf("%w: target is multiclass but average=%q; choose one of %v",
				ErrInvalidParam, AverageBinary, []string{AverageMicro, AverageMacro, AverageWeighted, AverageNone})
		}
		pos, ok, err := p.Float(ParamPosLabel)
		if err != nil {
			return nil, err
		}
		if !ok {
			pos = 1
		}
		if len(labels) == 2 && !slices.Contains(labels, pos) {
			return nil, fmt.Errorf("%w: pos_label=%v is not a valid label, labels are %v", ErrInvalidParam, pos, labels)
		}
		labels = []float64{pos}
	}

	per := make([]confusion, len(labels))
	for i := 0; i < n; i++ {
		for k, label := range labels {
			t, pr := truth[i] == label, pred[i] == label
			switch {
			case t && pr:
				per[k].tp++
			case pr:
				per[k].fp++
			case t:
				per[k].fn++
			}
			if t {
				per[k].support++
			}
		}
	}

	switch average {
	case AverageBinary:
		num, den := part(per[0])
		return []float64{ratio(num, den)}, nil
	case AverageMicro:
		var total confusion
		for _, c := range per {
			total.tp += c.tp
			total.fp += c.fp
			total.fn += c.fn
		}
		num, den := part(total)
		return []float64{ratio(num, den)}, nil
	case AverageMacro, AverageWeighted, AverageNone:
		scores := make([]float64, len(per))
		for k, c := range per {
			scores[k] = ratio(part(c))
		}
		switch average {
		case AverageNone:
			return scores, nil
		case AverageMacro:
			return []float64{mean(scores)}, nil
		}
		var sum, weight float64
		for k, c := range per {
			sum += scores[k] * c.support
			weight += c.support
		}
		return []float64{ratio(sum, weight)}, nil
	}
	return nil, invalidParam(ParamAverage, average, AverageBinary, AverageMicro, AverageMacro, AverageWeighted, AverageNone)
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return stat.Mean(v, nil)
}

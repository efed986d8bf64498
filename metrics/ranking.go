package metrics

import (
	"fmt"
	"math"
	"slices"

	"github.com/jonwraymond/evalops/estimator"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Curve is a sequence of operating points ordered by decreasing threshold.
// Thresholds[0] is +Inf, where nothing is predicted positive.
type Curve struct {
	FPR        []float64
	TPR        []float64
	Thresholds []float64
	Positives  float64
	Negatives  float64
}

// ROCCurve computes the receiver operating characteristic of score against
// the binary truth truth == posLabel.
func ROCCurve(truth, score []float64, posLabel float64) (Curve, error) {
	if len(truth) != len(score) {
		return Curve{}, fmt.Errorf("%w: %d labels, %d scores", ErrShapeMismatch, len(truth), len(score))
	}
	y := slices.Clone(score)
	classes := make([]bool, len(truth))
	var pos, neg float64
	for i, t := range truth {
		classes[i] = t == posLabel
		if classes[i] {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return Curve{}, fmt.Errorf("%w: pos_label=%v has %v positives and %v negatives", ErrSingleClass, posLabel, pos, neg)
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, thresh := stat.ROC(nil, y, classes, nil)
	return Curve{FPR: fpr, TPR: tpr, Thresholds: thresh, Positives: pos, Negatives: neg}, nil
}

// AUC is the trapezoidal area under the ROC curve.
func (c Curve) AUC() float64 {
	return integrate.Trapezoidal(c.FPR, c.TPR)
}

// PrecisionRecall derives precision and recall at every threshold. The
// first point, where nothing is predicted positive, has precision 1.
func (c Curve) PrecisionRecall() (precision, recall []float64) {
	precision = make([]float64, len(c.TPR))
	recall = make([]float64, len(c.TPR))
	for i := range c.TPR {
		tp := math.Round(c.TPR[i] * c.Positives)
		fp := math.Round(c.FPR[i] * c.Negatives)
		recall[i] = c.TPR[i]
		if tp+fp == 0 {
			precision[i] = 1
			continue
		}
		precision[i] = tp / (tp + fp)
	}
	return precision, recall
}

// AveragePrecision is the sum of precisions weighted by recall increments.
func (c Curve) AveragePrecision() float64 {
	precision, recall := c.PrecisionRecall()
	var ap float64
	for i := 1; i < len(recall); i++ {
		ap += (recall[i] - recall[i-1]) * precision[i]
	}
	return ap
}

// defaultPosLabel returns pos_label when set, otherwise the greatest label.
func defaultPosLabel(p Params, labels []float64) (float64, error) {
	pos, ok, err := p.Float(ParamPosLabel)
	if err != nil {
		return 0, err
	}
	if ok {
		return pos, nil
	}
	if len(labels) == 0 {
		return 1, nil
	}
	return labels[len(labels)-1], nil
}

// classLabels returns the labels parameter or the sorted labels of y.
func classLabels(p Params, yTrue mat.Matrix) ([]float64, error) {
	labels, err := p.Floats(ParamLabels)
	if err != nil {
		return nil, err
	}
	if labels != nil {
		return labels, nil
	}
	return estimator.UniqueLabels(yTrue), nil
}

// BrierScore is the mean squared difference between predicted
// probabilities and the one-hot truth. A single score column is the
// probability of pos_label.
func BrierScore(yTrue, yProb mat.Matrix, p Params) ([]float64, error) {
	n, err := sameLength(yTrue, yProb)
	if err != nil {
		return nil, err
	}
	labels, err := classLabels(p, yTrue)
	if err != nil {
		return nil, err
	}
	truth := labelsOf(yTrue)
	_, k := yProb.Dims()

	if k == 1 {
		if len(labels) > 2 {
			return nil, fmt.Errorf("%w: brier score with one probability column needs a binary target, got labels %v", ErrUnsupportedInput, labels)
		}
		pos, err := defaultPosLabel(p, labels)
		if err != nil {
			return nil, err
		}
		var sum float64
		for i := 0; i < n; i++ {
			var t float64
			if truth[i] == pos {
				t = 1
			}
			d := yProb.At(i, 0) - t
			sum += d * d
		}
		return []float64{sum / float64(n)}, nil
	}

	if len(labels) != k {
		return nil, fmt.Errorf("%w: %d probability columns for %d labels", ErrShapeMismatch, k, len(labels))
	}
	var sum float64
	for i := 0; i < n; i++ {
		for j, label := range labels {
			var t float64
			if truth[i] == label {
				t = 1
			}
			d := yProb.At(i, j) - t
			sum += d * d
		}
	}
	return []float64{sum / float64(n)}, nil
}

// LogLoss is the mean negative log-likelihood of the true labels.
// Probabilities are clipped to [eps, 1-eps].
func LogLoss(yTrue, yProb mat.Matrix, p Params) ([]float64, error) {
	const eps = 1e-15
	n, err := sameLength(yTrue, yProb)
	if err != nil {
		return nil, err
	}
	labels, err := classLabels(p, yTrue)
	if err != nil {
		return nil, err
	}
	truth := labelsOf(yTrue)
	_, k := yProb.Dims()
	clip := func(v float64) float64 { return math.Min(math.Max(v, eps), 1-eps) }

	var sum float64
	for i := 0; i < n; i++ {
		j := slices.Index(labels, truth[i])
		if j < 0 {
			return nil, fmt.Errorf("%w: label %v not in %v", ErrInvalidParam, truth[i], labels)
		}
		var prob float64
		switch {
		case k == 1 && len(labels) <= 2:
			prob = clip(yProb.At(i, 0))
			if j == 0 && len(labels) == 2 {
				prob = 1 - prob
			}
		case k == len(labels):
			prob = clip(yProb.At(i, j))
		default:
			return nil, fmt.Errorf("%w: %d probability columns for %d labels", ErrShapeMismatch, k, len(labels))
		}
		sum -= math.Log(prob)
	}
	return []float64{sum / float64(n)}, nil
}

// ROCAUC is the area under the ROC curve. A single score column is treated
// as binary; several columns use the multi_class strategy (ovr or ovo) and
// the average mode (macro, weighted or none for ovr).
func ROCAUC(yTrue, yScore mat.Matrix, p Params) ([]float64, error) {
	n, err := sameLength(yTrue, yScore)
	if err != nil {
		return nil, err
	}
	labels, err := classLabels(p, yTrue)
	if err != nil {
		return nil, err
	}
	truth := labelsOf(yTrue)
	_, k := yScore.Dims()

	if k == 1 {
		if len(labels) > 2 {
			return nil, fmt.Errorf("%w: one score column for %d classes", ErrShapeMismatch, len(labels))
		}
		pos, err := defaultPosLabel(p, labels)
		if err != nil {
			return nil, err
		}
		curve, err := ROCCurve(truth, mat.Col(nil, 0, yScore), pos)
		if err != nil {
			return nil, err
		}
		return []float64{curve.AUC()}, nil
	}

	if len(labels) != k {
		return nil, fmt.Errorf("%w: %d score columns for %d labels", ErrShapeMismatch, k, len(labels))
	}
	strategy, err := p.String(ParamMultiClass, MultiClassOVR)
	if err != nil {
		return nil, err
	}
	average, err := p.Average(AverageMacro)
	if err != nil {
		return nil, err
	}

	switch strategy {
	case MultiClassOVR:
		aucs := make([]float64, k)
		support := make([]float64, k)
		for j, label := range labels {
			curve, err := ROCCurve(truth, mat.Col(nil, j, yScore), label)
			if err != nil {
				return nil, err
			}
			aucs[j] = curve.AUC()
			support[j] = curve.Positives
		}
		return averageScores(aucs, support, average)
	case MultiClassOVO:
		if average == AverageNone {
			return nil, invalidParam(ParamAverage, average, AverageMacro, AverageWeighted)
		}
		var aucs, prevalence []float64
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				pair, err := pairAUC(truth, yScore, labels, a, b)
				if err != nil {
					return nil, err
				}
				var count float64
				for _, t := range truth {
					if t == labels[a] || t == labels[b] {
						count++
					}
				}
				aucs = append(aucs, pair)
				prevalence = append(prevalence, count/float64(n))
			}
		}
		return averageScores(aucs, prevalence, average)
	}
	return nil, invalidParam(ParamMultiClass, strategy, MultiClassOVR, MultiClassOVO)
}

// pairAUC averages the AUC of a versus b and b versus a on the rows
// labelled a or b.
func pairAUC(truth []float64, yScore mat.Matrix, labels []float64, a, b int) (float64, error) {
	var sub []float64
	var sa, sb []float64
	for i, t := range truth {
		if t != labels[a] && t != labels[b] {
			continue
		}
		sub = append(sub, t)
		sa = append(sa, yScore.At(i, a))
		sb = append(sb, yScore.At(i, b))
	}
	ca, err := ROCCurve(sub, sa, labels[a])
	if err != nil {
		return 0, err
	}
	cb, err := ROCCurve(sub, sb, labels[b])
	if err != nil {
		return 0, err
	}
	return (ca.AUC() + cb.AUC()) / 2, nil
}

func averageScores(scores, weights []float64, average string) ([]float64, error) {
	switch average {
	case AverageNone:
		return scores, nil
	case AverageMacro:
		return []float64{mean(scores)}, nil
	case AverageWeighted:
		return []float64{stat.Mean(scores, weights)}, nil
	}
	return nil, invalidParam(ParamAverage, average, AverageMacro, AverageWeighted, AverageNone)
}

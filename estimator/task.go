package estimator

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Task is the machine learning task a report evaluates.
type Task string

const (
	TaskBinaryClassification     Task = "binary-classification"
	TaskMulticlassClassification Task = "multiclass-classification"
	TaskRegression               Task = "regression"
	TaskClustering               Task = "clustering"
	TaskUnknown                  Task = "unknown"
)

// IsClassification reports whether t is a binary or multiclass task.
func (t Task) IsClassification() bool {
	return t == TaskBinaryClassification || t == TaskMulticlassClassification
}

// TargetType describes the content of a target matrix.
type TargetType string

const (
	TargetBinary                TargetType = "binary"
	TargetMulticlass            TargetType = "multiclass"
	TargetContinuous            TargetType = "continuous"
	TargetContinuousMultioutput TargetType = "continuous-multioutput"
	TargetMulticlassMultioutput TargetType = "multiclass-multioutput"
	TargetUnknown               TargetType = "unknown"
)

// TypeOfTarget classifies y. Integral values with at most two distinct
// labels are binary, more are multiclass, anything else is continuous.
func TypeOfTarget(y mat.Matrix) TargetType {
	if IsEmpty(y) {
		return TargetUnknown
	}
	r, c := y.Dims()
	integral := true
	for i := 0; i < r && integral; i++ {
		for j := 0; j < c; j++ {
			v := y.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return TargetUnknown
			}
			if v != math.Trunc(v) {
				integral = false
				break
			}
		}
	}
	if !integral {
		if c > 1 {
			return TargetContinuousMultioutput
		}
		return TargetContinuous
	}
	if c > 1 {
		return TargetMulticlassMultioutput
	}
	if len(UniqueLabels(y)) <= 2 {
		return TargetBinary
	}
	return TargetMulticlass
}

// FindTask derives the task from the estimator kind and the target.
func FindTask(est Estimator, y mat.Matrix) Task {
	if IsEmpty(y) {
		return taskWithoutTarget(est)
	}
	if est != nil && est.Kind() == KindRegressor {
		return TaskRegression
	}
	target := TypeOfTarget(y)
	if est != nil && est.Kind() == KindClassifier {
		switch target {
		case TargetBinary:
			if classes := Classes(est); len(classes) > 2 {
				return TaskMulticlassClassification
			}
			return TaskBinaryClassification
		case TargetMulticlass:
			return TaskMulticlassClassification
		}
		return TaskUnknown
	}
	switch target {
	case TargetContinuous, TargetContinuousMultioutput:
		return TaskRegression
	}
	return TaskUnknown
}

// taskWithoutTarget falls back on the estimator alone: its kind, and the
// number of classes for classifiers.
func taskWithoutTarget(est Estimator) Task {
	if est == nil {
		return TaskUnknown
	}
	switch est.Kind() {
	case KindRegressor:
		return TaskRegression
	case KindClassifier:
		switch n := len(Classes(est)); {
		case n == 2:
			return TaskBinaryClassification
		case n > 2:
			return TaskMulticlassClassification
		}
		return TaskUnknown
	}
	return TaskClustering
}

// UniqueLabels returns the sorted distinct values of m.
func UniqueLabels(ms ...mat.Matrix) []float64 {
	var labels []float64
	for _, m := range ms {
		if IsEmpty(m) {
			continue
		}
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				labels = append(labels, m.At(i, j))
			}
		}
	}
	slices.Sort(labels)
	return slices.Compact(labels)
}

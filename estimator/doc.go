// Package estimator defines the fitted-model abstraction consumed by reports.
//
// An Estimator only has to describe itself (name, kind, fitted state). The
// prediction capabilities are optional interfaces (Predictor, ProbaPredictor,
// DecisionScorer) so that reports can resolve the first supported response
// method from an ordered list of candidates, the way a probability-based
// metric falls back to decision scores.
//
// Task classification (FindTask) combines the estimator kind with the shape
// and content of the target matrix.
package estimator

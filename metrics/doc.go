// Package metrics implements the score functions a report can compute and
// the metric specification accepted by batched metric requests.
//
// Every score function has the signature Func: it takes the ground truth,
// the response values of an estimator and keyword parameters, and returns a
// scalar (one element) or a vector (one element per class or per output).
//
// Parameters follow the conventions of the Python scientific stack so that
// names stay stable in cache keys: "average", "pos_label", "multi_class",
// "multioutput", "labels" and "normalize".
package metrics

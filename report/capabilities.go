package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/jonwraymond/evalops/estimator"
	"github.com/jonwraymond/evalops/metrics"
)

// Operation describes one report operation.
type Operation struct {
	Name string
	// Group is "metrics" or "plot".
	Group string
	Doc   string
	// Tasks lists the tasks the operation serves. Empty means every task.
	Tasks []estimator.Task
	// Requires lists response methods of which the estimator must
	// implement at least one. Empty means none.
	Requires []estimator.ResponseMethod
}

// Supports reports whether op serves task t.
func (op Operation) Supports(t estimator.Task) bool {
	return len(op.Tasks) == 0 || slices.Contains(op.Tasks, t)
}

var (
	classificationTasks = []estimator.Task{estimator.TaskBinaryClassification, estimator.TaskMulticlassClassification}
	regressionTasks     = []estimator.Task{estimator.TaskRegression}
	scoreMethods        = []estimator.ResponseMethod{estimator.MethodPredictProba, estimator.MethodDecisionFunction}
)

var metricDocs = map[string]string{
	"accuracy":    "Compute the accuracy score",
	"precision":   "Compute the precision score",
	"recall":      "Compute the recall score",
	"brier_score": "Compute the Brier score",
	"roc_auc":     "Compute the ROC AUC score",
	"log_loss":    "Compute the log loss",
	"r2":          "Compute the R² score",
	"rmse":        "Compute the root mean squared error",
}

var registry = buildRegistry()

func buildRegistry() []Operation {
	ops := []Operation{
		{Name: "report_metrics", Group: groupMetrics, Doc: "Report a set of metrics for the estimator"},
		{Name: "custom_metric", Group: groupMetrics, Doc: "Compute a custom metric provided by the user"},
	}
	for _, b := range metrics.Builtins() {
		op := Operation{Name: b.Name, Group: groupMetrics, Doc: metricDocs[b.Name], Tasks: b.Tasks}
		if !slices.Equal(b.ResponseMethods, []estimator.ResponseMethod{estimator.MethodPredict}) {
			op.Requires = b.ResponseMethods
		}
		ops = append(ops, op)
	}
	ops = append(ops,
		Operation{Name: "roc", Group: groupPlot, Doc: "Plot the ROC curve", Tasks: classificationTasks, Requires: scoreMethods},
		Operation{Name: "precision_recall", Group: groupPlot, Doc: "Plot the precision-recall curve", Tasks: classificationTasks, Requires: scoreMethods},
		Operation{Name: "prediction_error", Group: groupPlot, Doc: "Plot the prediction error of a regression model", Tasks: regressionTasks},
	)
	slices.SortStableFunc(ops, compareOperations)
	return ops
}

// compareOperations orders metrics before plots, then report_metrics,
// custom_metric and the rest alphabetically.
func compareOperations(a, b Operation) int {
	if a.Group != b.Group {
		if a.Group == groupMetrics {
			return -1
		}
		return 1
	}
	priority := func(name string) int {
		switch name {
		case "report_metrics":
			return 0
		case "custom_metric":
			return 1
		}
		return 2
	}
	if pa, pb := priority(a.Name), priority(b.Name); pa != pb {
		return pa - pb
	}
	return strings.Compare(a.Name, b.Name)
}

// Operations returns the operations that serve task t in help order.
func Operations(t estimator.Task) []Operation {
	var out []Operation
	for _, op := range registry {
		if op.Supports(t) {
			out = append(out, op)
		}
	}
	return out
}

func lookupOperation(name string) (Operation, bool) {
	i := slices.IndexFunc(registry, func(op Operation) bool { return op.Name == name })
	if i < 0 {
		return Operation{}, false
	}
	return registry[i], true
}

// Capability is the outcome of Check.
type Capability struct {
	Allowed bool
	// Reason explains a refusal.
	Reason string
}

// Check reports whether the operation named op can run on r.
func (r *Report) Check(op string) Capability {
	return r.check(op, r.Task())
}

func (r *Report) check(name string, task estimator.Task) Capability {
	op, ok := lookupOperation(name)
	if !ok {
		return Capability{Reason: fmt.Sprintf("unknown operation %q", name)}
	}
	if !op.Supports(task) {
		tasks := make([]string, len(op.Tasks))
		for i, t := range op.Tasks {
			tasks[i] = string(t)
		}
		return Capability{Reason: fmt.Sprintf("%s supports %s tasks", op.Name, strings.Join(tasks, ", "))}
	}
	if len(op.Requires) > 0 && !slices.ContainsFunc(op.Requires, func(m estimator.ResponseMethod) bool {
		return estimator.Supports(r.est, m)
	}) {
		return Capability{Reason: fmt.Sprintf("%s implements none of %v", r.EstimatorName(), op.Requires)}
	}
	return Capability{Allowed: true}
}

// require turns a refused capability into an error.
func (r *Report) require(name string, task estimator.Task) error {
	c := r.check(name, task)
	if c.Allowed {
		return nil
	}
	return &UnsupportedOperationError{Operation: name, Task: task, Reason: c.Reason}
}

// Help renders the operations available on r as a tree.
func (r *Report) Help() string {
	task := r.Task()
	root := tree.Root(fmt.Sprintf("Tools to diagnose %s estimator", r.EstimatorName()))
	metricsBranch := tree.Root(groupMetrics)
	plotBranch := tree.Root(groupPlot)
	for _, op := range Operations(task) {
		if !r.check(op.Name, task).Allowed {
			continue
		}
		line := op.Name + " - " + op.Doc
		if op.Group == groupPlot {
			plotBranch.Child(line)
		} else {
			metricsBranch.Child(line)
		}
	}
	if plotBranch.Children().Length() > 0 {
		metricsBranch.Child(plotBranch)
	}
	root.Child(metricsBranch)
	return root.String()
}

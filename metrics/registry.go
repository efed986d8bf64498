package metrics

import (
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/jonwraymond/evalops/estimator"
	"gonum.org/v1/gonum/mat"
)

// Func is a score function.
type Func func(yTrue, yPred mat.Matrix, p Params) ([]float64, error)

// Builtin describes a named metric.
type Builtin struct {
	// Name is the request name, e.g. "roc_auc".
	Name string
	// Label is the column name in result frames.
	Label string
	// FuncName identifies Func in cache keys.
	FuncName string
	Func     Func
	// ResponseMethods are tried in order.
	ResponseMethods []estimator.ResponseMethod
	// Tasks lists the tasks the metric is defined for.
	Tasks []estimator.Task
	// Params lists the keyword parameters the metric accepts.
	Params []string
}

// Supports reports whether b is defined for task t.
func (b Builtin) Supports(t estimator.Task) bool {
	return slices.Contains(b.Tasks, t)
}

// PosLabel reports whether pos_label reaches the score function.
func (b Builtin) PosLabel() bool {
	return slices.Contains(b.Params, ParamPosLabel)
}

var (
	classification = []estimator.Task{estimator.TaskBinaryClassification, estimator.TaskMulticlassClassification}
	regression     = []estimator.Task{estimator.TaskRegression}
	predictOnly    = []estimator.ResponseMethod{estimator.MethodPredict}
)

var builtins = []Builtin{
	{
		Name: "accuracy", Label: "Accuracy", FuncName: "accuracy_score", Func: Accuracy,
		ResponseMethods: predictOnly, Tasks: classification,
	},
	{
		Name: "precision", Label: "Precision", FuncName: "precision_score", Func: Precision,
		ResponseMethods: predictOnly, Tasks: classification,
		Params: []string{ParamAverage, ParamPosLabel},
	},
	{
		Name: "recall", Label: "Recall", FuncName: "recall_score", Func: Recall,
		ResponseMethods: predictOnly, Tasks: classification,
		Params: []string{ParamAverage, ParamPosLabel},
	},
	{
		Name: "brier_score", Label: "Brier score", FuncName: "brier_score_loss", Func: BrierScore,
		ResponseMethods: []estimator.ResponseMethod{estimator.MethodPredictProba},
		Tasks:           []estimator.Task{estimator.TaskBinaryClassification},
		Params:          []string{ParamPosLabel},
	},
	{
		Name: "roc_auc", Label: "ROC AUC", FuncName: "roc_auc_score", Func: ROCAUC,
		ResponseMethods: []estimator.ResponseMethod{estimator.MethodPredictProba, estimator.MethodDecisionFunction},
		Tasks:           classification,
		Params:          []string{ParamAverage, ParamMultiClass},
	},
	{
		Name: "log_loss", Label: "Log loss", FuncName: "log_loss", Func: LogLoss,
		ResponseMethods: []estimator.ResponseMethod{estimator.MethodPredictProba}, Tasks: classification,
	},
	{
		Name: "r2", Label: "R2", FuncName: "r2_score", Func: R2,
		ResponseMethods: predictOnly, Tasks: regression,
		Params: []string{ParamMultiOutput},
	},
	{
		Name: "rmse", Label: "RMSE", FuncName: "root_mean_squared_error", Func: RMSE,
		ResponseMethods: predictOnly, Tasks: regression,
		Params: []string{ParamMultiOutput},
	},
}

// Lookup finds a builtin by request name or function name, ignoring case.
func Lookup(name string) (Builtin, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, b := range builtins {
		if b.Name == key || b.FuncName == key {
			return b, true
		}
	}
	return Builtin{}, false
}

// Builtins returns every named metric in registry order.
func Builtins() []Builtin {
	return slices.Clone(builtins)
}

// BuiltinNames returns the request names of every named metric.
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.Name
	}
	return names
}

// FuncIdentity returns a stable name for f. Builtins map to their function
// name; other functions use the runtime symbol, so closures created at the
// same site share an identity and need an explicit name.
func FuncIdentity(f Func) string {
	if f == nil {
		return ""
	}
	ptr := reflect.ValueOf(f).Pointer()
	for _, b := range builtins {
		if reflect.ValueOf(b.Func).Pointer() == ptr {
			return b.FuncName
		}
	}
	if fn := runtime.FuncForPC(ptr); fn != nil {
		return fn.Name()
	}
	return ""
}

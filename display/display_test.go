package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

func col(values ...float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

func TestRocCurve_Binary(t *testing.T) {
	d, err := RocCurveFromPredictions(col(0, 0, 1, 1), col(0.1, 0.4, 0.35, 0.8), []float64{0, 1}, Meta{EstimatorName: "LogisticRegression", DataSource: "test"})
	require.NoError(t, err)
	require.Len(t, d.Curves, 1)
	assert.InDelta(t, 0.75, d.Curves[0].Area, 1e-12)
	assert.Equal(t, NameRocCurve, d.Name())
	assert.Nil(t, d.Figure())

	p, err := d.Plot(RenderOptions{ChanceLevel: true})
	require.NoError(t, err)
	assert.Same(t, p, d.Figure())
	assert.Equal(t, "ROC curve (data source: test)", p.Title.Text)
	assert.Equal(t, "False Positive Rate", p.X.Label.Text)

	// rendering again builds a new figure from the same statistics
	p2, err := d.Plot(RenderOptions{Title: "custom"})
	require.NoError(t, err)
	assert.NotSame(t, p, p2)
	assert.Equal(t, "custom", p2.Title.Text)
	assert.Equal(t, int64(2), d.Renders())
}

func TestRocCurve_PosLabelFlipsCurve(t *testing.T) {
	neg := 0.0
	d, err := RocCurveFromPredictions(col(0, 0, 1, 1), col(0.9, 0.6, 0.65, 0.2), []float64{0, 1}, Meta{PosLabel: &neg})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, d.Curves[0].Area, 1e-12)
}

func TestRocCurve_Multiclass(t *testing.T) {
	scores := mat.NewDense(3, 3, []float64{
		0.8, 0.1, 0.1,
		0.1, 0.8, 0.1,
		0.1, 0.1, 0.8,
	})
	d, err := RocCurveFromPredictions(col(0, 1, 2), scores, []float64{0, 1, 2}, Meta{})
	require.NoError(t, err)
	require.Len(t, d.Curves, 3)
	assert.Equal(t, "2", d.Curves[2].Label)
	for _, c := range d.Curves {
		assert.InDelta(t, 1, c.Area, 1e-12)
	}

	_, err = RocCurveFromPredictions(col(0, 1, 2), scores, []float64{0, 1}, Meta{})
	require.ErrorIs(t, err, ErrShape)
}

func TestPrecisionRecall(t *testing.T) {
	d, err := PrecisionRecallFromPredictions(col(0, 0, 1, 1), col(0.1, 0.4, 0.35, 0.8), nil, Meta{})
	require.NoError(t, err)
	require.Len(t, d.Curves, 1)
	assert.InDelta(t, 0.5+1.0/3, d.Curves[0].Area, 1e-12)
	assert.Equal(t, NamePrecisionRecall, d.Name())

	p, err := d.Plot(RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Recall", p.X.Label.Text)
}

func TestPredictionError(t *testing.T) {
	d, err := PredictionErrorFromPredictions(col(1, 2, 3, 4), col(1.5, 2, 2.5, 4), PredictionErrorOptions{}, Meta{})
	require.NoError(t, err)
	assert.Len(t, d.Actual, 4)

	p, err := d.Plot(RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Residuals (actual - predicted)", p.Y.Label.Text)

	p, err = d.Plot(RenderOptions{Kind: ActualVsPredicted})
	require.NoError(t, err)
	assert.Equal(t, "Actual values", p.Y.Label.Text)

	_, err = d.Plot(RenderOptions{Kind: "histogram"})
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestPredictionError_Subsample(t *testing.T) {
	y := col(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	a, err := PredictionErrorFromPredictions(y, y, PredictionErrorOptions{Subsample: 4, Seed: 7}, Meta{})
	require.NoError(t, err)
	b, err := PredictionErrorFromPredictions(y, y, PredictionErrorOptions{Subsample: 4, Seed: 7}, Meta{})
	require.NoError(t, err)
	assert.Len(t, a.Actual, 4)
	assert.Equal(t, a.Actual, b.Actual)
	assert.Equal(t, a.Actual, a.Predicted)
}

func TestPredictionError_MultiOutput(t *testing.T) {
	y := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	_, err := PredictionErrorFromPredictions(y, y, PredictionErrorOptions{}, Meta{})
	require.ErrorIs(t, err, ErrShape)
}

func TestPlot_WritesSVG(t *testing.T) {
	d, err := RocCurveFromPredictions(col(0, 1, 0, 1), col(0.2, 0.7, 0.4, 0.9), nil, Meta{})
	require.NoError(t, err)
	p, err := d.Plot(RenderOptions{ChanceLevel: true})
	require.NoError(t, err)

	w, err := p.WriterTo(4*vg.Inch, 4*vg.Inch, "svg")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = w.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<svg")
}

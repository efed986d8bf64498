// Package frame holds tabular metric results.
//
// A Frame has one row per index entry and either a flat column index
// (metric names) or a two-level one (metric name and a second label such as
// a class label or an output index). Concatenating frames with mixed
// schemas promotes the flat ones to two levels with an empty second label.
package frame

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	ErrShape      = errors.New("frame: inconsistent shape")
	ErrNoColumn   = errors.New("frame: no such column")
	ErrLevelNames = errors.New("frame: incompatible column levels")
)

// Column identifies a column. Label is empty for flat frames.
type Column struct {
	Metric string
	Label  string
}

func (c Column) String() string {
	if c.Label == "" {
		return c.Metric
	}
	return c.Metric + " / " + c.Label
}

// Frame is an immutable table of float64 values.
type Frame struct {
	// Index names the rows.
	Index []string
	// IndexName labels the row index, e.g. "Split".
	IndexName string
	Columns   []Column
	// MultiLevel is set when columns carry a second label.
	MultiLevel bool
	// LevelNames are the names of the column levels, e.g.
	// ["Metric", "Class label"].
	LevelNames []string
	// Values holds one slice per row.
	Values [][]float64
}

// Scalar returns a one-row, one-column flat frame.
func Scalar(metric string, v float64) *Frame {
	return &Frame{
		Index:      []string{""},
		Columns:    []Column{{Metric: metric}},
		LevelNames: []string{"Metric"},
		Values:     [][]float64{{v}},
	}
}

// PerLabel returns a one-row frame with one column per label under metric.
func PerLabel(metric, levelName string, labels []string, values []float64) (*Frame, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("%w: %d labels for %d values", ErrShape, len(labels), len(values))
	}
	cols := make([]Column, len(labels))
	for i, l := range labels {
		cols[i] = Column{Metric: metric, Label: l}
	}
	return &Frame{
		Index:      []string{""},
		Columns:    cols,
		MultiLevel: true,
		LevelNames: []string{"Metric", levelName},
		Values:     [][]float64{slices.Clone(values)},
	}, nil
}

// Shape returns rows and columns.
func (f *Frame) Shape() (int, int) {
	return len(f.Values), len(f.Columns)
}

// At returns the value at row i, column j.
func (f *Frame) At(i, j int) float64 {
	return f.Values[i][j]
}

// Value returns the first-row value of the column matching metric and
// label.
func (f *Frame) Value(metric, label string) (float64, error) {
	for j, c := range f.Columns {
		if c.Metric == metric && c.Label == label {
			return f.Values[0][j], nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNoColumn, Column{Metric: metric, Label: label})
}

// Metrics returns the distinct metric names in column order.
func (f *Frame) Metrics() []string {
	var out []string
	for _, c := range f.Columns {
		if !slices.Contains(out, c.Metric) {
			out = append(out, c.Metric)
		}
	}
	return out
}

// Promote returns f with a two-level column index. Flat columns get an
// empty second label.
func (f *Frame) Promote(levelName string) *Frame {
	if f.MultiLevel {
		return f
	}
	out := f.clone()
	out.MultiLevel = true
	out.LevelNames = []string{"Metric", levelName}
	return out
}

func (f *Frame) clone() *Frame {
	values := make([][]float64, len(f.Values))
	for i, row := range f.Values {
		values[i] = slices.Clone(row)
	}
	return &Frame{
		Index:      slices.Clone(f.Index),
		IndexName:  f.IndexName,
		Columns:    slices.Clone(f.Columns),
		MultiLevel: f.MultiLevel,
		LevelNames: slices.Clone(f.LevelNames),
		Values:     values,
	}
}

// Concat joins frames column-wise. All frames must have the same number of
// rows. When any frame is two-level the result is two-level and flat frames
// are promoted; levelName names the second level when no frame provides
// one.
func Concat(levelName string, frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return &Frame{LevelNames: []string{"Metric"}}, nil
	}
	multi := false
	for _, f := range frames {
		if f.MultiLevel {
			multi = true
			if len(f.LevelNames) > 1 && f.LevelNames[1] != "" {
				if levelName == "" {
					levelName = f.LevelNames[1]
				} else if levelName != f.LevelNames[1] {
					return nil, fmt.Errorf("%w: %q and %q", ErrLevelNames, levelName, f.LevelNames[1])
				}
			}
		}
	}

	first := frames[0]
	out := &Frame{
		Index:      slices.Clone(first.Index),
		IndexName:  first.IndexName,
		LevelNames: []string{"Metric"},
		Values:     make([][]float64, len(first.Values)),
	}
	for _, f := range frames {
		if len(f.Values) != len(out.Values) {
			return nil, fmt.Errorf("%w: %d rows, expected %d", ErrShape, len(f.Values), len(out.Values))
		}
		out.Columns = append(out.Columns, f.Columns...)
		for i, row := range f.Values {
			out.Values[i] = append(out.Values[i], row...)
		}
	}
	if multi {
		return out.Promote(levelName), nil
	}
	return out, nil
}

// ConcatRows stacks frames with identical columns and names each row with
// the matching entry of index.
func ConcatRows(indexName string, index []string, frames ...*Frame) (*Frame, error) {
	if len(index) != len(frames) {
		return nil, fmt.Errorf("%w: %d index entries for %d frames", ErrShape, len(index), len(frames))
	}
	if len(frames) == 0 {
		return &Frame{IndexName: indexName, LevelNames: []string{"Metric"}}, nil
	}
	first := frames[0]
	out := &Frame{
		IndexName:  indexName,
		Columns:    slices.Clone(first.Columns),
		MultiLevel: first.MultiLevel,
		LevelNames: slices.Clone(first.LevelNames),
	}
	for k, f := range frames {
		if !slices.Equal(f.Columns, first.Columns) {
			return nil, fmt.Errorf("%w: frame %d has columns %v, expected %v", ErrShape, k, f.Columns, first.Columns)
		}
		for _, row := range f.Values {
			out.Index = append(out.Index, index[k])
			out.Values = append(out.Values, slices.Clone(row))
		}
	}
	return out, nil
}

// String renders the frame as a borderless text table. Two-level frames
// carry the second column level as the first body row.
func (f *Frame) String() string {
	levelName := func(i int) string {
		if i < len(f.LevelNames) {
			return f.LevelNames[i]
		}
		return ""
	}

	headers := []string{levelName(0)}
	for _, c := range f.Columns {
		headers = append(headers, c.Metric)
	}
	var rows [][]string
	if f.MultiLevel {
		labels := []string{levelName(1)}
		for _, c := range f.Columns {
			labels = append(labels, c.Label)
		}
		rows = append(rows, labels)
	}
	for i, values := range f.Values {
		row := []string{f.Index[i]}
		for _, v := range values {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

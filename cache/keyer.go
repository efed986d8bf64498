package cache

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/jonwraymond/evalops/fingerprint"
	"gonum.org/v1/gonum/mat"
)

// KeySpec is a logical cache request.
type KeySpec struct {
	// Scope isolates keys of one report state, usually its identifier.
	Scope string
	// Operation names the computation: a response method, a metric
	// function or a display class.
	Operation string
	// Source is the data source selector.
	Source string
	// Fingerprint identifies externally supplied data. Empty for stored
	// data sets.
	Fingerprint string
	// Params are all other parameters that affect the result.
	Params map[string]any
}

// Keyer turns a KeySpec into a cache key. The same spec yields the same
// key whatever the iteration order of its params.
type Keyer interface {
	Key(spec KeySpec) (string, error)
}

// DefaultKeyer hashes params with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key returns cache:<scope>:<operation>:<source>[:<fingerprint>]:<hash>,
// hash being 16 hex digits of the digest of the canonical params.
func (*DefaultKeyer) Key(spec KeySpec) (string, error) {
	if spec.Scope == "" || spec.Operation == "" {
		return "", fmt.Errorf("%w: scope and operation are required", ErrInvalidKey)
	}
	digest := sha256.New()
	w := bufio.NewWriter(digest)
	if err := writeCanonical(w, spec.Params); err != nil {
		return "", fmt.Errorf("cache: params of %s: %w", spec.Operation, err)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("cache:")
	b.WriteString(spec.Scope)
	b.WriteByte(':')
	b.WriteString(spec.Operation)
	b.WriteByte(':')
	b.WriteString(spec.Source)
	if spec.Fingerprint != "" {
		b.WriteByte(':')
		b.WriteString(spec.Fingerprint)
	}
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(digest.Sum(nil)[:8]))

	key := b.String()
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// writeCanonical writes v as JSON with object keys sorted. Arrays of
// numbers, matrices included, are written as their content fingerprint.
func writeCanonical(w *bufio.Writer, v any) error {
	switch val := v.(type) {
	case nil:
		_, err := w.WriteString("null")
		return err
	case map[string]any:
		w.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(val)) {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := writeJSON(w, k); err != nil {
				return err
			}
			w.WriteByte(':')
			if err := writeCanonical(w, val[k]); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		return w.WriteByte('}')
	case []any:
		w.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := writeCanonical(w, item); err != nil {
				return err
			}
		}
		return w.WriteByte(']')
	case *float64:
		if val == nil {
			return writeCanonical(w, nil)
		}
		return writeJSON(w, *val)
	case *mat.Dense:
		if val == nil {
			return writeCanonical(w, nil)
		}
		return writeJSON(w, "array:"+fingerprint.Matrix(val))
	case mat.Matrix:
		return writeJSON(w, "array:"+fingerprint.Matrix(val))
	case []float64:
		return writeJSON(w, "array:"+fingerprint.Floats(val))
	case [][]float64, []int:
		fp, err := fingerprint.Of(val)
		if err != nil {
			return err
		}
		return writeJSON(w, "array:"+fp)
	default:
		return writeJSON(w, val)
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

var _ Keyer = (*DefaultKeyer)(nil)

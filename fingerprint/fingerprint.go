// Package fingerprint derives content identifiers for array-like data.
//
// Two values with the same content produce the same fingerprint regardless
// of their identity or backing storage layout. Fingerprints are 16 hex
// characters of a 64-bit xxhash over a type tag, the dimensions and the raw
// IEEE-754 bits of every element in row-major order.
package fingerprint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

// ErrUnsupportedType is returned for values that have no content hash.
var ErrUnsupportedType = errors.New("fingerprint: unsupported type")

// Of fingerprints a sequence of values. nil entries are hashed as absent so
// that (X, nil) differs from (X, y).
//
// Supported: mat.Matrix, []float64, [][]float64, []int, []string, string,
// float64, int, bool and nil.
func Of(values ...any) (string, error) {
	d := xxhash.New()
	var buf [8]byte
	writeUint := func(u uint64) {
		binary.LittleEndian.PutUint64(buf[:], u)
		_, _ = d.Write(buf[:])
	}
	writeFloat := func(f float64) {
		if f == 0 {
			f = 0 // fold -0 into +0
		}
		writeUint(math.Float64bits(f))
	}
	writeTag := func(tag byte) {
		_, _ = d.Write([]byte{tag})
	}

	for i, v := range values {
		switch x := v.(type) {
		case nil:
			writeTag('n')
		case *mat.Dense:
			if x == nil {
				writeTag('n')
				continue
			}
			writeMatrix(x, writeTag, writeUint, writeFloat)
		case *mat.VecDense:
			if x == nil {
				writeTag('n')
				continue
			}
			writeMatrix(x, writeTag, writeUint, writeFloat)
		case mat.Matrix:
			writeMatrix(x, writeTag, writeUint, writeFloat)
		case []float64:
			writeTag('f')
			writeUint(uint64(len(x)))
			for _, f := range x {
				writeFloat(f)
			}
		case [][]float64:
			writeTag('F')
			writeUint(uint64(len(x)))
			for _, row := range x {
				writeUint(uint64(len(row)))
				for _, f := range row {
					writeFloat(f)
				}
			}
		case []int:
			writeTag('i')
			writeUint(uint64(len(x)))
			for _, n := range x {
				writeUint(uint64(n))
			}
		case []string:
			writeTag('s')
			writeUint(uint64(len(x)))
			for _, s := range x {
				writeUint(uint64(len(s)))
				_, _ = d.WriteString(s)
			}
		case string:
			writeTag('S')
			writeUint(uint64(len(x)))
			_, _ = d.WriteString(x)
		case float64:
			writeTag('d')
			writeFloat(x)
		case int:
			writeTag('I')
			writeUint(uint64(x))
		case bool:
			writeTag('b')
			if x {
				writeUint(1)
			} else {
				writeUint(0)
			}
		default:
			return "", fmt.Errorf("%w: argument %d is %T", ErrUnsupportedType, i, v)
		}
	}
	return fmt.Sprintf("%016x", d.Sum64()), nil
}

// Matrix fingerprints a single matrix. A nil matrix has a fixed fingerprint.
func Matrix(m mat.Matrix) string {
	fp, _ := Of(m)
	return fp
}

// Floats fingerprints a slice of floats.
func Floats(v []float64) string {
	fp, _ := Of(v)
	return fp
}

func writeMatrix(m mat.Matrix, tag func(byte), writeUint func(uint64), writeFloat func(float64)) {
	tag('m')
	r, c := 0, 0
	if !isEmptyDense(m) {
		r, c = m.Dims()
	}
	writeUint(uint64(r))
	writeUint(uint64(c))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			writeFloat(m.At(i, j))
		}
	}
}

func isEmptyDense(m mat.Matrix) bool {
	switch v := m.(type) {
	case *mat.Dense:
		return v.IsEmpty()
	case *mat.VecDense:
		return v.IsEmpty()
	}
	return false
}

package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector wraps a float64 slice for storage in an embedding column. It reads
// and writes the pgvector text format "[1,2,3]", which is also a valid JSON
// array, so the same value works against a PostgreSQL VECTOR column and a
// SQLite TEXT column. A nil slice maps to SQL NULL.
type Vector struct {
	floats []float64
}

// NewVector creates a Vector from a float64 slice. The input is copied so
// later mutations of the source slice have no effect. A nil input yields a
// NULL vector.
func NewVector(floats []float64) Vector {
	if floats == nil {
		return Vector{}
	}
	cp := make([]float64, len(floats))
	copy(cp, floats)
	return Vector{floats: cp}
}

// Floats returns a copy of the underlying slice, or nil for a NULL vector.
func (v Vector) Floats() []float64 {
	if v.floats == nil {
		return nil
	}
	cp := make([]float64, len(v.floats))
	copy(cp, v.floats)
	return cp
}

// Dimension returns the number of elements in the vector.
func (v Vector) Dimension() int {
	return len(v.floats)
}

// Valid reports whether the vector holds a value (is not NULL).
func (v Vector) Valid() bool {
	return v.floats != nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(value any) error {
	if value == nil {
		v.floats = nil
		return nil
	}

	var raw string
	switch val := value.(type) {
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return fmt.Errorf("cannot scan %T into Vector", value)
	}

	floats, err := ParseVector(raw)
	if err != nil {
		return err
	}
	v.floats = floats
	return nil
}

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v.floats == nil {
		return nil, nil
	}
	return v.String(), nil
}

// String returns the vector literal "[1,2,3]".
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(len(v.floats)*12 + 2)
	b.WriteByte('[')
	for i, f := range v.floats {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVector parses the text form "[1,2,3]". Whitespace around elements is
// ignored and "[]" yields an empty, non-nil slice.
func ParseVector(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, fmt.Errorf("parse vector: missing brackets in %q", truncateSQL(raw))
	}
	raw = strings.TrimSpace(raw[1 : len(raw)-1])
	if raw == "" {
		return []float64{}, nil
	}

	parts := strings.Split(raw, ",")
	floats := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse vector element %d: %w", i, err)
		}
		floats[i] = f
	}
	return floats, nil
}

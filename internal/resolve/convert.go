package resolve

import (
	"context"

	"github.com/agentic-research/pubsubconf/internal/nodespace"
)

// Uint8 converts a Byte value.
func Uint8(v any) (uint8, error) {
	if b, ok := v.(uint8); ok {
		return b, nil
	}
	return 0, malformed("Byte", v)
}

// Uint16 converts a UInt16 value, widening Byte.
func Uint16(v any) (uint16, error) {
	switch t := v.(type) {
	case uint8:
		return uint16(t), nil
	case uint16:
		return t, nil
	}
	return 0, malformed("UInt16", v)
}

// Uint32 converts a UInt32 value, widening Byte and UInt16.
func Uint32(v any) (uint32, error) {
	switch t := v.(type) {
	case uint8:
		return uint32(t), nil
	case uint16:
		return uint32(t), nil
	case uint32:
		return t, nil
	}
	return 0, malformed("UInt32", v)
}

// Int32 converts an Int32 value. Enumerations arrive as Int32.
func Int32(v any) (int32, error) {
	if i, ok := v.(int32); ok {
		return i, nil
	}
	return 0, malformed("Int32", v)
}

// Float64 converts a Double value, widening Float. Durations are Doubles.
func Float64(v any) (float64, error) {
	switch t := v.(type) {
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	}
	return 0, malformed("Double", v)
}

// String converts a String value.
func String(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", malformed("String", v)
}

// Strings converts a String array. A null value is an empty array.
func Strings(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	}
	return nil, malformed("String[]", v)
}

// Float64s converts a Double array. A null value is an empty array.
func Float64s(v any) ([]float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return t, nil
	}
	return nil, malformed("Double[]", v)
}

// Bundle is a batch of named child values read in one ResolveMany call,
// converted field by field. The first error sticks; later accessors return
// zero values, so a decode is written straight through and checked once.
type Bundle struct {
	names  map[string]int
	values []any
	err    error
}

// Bundle resolves names under node in one batch.
func (r *Resolver) Bundle(ctx context.Context, node nodespace.NodeID, names ...string) *Bundle {
	b := &Bundle{names: make(map[string]int, len(names))}
	for i, n := range names {
		b.names[n] = i
	}
	b.values, b.err = r.ResolveMany(ctx, node, QNs(names...))
	return b
}

// Err returns the first error encountered.
func (b *Bundle) Err() error { return b.err }

func (b *Bundle) value(name string) (any, bool) {
	if b.err != nil {
		return nil, false
	}
	i, ok := b.names[name]
	if !ok {
		panic("resolve: field " + name + " not requested in bundle")
	}
	return b.values[i], true
}

// Get converts the named value of b with conv. Conversion failures are
// recorded on b as a *FieldError.
func Get[T any](b *Bundle, name string, conv func(any) (T, error)) T {
	var zero T
	v, ok := b.value(name)
	if !ok {
		return zero
	}
	out, err := conv(v)
	if err != nil {
		b.err = Field(name, err)
		return zero
	}
	return out
}

func (b *Bundle) Uint8(name string) uint8 { return Get(b, name, Uint8) }
func (b *Bundle) Uint16(name string) uint16 { return Get(b, name, Uint16) }
func (b *Bundle) Uint32(name string) uint32 { return Get(b, name, Uint32) }
func (b *Bundle) Int32(name string) int32 { return Get(b, name, Int32) }
func (b *Bundle) Float64(name string) float64 { return Get(b, name, Float64) }
func (b *Bundle) String(name string) string { return Get(b, name, String) }

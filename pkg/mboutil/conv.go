// Package mboutil collects small numeric and correlation-id helpers shared
// by the book, replay, and push-server packages.
package mboutil

import (
	"errors"
	"math"
)

// U32ToI32 converts a uint32 to an int32, rejecting values that would
// overflow rather than wrapping silently.
func U32ToI32(i uint32) (int32, error) {
	if i <= uint32(math.MaxInt32) {
		return int32(i), nil // #nosec G115
	}
	return 0, errors.New("integer overflow")
}

// U32ToI32Unsafe panics instead of returning an error; used only where the
// caller has already bounded the input (e.g. a value parsed from a u32 CSV
// field that the caller knows fits).
func U32ToI32Unsafe(i uint32) int32 {
	v, err := U32ToI32(i)
	if err != nil {
		panic(err)
	}
	return v
}

// I64ToI32Clamped saturates rather than wraps; used for order sizes where a
// malformed feed value should be bounded, not misread.
func I64ToI32Clamped(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

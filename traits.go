package dem

import "strconv"

// A Cell is a grid element type.
type Cell interface {
	comparable
}

// A Traits carries the per-element-type behavior of a grid. Go generics
// cannot specialize a method per instantiation, so each canonical element
// type registers its behavior here and constructors resolve it once; the
// cell access path never inspects types.
type Traits[T Cell] struct {
	// SizeBytes is the in-memory size of one cell, used for the resize
	// allocation estimate.
	SizeBytes int

	// OutputBytes is the approximate printed width of one cell in a textual
	// serialization, including its delimiter. Zero means no estimate is
	// registered and EstimatedOutputSize will panic.
	OutputBytes int

	// Unset is the value the no-data sentinel takes on a fresh grid.
	Unset T

	// Format renders one cell for textual serialization.
	Format func(T) string

	// FromFloat64 and ToFloat64 convert the no-data sentinel when metadata
	// is copied between grids of different element types. Values outside
	// the target type's range are clamped.
	FromFloat64 func(float64) T
	ToFloat64   func(T) float64
}

var (
	Float64Traits = Traits[float64]{
		SizeBytes: 8,
		Unset:     -1,
		Format: func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		FromFloat64: func(v float64) float64 { return v },
		ToFloat64:   func(v float64) float64 { return v },
	}

	Float32Traits = Traits[float32]{
		SizeBytes:   4,
		OutputBytes: 9,
		Unset:       -1,
		Format: func(v float32) string {
			return strconv.FormatFloat(float64(v), 'f', -1, 32)
		},
		FromFloat64: func(v float64) float32 { return float32(v) },
		ToFloat64:   func(v float32) float64 { return float64(v) },
	}

	Int8Traits = Traits[int8]{
		SizeBytes:   1,
		OutputBytes: 4,
		Unset:       -1,
		Format: func(v int8) string {
			return strconv.FormatInt(int64(v), 10)
		},
		FromFloat64: func(v float64) int8 {
			return int8(clamp(v, -128, 127))
		},
		ToFloat64: func(v int8) float64 { return float64(v) },
	}

	BoolTraits = Traits[bool]{
		SizeBytes:   1,
		OutputBytes: 2,
		Unset:       true,
		Format: func(v bool) string {
			if v {
				return "1"
			}
			return "0"
		},
		FromFloat64: func(v float64) bool { return v != 0 },
		ToFloat64: func(v bool) float64 {
			if v {
				return 1
			}
			return 0
		},
	}

	Uint32Traits = Traits[uint32]{
		SizeBytes:   4,
		OutputBytes: 9,
		Unset:       ^uint32(0),
		Format: func(v uint32) string {
			return strconv.FormatUint(uint64(v), 10)
		},
		FromFloat64: func(v float64) uint32 {
			return uint32(clamp(v, 0, float64(^uint32(0))))
		},
		ToFloat64: func(v uint32) float64 { return float64(v) },
	}

	Int32Traits = Traits[int32]{
		SizeBytes: 4,
		Unset:     -1,
		Format: func(v int32) string {
			return strconv.FormatInt(int64(v), 10)
		},
		FromFloat64: func(v float64) int32 {
			return int32(clamp(v, -2147483648, 2147483647))
		},
		ToFloat64: func(v int32) float64 { return float64(v) },
	}
)

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

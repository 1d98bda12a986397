package common

import (
	"math/bits"
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// BytesToWords reinterprets a byte slice as little-endian uint32 words without copying.
// Trailing bytes that do not fill a whole word are ignored.
//
// Parameters:
//   - data: byte slice, expected to be 4-byte aligned
//
// Returns:
//   - []uint32: word view sharing memory with data, or nil if data holds less than one word
func BytesToWords(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// IsPowerOfTwo reports whether v is a non-zero power of two.
func IsPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// NextPowerOfTwo returns the smallest power of two greater than or equal to v.
// Zero maps to one; values above 1<<31 saturate at 1<<31.
func NextPowerOfTwo(v uint32) uint32 {
	if v <= 1 {
		return 1
	}
	if v > 1<<31 {
		return 1 << 31
	}
	return 1 << (32 - bits.LeadingZeros32(v-1))
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T int | int32 | uint32 | float32 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DivCeil returns the ceiling of a / b for positive b.
func DivCeil(a, b int) int {
	return (a + b - 1) / b
}

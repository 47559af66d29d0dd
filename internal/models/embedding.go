// ABOUTME: Embedding vector type with validation and binary encoding
// ABOUTME: Vectors are stored as packed little-endian float32 values
package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrEmptyVector is returned when an embedding has no components
var ErrEmptyVector = errors.New("embedding vector cannot be empty")

// Vector is a fixed-length embedding produced by an embedding model
type Vector []float32

// Dimensions returns the vector length
func (v Vector) Dimensions() int {
	return len(v)
}

// Validate rejects empty vectors and non-finite components
func (v Vector) Validate() error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("embedding component %d is not finite: %v", i, x)
		}
	}
	return nil
}

// ValidateDimension checks the vector against an expected dimension
func (v Vector) ValidateDimension(expected int) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	if len(v) != expected {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", expected, len(v))
	}
	return nil
}

// Bytes packs the vector as little-endian float32 values
func (v Vector) Bytes() []byte {
	blob := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(x))
	}
	return blob
}

// VectorFromBytes unpacks a blob written by Vector.Bytes
func VectorFromBytes(blob []byte) (Vector, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	v := make(Vector, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}

// Copyright 2025 Ember Compute Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package compute provides the public API for backend-neutral device buffer
// contracts in the Ember compute runtime.
//
// The package defines the types every backend shares:
//   - Array: the generic device buffer interface (element count, element
//     size, diagnostic name)
//   - Error, Kind: the structured error taxonomy for device-memory failures
//   - DataType: element type tags with byte sizes
//
// Example:
//
//	func describe(a compute.Array) string {
//	    return fmt.Sprintf("%s: %d x %dB", a.Name(), a.Len(), a.ElementSize())
//	}
package compute

import (
	"github.com/ember-compute/ember/internal/compute"
)

// Array is the generic contract for a device-resident buffer.
// Any backend's array satisfies it.
type Array = compute.Array

// Error is the structured error raised by device array operations.
type Error = compute.Error

// Kind categorizes a device-memory failure.
type Kind = compute.Kind

// Error kinds.
const (
	KindMisuse        Kind = compute.KindMisuse
	KindBounds        Kind = compute.KindBounds
	KindShapeMismatch Kind = compute.KindShapeMismatch
	KindDriver        Kind = compute.KindDriver
)

// DataType represents runtime type information for array elements.
type DataType = compute.DataType

// Element type constants.
const (
	Float32 DataType = compute.Float32
	Float64 DataType = compute.Float64
	Int32   DataType = compute.Int32
	Int64   DataType = compute.Int64
	Uint8   DataType = compute.Uint8
)

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	return compute.IsKind(err, k)
}

// SameShape reports whether two arrays have identical element count and
// element size.
func SameShape(a, b Array) bool {
	return compute.SameShape(a, b)
}

// Copyright 2025 Ember Compute Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides device arrays in host memory.
//
// The CPU backend is the reference implementation of the array contract
// and the fallback when no accelerator is present.
//
// Example:
//
//	host := cpu.New()
//	a, _ := cpu.NewArrayOf(host, 1024, compute.Float32, "posq")
//	defer a.Release()
package cpu

import (
	"github.com/ember-compute/ember/compute"
	internalcpu "github.com/ember-compute/ember/internal/backend/cpu"
)

// Backend groups host arrays the way an accelerator context groups device
// arrays.
type Backend = internalcpu.Backend

// Array is one host-memory block with device-array semantics.
type Array = internalcpu.Array

// Option configures a Backend.
type Option = internalcpu.Option

// WithLogger attaches a structured logger to the backend.
var WithLogger = internalcpu.WithLogger

// Compile-time check that Array implements the generic buffer contract.
var _ compute.Array = (*Array)(nil)

// New creates a host-memory backend. It never fails.
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}

// NewArray allocates a host array of length elements of elemSize bytes.
func NewArray(b *Backend, length, elemSize int, name string) (*Array, error) {
	return internalcpu.NewArray(b, length, elemSize, name)
}

// NewArrayOf allocates a host array sized for length elements of dtype.
func NewArrayOf(b *Backend, length int, dtype compute.DataType, name string) (*Array, error) {
	return internalcpu.NewArrayOf(b, length, dtype, name)
}

// Borrow wraps host memory owned elsewhere in a non-owning view.
func Borrow(b *Backend, data []byte, length, elemSize int, name string) *Array {
	return internalcpu.Borrow(b, data, length, elemSize, name)
}

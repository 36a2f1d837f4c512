// Copyright 2025 Ember Compute Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cuda provides device arrays on NVIDIA GPUs via the CUDA driver
// API.
//
// The package requires building with the cuda tag on linux; without it,
// IsAvailable reports false and New fails.
//
// Example:
//
//	ctx, err := cuda.New(0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	posq, err := cuda.NewArrayOf(ctx, 1024, compute.Float32, "posq")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer posq.Release()
package cuda

import (
	"github.com/ember-compute/ember/compute"
	internalcuda "github.com/ember-compute/ember/internal/backend/cuda"
)

// Context owns one driver context and the command stream used for
// non-blocking transfers.
type Context = internalcuda.Context

// Array is one contiguous block of device memory.
type Array = internalcuda.Array

// DevicePtr is an opaque device-memory address.
type DevicePtr = internalcuda.DevicePtr

// Stream is an opaque command stream handle.
type Stream = internalcuda.Stream

// Option configures a Context.
type Option = internalcuda.Option

// WithLogger attaches a structured logger to the context.
var WithLogger = internalcuda.WithLogger

// Compile-time check that Array implements the generic buffer contract.
var _ compute.Array = (*Array)(nil)

// New creates a context on the device with the given ordinal.
func New(ordinal int, opts ...Option) (*Context, error) {
	return internalcuda.New(ordinal, opts...)
}

// NewArray allocates a device array of length elements of elemSize bytes.
func NewArray(ctx *Context, length, elemSize int, name string) (*Array, error) {
	return internalcuda.NewArray(ctx, length, elemSize, name)
}

// NewArrayOf allocates a device array sized for length elements of dtype.
func NewArrayOf(ctx *Context, length int, dtype compute.DataType, name string) (*Array, error) {
	return internalcuda.NewArrayOf(ctx, length, dtype, name)
}

// Borrow wraps device memory owned elsewhere in a non-owning view.
func Borrow(ctx *Context, ptr DevicePtr, length, elemSize int, name string) *Array {
	return internalcuda.Borrow(ctx, ptr, length, elemSize, name)
}

// IsAvailable reports whether the CUDA driver can be initialized and at
// least one device is present.
func IsAvailable() bool {
	return internalcuda.IsAvailable()
}

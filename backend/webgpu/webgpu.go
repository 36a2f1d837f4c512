// Copyright 2025 Ember Compute Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides device arrays on WebGPU devices.
//
// WebGPU is a cross-platform graphics and compute API that works on:
//   - Windows (via Dawn/D3D12)
//   - macOS (via Dawn/Metal)
//   - Linux (via Dawn/Vulkan)
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	posq, err := webgpu.NewArrayOf(gpu, 1024, compute.Float32, "posq")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer posq.Release()
package webgpu

import (
	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/ember-compute/ember/compute"
	internalwebgpu "github.com/ember-compute/ember/internal/backend/webgpu"
)

// Backend owns the WebGPU instance, adapter, device, and queue.
type Backend = internalwebgpu.Backend

// Array is one WebGPU buffer with device-array semantics.
type Array = internalwebgpu.Array

// Option configures a Backend.
type Option = internalwebgpu.Option

// WithLogger attaches a structured logger to the backend.
var WithLogger = internalwebgpu.WithLogger

// Compile-time check that Array implements the generic buffer contract.
var _ compute.Array = (*Array)(nil)

// New creates a new WebGPU backend.
func New(opts ...Option) (*Backend, error) {
	return internalwebgpu.New(opts...)
}

// NewArray allocates a device array of length elements of elemSize bytes.
func NewArray(b *Backend, length, elemSize int, name string) (*Array, error) {
	return internalwebgpu.NewArray(b, length, elemSize, name)
}

// NewArrayOf allocates a device array sized for length elements of dtype.
func NewArrayOf(b *Backend, length int, dtype compute.DataType, name string) (*Array, error) {
	return internalwebgpu.NewArrayOf(b, length, dtype, name)
}

// Borrow wraps a buffer owned elsewhere in a non-owning view.
func Borrow(b *Backend, buffer *wgpu.Buffer, length, elemSize int, name string) *Array {
	return internalwebgpu.Borrow(b, buffer, length, elemSize, name)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    defer gpu.Release()
//	} else {
//	    host := cpu.New()
//	    _ = host
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

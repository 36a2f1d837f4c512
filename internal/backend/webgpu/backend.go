// Package webgpu implements device arrays on WebGPU devices.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// WebGPU has no thread-local "current context": all work for a device is
// ordered by submission on its queue, so the queue plays the role the
// command stream plays on the CUDA backend, and no context guard is needed.
package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/ember-compute/ember/internal/compute"
)

// Backend owns the WebGPU instance, adapter, device, and queue that arrays
// of this backend allocate from and submit to.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo *wgpu.AdapterInfoGo
	log         *zap.Logger
	valid       bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New(opts ...Option) (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	adapterInfo, _ := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	b := &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: adapterInfo,
		log:         zap.NewNop(),
		valid:       true,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log.Debug("created webgpu backend", zap.String("adapter", b.Name()))
	return b, nil
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// Name returns a human-readable backend name.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", b.adapterInfo.Device, b.adapterInfo.Vendor)
	}
	return "WebGPU"
}

// IsValid reports whether the backend's device and queue are still usable.
// Arrays check this before releasing buffers: a released backend has
// already reclaimed them.
func (b *Backend) IsValid() bool {
	return b.valid
}

// Unwrap downcasts a generic array to this backend's concrete type. It
// fails if the array belongs to a different backend instance.
func (b *Backend) Unwrap(a compute.Array) (*Array, error) {
	arr, ok := a.(*Array)
	if !ok {
		return nil, compute.Misusef("unwrap", a.Name(), "array does not belong to the WebGPU backend")
	}
	if arr.backend != b {
		return nil, compute.Misusef("unwrap", a.Name(), "array belongs to a different backend instance")
	}
	return arr, nil
}

// Release releases all WebGPU resources and marks the backend invalid.
// Arrays still holding buffers from this backend skip their release
// afterwards.
func (b *Backend) Release() {
	if !b.valid {
		return
	}
	b.valid = false

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
	b.log.Debug("released webgpu backend")
}

// createBuffer creates a GPU buffer and uploads initial data through a
// mapped-at-creation range.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
// MapAsync drains the queue, so readBuffer doubles as a synchronization
// point for previously submitted work.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, offset, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, offset, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// Synchronize blocks until all work submitted to the queue so far has
// completed, by mapping a trivial staging readback.
func (b *Backend) Synchronize() error {
	if !b.valid {
		return compute.Misusef("synchronize", "", "backend has been released")
	}
	scratch := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  4,
	})
	defer scratch.Release()

	if _, err := b.readBuffer(scratch, 0, 4); err != nil {
		return compute.DriverError("synchronize", "", 0, err.Error())
	}
	return nil
}

package webgpu

import (
	"github.com/go-webgpu/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/ember-compute/ember/internal/compute"
)

// arrayUsage is the usage set every device array buffer carries: readable
// and writable by copies in both directions.
const arrayUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Array is one WebGPU buffer holding length elements of elemSize bytes.
// It mirrors the CUDA backend's array semantics: single-owner allocation,
// destructive resize, bounds-checked sub-range uploads, and shape-exact
// device-to-device copies.
//
// Not safe for concurrent use; callers serialize access per instance.
type Array struct {
	backend  *Backend
	buffer   *wgpu.Buffer
	length   int
	elemSize int
	name     string

	// bufferSize is the actual buffer size, aligned to 4 bytes as WebGPU
	// requires for copies.
	bufferSize uint64

	ownsMemory bool
}

var _ compute.Array = (*Array)(nil)

// alignedSize rounds a byte count up to WebGPU's 4-byte copy alignment,
// with a 4-byte floor.
func alignedSize(n int) uint64 {
	size := uint64(n)
	if size < 4 {
		size = 4
	}
	return (size + 3) &^ 3
}

// NewArray allocates a device array of length elements of elemSize bytes.
func NewArray(b *Backend, length, elemSize int, name string) (*Array, error) {
	a := &Array{}
	if err := a.Initialize(b, length, elemSize, name); err != nil {
		return nil, err
	}
	return a, nil
}

// NewArrayOf allocates a device array sized for length elements of dtype.
func NewArrayOf(b *Backend, length int, dtype compute.DataType, name string) (*Array, error) {
	return NewArray(b, length, dtype.Size(), name)
}

// Borrow wraps a buffer owned elsewhere. The view never releases the buffer
// and rejects resize; it must not outlive the owner's release of it.
func Borrow(b *Backend, buffer *wgpu.Buffer, length, elemSize int, name string) *Array {
	return &Array{
		backend:    b,
		buffer:     buffer,
		length:     length,
		elemSize:   elemSize,
		name:       name,
		bufferSize: alignedSize(length * elemSize),
	}
}

// Initialize allocates the backing buffer. The array must not already be
// initialized; on failure the array stays uninitialized.
func (a *Array) Initialize(b *Backend, length, elemSize int, name string) (err error) {
	if a.buffer != nil {
		return compute.Misusef("create", a.name, "array has already been initialized")
	}
	if length <= 0 || elemSize <= 0 {
		return compute.Misusef("create", name, "invalid size %d x %dB", length, elemSize)
	}

	defer func() {
		if r := recover(); r != nil {
			err = compute.DriverError("create", name, 0, recoverDetail(r))
		}
	}()

	size := alignedSize(length * elemSize)
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: arrayUsage,
		Size:  size,
	})

	a.backend = b
	a.buffer = buffer
	a.length = length
	a.elemSize = elemSize
	a.name = name
	a.bufferSize = size
	a.ownsMemory = true

	b.log.Debug("allocated array",
		zap.String("array", name),
		zap.Int("elements", length),
		zap.Int("elementSize", elemSize))
	return nil
}

// Resize releases the backing buffer and allocates a fresh one for length
// elements, keeping element size, name, and backend. Contents are not
// carried over.
func (a *Array) Resize(length int) error {
	if a.buffer == nil {
		return compute.Misusef("resize", a.name, "array has not been initialized")
	}
	if !a.ownsMemory {
		return compute.Misusef("resize", a.name, "array does not own its storage")
	}

	a.buffer.Release()
	a.buffer = nil
	return a.Initialize(a.backend, length, a.elemSize, a.name)
}

// Upload copies the full buffer's worth of bytes from src into the array.
func (a *Array) Upload(src []byte, blocking bool) error {
	return a.UploadSub(src, 0, a.length, blocking)
}

// UploadSub copies elements*ElementSize() bytes from src into the array
// starting at element offset. The copy is staged through a
// mapped-at-creation buffer and submitted on the backend's queue; with
// blocking true the call waits for the queue to drain before returning.
//
// WebGPU requires copy offsets to be 4-byte aligned, so offset*ElementSize()
// must be a multiple of 4. Misaligned offsets surface as driver errors.
// Byte counts that are not a multiple of 4 are handled by merging the
// trailing word with the array's existing contents, so bytes outside the
// requested range are never modified.
func (a *Array) UploadSub(src []byte, offset, elements int, blocking bool) (err error) {
	if a.buffer == nil {
		return compute.Misusef("upload", a.name, "array has not been initialized")
	}
	if offset < 0 || elements < 0 || offset+elements > a.length {
		return compute.Boundsf("upload", a.name,
			"range [%d, %d) exceeds array length %d", offset, offset+elements, a.length)
	}
	n := elements * a.elemSize
	if len(src) < n {
		return compute.Boundsf("upload", a.name,
			"source holds %d bytes, need %d", len(src), n)
	}
	if n == 0 {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = compute.DriverError("upload", a.name, 0, recoverDetail(r))
		}
	}()

	// Stage the bytes in a mapped buffer and copy into place on the queue.
	// When n is not a multiple of 4 the copy must still cover whole words,
	// so the trailing word is merged with the array's existing bytes rather
	// than zero-padded over them.
	dstOff := uint64(offset * a.elemSize)
	staged := make([]byte, alignedSize(n))
	if n != len(staged) {
		tail, err := a.backend.readBuffer(a.buffer, dstOff, uint64(len(staged)))
		if err != nil {
			return compute.DriverError("upload", a.name, 0, err.Error())
		}
		copy(staged, tail)
	}
	copy(staged, src[:n])
	staging := a.backend.createBuffer(staged, wgpu.BufferUsageCopySrc)
	defer staging.Release()

	encoder := a.backend.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, a.buffer, dstOff, uint64(len(staged)))
	cmdBuffer := encoder.Finish(nil)
	a.backend.queue.Submit(cmdBuffer)

	if blocking {
		if err := a.backend.Synchronize(); err != nil {
			return err
		}
	}

	a.backend.log.Debug("uploaded array",
		zap.String("array", a.name),
		zap.Int("offset", offset),
		zap.Int("elements", elements),
		zap.Bool("blocking", blocking))
	return nil
}

// Download copies the entire array into dst, which must hold at least
// Len()*ElementSize() bytes. The staging readback maps synchronously, so
// the data is complete on return for both blocking modes; the flag exists
// for contract symmetry with backends that defer completion.
func (a *Array) Download(dst []byte, blocking bool) error {
	if a.buffer == nil {
		return compute.Misusef("download", a.name, "array has not been initialized")
	}
	n := a.length * a.elemSize
	if len(dst) < n {
		return compute.Boundsf("download", a.name,
			"destination holds %d bytes, need %d", len(dst), n)
	}

	data, err := a.backend.readBuffer(a.buffer, 0, alignedSize(n))
	if err != nil {
		return compute.DriverError("download", a.name, 0, err.Error())
	}
	copy(dst[:n], data)
	return nil
}

// CopyTo issues a device-to-device copy of the full array into dst, which
// must match this array's element count and element size exactly. The copy
// is submitted on the backend's queue and is asynchronous from the host's
// perspective, ordered with respect to other work on the queue.
func (a *Array) CopyTo(dst compute.Array) (err error) {
	if a.buffer == nil {
		return compute.Misusef("copy", a.name, "array has not been initialized")
	}
	if !compute.SameShape(a, dst) {
		return compute.ShapeMismatch("copy", a, dst)
	}
	wd, err := a.backend.Unwrap(dst)
	if err != nil {
		return err
	}
	if wd.buffer == nil {
		return compute.Misusef("copy", wd.name, "destination array has not been initialized")
	}

	defer func() {
		if r := recover(); r != nil {
			err = compute.DriverError("copy", a.name, 0, recoverDetail(r))
		}
	}()

	encoder := a.backend.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(a.buffer, 0, wd.buffer, 0, a.bufferSize)
	cmdBuffer := encoder.Finish(nil)
	a.backend.queue.Submit(cmdBuffer)
	return nil
}

// Release frees the backing buffer if this array owns it and the backend is
// still valid; a released backend has already reclaimed its buffers, so the
// release is skipped. Terminal either way.
func (a *Array) Release() error {
	if a.buffer == nil {
		return nil
	}
	buffer := a.buffer
	a.buffer = nil
	if !a.ownsMemory || !a.backend.IsValid() {
		return nil
	}
	buffer.Release()
	a.backend.log.Debug("released array", zap.String("array", a.name))
	return nil
}

// Len returns the number of logical elements the array holds.
func (a *Array) Len() int { return a.length }

// ElementSize returns the size in bytes of one element.
func (a *Array) ElementSize() int { return a.elemSize }

// Name returns the diagnostic label used in error messages.
func (a *Array) Name() string { return a.name }

// Initialized reports whether the array currently has a backing buffer.
func (a *Array) Initialized() bool { return a.buffer != nil }

// OwnsMemory reports whether this instance releases the backing buffer.
func (a *Array) OwnsMemory() bool { return a.ownsMemory }

// Buffer returns the underlying WebGPU buffer, nil when uninitialized.
func (a *Array) Buffer() *wgpu.Buffer { return a.buffer }

// Backend returns the owning backend.
func (a *Array) Backend() *Backend { return a.backend }

// recoverDetail renders a recovered panic value for a driver error detail.
func recoverDetail(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "webgpu call failed"
}

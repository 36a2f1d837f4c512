// Package cpu implements device arrays in host memory. It exists as a
// reference implementation of the array contract and as a fallback when no
// accelerator is present: transfers are plain copies and every operation
// completes before returning, so the blocking flag is a no-op.
package cpu

import (
	"go.uber.org/zap"

	"github.com/ember-compute/ember/internal/compute"
)

// Backend groups host arrays the way an accelerator context groups device
// arrays, so cross-backend unwrap checks behave identically everywhere.
type Backend struct {
	log   *zap.Logger
	valid bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// New creates a host-memory backend. It never fails.
func New(opts ...Option) *Backend {
	b := &Backend{log: zap.NewNop(), valid: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsValid reports whether the backend is still usable.
func (b *Backend) IsValid() bool { return b.valid }

// Release marks the backend invalid. Host memory is garbage collected, so
// arrays need no explicit reclamation; the flag only preserves lifecycle
// symmetry with the device backends.
func (b *Backend) Release() { b.valid = false }

// Unwrap downcasts a generic array to this backend's concrete type.
func (b *Backend) Unwrap(a compute.Array) (*Array, error) {
	arr, ok := a.(*Array)
	if !ok {
		return nil, compute.Misusef("unwrap", a.Name(), "array does not belong to the CPU backend")
	}
	if arr.backend != b {
		return nil, compute.Misusef("unwrap", a.Name(), "array belongs to a different backend instance")
	}
	return arr, nil
}

// Array is one host-memory block with the same lifecycle and error
// semantics as the device backends' arrays.
type Array struct {
	backend  *Backend
	data     []byte
	length   int
	elemSize int
	name     string

	ownsMemory bool
}

var _ compute.Array = (*Array)(nil)

// NewArray allocates a host array of length elements of elemSize bytes.
func NewArray(b *Backend, length, elemSize int, name string) (*Array, error) {
	a := &Array{}
	if err := a.Initialize(b, length, elemSize, name); err != nil {
		return nil, err
	}
	return a, nil
}

// NewArrayOf allocates a host array sized for length elements of dtype.
func NewArrayOf(b *Backend, length int, dtype compute.DataType, name string) (*Array, error) {
	return NewArray(b, length, dtype.Size(), name)
}

// Borrow wraps memory owned elsewhere; the view rejects resize.
func Borrow(b *Backend, data []byte, length, elemSize int, name string) *Array {
	return &Array{backend: b, data: data, length: length, elemSize: elemSize, name: name}
}

// Initialize allocates the backing memory, zero-filled.
func (a *Array) Initialize(b *Backend, length, elemSize int, name string) error {
	if a.data != nil {
		return compute.Misusef("create", a.name, "array has already been initialized")
	}
	if length <= 0 || elemSize <= 0 {
		return compute.Misusef("create", name, "invalid size %d x %dB", length, elemSize)
	}
	a.backend = b
	a.data = make([]byte, length*elemSize)
	a.length = length
	a.elemSize = elemSize
	a.name = name
	a.ownsMemory = true
	return nil
}

// Resize reallocates for length elements; contents are not carried over.
func (a *Array) Resize(length int) error {
	if a.data == nil {
		return compute.Misusef("resize", a.name, "array has not been initialized")
	}
	if !a.ownsMemory {
		return compute.Misusef("resize", a.name, "array does not own its storage")
	}
	a.data = nil
	return a.Initialize(a.backend, length, a.elemSize, a.name)
}

// Upload copies the full buffer's worth of bytes from src.
func (a *Array) Upload(src []byte, blocking bool) error {
	return a.UploadSub(src, 0, a.length, blocking)
}

// UploadSub copies elements*ElementSize() bytes from src starting at
// element offset. The blocking flag is accepted for contract symmetry;
// host copies always complete before returning.
func (a *Array) UploadSub(src []byte, offset, elements int, blocking bool) error {
	if a.data == nil {
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
	copy(a.data[offset*a.elemSize:], src[:n])
	return nil
}

// Download copies the entire array into dst.
func (a *Array) Download(dst []byte, blocking bool) error {
	if a.data == nil {
		return compute.Misusef("download", a.name, "array has not been initialized")
	}
	n := a.length * a.elemSize
	if len(dst) < n {
		return compute.Boundsf("download", a.name,
			"destination holds %d bytes, need %d", len(dst), n)
	}
	copy(dst[:n], a.data)
	return nil
}

// CopyTo copies the full array into dst, which must match exactly in
// element count and element size.
func (a *Array) CopyTo(dst compute.Array) error {
	if a.data == nil {
		return compute.Misusef("copy", a.name, "array has not been initialized")
	}
	if !compute.SameShape(a, dst) {
		return compute.ShapeMismatch("copy", a, dst)
	}
	cd, err := a.backend.Unwrap(dst)
	if err != nil {
		return err
	}
	if cd.data == nil {
		return compute.Misusef("copy", cd.name, "destination array has not been initialized")
	}
	copy(cd.data, a.data)
	return nil
}

// Release drops the backing memory. Terminal.
func (a *Array) Release() error {
	a.data = nil
	return nil
}

// Len returns the number of logical elements the array holds.
func (a *Array) Len() int { return a.length }

// ElementSize returns the size in bytes of one element.
func (a *Array) ElementSize() int { return a.elemSize }

// Name returns the diagnostic label used in error messages.
func (a *Array) Name() string { return a.name }

// Initialized reports whether the array currently has backing memory.
func (a *Array) Initialized() bool { return a.data != nil }

// OwnsMemory reports whether this instance owns the backing memory.
func (a *Array) OwnsMemory() bool { return a.ownsMemory }

// Bytes exposes the backing memory; device backends have no equivalent.
func (a *Array) Bytes() []byte { return a.data }

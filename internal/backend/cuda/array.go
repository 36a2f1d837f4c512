package cuda

import (
	"github.com/ember-compute/ember/internal/compute"
	"go.uber.org/zap"
)

// Array is one contiguous block of device memory, either allocated by this
// instance or borrowed from another owner. All host<->device and
// device<->device movement for the block goes through it, and every driver
// call runs with the owning context pushed current.
//
// An Array is not safe for concurrent use from multiple goroutines; callers
// serialize access per instance.
type Array struct {
	ctx      *Context
	ptr      DevicePtr
	length   int
	elemSize int
	name     string

	// ownsMemory is false for borrowed views, which never free or resize.
	ownsMemory bool
}

// Compile-time check that Array satisfies the generic buffer contract.
var _ compute.Array = (*Array)(nil)

// NewArray allocates a device array of length elements of elemSize bytes.
func NewArray(ctx *Context, length, elemSize int, name string) (*Array, error) {
	a := &Array{}
	if err := a.Initialize(ctx, length, elemSize, name); err != nil {
		return nil, err
	}
	return a, nil
}

// NewArrayOf allocates a device array sized for length elements of dtype.
func NewArrayOf(ctx *Context, length int, dtype compute.DataType, name string) (*Array, error) {
	return NewArray(ctx, length, dtype.Size(), name)
}

// Borrow wraps device memory owned elsewhere. The view never frees ptr and
// rejects resize; it must not outlive the owner's release of the memory.
func Borrow(ctx *Context, ptr DevicePtr, length, elemSize int, name string) *Array {
	return &Array{ctx: ctx, ptr: ptr, length: length, elemSize: elemSize, name: name}
}

// Initialize allocates the backing device memory. The array must not
// already be initialized. On failure no partial state is retained: the
// array stays uninitialized.
func (a *Array) Initialize(ctx *Context, length, elemSize int, name string) error {
	if a.ptr != 0 {
		return compute.Misusef("create", a.name, "array has already been initialized")
	}
	if length <= 0 || elemSize <= 0 {
		return compute.Misusef("create", name, "invalid size %d x %dB", length, elemSize)
	}

	guard, err := ctx.pushCurrent("create", name)
	if err != nil {
		return err
	}
	defer guard.pop()

	ptr, st := ctx.drv.MemAlloc(uint64(length) * uint64(elemSize))
	if st != Success {
		return compute.DriverError("create", name, int(st), ctx.drv.ErrorString(st))
	}

	a.ctx = ctx
	a.ptr = ptr
	a.length = length
	a.elemSize = elemSize
	a.name = name
	a.ownsMemory = true

	ctx.log.Debug("allocated array",
		zap.String("array", name),
		zap.Int("elements", length),
		zap.Int("elementSize", elemSize))
	return nil
}

// Resize frees the backing memory and allocates a fresh block for length
// elements, keeping the element size, name, and context. Contents are not
// carried over: the contract is a capacity change, not a growable array.
//
// If the free fails, the array is left uninitialized (content lost, but no
// double free is possible) and the error is returned before any new
// allocation is attempted. Callers must treat a resize failure as
// destructive.
func (a *Array) Resize(length int) error {
	if a.ptr == 0 {
		return compute.Misusef("resize", a.name, "array has not been initialized")
	}
	if !a.ownsMemory {
		return compute.Misusef("resize", a.name, "array does not own its storage")
	}

	guard, err := a.ctx.pushCurrent("resize", a.name)
	if err != nil {
		return err
	}
	st := a.ctx.drv.MemFree(a.ptr)
	guard.pop()
	a.ptr = 0
	if st != Success {
		return compute.DriverError("resize", a.name, int(st), a.ctx.drv.ErrorString(st))
	}

	return a.Initialize(a.ctx, length, a.elemSize, a.name)
}

// Upload copies the full buffer's worth of bytes from src into device
// memory. See UploadSub for the blocking contract.
func (a *Array) Upload(src []byte, blocking bool) error {
	return a.UploadSub(src, 0, a.length, blocking)
}

// UploadSub copies elements*ElementSize() bytes from src into device memory
// starting at element offset. Bounds are checked against the logical
// element count before any driver call.
//
// With blocking false the copy is enqueued on the context's current stream
// and may still be in flight on return; the caller must synchronize before
// reusing src or depending on the result.
func (a *Array) UploadSub(src []byte, offset, elements int, blocking bool) error {
	if a.ptr == 0 {
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

	guard, err := a.ctx.pushCurrent("upload", a.name)
	if err != nil {
		return err
	}
	defer guard.pop()

	dst := a.ptr + DevicePtr(offset*a.elemSize)
	var st Status
	if blocking {
		st = a.ctx.drv.MemcpyHtoD(dst, src[:n])
	} else {
		st = a.ctx.drv.MemcpyHtoDAsync(dst, src[:n], a.ctx.stream)
	}
	if st != Success {
		return compute.DriverError("upload", a.name, int(st), a.ctx.drv.ErrorString(st))
	}

	a.ctx.log.Debug("uploaded array",
		zap.String("array", a.name),
		zap.Int("offset", offset),
		zap.Int("elements", elements),
		zap.Bool("blocking", blocking))
	return nil
}

// Download copies the entire buffer from device memory into dst, which must
// hold at least Len()*ElementSize() bytes. Same blocking contract as
// UploadSub.
func (a *Array) Download(dst []byte, blocking bool) error {
	if a.ptr == 0 {
		return compute.Misusef("download", a.name, "array has not been initialized")
	}
	n := a.length * a.elemSize
	if len(dst) < n {
		return compute.Boundsf("download", a.name,
			"destination holds %d bytes, need %d", len(dst), n)
	}

	guard, err := a.ctx.pushCurrent("download", a.name)
	if err != nil {
		return err
	}
	defer guard.pop()

	var st Status
	if blocking {
		st = a.ctx.drv.MemcpyDtoH(dst[:n], a.ptr)
	} else {
		st = a.ctx.drv.MemcpyDtoHAsync(dst[:n], a.ptr, a.ctx.stream)
	}
	if st != Success {
		return compute.DriverError("download", a.name, int(st), a.ctx.drv.ErrorString(st))
	}
	return nil
}

// CopyTo issues a device-to-device copy of the full buffer into dst, which
// must match this array's element count and element size exactly. The copy
// is enqueued on the context's current stream: always asynchronous from the
// host's perspective, ordered with respect to other work on the stream.
func (a *Array) CopyTo(dst compute.Array) error {
	if a.ptr == 0 {
		return compute.Misusef("copy", a.name, "array has not been initialized")
	}
	if !compute.SameShape(a, dst) {
		return compute.ShapeMismatch("copy", a, dst)
	}
	cd, err := a.ctx.Unwrap(dst)
	if err != nil {
		return err
	}
	if cd.ptr == 0 {
		return compute.Misusef("copy", cd.name, "destination array has not been initialized")
	}

	guard, err := a.ctx.pushCurrent("copy", a.name)
	if err != nil {
		return err
	}
	defer guard.pop()

	n := uint64(a.length) * uint64(a.elemSize)
	if st := a.ctx.drv.MemcpyDtoDAsync(cd.ptr, a.ptr, n, a.ctx.stream); st != Success {
		return &compute.Error{
			Kind:   compute.KindDriver,
			Op:     "copy",
			Array:  a.name,
			Other:  cd.name,
			Code:   int(st),
			Detail: a.ctx.drv.ErrorString(st),
		}
	}
	return nil
}

// Release frees the backing memory if this array owns it and the owning
// context is still valid. An invalidated context implies the memory was
// already reclaimed by context teardown, so the free is skipped rather than
// attempted. The array is uninitialized afterwards either way.
func (a *Array) Release() error {
	if a.ptr == 0 {
		return nil
	}
	ptr := a.ptr
	a.ptr = 0
	if !a.ownsMemory || !a.ctx.IsValid() {
		return nil
	}

	guard, err := a.ctx.pushCurrent("delete", a.name)
	if err != nil {
		return err
	}
	defer guard.pop()

	if st := a.ctx.drv.MemFree(ptr); st != Success {
		return compute.DriverError("delete", a.name, int(st), a.ctx.drv.ErrorString(st))
	}
	a.ctx.log.Debug("released array", zap.String("array", a.name))
	return nil
}

// Len returns the number of logical elements the array holds.
func (a *Array) Len() int { return a.length }

// ElementSize returns the size in bytes of one element.
func (a *Array) ElementSize() int { return a.elemSize }

// Name returns the diagnostic label used in error messages.
func (a *Array) Name() string { return a.name }

// Initialized reports whether the array currently has backing memory.
func (a *Array) Initialized() bool { return a.ptr != 0 }

// OwnsMemory reports whether this instance is responsible for freeing the
// backing memory.
func (a *Array) OwnsMemory() bool { return a.ownsMemory }

// DevicePointer returns the raw device address, 0 when uninitialized.
func (a *Array) DevicePointer() DevicePtr { return a.ptr }

// Context returns the owning compute context.
func (a *Array) Context() *Context { return a.ctx }

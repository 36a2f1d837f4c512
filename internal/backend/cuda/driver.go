package cuda

import "errors"

// ErrNotAvailable is returned by New when the package was built without the
// cuda tag or on a platform without libcuda. Declared here rather than in
// the stub so it exists on every build.
var ErrNotAvailable = errors.New("cuda: driver not available (build with -tags cuda on linux)")

// Status is a CUDA driver API status code. Zero means success; everything
// else is translated into a compute.Error of kind KindDriver at the call
// site that observed it.
type Status int

// Success is the only status that does not raise.
const Success Status = 0

// DevicePtr is an opaque device-memory address. Zero means unallocated.
type DevicePtr uint64

// Stream is an opaque command stream handle. The zero stream is the
// device's default stream.
type Stream uintptr

// CtxHandle is an opaque driver context handle.
type CtxHandle uintptr

// Device is a driver device handle obtained from DeviceGet.
type Device int

// Driver abstracts the CUDA driver API primitives this package touches.
// The production implementation (build tag "cuda") calls libcuda through
// cgo; tests substitute an in-memory fake so every property of the array
// lifecycle is checkable without hardware.
//
// All copy primitives take byte counts implied by the slice lengths. Async
// variants enqueue on the given stream and may return before the copy
// completes; the caller owns synchronization.
type Driver interface {
	Init() Status
	DeviceGet(ordinal int) (Device, Status)
	DeviceName(dev Device) (string, Status)

	CtxCreate(dev Device) (CtxHandle, Status)
	CtxDestroy(h CtxHandle) Status
	CtxPushCurrent(h CtxHandle) Status
	CtxPopCurrent() (CtxHandle, Status)

	StreamCreate() (Stream, Status)
	StreamDestroy(s Stream) Status
	StreamSynchronize(s Stream) Status

	MemAlloc(n uint64) (DevicePtr, Status)
	MemFree(p DevicePtr) Status
	MemGetInfo() (free, total uint64, st Status)

	MemcpyHtoD(dst DevicePtr, src []byte) Status
	MemcpyHtoDAsync(dst DevicePtr, src []byte, s Stream) Status
	MemcpyDtoH(dst []byte, src DevicePtr) Status
	MemcpyDtoHAsync(dst []byte, src DevicePtr, s Stream) Status
	MemcpyDtoDAsync(dst, src DevicePtr, n uint64, s Stream) Status

	// ErrorString returns the driver's human-readable description of a
	// status code, e.g. "CUDA_ERROR_OUT_OF_MEMORY".
	ErrorString(st Status) string
}

//go:build cuda && linux

package cuda

/*
#cgo CFLAGS: -I/opt/cuda/include -I/usr/local/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -L/usr/local/cuda/lib64 -lcuda

#include <cuda.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"
)

// IsAvailable reports whether the CUDA driver can be initialized and at
// least one device is present.
func IsAvailable() bool {
	if C.cuInit(0) != C.CUDA_SUCCESS {
		return false
	}
	var count C.int
	return C.cuDeviceGetCount(&count) == C.CUDA_SUCCESS && count > 0
}

// newPlatformDriver returns the cgo-backed driver.
func newPlatformDriver() (Driver, error) {
	return libcudaDriver{}, nil
}

// libcudaDriver implements Driver over libcuda.
type libcudaDriver struct{}

func (libcudaDriver) Init() Status {
	return Status(C.cuInit(0))
}

func (libcudaDriver) DeviceGet(ordinal int) (Device, Status) {
	var dev C.CUdevice
	st := C.cuDeviceGet(&dev, C.int(ordinal))
	return Device(dev), Status(st)
}

func (libcudaDriver) DeviceName(dev Device) (string, Status) {
	var buf [256]C.char
	st := C.cuDeviceGetName(&buf[0], C.int(len(buf)), C.CUdevice(dev))
	return C.GoString(&buf[0]), Status(st)
}

func (libcudaDriver) CtxCreate(dev Device) (CtxHandle, Status) {
	var ctx C.CUcontext
	st := C.cuCtxCreate(&ctx, 0, C.CUdevice(dev))
	return CtxHandle(unsafe.Pointer(ctx)), Status(st)
}

func (libcudaDriver) CtxDestroy(h CtxHandle) Status {
	return Status(C.cuCtxDestroy(C.CUcontext(unsafe.Pointer(h))))
}

func (libcudaDriver) CtxPushCurrent(h CtxHandle) Status {
	return Status(C.cuCtxPushCurrent(C.CUcontext(unsafe.Pointer(h))))
}

func (libcudaDriver) CtxPopCurrent() (CtxHandle, Status) {
	var ctx C.CUcontext
	st := C.cuCtxPopCurrent(&ctx)
	return CtxHandle(unsafe.Pointer(ctx)), Status(st)
}

func (libcudaDriver) StreamCreate() (Stream, Status) {
	var s C.CUstream
	st := C.cuStreamCreate(&s, C.CU_STREAM_DEFAULT)
	return Stream(unsafe.Pointer(s)), Status(st)
}

func (libcudaDriver) StreamDestroy(s Stream) Status {
	return Status(C.cuStreamDestroy(C.CUstream(unsafe.Pointer(s))))
}

func (libcudaDriver) StreamSynchronize(s Stream) Status {
	return Status(C.cuStreamSynchronize(C.CUstream(unsafe.Pointer(s))))
}

func (libcudaDriver) MemAlloc(n uint64) (DevicePtr, Status) {
	var p C.CUdeviceptr
	st := C.cuMemAlloc(&p, C.size_t(n))
	return DevicePtr(p), Status(st)
}

func (libcudaDriver) MemFree(p DevicePtr) Status {
	return Status(C.cuMemFree(C.CUdeviceptr(p)))
}

func (libcudaDriver) MemGetInfo() (free, total uint64, st Status) {
	var f, t C.size_t
	s := C.cuMemGetInfo(&f, &t)
	return uint64(f), uint64(t), Status(s)
}

func (libcudaDriver) MemcpyHtoD(dst DevicePtr, src []byte) Status {
	if len(src) == 0 {
		return Success
	}
	return Status(C.cuMemcpyHtoD(C.CUdeviceptr(dst), unsafe.Pointer(&src[0]), C.size_t(len(src))))
}

func (libcudaDriver) MemcpyHtoDAsync(dst DevicePtr, src []byte, s Stream) Status {
	if len(src) == 0 {
		return Success
	}
	return Status(C.cuMemcpyHtoDAsync(C.CUdeviceptr(dst), unsafe.Pointer(&src[0]),
		C.size_t(len(src)), C.CUstream(unsafe.Pointer(s))))
}

func (libcudaDriver) MemcpyDtoH(dst []byte, src DevicePtr) Status {
	if len(dst) == 0 {
		return Success
	}
	return Status(C.cuMemcpyDtoH(unsafe.Pointer(&dst[0]), C.CUdeviceptr(src), C.size_t(len(dst))))
}

func (libcudaDriver) MemcpyDtoHAsync(dst []byte, src DevicePtr, s Stream) Status {
	if len(dst) == 0 {
		return Success
	}
	return Status(C.cuMemcpyDtoHAsync(unsafe.Pointer(&dst[0]), C.CUdeviceptr(src),
		C.size_t(len(dst)), C.CUstream(unsafe.Pointer(s))))
}

func (libcudaDriver) MemcpyDtoDAsync(dst, src DevicePtr, n uint64, s Stream) Status {
	if n == 0 {
		return Success
	}
	return Status(C.cuMemcpyDtoDAsync(C.CUdeviceptr(dst), C.CUdeviceptr(src),
		C.size_t(n), C.CUstream(unsafe.Pointer(s))))
}

func (libcudaDriver) ErrorString(st Status) string {
	var name *C.char
	if C.cuGetErrorName(C.CUresult(st), &name) != C.CUDA_SUCCESS {
		return "CUDA_ERROR_UNKNOWN"
	}
	return C.GoString(name)
}

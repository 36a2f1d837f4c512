package cuda

import "fmt"

// Fake driver statuses, modeled on CUresult values.
const (
	statusInvalidValue Status = 1
	statusOutOfMemory  Status = 2
	statusInvalidCtx   Status = 201
)

// fakeDriver is an in-memory Driver with byte-accurate device memory and
// per-call counters, so tests can assert both data movement and the exact
// driver traffic an operation produced.
type fakeDriver struct {
	mem   map[DevicePtr][]byte // allocation base -> backing storage
	next  DevicePtr
	stack []CtxHandle // thread's current-context stack

	calls    map[string]int
	failures map[string]Status // method name -> status to report

	nextCtx    CtxHandle
	nextStream Stream
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		mem:        make(map[DevicePtr][]byte),
		next:       0x10000,
		calls:      make(map[string]int),
		failures:   make(map[string]Status),
		nextCtx:    1,
		nextStream: 0x100,
	}
}

func (d *fakeDriver) status(name string) Status {
	d.calls[name]++
	if st, ok := d.failures[name]; ok {
		return st
	}
	return Success
}

// region resolves a device pointer, possibly offset into an allocation, to
// its backing bytes.
func (d *fakeDriver) region(p DevicePtr, n int) ([]byte, bool) {
	for base, buf := range d.mem {
		if p >= base && p+DevicePtr(n) <= base+DevicePtr(len(buf)) {
			off := int(p - base)
			return buf[off : off+n], true
		}
	}
	return nil, false
}

// copyCalls sums every memcpy counter, for "no device call happened"
// assertions.
func (d *fakeDriver) copyCalls() int {
	return d.calls["MemcpyHtoD"] + d.calls["MemcpyHtoDAsync"] +
		d.calls["MemcpyDtoH"] + d.calls["MemcpyDtoHAsync"] +
		d.calls["MemcpyDtoDAsync"]
}

func (d *fakeDriver) Init() Status { return d.status("Init") }

func (d *fakeDriver) DeviceGet(ordinal int) (Device, Status) {
	return Device(ordinal), d.status("DeviceGet")
}

func (d *fakeDriver) DeviceName(dev Device) (string, Status) {
	return fmt.Sprintf("Fake Device %d", dev), d.status("DeviceName")
}

func (d *fakeDriver) CtxCreate(dev Device) (CtxHandle, Status) {
	if st := d.status("CtxCreate"); st != Success {
		return 0, st
	}
	h := d.nextCtx
	d.nextCtx++
	// CUDA leaves a freshly created context current on the thread.
	d.stack = append(d.stack, h)
	return h, Success
}

func (d *fakeDriver) CtxDestroy(h CtxHandle) Status { return d.status("CtxDestroy") }

func (d *fakeDriver) CtxPushCurrent(h CtxHandle) Status {
	if st := d.status("CtxPushCurrent"); st != Success {
		return st
	}
	d.stack = append(d.stack, h)
	return Success
}

func (d *fakeDriver) CtxPopCurrent() (CtxHandle, Status) {
	if st := d.status("CtxPopCurrent"); st != Success {
		return 0, st
	}
	if len(d.stack) == 0 {
		return 0, statusInvalidCtx
	}
	h := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return h, Success
}

// current returns the context the next driver call would target.
func (d *fakeDriver) current() CtxHandle {
	if len(d.stack) == 0 {
		return 0
	}
	return d.stack[len(d.stack)-1]
}

func (d *fakeDriver) StreamCreate() (Stream, Status) {
	if st := d.status("StreamCreate"); st != Success {
		return 0, st
	}
	s := d.nextStream
	d.nextStream++
	return s, Success
}

func (d *fakeDriver) StreamDestroy(s Stream) Status     { return d.status("StreamDestroy") }
func (d *fakeDriver) StreamSynchronize(s Stream) Status { return d.status("StreamSynchronize") }

func (d *fakeDriver) MemAlloc(n uint64) (DevicePtr, Status) {
	if st := d.status("MemAlloc"); st != Success {
		return 0, st
	}
	if len(d.stack) == 0 {
		return 0, statusInvalidCtx
	}
	p := d.next
	d.next += DevicePtr(n) + 256
	d.mem[p] = make([]byte, n)
	return p, Success
}

func (d *fakeDriver) MemFree(p DevicePtr) Status {
	if st := d.status("MemFree"); st != Success {
		return st
	}
	if _, ok := d.mem[p]; !ok {
		return statusInvalidValue
	}
	delete(d.mem, p)
	return Success
}

func (d *fakeDriver) MemGetInfo() (free, total uint64, st Status) {
	return 1 << 30, 1 << 31, d.status("MemGetInfo")
}

func (d *fakeDriver) MemcpyHtoD(dst DevicePtr, src []byte) Status {
	if st := d.status("MemcpyHtoD"); st != Success {
		return st
	}
	return d.htod(dst, src)
}

func (d *fakeDriver) MemcpyHtoDAsync(dst DevicePtr, src []byte, s Stream) Status {
	if st := d.status("MemcpyHtoDAsync"); st != Success {
		return st
	}
	return d.htod(dst, src)
}

func (d *fakeDriver) htod(dst DevicePtr, src []byte) Status {
	buf, ok := d.region(dst, len(src))
	if !ok {
		return statusInvalidValue
	}
	copy(buf, src)
	return Success
}

func (d *fakeDriver) MemcpyDtoH(dst []byte, src DevicePtr) Status {
	if st := d.status("MemcpyDtoH"); st != Success {
		return st
	}
	return d.dtoh(dst, src)
}

func (d *fakeDriver) MemcpyDtoHAsync(dst []byte, src DevicePtr, s Stream) Status {
	if st := d.status("MemcpyDtoHAsync"); st != Success {
		return st
	}
	return d.dtoh(dst, src)
}

func (d *fakeDriver) dtoh(dst []byte, src DevicePtr) Status {
	buf, ok := d.region(src, len(dst))
	if !ok {
		return statusInvalidValue
	}
	copy(dst, buf)
	return Success
}

func (d *fakeDriver) MemcpyDtoDAsync(dst, src DevicePtr, n uint64, s Stream) Status {
	if st := d.status("MemcpyDtoDAsync"); st != Success {
		return st
	}
	srcBuf, ok := d.region(src, int(n))
	if !ok {
		return statusInvalidValue
	}
	dstBuf, ok := d.region(dst, int(n))
	if !ok {
		return statusInvalidValue
	}
	copy(dstBuf, srcBuf)
	return Success
}

func (d *fakeDriver) ErrorString(st Status) string {
	switch st {
	case Success:
		return "CUDA_SUCCESS"
	case statusInvalidValue:
		return "CUDA_ERROR_INVALID_VALUE"
	case statusOutOfMemory:
		return "CUDA_ERROR_OUT_OF_MEMORY"
	case statusInvalidCtx:
		return "CUDA_ERROR_INVALID_CONTEXT"
	default:
		return fmt.Sprintf("CUDA_ERROR_%d", int(st))
	}
}

package cuda

import (
	"github.com/ember-compute/ember/internal/compute"
	"go.uber.org/zap"
)

// Context owns one driver context and the command stream used for
// non-blocking transfers. Every driver call issued on behalf of an Array
// runs with this context pushed current on the calling thread.
//
// A Context is not safe for concurrent use; callers serialize access, the
// same way they serialize access to each Array.
type Context struct {
	drv    Driver
	dev    Device
	handle CtxHandle
	stream Stream

	ordinal int
	valid   bool
	log     *zap.Logger
}

// Option configures a Context.
type Option func(*Context)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Context) { c.log = log }
}

// New creates a context on the device with the given ordinal using the
// platform driver. It fails with ErrNotAvailable on builds without CUDA
// support.
func New(ordinal int, opts ...Option) (*Context, error) {
	drv, err := newPlatformDriver()
	if err != nil {
		return nil, err
	}
	return newContext(drv, ordinal, opts...)
}

// newContext builds a Context over an explicit driver. Tests inject an
// in-memory fake here.
func newContext(drv Driver, ordinal int, opts ...Option) (*Context, error) {
	c := &Context{drv: drv, ordinal: ordinal, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	if st := drv.Init(); st != Success {
		return nil, compute.DriverError("init", "", int(st), drv.ErrorString(st))
	}
	dev, st := drv.DeviceGet(ordinal)
	if st != Success {
		return nil, compute.DriverError("device", "", int(st), drv.ErrorString(st))
	}
	c.dev = dev

	handle, st := drv.CtxCreate(dev)
	if st != Success {
		return nil, compute.DriverError("context", "", int(st), drv.ErrorString(st))
	}
	c.handle = handle
	// CtxCreate leaves the new context current; pop it so the thread's
	// context stack is exactly as it was before New.
	drv.CtxPopCurrent()

	guard, err := c.pushCurrent("stream", "")
	if err != nil {
		drv.CtxDestroy(handle)
		return nil, err
	}
	stream, st := drv.StreamCreate()
	guard.pop()
	if st != Success {
		drv.CtxDestroy(handle)
		return nil, compute.DriverError("stream", "", int(st), drv.ErrorString(st))
	}
	c.stream = stream
	c.valid = true

	if name, st := drv.DeviceName(dev); st == Success {
		c.log.Debug("created context",
			zap.Int("device", ordinal),
			zap.String("name", name))
	}
	return c, nil
}

// IsValid reports whether the context's device and stream are still usable.
// Arrays check this before freeing memory at release time: an invalidated
// context implies its allocations were already reclaimed.
func (c *Context) IsValid() bool {
	return c.valid
}

// Invalidate marks the context unusable without touching driver state.
// Intended for teardown ordering when the driver context was torn down
// through other means.
func (c *Context) Invalidate() {
	c.valid = false
}

// Device returns the ordinal of the device this context runs on.
func (c *Context) Device() int {
	return c.ordinal
}

// DeviceName returns the driver-reported name of the device, or an empty
// string if the query fails.
func (c *Context) DeviceName() string {
	name, st := c.drv.DeviceName(c.dev)
	if st != Success {
		return ""
	}
	return name
}

// CurrentStream returns the stream non-blocking operations are enqueued on.
func (c *Context) CurrentStream() Stream {
	return c.stream
}

// SetCurrentStream redirects subsequent non-blocking operations to s.
// The caller is responsible for the stream's lifetime.
func (c *Context) SetCurrentStream(s Stream) {
	c.stream = s
}

// Unwrap downcasts a generic array to this backend's concrete type. It
// fails if the array belongs to a different backend or to a different
// context.
func (c *Context) Unwrap(a compute.Array) (*Array, error) {
	arr, ok := a.(*Array)
	if !ok {
		return nil, compute.Misusef("unwrap", a.Name(), "array does not belong to the CUDA backend")
	}
	if arr.ctx != c {
		return nil, compute.Misusef("unwrap", a.Name(), "array belongs to a different context")
	}
	return arr, nil
}

// Synchronize blocks until all work enqueued on the current stream has
// completed. Callers must synchronize before inspecting the result of a
// non-blocking download or reusing the source of a non-blocking upload.
func (c *Context) Synchronize() error {
	if !c.valid {
		return compute.Misusef("synchronize", "", "context is no longer valid")
	}
	guard, err := c.pushCurrent("synchronize", "")
	if err != nil {
		return err
	}
	defer guard.pop()

	if st := c.drv.StreamSynchronize(c.stream); st != Success {
		return compute.DriverError("synchronize", "", int(st), c.drv.ErrorString(st))
	}
	return nil
}

// Close destroys the stream and the driver context and marks the context
// invalid. Arrays still holding memory from this context will skip their
// free on release. Closing twice is a no-op.
func (c *Context) Close() error {
	if !c.valid {
		return nil
	}
	c.valid = false

	guard, err := c.pushCurrent("close", "")
	if err != nil {
		return err
	}
	st := c.drv.StreamDestroy(c.stream)
	guard.pop()
	if st != Success {
		c.drv.CtxDestroy(c.handle)
		return compute.DriverError("close", "", int(st), c.drv.ErrorString(st))
	}
	if st := c.drv.CtxDestroy(c.handle); st != Success {
		return compute.DriverError("close", "", int(st), c.drv.ErrorString(st))
	}
	c.log.Debug("closed context", zap.Int("device", c.ordinal))
	return nil
}

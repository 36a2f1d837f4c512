package cuda

import "github.com/ember-compute/ember/internal/compute"

// contextGuard scopes a driver call to its owning context. pushCurrent
// makes the context current on the calling thread; pop restores whatever
// was current before, on every exit path. Driver calls against different
// contexts interleaved on one thread therefore never corrupt each other's
// addressing.
type contextGuard struct {
	c *Context
}

// pushCurrent makes c the current context and returns a guard whose pop
// must run before the operation returns. op and array only label the error
// if the push itself fails.
func (c *Context) pushCurrent(op, array string) (contextGuard, error) {
	if st := c.drv.CtxPushCurrent(c.handle); st != Success {
		return contextGuard{}, compute.DriverError(op, array, int(st), c.drv.ErrorString(st))
	}
	return contextGuard{c: c}, nil
}

// pop restores the previously current context. Safe on a zero guard.
func (g contextGuard) pop() {
	if g.c != nil {
		g.c.drv.CtxPopCurrent()
	}
}

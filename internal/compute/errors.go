package compute

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a device-memory failure.
type Kind string

// Error kinds. Every failure raised by a backend falls into exactly one.
const (
	// KindMisuse covers state-machine violations: operating on an
	// uninitialized array, double initialization, resizing borrowed memory.
	KindMisuse Kind = "misuse"

	// KindBounds covers sub-range transfer parameters outside the array's
	// logical element range.
	KindBounds Kind = "bounds"

	// KindShapeMismatch covers copies whose destination disagrees with the
	// source in element count or element size.
	KindShapeMismatch Kind = "shape_mismatch"

	// KindDriver covers non-success status codes reported by the underlying
	// allocation/copy/free primitives.
	KindDriver Kind = "driver"
)

// Error is the structured error type raised by device array operations.
// It names the operation and the buffer involved so a failure is diagnosable
// without inspecting internal state. Driver failures additionally carry the
// numeric status code and the driver's description of it.
type Error struct {
	Kind   Kind
	Op     string // operation that failed, e.g. "upload", "resize"
	Array  string // diagnostic name of the buffer
	Other  string // second buffer, for copy failures
	Code   int    // driver status code, KindDriver only
	Detail string // human-readable description
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Op)
	if e.Array != "" {
		b.WriteString(" array ")
		b.WriteString(e.Array)
	}
	if e.Other != "" {
		b.WriteString(" to ")
		b.WriteString(e.Other)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Kind == KindDriver {
		fmt.Fprintf(&b, " (%d)", e.Code)
	}
	return b.String()
}

// Is supports errors.Is matching against a *Error carrying only a Kind,
// so callers can test taxonomy membership without constructing field-exact
// errors.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind &&
		(t.Op == "" || t.Op == e.Op) &&
		(t.Array == "" || t.Array == e.Array)
}

// IsKind reports whether err is (or wraps) a *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Misusef builds a misuse error for op on the named array.
func Misusef(op, array, format string, args ...any) *Error {
	return &Error{Kind: KindMisuse, Op: op, Array: array, Detail: fmt.Sprintf(format, args...)}
}

// Boundsf builds a bounds error for op on the named array.
func Boundsf(op, array, format string, args ...any) *Error {
	return &Error{Kind: KindBounds, Op: op, Array: array, Detail: fmt.Sprintf(format, args...)}
}

// ShapeMismatch builds a shape-mismatch error naming both buffers.
func ShapeMismatch(op string, src, dst Array) *Error {
	return &Error{
		Kind:  KindShapeMismatch,
		Op:    op,
		Array: src.Name(),
		Other: dst.Name(),
		Detail: fmt.Sprintf("destination is %d x %dB, source is %d x %dB",
			dst.Len(), dst.ElementSize(), src.Len(), src.ElementSize()),
	}
}

// DriverError builds a driver error for op on the named array, carrying the
// status code and its description.
func DriverError(op, array string, code int, description string) *Error {
	return &Error{Kind: KindDriver, Op: op, Array: array, Code: code, Detail: description}
}

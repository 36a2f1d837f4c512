// Package compute defines the backend-neutral contracts of the Ember
// compute runtime: the generic device array interface every backend
// implements, the data type table, and the structured error taxonomy
// shared by all device-memory operations.
package compute

// Array is the generic contract for a device-resident buffer. Any backend's
// array satisfies it, which is what allows cross-backend shape validation
// before a copy is attempted. The element count is logical (elements, not
// bytes); capacity in bytes is Len()*ElementSize().
type Array interface {
	// Len returns the number of logical elements the buffer holds.
	Len() int

	// ElementSize returns the size in bytes of one element.
	ElementSize() int

	// Name returns the diagnostic label used in error messages.
	Name() string
}

// SameShape reports whether two arrays have identical element count and
// element size. Backends use it to validate device-to-device copies; no
// implicit reshaping or widening is ever performed.
func SameShape(a, b Array) bool {
	return a.Len() == b.Len() && a.ElementSize() == b.ElementSize()
}

// Package cuda implements device arrays on NVIDIA GPUs through the CUDA
// driver API.
//
// The package is built around three pieces:
//
//   - Context owns the driver context and the command stream used for
//     non-blocking transfers.
//   - Array owns (or borrows) one contiguous device allocation and mediates
//     all transfers for it.
//   - Driver abstracts the handful of driver primitives the package
//     touches, so tests run against an in-memory fake with call counters.
//
// Every driver call executes with the owning context pushed current on the
// calling thread and popped on all exit paths, so operations on arrays
// bound to different contexts can interleave on one thread safely.
//
// Build tags:
//   - Build with: go build -tags cuda (linux only)
//   - Without the tag the package compiles against stubs and New fails
//     with ErrNotAvailable.
//
// Example usage:
//
//	ctx, err := cuda.New(0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	posq, err := cuda.NewArrayOf(ctx, 1024, compute.Float32, "posq")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer posq.Release()
//
//	if err := posq.Upload(host, true); err != nil {
//	    log.Fatal(err)
//	}
package cuda

//go:build !cuda || !linux

package cuda

// IsAvailable returns false on builds without CUDA support.
func IsAvailable() bool {
	return false
}

// newPlatformDriver fails on builds without CUDA support.
func newPlatformDriver() (Driver, error) {
	return nil, ErrNotAvailable
}

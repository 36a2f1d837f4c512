package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-compute/ember/internal/compute"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}
	b, err := New()
	require.NoError(t, err)
	t.Cleanup(b.Release)
	return b
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	b := newTestBackend(t)

	a, err := NewArray(b, 16, 4, "posq")
	require.NoError(t, err)
	defer a.Release()

	src := make([]byte, 16*4)
	for i := range src {
		src[i] = byte(i * 7)
	}
	require.NoError(t, a.Upload(src, true))

	dst := make([]byte, 16*4)
	require.NoError(t, a.Download(dst, true))
	assert.Equal(t, src, dst)
}

func TestUploadNonBlockingWithSynchronize(t *testing.T) {
	b := newTestBackend(t)

	a, err := NewArray(b, 16, 4, "posq")
	require.NoError(t, err)
	defer a.Release()

	src := make([]byte, 16*4)
	for i := range src {
		src[i] = byte(255 - i)
	}
	require.NoError(t, a.Upload(src, false))
	require.NoError(t, b.Synchronize())

	dst := make([]byte, 16*4)
	require.NoError(t, a.Download(dst, false))
	assert.Equal(t, src, dst)
}

func TestUploadSubArray(t *testing.T) {
	b := newTestBackend(t)

	a, err := NewArray(b, 10, 4, "forces")
	require.NoError(t, err)
	defer a.Release()

	require.NoError(t, a.Upload(make([]byte, 10*4), true))
	patch := []byte{9, 8, 7, 6, 5, 4, 3, 2}
	require.NoError(t, a.UploadSub(patch, 2, 2, true))

	dst := make([]byte, 10*4)
	require.NoError(t, a.Download(dst, true))
	assert.Equal(t, patch, dst[2*4:4*4])
	assert.Equal(t, make([]byte, 2*4), dst[:2*4])
}

func TestUploadSubArrayUnalignedLengthPreservesNeighbors(t *testing.T) {
	b := newTestBackend(t)

	a, err := NewArray(b, 8, 1, "flags")
	require.NoError(t, err)
	defer a.Release()

	base := []byte{10, 20, 30, 40, 50, 60, 70, 80}
	require.NoError(t, a.Upload(base, true))

	// A 2-byte write pads to a whole word; the padding must carry the
	// existing bytes, not zeros.
	require.NoError(t, a.UploadSub([]byte{1, 2}, 0, 2, true))

	dst := make([]byte, 8)
	require.NoError(t, a.Download(dst, true))
	assert.Equal(t, []byte{1, 2, 30, 40, 50, 60, 70, 80}, dst)
}

func TestUploadSubArrayBounds(t *testing.T) {
	b := newTestBackend(t)

	a, err := NewArray(b, 10, 4, "forces")
	require.NoError(t, err)
	defer a.Release()

	err = a.UploadSub(make([]byte, 10*4), 8, 4, true)
	require.Error(t, err)
	assert.True(t, compute.IsKind(err, compute.KindBounds))
}

func TestDoubleInitializeIsMisuse(t *testing.T) {
	b := newTestBackend(t)

	a, err := NewArray(b, 8, 4, "posq")
	require.NoError(t, err)
	defer a.Release()

	err = a.Initialize(b, 16, 4, "posq")
	require.Error(t, err)
	assert.True(t, compute.IsKind(err, compute.KindMisuse))
	assert.Equal(t, 8, a.Len())
}

func TestResize(t *testing.T) {
	b := newTestBackend(t)

	a, err := NewArray(b, 10, 4, "posq")
	require.NoError(t, err)
	defer a.Release()

	require.NoError(t, a.Resize(20))
	assert.Equal(t, 20, a.Len())
	require.NoError(t, a.Resize(7))
	assert.Equal(t, 7, a.Len())
	assert.True(t, a.Initialized())
}

func TestResizeOnBorrowedArrayIsMisuse(t *testing.T) {
	b := newTestBackend(t)

	owner, err := NewArray(b, 10, 4, "owner")
	require.NoError(t, err)
	defer owner.Release()

	view := Borrow(b, owner.Buffer(), 10, 4, "view")
	err = view.Resize(20)
	require.Error(t, err)
	assert.True(t, compute.IsKind(err, compute.KindMisuse))
	assert.Equal(t, 10, view.Len())
}

func TestCopyTo(t *testing.T) {
	b := newTestBackend(t)

	src, err := NewArray(b, 10, 4, "src")
	require.NoError(t, err)
	defer src.Release()
	dst, err := NewArray(b, 10, 4, "dst")
	require.NoError(t, err)
	defer dst.Release()

	data := make([]byte, 10*4)
	for i := range data {
		data[i] = byte(i + 1)
	}
	require.NoError(t, src.Upload(data, true))
	require.NoError(t, src.CopyTo(dst))
	require.NoError(t, b.Synchronize())

	out := make([]byte, 10*4)
	require.NoError(t, dst.Download(out, true))
	assert.Equal(t, data, out)
}

func TestCopyToShapeMismatch(t *testing.T) {
	b := newTestBackend(t)

	src, err := NewArray(b, 10, 4, "src")
	require.NoError(t, err)
	defer src.Release()
	dst, err := NewArray(b, 5, 4, "dst")
	require.NoError(t, err)
	defer dst.Release()

	err = src.CopyTo(dst)
	require.Error(t, err)
	assert.True(t, compute.IsKind(err, compute.KindShapeMismatch))
	assert.Contains(t, err.Error(), "src")
	assert.Contains(t, err.Error(), "dst")
}

// foreignArray stands in for a buffer from an unrelated backend.
type foreignArray struct{}

func (foreignArray) Len() int         { return 10 }
func (foreignArray) ElementSize() int { return 4 }
func (foreignArray) Name() string     { return "foreign" }

func TestUnwrapRejectsForeignBackend(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Unwrap(foreignArray{})
	require.Error(t, err)
	assert.True(t, compute.IsKind(err, compute.KindMisuse))

	src, err := NewArray(b, 10, 4, "src")
	require.NoError(t, err)
	defer src.Release()

	err = src.CopyTo(foreignArray{})
	require.Error(t, err)
	assert.True(t, compute.IsKind(err, compute.KindMisuse))
}

func TestReleaseAfterBackendReleaseSkips(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}
	b, err := New()
	require.NoError(t, err)

	a, err := NewArray(b, 8, 4, "posq")
	require.NoError(t, err)

	b.Release()
	require.NoError(t, a.Release())
	assert.False(t, a.Initialized())
}

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-compute/ember/internal/compute"
)

func TestRoundTrip(t *testing.T) {
	b := New()

	a, err := NewArray(b, 8, 4, "posq")
	require.NoError(t, err)

	src := make([]byte, 8*4)
	for i := range src {
		src[i] = byte(i)
	}
	require.NoError(t, a.Upload(src, true))

	dst := make([]byte, 8*4)
	require.NoError(t, a.Download(dst, false))
	assert.Equal(t, src, dst)
}

func TestUploadSubBounds(t *testing.T) {
	b := New()

	a, err := NewArray(b, 10, 4, "forces")
	require.NoError(t, err)

	err = a.UploadSub(make([]byte, 40), 8, 4, true)
	require.Error(t, err)
	assert.True(t, compute.IsKind(err, compute.KindBounds))
}

func TestLifecycle(t *testing.T) {
	b := New()

	a, err := NewArray(b, 10, 4, "posq")
	require.NoError(t, err)
	assert.True(t, a.OwnsMemory())

	err = a.Initialize(b, 5, 4, "posq")
	assert.True(t, compute.IsKind(err, compute.KindMisuse))

	require.NoError(t, a.Resize(3))
	assert.Equal(t, 3, a.Len())

	view := Borrow(b, a.Bytes(), 3, 4, "view")
	err = view.Resize(6)
	assert.True(t, compute.IsKind(err, compute.KindMisuse))

	require.NoError(t, a.Release())
	assert.False(t, a.Initialized())
}

func TestCopyToValidation(t *testing.T) {
	b := New()

	src, err := NewArray(b, 10, 4, "src")
	require.NoError(t, err)
	small, err := NewArray(b, 5, 4, "dst")
	require.NoError(t, err)

	err = src.CopyTo(small)
	assert.True(t, compute.IsKind(err, compute.KindShapeMismatch))

	other := New()
	otherArr, err := NewArray(other, 10, 4, "other")
	require.NoError(t, err)
	err = src.CopyTo(otherArr)
	assert.True(t, compute.IsKind(err, compute.KindMisuse))

	dst, err := NewArray(b, 10, 4, "dst")
	require.NoError(t, err)
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(40 - i)
	}
	require.NoError(t, src.Upload(data, true))
	require.NoError(t, src.CopyTo(dst))
	out := make([]byte, 40)
	require.NoError(t, dst.Download(out, true))
	assert.Equal(t, data, out)
}

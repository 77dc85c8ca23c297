package shmemtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorCountsLiveSegments(t *testing.T) {
	a := New()
	s1, err := a.Get(16)
	require.NoError(t, err)
	s2, err := a.Get(32)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Live())
	assert.NotEqual(t, s1.ID, s2.ID)

	s1.Data[3] = 7
	b, ok := a.Bytes(s1.ID)
	require.True(t, ok)
	assert.Equal(t, byte(7), b[3])

	require.NoError(t, a.Release(s1))
	assert.Equal(t, 1, a.Live())
	assert.Error(t, a.Release(s1))

	_, ok = a.Bytes(s1.ID)
	assert.False(t, ok)
}

func TestAllocatorInjectedFailure(t *testing.T) {
	a := New()
	a.GetErr = ErrInjected
	_, err := a.Get(1)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, a.Live())
	assert.Equal(t, 1, a.Gets)
}

func TestAllocatorRemoveMarksLiveSegment(t *testing.T) {
	a := New()
	seg, err := a.Get(8)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Unmarked())
	assert.False(t, a.Marked(seg.ID))

	require.NoError(t, a.Remove(seg))
	assert.True(t, a.Marked(seg.ID))
	assert.Zero(t, a.Unmarked())
	assert.Equal(t, 1, a.Live(), "a marked segment stays mapped")

	_, ok := a.Bytes(seg.ID)
	assert.True(t, ok)

	require.NoError(t, a.Release(seg))
	assert.False(t, a.Marked(seg.ID))
	assert.Error(t, a.Remove(seg))
	assert.NoError(t, a.Remove(nil))
}

//go:build linux

package shmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// shmDest is the SHM_DEST mode bit of a segment marked for destruction.
const shmDest = 0o1000

func getSegment(t *testing.T, a SysV, size int) *Segment {
	t.Helper()
	seg, err := a.Get(size)
	if err != nil {
		t.Skipf("System V shared memory unavailable: %v", err)
	}
	return seg
}

func TestSysVRoundTrip(t *testing.T) {
	var a SysV
	seg := getSegment(t, a, 4096)
	require.Len(t, seg.Data, 4096)

	seg.Data[0] = 0xab
	seg.Data[4095] = 0xcd
	assert.Equal(t, byte(0xab), seg.Data[0])

	require.NoError(t, a.Release(seg))
	assert.Nil(t, seg.Data)
	assert.True(t, seg.Removed)

	var ds unix.SysvShmDesc
	_, err := unix.SysvShmCtl(seg.ID, unix.IPC_STAT, &ds)
	assert.Error(t, err, "the segment is gone from the namespace")
	assert.NoError(t, a.Release(seg), "a second release is a no-op")
}

func TestSysVRemoveKeepsMapping(t *testing.T) {
	var a SysV
	seg := getSegment(t, a, 4096)
	t.Cleanup(func() { a.Release(seg) })

	require.NoError(t, a.Remove(seg))
	assert.True(t, seg.Removed)

	var ds unix.SysvShmDesc
	_, err := unix.SysvShmCtl(seg.ID, unix.IPC_STAT, &ds)
	require.NoError(t, err, "a marked segment lives while attached")
	assert.NotZero(t, ds.Perm.Mode&shmDest)

	seg.Data[10] = 0x5a
	assert.Equal(t, byte(0x5a), seg.Data[10])
	assert.NoError(t, a.Remove(seg))

	require.NoError(t, a.Release(seg))
	_, err = unix.SysvShmCtl(seg.ID, unix.IPC_STAT, &ds)
	assert.Error(t, err, "the last detach frees a marked segment")
}

func TestSysVRejectsEmptySegment(t *testing.T) {
	var a SysV
	_, err := a.Get(0)
	assert.Error(t, err)
	assert.NoError(t, a.Release(nil))
	assert.NoError(t, a.Remove(nil))
}

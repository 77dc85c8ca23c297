//go:build linux

package shmem

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// SysV allocates segments with shmget/shmat.
type SysV struct{}

// Get creates a private segment of size bytes and maps it.
func (SysV) Get(size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid segment size %d", size)
	}
	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|0o777)
	if err != nil {
		return nil, fmt.Errorf("shmget %d bytes: %w", size, err)
	}
	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		_, _ = unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		return nil, fmt.Errorf("shmat segment %d: %w", id, err)
	}
	return &Segment{ID: id, Data: data}, nil
}

// Remove marks seg with IPC_RMID.
func (SysV) Remove(seg *Segment) error {
	if seg == nil || seg.Removed {
		return nil
	}
	if _, err := unix.SysvShmCtl(seg.ID, unix.IPC_RMID, nil); err != nil {
		return fmt.Errorf("shmctl IPC_RMID segment %d: %w", seg.ID, err)
	}
	seg.Removed = true
	return nil
}

// Release detaches seg and removes it if still needed. It is a no-op for nil.
func (SysV) Release(seg *Segment) error {
	if seg == nil {
		return nil
	}
	var errs []error
	if seg.Data != nil {
		if err := unix.SysvShmDetach(seg.Data); err != nil {
			errs = append(errs, fmt.Errorf("shmdt segment %d: %w", seg.ID, err))
		}
		seg.Data = nil
	}
	if !seg.Removed {
		if _, err := unix.SysvShmCtl(seg.ID, unix.IPC_RMID, nil); err != nil {
			errs = append(errs, fmt.Errorf("shmctl IPC_RMID segment %d: %w", seg.ID, err))
		}
		seg.Removed = true
	}
	return errors.Join(errs...)
}

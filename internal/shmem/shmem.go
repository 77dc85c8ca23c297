// Package shmem allocates the System V shared memory segments that back
// MIT-SHM images.
package shmem

import "errors"

// ErrUnsupported is returned on platforms without System V shared memory.
var ErrUnsupported = errors.New("shared memory not supported on this platform")

// Segment is a shared memory segment mapped into this process.
type Segment struct {
	// ID is the kernel segment identifier handed to the host server.
	ID   int
	Data []byte
	// Removed is set once the segment is marked for destruction.
	Removed bool
}

// Allocator creates and removes shared memory segments.
type Allocator interface {
	Get(size int) (*Segment, error)
	// Remove marks the segment for destruction. The kernel frees it once the
	// last attachment is gone, so it cannot leak past an abnormal exit. Call
	// it after the host server has attached the segment.
	Remove(seg *Segment) error
	// Release unmaps the segment, removing it first if Remove was not called.
	Release(seg *Segment) error
}

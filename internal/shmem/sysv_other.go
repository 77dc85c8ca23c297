//go:build !linux

package shmem

// SysV reports ErrUnsupported outside Linux; callers fall back to private
// image buffers.
type SysV struct{}

func (SysV) Get(size int) (*Segment, error) { return nil, ErrUnsupported }

func (SysV) Remove(seg *Segment) error { return nil }

func (SysV) Release(seg *Segment) error { return nil }

// Package shmemtest provides a heap-backed shmem.Allocator that counts live
// segments.
package shmemtest

import (
	"errors"
	"fmt"

	"github.com/bnema/xnested/internal/shmem"
)

// ErrInjected is a stock failure for GetErr.
var ErrInjected = errors.New("injected shm failure")

// Allocator hands out plain byte slices as segments.
type Allocator struct {
	next int
	live map[int]*shmem.Segment

	// GetErr, when set, makes every Get fail.
	GetErr error
	// Gets, Removes and Releases count calls.
	Gets     int
	Removes  int
	Releases int
}

var _ shmem.Allocator = (*Allocator)(nil)

func New() *Allocator {
	return &Allocator{next: 100, live: make(map[int]*shmem.Segment)}
}

func (a *Allocator) Get(size int) (*shmem.Segment, error) {
	a.Gets++
	if a.GetErr != nil {
		return nil, a.GetErr
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid segment size %d", size)
	}
	a.next++
	seg := &shmem.Segment{ID: a.next, Data: make([]byte, size)}
	a.live[seg.ID] = seg
	return seg, nil
}

// Remove marks a live segment for destruction. Like IPC_RMID it leaves the
// mapping usable until Release.
func (a *Allocator) Remove(seg *shmem.Segment) error {
	if seg == nil {
		return nil
	}
	a.Removes++
	if _, ok := a.live[seg.ID]; !ok {
		return fmt.Errorf("segment %d removed after release or never allocated", seg.ID)
	}
	seg.Removed = true
	return nil
}

func (a *Allocator) Release(seg *shmem.Segment) error {
	if seg == nil {
		return nil
	}
	a.Releases++
	if _, ok := a.live[seg.ID]; !ok {
		return fmt.Errorf("segment %d released twice or never allocated", seg.ID)
	}
	delete(a.live, seg.ID)
	seg.Data = nil
	return nil
}

// Live returns the number of segments not yet released.
func (a *Allocator) Live() int {
	return len(a.live)
}

// Unmarked returns the number of live segments not yet marked for removal,
// i.e. those a crash would leak.
func (a *Allocator) Unmarked() int {
	n := 0
	for _, seg := range a.live {
		if !seg.Removed {
			n++
		}
	}
	return n
}

// Marked reports whether the live segment id is marked for removal.
func (a *Allocator) Marked(id int) bool {
	seg, ok := a.live[id]
	return ok && seg.Removed
}

// Bytes returns the contents of a live segment. It lets a fake host server
// read what the client wrote into shared memory.
func (a *Allocator) Bytes(id int) ([]byte, bool) {
	seg, ok := a.live[id]
	if !ok {
		return nil, false
	}
	return seg.Data, true
}

package nested

import (
	"github.com/charmbracelet/log"

	"github.com/bnema/xnested/internal/hostx"
	"github.com/bnema/xnested/internal/shmem"
)

// ShmConn is what the negotiator needs from the host connection.
type ShmConn interface {
	HasExtension(name string) bool
	NewID() (uint32, error)
	hostx.Shm
}

// NegotiateShm reports whether MIT-SHM images can be used. Advertising the
// extension is not enough: a 1 byte segment is attached for real, which
// catches permission and kernel limit failures. The test segment is
// released on every path.
func NegotiateShm(conn ShmConn, alloc shmem.Allocator, l *log.Logger) bool {
	if !conn.HasExtension(hostx.ExtShm) {
		l.Info("XShm extension not available on host. Dropping XShm support.")
		return false
	}
	v, err := conn.ShmQueryVersion()
	if err != nil {
		l.Info("XShm extension query failed. Dropping XShm support.", "err", err)
		return false
	}
	with := "without"
	if v.SharedPixmaps {
		with = "with"
	}
	l.Infof("XShm extension version %d.%d %s shared pixmaps", v.Major, v.Minor, with)

	if err := tryShmAttach(conn, alloc); err != nil {
		l.Info("XShm test attach failed. Dropping XShm support.", "err", err)
		return false
	}
	return true
}

func tryShmAttach(conn ShmConn, alloc shmem.Allocator) error {
	seg, err := alloc.Get(1)
	if err != nil {
		return err
	}
	defer alloc.Release(seg)

	id, err := conn.NewID()
	if err != nil {
		return err
	}
	if err := conn.ShmAttach(hostx.Seg(id), uint32(seg.ID), true); err != nil {
		return err
	}
	err = alloc.Remove(seg)
	conn.ShmDetach(hostx.Seg(id))
	return err
}

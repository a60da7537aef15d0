//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package blockdevice

import (
	"io"
	"runtime/debug"
	"syscall"

	"github.com/buildbarn/bb-bfs/pkg/util"

	"golang.org/x/sys/unix"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type memoryMappedBlockDevice struct {
	fd   int
	data []byte
}

// newMemoryMappedBlockDevice creates a BlockDevice from a file
// descriptor referring to a regular file. To speed up reads, a memory
// map is used.
func newMemoryMappedBlockDevice(fd, sizeBytes int) (*memoryMappedBlockDevice, error) {
	data, err := unix.Mmap(fd, 0, sizeBytes, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, util.StatusWrap(err, "Failed to memory map block device")
	}
	return &memoryMappedBlockDevice{
		fd:   fd,
		data: data,
	}, nil
}

func (bd *memoryMappedBlockDevice) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, syscall.EINVAL
	}
	if off > int64(len(bd.data)) {
		return 0, io.EOF
	}

	// Install a page fault handler, so that I/O errors against the
	// memory map (e.g., due to disk failure) don't cause us to
	// crash.
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if recover() != nil {
			err = status.Error(codes.Internal, "Page fault occurred while reading from memory map")
		}
	}()

	n = copy(p, bd.data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (bd *memoryMappedBlockDevice) WriteAt(p []byte, off int64) (int, error) {
	// Writes go through the file descriptor, as writes through a
	// memory map would trigger a page fault that causes data to be
	// read.
	//
	// The pwrite() system call cannot return a size and error at
	// the same time. If an error occurs after one or more bytes are
	// written, it returns the size without an error (a "short
	// write"). As WriteAt() must return an error in those cases, we
	// must invoke pwrite() repeatedly.
	if off < 0 || off+int64(len(p)) > int64(len(bd.data)) {
		return 0, status.Errorf(codes.OutOfRange, "Write of %d bytes at offset %d exceeds block device size of %d bytes", len(p), off, len(bd.data))
	}
	nTotal := 0
	for len(p) > 0 {
		n, err := unix.Pwrite(bd.fd, p, off)
		nTotal += n
		if err != nil {
			return nTotal, err
		}
		p = p[n:]
		off += int64(n)
	}
	return nTotal, nil
}

func (bd *memoryMappedBlockDevice) Sync() error {
	return unix.Fsync(bd.fd)
}

func (bd *memoryMappedBlockDevice) Close() error {
	var errs []error
	if err := unix.Munmap(bd.data); err != nil {
		errs = append(errs, util.StatusWrap(err, "Failed to unmap memory region"))
	}
	if err := unix.Close(bd.fd); err != nil {
		errs = append(errs, util.StatusWrap(err, "Failed to close file descriptor"))
	}
	return util.StatusFromMultiple(errs)
}

//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package blockdevice

import (
	"github.com/buildbarn/bb-bfs/pkg/util"

	"golang.org/x/sys/unix"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewBlockDeviceFromFile creates a BlockDevice that is backed by a
// regular file stored in a file system. The file is grown to a multiple
// of the sector size reported by fstat() that is at least
// minimumSizeBytes large. Existing contents are preserved, unless
// zeroInitialize is set.
//
// The sector size and the number of sectors are returned, so that the
// caller can determine the usable size of the device.
func NewBlockDeviceFromFile(path string, minimumSizeBytes int64, zeroInitialize bool) (BlockDevice, int, int64, error) {
	if minimumSizeBytes <= 0 {
		return nil, 0, 0, status.Errorf(codes.InvalidArgument, "Invalid block device size of %d bytes", minimumSizeBytes)
	}

	flags := unix.O_CREAT | unix.O_RDWR
	if zeroInitialize {
		flags |= unix.O_TRUNC
	}
	fd, err := unix.Open(path, flags, 0o666)
	if err != nil {
		return nil, 0, 0, util.StatusWrapf(err, "Failed to open file %#v", path)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, 0, 0, util.StatusWrapf(err, "Failed to obtain size of file %#v", path)
	}
	sectorSizeBytes := int(stat.Blksize)
	sectorCount := (minimumSizeBytes + int64(sectorSizeBytes) - 1) / int64(sectorSizeBytes)
	sizeBytes := int64(sectorSizeBytes) * sectorCount

	if err := unix.Ftruncate(fd, sizeBytes); err != nil {
		unix.Close(fd)
		return nil, 0, 0, util.StatusWrapf(err, "Failed to truncate file %#v to %d bytes", path, sizeBytes)
	}

	bd, err := newMemoryMappedBlockDevice(fd, int(sizeBytes))
	if err != nil {
		unix.Close(fd)
		return nil, 0, 0, err
	}
	return bd, sectorSizeBytes, sectorCount, nil
}

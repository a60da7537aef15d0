package blockdevice

import (
	"io"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type inMemoryBlockDevice struct {
	lock sync.RWMutex
	data []byte
}

// NewInMemoryBlockDevice creates a BlockDevice that stores its contents
// in a byte slice. The byte slice is fully allocated up front and
// initially zero. This implementation is useful for testing and for
// deployments that do not require data to survive restarts.
func NewInMemoryBlockDevice(sizeBytes int) BlockDevice {
	return &inMemoryBlockDevice{
		data: make([]byte, sizeBytes),
	}
}

func (bd *inMemoryBlockDevice) ReadAt(p []byte, off int64) (int, error) {
	bd.lock.RLock()
	defer bd.lock.RUnlock()

	if off < 0 {
		return 0, status.Errorf(codes.InvalidArgument, "Negative read offset %d", off)
	}
	if off >= int64(len(bd.data)) {
		return 0, io.EOF
	}
	n := copy(p, bd.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (bd *inMemoryBlockDevice) WriteAt(p []byte, off int64) (int, error) {
	bd.lock.Lock()
	defer bd.lock.Unlock()

	if off < 0 || off+int64(len(p)) > int64(len(bd.data)) {
		return 0, status.Errorf(codes.OutOfRange, "Write of %d bytes at offset %d exceeds block device size of %d bytes", len(p), off, len(bd.data))
	}
	return copy(bd.data[off:], p), nil
}

func (bd *inMemoryBlockDevice) Sync() error {
	return nil
}

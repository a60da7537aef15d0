package blockdevice

import (
	"io"
	"os"
)

// BlockDevice is an interface for interacting with a block device like
// storage medium. Block devices support random access reads and writes.
// They differ from plain files, in that their size is fixed.
//
// The file system stored on top of a BlockDevice only ever reads and
// writes whole file system blocks at block aligned offsets. Partial
// block updates are synthesized in memory by the layers above, so that
// no read-modify-write cycles need to be performed by the kernel.
//
// Because of caching, writes may not be applied against the underlying
// storage medium immediately. The Sync() function can be used to block
// execution until all previous writes are persisted.
type BlockDevice interface {
	io.ReaderAt
	io.WriterAt

	Sync() error
}

var _ BlockDevice = (*os.File)(nil)

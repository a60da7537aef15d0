// Package fileio translates byte addressed reads and writes against
// open files into operations on whole, fixed-size storage blocks.
package fileio

import (
	"io"
)

// Descriptor is an opaque handle that identifies one open session of a
// file. Each session has its own cursor.
type Descriptor int32

// InodeNumber identifies a file's inode.
type InodeNumber uint32

// BlockNumber is the absolute location of a block on the storage
// medium.
type BlockNumber uint32

// Whence determines how Engine.Seek() interprets its offset.
type Whence int

const (
	// SeekStart sets the cursor to the offset.
	SeekStart Whence = io.SeekStart
	// SeekCurrent adds the offset to the current cursor.
	SeekCurrent Whence = io.SeekCurrent
	// SeekEnd sets the cursor to the size of the file plus the
	// offset.
	SeekEnd Whence = io.SeekEnd
)

// SessionTable keeps track of open sessions. Every session refers to
// an inode and has a private cursor.
//
// Implementations return codes.FailedPrecondition for descriptors that
// are not open.
type SessionTable interface {
	GetInode(fd Descriptor) (InodeNumber, error)
	GetCursor(fd Descriptor) (int64, error)
	SetCursor(fd Descriptor, cursor int64) error
}

// FileStore provides block granular access to the contents of files.
// All buffers passed to ReadBlock() and WriteBlock() have a size that
// is equal to the block size of the store.
type FileStore interface {
	GetSize(inode InodeNumber) (int64, error)
	SetSize(inode InodeNumber, sizeBytes int64) error

	// ReadBlock reads a block of a file, identified by its index
	// within the file. The contents of unallocated blocks are
	// defined by the implementation.
	ReadBlock(inode InodeNumber, fileBlock int64, p []byte) error
	// TranslateBlock returns the absolute location of an allocated
	// block of a file.
	TranslateBlock(inode InodeNumber, fileBlock int64) (BlockNumber, error)
	// ExtendFile allocates storage for a block of a file, so that
	// it may be translated afterwards.
	ExtendFile(inode InodeNumber, fileBlock int64) error
	WriteBlock(block BlockNumber, p []byte) error
}

// Engine provides byte addressed access to open files, using a cursor
// that is stored per session.
//
// Implementations are not safe for concurrent use. Callers need to
// serialize access to files that are opened more than once.
type Engine interface {
	// Read copies data at the cursor into p, advancing the cursor by
	// the number of bytes copied. Reads are clamped to the size of
	// the file. Reading at or past the end of the file returns zero
	// without an error.
	Read(fd Descriptor, p []byte) (int, error)
	// Write stores p at the cursor, allocating storage as needed.
	// The cursor is advanced by len(p) and the size of the file is
	// extended if the write ends past it.
	Write(fd Descriptor, p []byte) error
	// Seek repositions the cursor. Negative offsets are rejected
	// regardless of whence.
	Seek(fd Descriptor, offset int64, whence Whence) error
	Tell(fd Descriptor) (int64, error)
	Size(fd Descriptor) (int64, error)
}

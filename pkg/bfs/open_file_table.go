package bfs

import (
	"github.com/buildbarn/bb-bfs/pkg/fileio"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type openFile struct {
	open   bool
	inode  fileio.InodeNumber
	cursor int64
}

// OpenFileTable is an implementation of fileio.SessionTable that
// stores sessions in a slot map. Descriptors are indices into the
// slot map. The lowest free descriptor is handed out first.
//
// OpenFileTable is not safe for concurrent use.
type OpenFileTable struct {
	files            []openFile
	maximumOpenFiles int
}

var _ fileio.SessionTable = (*OpenFileTable)(nil)

// NewOpenFileTable creates an OpenFileTable that is capable of holding
// up to maximumOpenFiles sessions at once.
func NewOpenFileTable(maximumOpenFiles int) *OpenFileTable {
	return &OpenFileTable{
		maximumOpenFiles: maximumOpenFiles,
	}
}

// Open a new session for an inode, with its cursor placed at the start
// of the file.
func (t *OpenFileTable) Open(inode fileio.InodeNumber) (fileio.Descriptor, error) {
	for fd := range t.files {
		if !t.files[fd].open {
			t.files[fd] = openFile{open: true, inode: inode}
			return fileio.Descriptor(fd), nil
		}
	}
	if len(t.files) >= t.maximumOpenFiles {
		return 0, status.Errorf(codes.ResourceExhausted, "Cannot have more than %d open files", t.maximumOpenFiles)
	}
	t.files = append(t.files, openFile{open: true, inode: inode})
	return fileio.Descriptor(len(t.files) - 1), nil
}

// Close a session, making its descriptor available for reuse.
func (t *OpenFileTable) Close(fd fileio.Descriptor) error {
	f, err := t.lookup(fd)
	if err != nil {
		return err
	}
	*f = openFile{}
	return nil
}

func (t *OpenFileTable) lookup(fd fileio.Descriptor) (*openFile, error) {
	if fd < 0 || int(fd) >= len(t.files) || !t.files[fd].open {
		return nil, status.Errorf(codes.FailedPrecondition, "File descriptor %d is not open", fd)
	}
	return &t.files[fd], nil
}

// GetInode returns the inode of the file opened by a session.
func (t *OpenFileTable) GetInode(fd fileio.Descriptor) (fileio.InodeNumber, error) {
	f, err := t.lookup(fd)
	if err != nil {
		return 0, err
	}
	return f.inode, nil
}

// GetCursor returns the cursor of a session.
func (t *OpenFileTable) GetCursor(fd fileio.Descriptor) (int64, error) {
	f, err := t.lookup(fd)
	if err != nil {
		return 0, err
	}
	return f.cursor, nil
}

// SetCursor updates the cursor of a session.
func (t *OpenFileTable) SetCursor(fd fileio.Descriptor, cursor int64) error {
	f, err := t.lookup(fd)
	if err != nil {
		return err
	}
	f.cursor = cursor
	return nil
}

// IsOpen returns whether one or more sessions refer to an inode.
func (t *OpenFileTable) IsOpen(inode fileio.InodeNumber) bool {
	for _, f := range t.files {
		if f.open && f.inode == inode {
			return true
		}
	}
	return false
}

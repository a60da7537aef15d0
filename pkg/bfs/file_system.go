package bfs

import (
	"sync"

	"github.com/buildbarn/bb-bfs/pkg/fileio"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Syncer is implemented by types that buffer writes and are capable of
// persisting them on request.
type Syncer interface {
	Sync() error
}

// FileSystem provides access to the files stored on a volume by name.
// Files are read and written through descriptors, each having their
// own cursor. Unlike fileio.Engine, it is safe for concurrent use.
type FileSystem interface {
	Syncer

	// Create a file, truncating it if it already exists, and open
	// it.
	Create(name string) (fileio.Descriptor, error)
	// Open an existing file. codes.NotFound is returned if no file
	// with the provided name exists.
	Open(name string) (fileio.Descriptor, error)
	Close(fd fileio.Descriptor) error
	// Remove a file that is not opened.
	Remove(name string) error
	List() ([]FileInfo, error)

	Read(fd fileio.Descriptor, p []byte) (int, error)
	Write(fd fileio.Descriptor, p []byte) error
	Seek(fd fileio.Descriptor, offset int64, whence fileio.Whence) error
	Tell(fd fileio.Descriptor) (int64, error)
	Size(fd fileio.Descriptor) (int64, error)
}

type volumeFileSystem struct {
	lock     sync.Mutex
	volume   *Volume
	sessions *OpenFileTable
	engine   fileio.Engine
}

// NewFileSystem creates a FileSystem on top of a mounted volume. The
// engine must be backed by the same volume and session table.
func NewFileSystem(volume *Volume, sessions *OpenFileTable, engine fileio.Engine) FileSystem {
	return &volumeFileSystem{
		volume:   volume,
		sessions: sessions,
		engine:   engine,
	}
}

func (fs *volumeFileSystem) Create(name string) (fileio.Descriptor, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	inode, err := fs.volume.Create(name)
	if err != nil {
		return 0, err
	}
	return fs.sessions.Open(inode)
}

func (fs *volumeFileSystem) Open(name string) (fileio.Descriptor, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	inode, err := fs.volume.Lookup(name)
	if err != nil {
		return 0, err
	}
	return fs.sessions.Open(inode)
}

func (fs *volumeFileSystem) Close(fd fileio.Descriptor) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.sessions.Close(fd)
}

func (fs *volumeFileSystem) Remove(name string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	inode, err := fs.volume.Lookup(name)
	if err != nil {
		return err
	}
	if fs.sessions.IsOpen(inode) {
		return status.Errorf(codes.FailedPrecondition, "File %#v is still opened", name)
	}
	return fs.volume.Remove(name)
}

func (fs *volumeFileSystem) List() ([]FileInfo, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.volume.List(), nil
}

func (fs *volumeFileSystem) Sync() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.volume.Sync()
}

func (fs *volumeFileSystem) Read(fd fileio.Descriptor, p []byte) (int, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.engine.Read(fd, p)
}

func (fs *volumeFileSystem) Write(fd fileio.Descriptor, p []byte) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.engine.Write(fd, p)
}

func (fs *volumeFileSystem) Seek(fd fileio.Descriptor, offset int64, whence fileio.Whence) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.engine.Seek(fd, offset, whence)
}

func (fs *volumeFileSystem) Tell(fd fileio.Descriptor) (int64, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.engine.Tell(fd)
}

func (fs *volumeFileSystem) Size(fd fileio.Descriptor) (int64, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	return fs.engine.Size(fd)
}

package fileio

import (
	"github.com/buildbarn/bb-bfs/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type blockEngine struct {
	sessions             SessionTable
	files                FileStore
	blockSizeBytes       int64
	maximumStagingBlocks int64
}

// NewBlockEngine creates an Engine that stores file contents in blocks
// of blockSizeBytes, provided by a FileStore. Cursors of open sessions
// are stored in a SessionTable.
//
// Writes that do not start or end at a block boundary are merged with
// the existing contents of the first and last block touched. This is
// done in a staging buffer, which is written back one whole block at a
// time. The staging buffer holds at most maximumStagingBlocks blocks.
// Larger writes are performed in multiple block aligned steps.
//
// Bytes that lie past the end of the file before a write and that are
// not covered by it are written as zeros.
func NewBlockEngine(sessions SessionTable, files FileStore, blockSizeBytes, maximumStagingBlocks int) Engine {
	if blockSizeBytes <= 0 {
		panic("Block size must be positive")
	}
	if maximumStagingBlocks <= 0 {
		panic("Staging buffer must be able to hold at least one block")
	}
	return &blockEngine{
		sessions:             sessions,
		files:                files,
		blockSizeBytes:       int64(blockSizeBytes),
		maximumStagingBlocks: int64(maximumStagingBlocks),
	}
}

// getSession returns the inode and cursor of an open session.
func (e *blockEngine) getSession(fd Descriptor) (InodeNumber, int64, error) {
	inode, err := e.sessions.GetInode(fd)
	if err != nil {
		return 0, 0, err
	}
	cursor, err := e.sessions.GetCursor(fd)
	if err != nil {
		return 0, 0, err
	}
	if cursor < 0 {
		return 0, 0, status.Errorf(codes.InvalidArgument, "Cursor of file descriptor %d is negative: %d", fd, cursor)
	}
	return inode, cursor, nil
}

func (e *blockEngine) getSize(inode InodeNumber) (int64, error) {
	sizeBytes, err := e.files.GetSize(inode)
	if err != nil {
		return 0, util.StatusWrapf(err, "Failed to obtain size of inode %d", inode)
	}
	return sizeBytes, nil
}

func (e *blockEngine) Read(fd Descriptor, p []byte) (int, error) {
	inode, cursor, err := e.getSession(fd)
	if err != nil {
		return 0, err
	}
	sizeBytes, err := e.getSize(inode)
	if err != nil {
		return 0, err
	}

	length := int64(len(p))
	if remaining := sizeBytes - cursor; length > remaining {
		if remaining <= 0 {
			return 0, nil
		}
		length = remaining
	}

	block := make([]byte, e.blockSizeBytes)
	var n int64
	for n < length {
		fileBlock := cursor / e.blockSizeBytes
		offsetInBlock := cursor % e.blockSizeBytes
		chunk := e.blockSizeBytes - offsetInBlock
		if chunk > length-n {
			chunk = length - n
		}

		if err := e.files.ReadBlock(inode, fileBlock, block); err != nil {
			return int(n), util.StatusWrapf(err, "Failed to read block %d of inode %d", fileBlock, inode)
		}
		copy(p[n:n+chunk], block[offsetInBlock:])
		n += chunk
		cursor += chunk

		if err := e.sessions.SetCursor(fd, cursor); err != nil {
			return int(n), err
		}
	}
	return int(n), nil
}

func (e *blockEngine) Write(fd Descriptor, p []byte) error {
	inode, cursor, err := e.getSession(fd)
	if err != nil {
		return err
	}
	sizeBytes, err := e.getSize(inode)
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	end := cursor + int64(len(p))
	if end < cursor {
		return status.Errorf(codes.InvalidArgument, "Writing %d bytes at offset %d would overflow the cursor", len(p), cursor)
	}

	stagingBlocks := (end-1)/e.blockSizeBytes - cursor/e.blockSizeBytes + 1
	if stagingBlocks > e.maximumStagingBlocks {
		stagingBlocks = e.maximumStagingBlocks
	}
	staging := make([]byte, stagingBlocks*e.blockSizeBytes)

	for offset := cursor; offset < end; {
		windowEnd := end
		if firstBlock := offset / e.blockSizeBytes; (end-1)/e.blockSizeBytes-firstBlock >= e.maximumStagingBlocks {
			windowEnd = (firstBlock + e.maximumStagingBlocks) * e.blockSizeBytes
		}
		if err := e.writeWindow(inode, sizeBytes, offset, p[offset-cursor:windowEnd-cursor], staging); err != nil {
			return err
		}
		offset = windowEnd
	}

	if err := e.sessions.SetCursor(fd, end); err != nil {
		return err
	}
	if end > sizeBytes {
		if err := e.files.SetSize(inode, end); err != nil {
			return util.StatusWrapf(err, "Failed to set size of inode %d", inode)
		}
	}
	return nil
}

// writeWindow writes data at a given offset of a file, where all
// blocks touched fit in the staging buffer. sizeBytes is the size of
// the file before the write started.
func (e *blockEngine) writeWindow(inode InodeNumber, sizeBytes, offset int64, data, staging []byte) error {
	blockSizeBytes := e.blockSizeBytes
	end := offset + int64(len(data))
	firstBlock := offset / blockSizeBytes
	lastBlock := (end - 1) / blockSizeBytes
	blockCount := lastBlock - firstBlock + 1
	buf := staging[:blockCount*blockSizeBytes]
	clear(buf)

	// Preserve the bytes in the first and last block that are not
	// covered by the write. Blocks starting at or past the end of
	// the file contain no data worth preserving.
	headBytes := offset % blockSizeBytes
	headRead := false
	if headBytes > 0 && firstBlock*blockSizeBytes < sizeBytes {
		if err := e.files.ReadBlock(inode, firstBlock, buf[:blockSizeBytes]); err != nil {
			return util.StatusWrapf(err, "Failed to read block %d of inode %d", firstBlock, inode)
		}
		headRead = true
	}
	if tailStart := end - lastBlock*blockSizeBytes; tailStart < blockSizeBytes && lastBlock*blockSizeBytes < sizeBytes && !(headRead && lastBlock == firstBlock) {
		if err := e.files.ReadBlock(inode, lastBlock, buf[(blockCount-1)*blockSizeBytes:]); err != nil {
			return util.StatusWrapf(err, "Failed to read block %d of inode %d", lastBlock, inode)
		}
	}
	copy(buf[headBytes:], data)

	for i := int64(0); i < blockCount; i++ {
		fileBlock := firstBlock + i
		if fileBlock*blockSizeBytes >= sizeBytes {
			if err := e.files.ExtendFile(inode, fileBlock); err != nil {
				return util.StatusWrapf(err, "Failed to extend inode %d to block %d", inode, fileBlock)
			}
		}
		block, err := e.files.TranslateBlock(inode, fileBlock)
		if err != nil {
			return util.StatusWrapf(err, "Failed to translate block %d of inode %d", fileBlock, inode)
		}
		if err := e.files.WriteBlock(block, buf[i*blockSizeBytes:(i+1)*blockSizeBytes]); err != nil {
			return util.StatusWrapf(err, "Failed to write block %d of inode %d", fileBlock, inode)
		}
	}
	return nil
}

func (e *blockEngine) Seek(fd Descriptor, offset int64, whence Whence) error {
	if offset < 0 {
		return status.Errorf(codes.InvalidArgument, "Negative seek offset %d", offset)
	}
	inode, err := e.sessions.GetInode(fd)
	if err != nil {
		return err
	}

	var base int64
	switch whence {
	case SeekStart:
	case SeekCurrent:
		if base, err = e.sessions.GetCursor(fd); err != nil {
			return err
		}
	case SeekEnd:
		if base, err = e.getSize(inode); err != nil {
			return err
		}
	default:
		return status.Errorf(codes.InvalidArgument, "Invalid whence %d", whence)
	}

	cursor := base + offset
	if cursor < base {
		return status.Errorf(codes.InvalidArgument, "Seeking %d bytes past offset %d would overflow the cursor", offset, base)
	}
	return e.sessions.SetCursor(fd, cursor)
}

func (e *blockEngine) Tell(fd Descriptor) (int64, error) {
	return e.sessions.GetCursor(fd)
}

func (e *blockEngine) Size(fd Descriptor) (int64, error) {
	inode, err := e.sessions.GetInode(fd)
	if err != nil {
		return 0, err
	}
	return e.getSize(inode)
}

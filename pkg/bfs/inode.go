package bfs

import (
	"encoding/binary"

	"github.com/buildbarn/bb-bfs/pkg/fileio"
)

const inodeFlagInUse = 1

// inode is the in-memory representation of a 64 byte inode table
// record. A block number of zero denotes an unallocated block, as
// block zero always holds the superblock.
type inode struct {
	flags     uint32
	sizeBytes int64
	direct    [directBlocksPerInode]fileio.BlockNumber
	indirect  fileio.BlockNumber
}

func (i *inode) inUse() bool {
	return i.flags&inodeFlagInUse != 0
}

func (i *inode) marshal(b []byte) {
	clear(b[:inodeSizeBytes])
	binary.LittleEndian.PutUint32(b[0:], i.flags)
	binary.LittleEndian.PutUint64(b[8:], uint64(i.sizeBytes))
	for j, block := range i.direct {
		binary.LittleEndian.PutUint32(b[16+4*j:], uint32(block))
	}
	binary.LittleEndian.PutUint32(b[36:], uint32(i.indirect))
}

func unmarshalInode(b []byte) inode {
	i := inode{
		flags:     binary.LittleEndian.Uint32(b[0:]),
		sizeBytes: int64(binary.LittleEndian.Uint64(b[8:])),
		indirect:  fileio.BlockNumber(binary.LittleEndian.Uint32(b[36:])),
	}
	for j := range i.direct {
		i.direct[j] = fileio.BlockNumber(binary.LittleEndian.Uint32(b[16+4*j:]))
	}
	return i
}

// directoryEntry is the in-memory representation of a 32 byte
// directory record. On disk, the inode number is stored incremented by
// one, so that zeroed records denote free slots.
type directoryEntry struct {
	name  string
	inode fileio.InodeNumber
}

func (e *directoryEntry) inUse() bool {
	return e.name != ""
}

func (e *directoryEntry) marshal(b []byte) {
	clear(b[:directoryEntrySizeBytes])
	if e.inUse() {
		binary.LittleEndian.PutUint32(b[0:], uint32(e.inode)+1)
		copy(b[4:4+maximumNameLength], e.name)
	}
}

func unmarshalDirectoryEntry(b []byte) directoryEntry {
	inodePlusOne := binary.LittleEndian.Uint32(b[0:])
	if inodePlusOne == 0 {
		return directoryEntry{}
	}
	name := b[4 : 4+maximumNameLength]
	for j, c := range name {
		if c == 0 {
			name = name[:j]
			break
		}
	}
	return directoryEntry{
		name:  string(name),
		inode: fileio.InodeNumber(inodePlusOne - 1),
	}
}

package bfs

import (
	"bytes"
	"encoding/binary"
	"math/bits"

	"github.com/google/uuid"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	superblockVersion = 1

	// MinimumBlockSizeBytes is the smallest block size supported by
	// volumes. Superblocks are always read using this size, as the
	// actual block size is not known until the superblock is parsed.
	MinimumBlockSizeBytes = 128

	inodeSizeBytes          = 64
	directoryEntrySizeBytes = 32

	directBlocksPerInode = 5
	maximumNameLength    = 27
)

var superblockMagic = [4]byte{'B', 'F', 'S', '1'}

// superblock is the on-disk layout of the first block of a volume.
// The volume is divided into four consecutive regions: the superblock,
// the inode table, the directory and the data region.
type superblock struct {
	Magic            [4]byte
	Version          uint32
	BlockSizeBytes   uint32
	BlockCount       uint32
	InodeCount       uint32
	InodeTableStart  uint32
	InodeTableBlocks uint32
	DirectoryStart   uint32
	DirectoryBlocks  uint32
	DataStart        uint32
	VolumeUUID       [16]byte
}

func (sb *superblock) marshal(blockSizeBytes int) []byte {
	var b bytes.Buffer
	if err := binary.Write(&b, binary.LittleEndian, sb); err != nil {
		panic(err)
	}
	block := make([]byte, blockSizeBytes)
	copy(block, b.Bytes())
	return block
}

func unmarshalSuperblock(b []byte) (*superblock, error) {
	var sb superblock
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &sb); err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "Failed to parse superblock: %s", err)
	}
	if sb.Magic != superblockMagic {
		return nil, status.Error(codes.FailedPrecondition, "Block device does not contain a superblock")
	}
	if sb.Version != superblockVersion {
		return nil, status.Errorf(codes.FailedPrecondition, "Superblock has unsupported version %d", sb.Version)
	}
	if err := validateBlockSize(int64(sb.BlockSizeBytes)); err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "Superblock is corrupt: %s", status.Convert(err).Message())
	}

	// All regions must be laid out consecutively.
	if sb.InodeCount == 0 ||
		sb.InodeTableStart != 1 ||
		sb.InodeTableBlocks != blocksNeeded(sb.InodeCount, inodeSizeBytes, sb.BlockSizeBytes) ||
		sb.DirectoryStart != sb.InodeTableStart+sb.InodeTableBlocks ||
		sb.DirectoryBlocks != blocksNeeded(sb.InodeCount, directoryEntrySizeBytes, sb.BlockSizeBytes) ||
		sb.DataStart != sb.DirectoryStart+sb.DirectoryBlocks ||
		sb.DataStart >= sb.BlockCount {
		return nil, status.Error(codes.FailedPrecondition, "Superblock is corrupt: Regions are not laid out consecutively")
	}
	return &sb, nil
}

func (sb *superblock) volumeUUID() uuid.UUID {
	return uuid.UUID(sb.VolumeUUID)
}

// maximumFileBlocks returns the maximum number of blocks a single file
// may consist of. Files may use all direct blocks, and as many blocks
// as the indirect block can reference.
func maximumFileBlocks(blockSizeBytes int64) int64 {
	return directBlocksPerInode + blockSizeBytes/4
}

func validateBlockSize(blockSizeBytes int64) error {
	if blockSizeBytes < MinimumBlockSizeBytes || bits.OnesCount64(uint64(blockSizeBytes)) != 1 {
		return status.Errorf(codes.InvalidArgument, "Block size of %d bytes is not a power of two that is at least %d bytes", blockSizeBytes, MinimumBlockSizeBytes)
	}
	return nil
}

func blocksNeeded(count, recordSizeBytes, blockSizeBytes uint32) uint32 {
	recordsPerBlock := blockSizeBytes / recordSizeBytes
	return (count + recordsPerBlock - 1) / recordsPerBlock
}

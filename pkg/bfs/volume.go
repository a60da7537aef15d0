// Package bfs implements a simple file system on top of a block
// device. Volumes consist of a superblock, an inode table, a flat
// directory and a data region, all using the same block size.
package bfs

import (
	"encoding/binary"
	"math"
	"slices"
	"strings"

	"github.com/buildbarn/bb-bfs/pkg/blockdevice"
	"github.com/buildbarn/bb-bfs/pkg/fileio"
	"github.com/buildbarn/bb-bfs/pkg/util"
	"github.com/google/uuid"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FormatParameters contains the properties of a volume that need to be
// chosen when it is created.
type FormatParameters struct {
	BlockSizeBytes int
	InodeCount     int
}

// Format creates an empty volume on a block device. The inode table
// and the directory are zeroed, after which the superblock is written.
func Format(device blockdevice.BlockDevice, deviceSizeBytes int64, parameters FormatParameters, uuidGenerator util.UUIDGenerator) error {
	blockSizeBytes := int64(parameters.BlockSizeBytes)
	if err := validateBlockSize(blockSizeBytes); err != nil {
		return err
	}
	if parameters.InodeCount <= 0 || parameters.InodeCount > math.MaxInt32 {
		return status.Errorf(codes.InvalidArgument, "Invalid inode count %d", parameters.InodeCount)
	}
	blockCount := deviceSizeBytes / blockSizeBytes
	if blockCount > math.MaxUint32 {
		return status.Errorf(codes.InvalidArgument, "Block device of %d blocks exceeds the maximum of %d blocks", blockCount, uint32(math.MaxUint32))
	}

	inodeCount := uint32(parameters.InodeCount)
	inodeTableBlocks := blocksNeeded(inodeCount, inodeSizeBytes, uint32(blockSizeBytes))
	directoryBlocks := blocksNeeded(inodeCount, directoryEntrySizeBytes, uint32(blockSizeBytes))
	dataStart := 1 + int64(inodeTableBlocks) + int64(directoryBlocks)
	if dataStart >= blockCount {
		return status.Errorf(codes.InvalidArgument, "Block device of %d blocks is too small to hold %d inodes and any data", blockCount, inodeCount)
	}

	volumeUUID, err := uuidGenerator()
	if err != nil {
		return util.StatusWrap(err, "Failed to generate volume UUID")
	}
	sb := superblock{
		Magic:            superblockMagic,
		Version:          superblockVersion,
		BlockSizeBytes:   uint32(blockSizeBytes),
		BlockCount:       uint32(blockCount),
		InodeCount:       inodeCount,
		InodeTableStart:  1,
		InodeTableBlocks: inodeTableBlocks,
		DirectoryStart:   1 + inodeTableBlocks,
		DirectoryBlocks:  directoryBlocks,
		DataStart:        uint32(dataStart),
		VolumeUUID:       volumeUUID,
	}

	zeroBlock := make([]byte, blockSizeBytes)
	for block := int64(1); block < dataStart; block++ {
		if _, err := device.WriteAt(zeroBlock, block*blockSizeBytes); err != nil {
			return util.StatusWrapf(err, "Failed to clear metadata block %d", block)
		}
	}
	if _, err := device.WriteAt(sb.marshal(int(blockSizeBytes)), 0); err != nil {
		return util.StatusWrap(err, "Failed to write superblock")
	}
	if err := device.Sync(); err != nil {
		return util.StatusWrap(err, "Failed to synchronize block device")
	}
	return nil
}

// Volume provides access to the files stored on a block device. It
// implements fileio.FileStore, thereby allowing the contents of files
// to be accessed through a fileio.Engine.
//
// Files consist of up to five direct blocks, followed by the blocks
// referenced by a single indirect block. The inode table and the
// directory are kept in memory, and written through to the block
// device whenever they are modified.
//
// Volume is not safe for concurrent use.
type Volume struct {
	device         blockdevice.BlockDevice
	superblock     *superblock
	blockSizeBytes int64
	inodes         []inode
	directory      []directoryEntry
	freeList       *freeList
	zeroBlock      []byte
}

var _ fileio.FileStore = (*Volume)(nil)

// MountVolume loads the metadata of a volume created by Format. The
// free list is reconstructed by walking all inodes that are in use.
func MountVolume(device blockdevice.BlockDevice) (*Volume, error) {
	b := make([]byte, MinimumBlockSizeBytes)
	if _, err := device.ReadAt(b, 0); err != nil {
		return nil, util.StatusWrap(err, "Failed to read superblock")
	}
	sb, err := unmarshalSuperblock(b)
	if err != nil {
		return nil, err
	}

	blockSizeBytes := int64(sb.BlockSizeBytes)
	v := &Volume{
		device:         device,
		superblock:     sb,
		blockSizeBytes: blockSizeBytes,
		inodes:         make([]inode, sb.InodeCount),
		directory:      make([]directoryEntry, sb.InodeCount),
		freeList:       newFreeList(fileio.BlockNumber(sb.DataStart), fileio.BlockNumber(sb.BlockCount)),
		zeroBlock:      make([]byte, blockSizeBytes),
	}

	inodeTable := make([]byte, int64(sb.InodeTableBlocks)*blockSizeBytes)
	if _, err := device.ReadAt(inodeTable, int64(sb.InodeTableStart)*blockSizeBytes); err != nil {
		return nil, util.StatusWrap(err, "Failed to read inode table")
	}
	for i := range v.inodes {
		v.inodes[i] = unmarshalInode(inodeTable[i*inodeSizeBytes:])
	}

	directory := make([]byte, int64(sb.DirectoryBlocks)*blockSizeBytes)
	if _, err := device.ReadAt(directory, int64(sb.DirectoryStart)*blockSizeBytes); err != nil {
		return nil, util.StatusWrap(err, "Failed to read directory")
	}
	for i := range v.directory {
		entry := unmarshalDirectoryEntry(directory[i*directoryEntrySizeBytes:])
		if entry.inUse() {
			if int(entry.inode) >= len(v.inodes) || !v.inodes[entry.inode].inUse() {
				return nil, status.Errorf(codes.FailedPrecondition, "Directory entry %#v refers to inode %d, which is not in use", entry.name, entry.inode)
			}
		}
		v.directory[i] = entry
	}

	for i := range v.inodes {
		if err := v.markInodeBlocksUsed(&v.inodes[i]); err != nil {
			return nil, util.StatusWrapf(err, "Inode %d", i)
		}
	}
	return v, nil
}

func (v *Volume) markInodeBlocksUsed(ino *inode) error {
	if !ino.inUse() {
		return nil
	}
	for _, block := range ino.direct {
		if block != 0 {
			if err := v.freeList.markUsed(block); err != nil {
				return err
			}
		}
	}
	if ino.indirect != 0 {
		if err := v.freeList.markUsed(ino.indirect); err != nil {
			return err
		}
		indirect, err := v.readIndirectBlock(ino)
		if err != nil {
			return err
		}
		for j := 0; j < len(indirect); j += 4 {
			if block := fileio.BlockNumber(binary.LittleEndian.Uint32(indirect[j:])); block != 0 {
				if err := v.freeList.markUsed(block); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// BlockSizeBytes returns the size of the blocks of the volume.
func (v *Volume) BlockSizeBytes() int {
	return int(v.blockSizeBytes)
}

// VolumeUUID returns the identifier that was assigned to the volume
// when it was formatted.
func (v *Volume) VolumeUUID() uuid.UUID {
	return v.superblock.volumeUUID()
}

// FreeBlockCount returns the number of blocks in the data region that
// are not used by any file.
func (v *Volume) FreeBlockCount() int {
	return v.freeList.freeCount
}

// Sync blocks until all changes to the volume have been persisted.
func (v *Volume) Sync() error {
	if err := v.device.Sync(); err != nil {
		return util.StatusWrap(err, "Failed to synchronize block device")
	}
	return nil
}

func validateName(name string) error {
	if len(name) == 0 || len(name) > maximumNameLength {
		return status.Errorf(codes.InvalidArgument, "Invalid file name %#v: Names must be between 1 and %d bytes long", name, maximumNameLength)
	}
	if strings.ContainsAny(name, "\x00/") {
		return status.Errorf(codes.InvalidArgument, "Invalid file name %#v: Names cannot contain null bytes or slashes", name)
	}
	return nil
}

func (v *Volume) lookupEntry(name string) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	for slot, entry := range v.directory {
		if entry.name == name {
			return slot, nil
		}
	}
	return 0, status.Errorf(codes.NotFound, "File %#v does not exist", name)
}

// Lookup returns the inode number of a file.
func (v *Volume) Lookup(name string) (fileio.InodeNumber, error) {
	slot, err := v.lookupEntry(name)
	if err != nil {
		return 0, err
	}
	return v.directory[slot].inode, nil
}

// Create a new, empty file. If a file with the same name already
// exists, it is truncated.
func (v *Volume) Create(name string) (fileio.InodeNumber, error) {
	slot, err := v.lookupEntry(name)
	if err == nil {
		inodeNumber := v.directory[slot].inode
		ino := &v.inodes[inodeNumber]
		if err := v.releaseBlocks(ino); err != nil {
			return 0, util.StatusWrapf(err, "Failed to truncate file %#v", name)
		}
		ino.sizeBytes = 0
		if err := v.writeInode(inodeNumber); err != nil {
			return 0, err
		}
		return inodeNumber, nil
	} else if status.Code(err) != codes.NotFound {
		return 0, err
	}

	inodeIndex := slices.IndexFunc(v.inodes, func(ino inode) bool { return !ino.inUse() })
	if inodeIndex < 0 {
		return 0, status.Error(codes.ResourceExhausted, "No free inodes available")
	}
	slot = slices.IndexFunc(v.directory, func(entry directoryEntry) bool { return !entry.inUse() })
	if slot < 0 {
		return 0, status.Error(codes.ResourceExhausted, "No free directory entries available")
	}

	inodeNumber := fileio.InodeNumber(inodeIndex)
	v.inodes[inodeNumber] = inode{flags: inodeFlagInUse}
	if err := v.writeInode(inodeNumber); err != nil {
		v.inodes[inodeNumber] = inode{}
		return 0, err
	}
	v.directory[slot] = directoryEntry{name: name, inode: inodeNumber}
	if err := v.writeDirectoryEntry(slot); err != nil {
		return 0, err
	}
	return inodeNumber, nil
}

// Remove a file, releasing all of its blocks.
func (v *Volume) Remove(name string) error {
	slot, err := v.lookupEntry(name)
	if err != nil {
		return err
	}
	inodeNumber := v.directory[slot].inode
	v.directory[slot] = directoryEntry{}
	if err := v.writeDirectoryEntry(slot); err != nil {
		return err
	}
	if err := v.releaseBlocks(&v.inodes[inodeNumber]); err != nil {
		return util.StatusWrapf(err, "Failed to release blocks of file %#v", name)
	}
	v.inodes[inodeNumber] = inode{}
	return v.writeInode(inodeNumber)
}

// FileInfo contains the name and size of a single file.
type FileInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
}

// List all files stored on the volume, sorted by name.
func (v *Volume) List() []FileInfo {
	files := []FileInfo{}
	for _, entry := range v.directory {
		if entry.inUse() {
			files = append(files, FileInfo{
				Name:      entry.name,
				SizeBytes: v.inodes[entry.inode].sizeBytes,
			})
		}
	}
	slices.SortFunc(files, func(a, b FileInfo) int { return strings.Compare(a.Name, b.Name) })
	return files
}

// releaseBlocks returns all blocks of a file to the free list. The
// caller is responsible for writing the inode afterwards.
func (v *Volume) releaseBlocks(ino *inode) error {
	if ino.indirect != 0 {
		indirect, err := v.readIndirectBlock(ino)
		if err != nil {
			return err
		}
		for j := 0; j < len(indirect); j += 4 {
			if block := fileio.BlockNumber(binary.LittleEndian.Uint32(indirect[j:])); block != 0 {
				v.freeList.release(block)
			}
		}
		v.freeList.release(ino.indirect)
		ino.indirect = 0
	}
	for j, block := range ino.direct {
		if block != 0 {
			v.freeList.release(block)
			ino.direct[j] = 0
		}
	}
	return nil
}

func (v *Volume) getInode(inodeNumber fileio.InodeNumber) (*inode, error) {
	if int64(inodeNumber) >= int64(len(v.inodes)) {
		return nil, status.Errorf(codes.InvalidArgument, "Inode %d does not exist", inodeNumber)
	}
	ino := &v.inodes[inodeNumber]
	if !ino.inUse() {
		return nil, status.Errorf(codes.FailedPrecondition, "Inode %d is not in use", inodeNumber)
	}
	return ino, nil
}

// writeInode writes the inode table block containing an inode.
func (v *Volume) writeInode(inodeNumber fileio.InodeNumber) error {
	inodesPerBlock := int(v.blockSizeBytes) / inodeSizeBytes
	tableBlock := int(inodeNumber) / inodesPerBlock
	b := make([]byte, v.blockSizeBytes)
	for j := 0; j < inodesPerBlock; j++ {
		if i := tableBlock*inodesPerBlock + j; i < len(v.inodes) {
			v.inodes[i].marshal(b[j*inodeSizeBytes:])
		}
	}
	if _, err := v.device.WriteAt(b, (int64(v.superblock.InodeTableStart)+int64(tableBlock))*v.blockSizeBytes); err != nil {
		return util.StatusWrapf(err, "Failed to write inode %d", inodeNumber)
	}
	return nil
}

// writeDirectoryEntry writes the directory block containing an entry.
func (v *Volume) writeDirectoryEntry(slot int) error {
	entriesPerBlock := int(v.blockSizeBytes) / directoryEntrySizeBytes
	directoryBlock := slot / entriesPerBlock
	b := make([]byte, v.blockSizeBytes)
	for j := 0; j < entriesPerBlock; j++ {
		if i := directoryBlock*entriesPerBlock + j; i < len(v.directory) {
			v.directory[i].marshal(b[j*directoryEntrySizeBytes:])
		}
	}
	if _, err := v.device.WriteAt(b, (int64(v.superblock.DirectoryStart)+int64(directoryBlock))*v.blockSizeBytes); err != nil {
		return util.StatusWrapf(err, "Failed to write directory entry %d", slot)
	}
	return nil
}

func (v *Volume) readIndirectBlock(ino *inode) ([]byte, error) {
	b := make([]byte, v.blockSizeBytes)
	if _, err := v.device.ReadAt(b, int64(ino.indirect)*v.blockSizeBytes); err != nil {
		return nil, util.StatusWrapf(err, "Failed to read indirect block %d", ino.indirect)
	}
	return b, nil
}

func (v *Volume) checkFileBlock(inodeNumber fileio.InodeNumber, fileBlock int64) error {
	if fileBlock < 0 {
		return status.Errorf(codes.InvalidArgument, "Negative block number %d", fileBlock)
	}
	if maximum := maximumFileBlocks(v.blockSizeBytes); fileBlock >= maximum {
		return status.Errorf(codes.OutOfRange, "Block %d of inode %d exceeds the maximum file size of %d blocks", fileBlock, inodeNumber, maximum)
	}
	return nil
}

// getBlock returns the location of a block of a file, or zero if the
// block is not allocated.
func (v *Volume) getBlock(inodeNumber fileio.InodeNumber, fileBlock int64) (fileio.BlockNumber, error) {
	ino, err := v.getInode(inodeNumber)
	if err != nil {
		return 0, err
	}
	if err := v.checkFileBlock(inodeNumber, fileBlock); err != nil {
		return 0, err
	}
	if fileBlock < directBlocksPerInode {
		return ino.direct[fileBlock], nil
	}
	if ino.indirect == 0 {
		return 0, nil
	}
	indirect, err := v.readIndirectBlock(ino)
	if err != nil {
		return 0, err
	}
	return fileio.BlockNumber(binary.LittleEndian.Uint32(indirect[(fileBlock-directBlocksPerInode)*4:])), nil
}

func (v *Volume) checkBuffer(p []byte) error {
	if int64(len(p)) != v.blockSizeBytes {
		return status.Errorf(codes.InvalidArgument, "Buffer is %d bytes in size, while blocks are %d bytes in size", len(p), v.blockSizeBytes)
	}
	return nil
}

// GetSize returns the size of a file in bytes.
func (v *Volume) GetSize(inodeNumber fileio.InodeNumber) (int64, error) {
	ino, err := v.getInode(inodeNumber)
	if err != nil {
		return 0, err
	}
	return ino.sizeBytes, nil
}

// SetSize updates the size of a file.
func (v *Volume) SetSize(inodeNumber fileio.InodeNumber, sizeBytes int64) error {
	ino, err := v.getInode(inodeNumber)
	if err != nil {
		return err
	}
	if sizeBytes < 0 {
		return status.Errorf(codes.InvalidArgument, "Negative file size %d", sizeBytes)
	}
	if maximum := maximumFileBlocks(v.blockSizeBytes) * v.blockSizeBytes; sizeBytes > maximum {
		return status.Errorf(codes.OutOfRange, "File size of %d bytes exceeds the maximum of %d bytes", sizeBytes, maximum)
	}
	ino.sizeBytes = sizeBytes
	return v.writeInode(inodeNumber)
}

// ReadBlock reads a block of a file. Blocks that are not allocated are
// returned as zeros.
func (v *Volume) ReadBlock(inodeNumber fileio.InodeNumber, fileBlock int64, p []byte) error {
	if err := v.checkBuffer(p); err != nil {
		return err
	}
	block, err := v.getBlock(inodeNumber, fileBlock)
	if err != nil {
		return err
	}
	if block == 0 {
		clear(p)
		return nil
	}
	if _, err := v.device.ReadAt(p, int64(block)*v.blockSizeBytes); err != nil {
		return util.StatusWrapf(err, "Failed to read block %d", block)
	}
	return nil
}

// TranslateBlock returns the location of an allocated block of a file.
func (v *Volume) TranslateBlock(inodeNumber fileio.InodeNumber, fileBlock int64) (fileio.BlockNumber, error) {
	block, err := v.getBlock(inodeNumber, fileBlock)
	if err != nil {
		return 0, err
	}
	if block == 0 {
		return 0, status.Errorf(codes.FailedPrecondition, "Block %d of inode %d is not allocated", fileBlock, inodeNumber)
	}
	return block, nil
}

// ExtendFile allocates all blocks of a file up to and including
// fileBlock that have not been allocated yet. All newly allocated
// blocks are zeroed, so that blocks previously used by removed files
// read back as zeros, even if the caller fails to write fileBlock
// afterwards.
func (v *Volume) ExtendFile(inodeNumber fileio.InodeNumber, fileBlock int64) error {
	ino, err := v.getInode(inodeNumber)
	if err != nil {
		return err
	}
	if err := v.checkFileBlock(inodeNumber, fileBlock); err != nil {
		return err
	}

	var indirect []byte
	inodeDirty, indirectDirty := false, false
	if fileBlock >= directBlocksPerInode {
		if ino.indirect == 0 {
			block, err := v.freeList.allocate()
			if err != nil {
				return err
			}
			ino.indirect = block
			indirect = make([]byte, v.blockSizeBytes)
			inodeDirty, indirectDirty = true, true
		} else if indirect, err = v.readIndirectBlock(ino); err != nil {
			return err
		}
	}

	// Allocate blocks in ascending order. If the volume runs out of
	// space, the blocks allocated up to that point remain part of
	// the file.
	var allocationErr error
	for f := int64(0); f <= fileBlock; f++ {
		var current fileio.BlockNumber
		if f < directBlocksPerInode {
			current = ino.direct[f]
		} else {
			current = fileio.BlockNumber(binary.LittleEndian.Uint32(indirect[(f-directBlocksPerInode)*4:]))
		}
		if current != 0 {
			continue
		}

		block, err := v.freeList.allocate()
		if err != nil {
			allocationErr = err
			break
		}
		if _, err := v.device.WriteAt(v.zeroBlock, int64(block)*v.blockSizeBytes); err != nil {
			v.freeList.release(block)
			allocationErr = util.StatusWrapf(err, "Failed to clear block %d", block)
			break
		}
		if f < directBlocksPerInode {
			ino.direct[f] = block
			inodeDirty = true
		} else {
			binary.LittleEndian.PutUint32(indirect[(f-directBlocksPerInode)*4:], uint32(block))
			indirectDirty = true
		}
	}

	if indirectDirty {
		if _, err := v.device.WriteAt(indirect, int64(ino.indirect)*v.blockSizeBytes); err != nil {
			return util.StatusWrapf(err, "Failed to write indirect block %d", ino.indirect)
		}
	}
	if inodeDirty {
		if err := v.writeInode(inodeNumber); err != nil {
			return err
		}
	}
	return allocationErr
}

// WriteBlock overwrites a block in the data region of the volume.
func (v *Volume) WriteBlock(block fileio.BlockNumber, p []byte) error {
	if err := v.checkBuffer(p); err != nil {
		return err
	}
	if !v.freeList.contains(block) {
		return status.Errorf(codes.OutOfRange, "Block %d is not part of the data region", block)
	}
	if _, err := v.device.WriteAt(p, int64(block)*v.blockSizeBytes); err != nil {
		return util.StatusWrapf(err, "Failed to write block %d", block)
	}
	return nil
}

package bfs_test

import (
	"bytes"
	"testing"

	"github.com/buildbarn/bb-bfs/pkg/bfs"
	"github.com/buildbarn/bb-bfs/pkg/blockdevice"
	"github.com/buildbarn/bb-bfs/pkg/fileio"
	"github.com/buildbarn/bb-bfs/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	testBlockSizeBytes = 128
	testInodeCount     = 4
)

var testVolumeUUID = uuid.MustParse("7c0b4ee5-6bb4-4b4c-a4a4-5f8f2b3a1d41")

func testUUIDGenerator() (uuid.UUID, error) {
	return testVolumeUUID, nil
}

// newTestVolume formats an in-memory block device of a given number of
// blocks with a block size of 128 bytes and four inodes. The inode
// table takes up two blocks and the directory takes up one, meaning
// the data region starts at block 4.
func newTestVolume(t *testing.T, blockCount int) (blockdevice.BlockDevice, *bfs.Volume) {
	device := blockdevice.NewInMemoryBlockDevice(blockCount * testBlockSizeBytes)
	require.NoError(t, bfs.Format(device, int64(blockCount*testBlockSizeBytes), bfs.FormatParameters{
		BlockSizeBytes: testBlockSizeBytes,
		InodeCount:     testInodeCount,
	}, testUUIDGenerator))
	volume, err := bfs.MountVolume(device)
	require.NoError(t, err)
	return device, volume
}

func TestFormat(t *testing.T) {
	t.Run("InvalidBlockSize", func(t *testing.T) {
		for _, blockSizeBytes := range []int{0, 64, 100, 1000} {
			device := blockdevice.NewInMemoryBlockDevice(8192)
			testutil.RequireEqualStatus(
				t,
				status.Errorf(codes.InvalidArgument, "Block size of %d bytes is not a power of two that is at least 128 bytes", blockSizeBytes),
				bfs.Format(device, 8192, bfs.FormatParameters{
					BlockSizeBytes: blockSizeBytes,
					InodeCount:     testInodeCount,
				}, testUUIDGenerator))
		}
	})

	t.Run("InvalidInodeCount", func(t *testing.T) {
		device := blockdevice.NewInMemoryBlockDevice(8192)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Invalid inode count 0"),
			bfs.Format(device, 8192, bfs.FormatParameters{
				BlockSizeBytes: testBlockSizeBytes,
			}, testUUIDGenerator))
	})

	t.Run("DeviceTooSmall", func(t *testing.T) {
		// Four blocks can only hold the superblock and metadata.
		device := blockdevice.NewInMemoryBlockDevice(4 * testBlockSizeBytes)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Block device of 4 blocks is too small to hold 4 inodes and any data"),
			bfs.Format(device, 4*testBlockSizeBytes, bfs.FormatParameters{
				BlockSizeBytes: testBlockSizeBytes,
				InodeCount:     testInodeCount,
			}, testUUIDGenerator))
	})

	t.Run("UUIDGenerationFailure", func(t *testing.T) {
		device := blockdevice.NewInMemoryBlockDevice(8192)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Internal, "Failed to generate volume UUID: Entropy pool exhausted"),
			bfs.Format(device, 8192, bfs.FormatParameters{
				BlockSizeBytes: testBlockSizeBytes,
				InodeCount:     testInodeCount,
			}, func() (uuid.UUID, error) {
				return uuid.UUID{}, status.Error(codes.Internal, "Entropy pool exhausted")
			}))
	})

	t.Run("Success", func(t *testing.T) {
		_, volume := newTestVolume(t, 64)
		require.Equal(t, testBlockSizeBytes, volume.BlockSizeBytes())
		require.Equal(t, testVolumeUUID, volume.VolumeUUID())
		require.Equal(t, 60, volume.FreeBlockCount())
		require.Empty(t, volume.List())
	})
}

func TestMountVolume(t *testing.T) {
	t.Run("NoSuperblock", func(t *testing.T) {
		device := blockdevice.NewInMemoryBlockDevice(8192)
		_, err := bfs.MountVolume(device)
		testutil.RequireEqualStatus(t, status.Error(codes.FailedPrecondition, "Block device does not contain a superblock"), err)
	})

	t.Run("CorruptSuperblock", func(t *testing.T) {
		device, _ := newTestVolume(t, 64)
		// Overwrite the block size stored in the superblock.
		_, err := device.WriteAt([]byte{100, 0, 0, 0}, 8)
		require.NoError(t, err)

		_, err = bfs.MountVolume(device)
		testutil.RequireEqualStatus(t, status.Error(codes.FailedPrecondition, "Superblock is corrupt: Block size of 100 bytes is not a power of two that is at least 128 bytes"), err)
	})

	t.Run("Remount", func(t *testing.T) {
		// Files and their contents should survive remounting. The
		// free list should be reconstructed from the inode table.
		device, volume := newTestVolume(t, 64)
		inode, err := volume.Create("hello.txt")
		require.NoError(t, err)
		require.NoError(t, volume.ExtendFile(inode, 6))
		block, err := volume.TranslateBlock(inode, 6)
		require.NoError(t, err)
		require.NoError(t, volume.WriteBlock(block, bytes.Repeat([]byte("A"), testBlockSizeBytes)))
		require.NoError(t, volume.SetSize(inode, 6*testBlockSizeBytes+1))
		require.NoError(t, volume.Sync())
		freeBlockCount := volume.FreeBlockCount()

		remounted, err := bfs.MountVolume(device)
		require.NoError(t, err)
		require.Equal(t, freeBlockCount, remounted.FreeBlockCount())
		require.Equal(t, []bfs.FileInfo{{Name: "hello.txt", SizeBytes: 6*testBlockSizeBytes + 1}}, remounted.List())

		remountedInode, err := remounted.Lookup("hello.txt")
		require.NoError(t, err)
		require.Equal(t, inode, remountedInode)
		p := make([]byte, testBlockSizeBytes)
		require.NoError(t, remounted.ReadBlock(remountedInode, 6, p))
		require.Equal(t, bytes.Repeat([]byte("A"), testBlockSizeBytes), p)
	})
}

func TestVolumeDirectory(t *testing.T) {
	_, volume := newTestVolume(t, 64)

	t.Run("LookupNotFound", func(t *testing.T) {
		_, err := volume.Lookup("missing")
		testutil.RequireEqualStatus(t, status.Error(codes.NotFound, "File \"missing\" does not exist"), err)
	})

	t.Run("InvalidNames", func(t *testing.T) {
		_, err := volume.Create("")
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Invalid file name \"\": Names must be between 1 and 27 bytes long"), err)

		_, err = volume.Create("this-name-is-far-too-long-for-bfs")
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Invalid file name \"this-name-is-far-too-long-for-bfs\": Names must be between 1 and 27 bytes long"), err)

		_, err = volume.Create("a/b")
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Invalid file name \"a/b\": Names cannot contain null bytes or slashes"), err)
	})

	t.Run("CreateAndLookup", func(t *testing.T) {
		inode1, err := volume.Create("file1")
		require.NoError(t, err)
		inode2, err := volume.Create("file2")
		require.NoError(t, err)
		require.NotEqual(t, inode1, inode2)

		inode, err := volume.Lookup("file2")
		require.NoError(t, err)
		require.Equal(t, inode2, inode)

		// A name of exactly 27 bytes is permitted.
		_, err = volume.Create("abcdefghijklmnopqrstuvwxyz0")
		require.NoError(t, err)
		_, err = volume.Lookup("abcdefghijklmnopqrstuvwxyz0")
		require.NoError(t, err)
	})

	t.Run("OutOfInodes", func(t *testing.T) {
		_, err := volume.Create("file4")
		require.NoError(t, err)
		_, err = volume.Create("file5")
		testutil.RequireEqualStatus(t, status.Error(codes.ResourceExhausted, "No free inodes available"), err)

		// Recreating an existing file does not require a new inode.
		_, err = volume.Create("file4")
		require.NoError(t, err)
	})

	t.Run("Remove", func(t *testing.T) {
		inode, err := volume.Lookup("file1")
		require.NoError(t, err)
		require.NoError(t, volume.ExtendFile(inode, 2))
		require.Equal(t, 57, volume.FreeBlockCount())

		require.NoError(t, volume.Remove("file1"))
		require.Equal(t, 60, volume.FreeBlockCount())
		_, err = volume.Lookup("file1")
		testutil.RequireEqualStatus(t, status.Error(codes.NotFound, "File \"file1\" does not exist"), err)
		_, err = volume.GetSize(inode)
		testutil.RequireEqualStatus(t, status.Errorf(codes.FailedPrecondition, "Inode %d is not in use", inode), err)

		// The inode can be reused.
		_, err = volume.Create("file5")
		require.NoError(t, err)
	})
}

func TestVolumeBlocks(t *testing.T) {
	// Fill the block device with garbage prior to formatting it, so
	// that zeroing of blocks can be observed.
	device := blockdevice.NewInMemoryBlockDevice(64 * testBlockSizeBytes)
	_, err := device.WriteAt(bytes.Repeat([]byte{0xff}, 64*testBlockSizeBytes), 0)
	require.NoError(t, err)
	require.NoError(t, bfs.Format(device, 64*testBlockSizeBytes, bfs.FormatParameters{
		BlockSizeBytes: testBlockSizeBytes,
		InodeCount:     testInodeCount,
	}, testUUIDGenerator))
	volume, err := bfs.MountVolume(device)
	require.NoError(t, err)

	inode, err := volume.Create("file")
	require.NoError(t, err)
	p := make([]byte, testBlockSizeBytes)

	t.Run("UnallocatedBlocks", func(t *testing.T) {
		// Unallocated blocks read back as zeros, but cannot be
		// translated to a location on disk.
		copy(p, "Garbage")
		require.NoError(t, volume.ReadBlock(inode, 3, p))
		require.Equal(t, make([]byte, testBlockSizeBytes), p)

		_, err := volume.TranslateBlock(inode, 3)
		testutil.RequireEqualStatus(t, status.Errorf(codes.FailedPrecondition, "Block 3 of inode %d is not allocated", inode), err)
	})

	t.Run("ExtendFile", func(t *testing.T) {
		// Extending the file to its third block should allocate
		// the first three blocks of the data region, lowest
		// first. All of them are zeroed.
		require.NoError(t, volume.ExtendFile(inode, 2))
		for fileBlock, expectedBlock := range []fileio.BlockNumber{4, 5, 6} {
			block, err := volume.TranslateBlock(inode, int64(fileBlock))
			require.NoError(t, err)
			require.Equal(t, expectedBlock, block)
		}

		require.NoError(t, volume.ReadBlock(inode, 1, p))
		require.Equal(t, make([]byte, testBlockSizeBytes), p)
		require.NoError(t, volume.ReadBlock(inode, 2, p))
		require.Equal(t, make([]byte, testBlockSizeBytes), p)
		require.Equal(t, 57, volume.FreeBlockCount())

		// The file size is not altered.
		sizeBytes, err := volume.GetSize(inode)
		require.NoError(t, err)
		require.Equal(t, int64(0), sizeBytes)
	})

	t.Run("IndirectBlock", func(t *testing.T) {
		// Blocks beyond the fifth are referenced through an
		// indirect block, which is allocated first.
		require.NoError(t, volume.ExtendFile(inode, 6))
		require.Equal(t, 52, volume.FreeBlockCount())
		for fileBlock, expectedBlock := range []fileio.BlockNumber{4, 5, 6, 8, 9, 10, 11} {
			block, err := volume.TranslateBlock(inode, int64(fileBlock))
			require.NoError(t, err)
			require.Equal(t, expectedBlock, block)
		}
		require.NoError(t, volume.ReadBlock(inode, 5, p))
		require.Equal(t, make([]byte, testBlockSizeBytes), p)
	})

	t.Run("WriteAndReadBlock", func(t *testing.T) {
		data := bytes.Repeat([]byte("0123456789abcdef"), testBlockSizeBytes/16)
		require.NoError(t, volume.WriteBlock(11, data))
		require.NoError(t, volume.ReadBlock(inode, 6, p))
		require.Equal(t, data, p)
	})

	t.Run("MaximumFileSize", func(t *testing.T) {
		// Files may consist of five direct blocks and 32 blocks
		// referenced by the indirect block.
		testutil.RequireEqualStatus(
			t,
			status.Errorf(codes.OutOfRange, "Block 37 of inode %d exceeds the maximum file size of 37 blocks", inode),
			volume.ExtendFile(inode, 37))
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.OutOfRange, "File size of 4737 bytes exceeds the maximum of 4736 bytes"),
			volume.SetSize(inode, 37*testBlockSizeBytes+1))
	})

	t.Run("WriteOutsideDataRegion", func(t *testing.T) {
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.OutOfRange, "Block 0 is not part of the data region"),
			volume.WriteBlock(0, p))
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.OutOfRange, "Block 64 is not part of the data region"),
			volume.WriteBlock(64, p))
	})

	t.Run("InvalidBufferSize", func(t *testing.T) {
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Buffer is 10 bytes in size, while blocks are 128 bytes in size"),
			volume.WriteBlock(4, make([]byte, 10)))
	})

	t.Run("Truncate", func(t *testing.T) {
		// Recreating the file releases all of its blocks.
		recreated, err := volume.Create("file")
		require.NoError(t, err)
		require.Equal(t, inode, recreated)
		require.Equal(t, 60, volume.FreeBlockCount())
		require.NoError(t, volume.ReadBlock(inode, 6, p))
		require.Equal(t, make([]byte, testBlockSizeBytes), p)
	})
}

func TestVolumeOutOfSpace(t *testing.T) {
	// A block device of 12 blocks only has 8 blocks of data.
	_, volume := newTestVolume(t, 12)
	inode, err := volume.Create("file")
	require.NoError(t, err)

	// Blocks allocated prior to running out of space remain part of
	// the file.
	testutil.RequireEqualStatus(
		t,
		status.Error(codes.ResourceExhausted, "No free blocks available"),
		volume.ExtendFile(inode, 9))
	require.Equal(t, 0, volume.FreeBlockCount())
	_, err = volume.TranslateBlock(inode, 6)
	require.NoError(t, err)
	_, err = volume.TranslateBlock(inode, 7)
	testutil.RequireEqualStatus(t, status.Errorf(codes.FailedPrecondition, "Block 7 of inode %d is not allocated", inode), err)

	// Removing the file makes all space available again.
	require.NoError(t, volume.Remove("file"))
	require.Equal(t, 8, volume.FreeBlockCount())
}

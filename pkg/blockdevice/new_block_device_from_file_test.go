//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package blockdevice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/buildbarn/bb-bfs/pkg/blockdevice"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewBlockDeviceFromFile(t *testing.T) {
	blockDevicePath := filepath.Join(t.TempDir(), "bfs")

	t.Run("InvalidSize", func(t *testing.T) {
		_, _, _, err := blockdevice.NewBlockDeviceFromFile(blockDevicePath, 0, false)
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	blockDevice, sectorSizeBytes, sectorCount, err := blockdevice.NewBlockDeviceFromFile(blockDevicePath, 123456, true)
	require.NoError(t, err)

	// The sector size should be a power of two, and the number of
	// sectors should be sufficient to hold the required space.
	require.LessOrEqual(t, 512, sectorSizeBytes)
	require.Equal(t, 0, sectorSizeBytes&(sectorSizeBytes-1))
	require.Equal(t, int64((123456+sectorSizeBytes-1)/sectorSizeBytes), sectorCount)

	// The file on disk should have a size that corresponds to the
	// sector size and count.
	fileInfo, err := os.Stat(blockDevicePath)
	require.NoError(t, err)
	require.Equal(t, int64(sectorSizeBytes)*sectorCount, fileInfo.Size())

	n, err := blockDevice.WriteAt([]byte("Hello"), 12345)
	require.Equal(t, 5, n)
	require.NoError(t, err)

	var b [16]byte
	n, err = blockDevice.ReadAt(b[:], 12340)
	require.Equal(t, 16, n)
	require.NoError(t, err)
	require.Equal(t, []byte("\x00\x00\x00\x00\x00Hello\x00\x00\x00\x00\x00\x00"), b[:])

	// Writes past the end of the device are rejected, as the size
	// of a block device is fixed.
	_, err = blockDevice.WriteAt([]byte("Hello"), int64(sectorSizeBytes)*sectorCount-2)
	require.Equal(t, codes.OutOfRange, status.Code(err))

	require.NoError(t, blockDevice.Sync())

	t.Run("Reopen", func(t *testing.T) {
		// Reopening without zero initialization should preserve
		// the data written previously.
		blockDevice, _, _, err := blockdevice.NewBlockDeviceFromFile(blockDevicePath, 123456, false)
		require.NoError(t, err)

		var b [5]byte
		n, err := blockDevice.ReadAt(b[:], 12345)
		require.Equal(t, 5, n)
		require.NoError(t, err)
		require.Equal(t, []byte("Hello"), b[:])
	})
}

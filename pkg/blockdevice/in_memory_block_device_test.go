package blockdevice_test

import (
	"io"
	"testing"

	"github.com/buildbarn/bb-bfs/pkg/blockdevice"
	"github.com/buildbarn/bb-bfs/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestInMemoryBlockDevice(t *testing.T) {
	blockDevice := blockdevice.NewInMemoryBlockDevice(1024)

	t.Run("InitiallyZero", func(t *testing.T) {
		var b [8]byte
		n, err := blockDevice.ReadAt(b[:], 100)
		require.NoError(t, err)
		require.Equal(t, 8, n)
		require.Equal(t, make([]byte, 8), b[:])
	})

	t.Run("WriteThenRead", func(t *testing.T) {
		n, err := blockDevice.WriteAt([]byte("Hello"), 512)
		require.NoError(t, err)
		require.Equal(t, 5, n)

		var b [7]byte
		n, err = blockDevice.ReadAt(b[:], 511)
		require.NoError(t, err)
		require.Equal(t, 7, n)
		require.Equal(t, []byte("\x00Hello\x00"), b[:])
	})

	t.Run("ReadPastEnd", func(t *testing.T) {
		var b [8]byte
		n, err := blockDevice.ReadAt(b[:], 1020)
		require.Equal(t, io.EOF, err)
		require.Equal(t, 4, n)

		n, err = blockDevice.ReadAt(b[:], 1024)
		require.Equal(t, io.EOF, err)
		require.Equal(t, 0, n)
	})

	t.Run("NegativeOffset", func(t *testing.T) {
		var b [8]byte
		_, err := blockDevice.ReadAt(b[:], -1)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Negative read offset -1"), err)
	})

	t.Run("WritePastEnd", func(t *testing.T) {
		_, err := blockDevice.WriteAt([]byte("Hello"), 1022)
		testutil.RequireEqualStatus(t, status.Error(codes.OutOfRange, "Write of 5 bytes at offset 1022 exceeds block device size of 1024 bytes"), err)
	})

	require.NoError(t, blockDevice.Sync())
}

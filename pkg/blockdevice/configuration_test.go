package blockdevice_test

import (
	"testing"

	"github.com/buildbarn/bb-bfs/pkg/blockdevice"
	"github.com/buildbarn/bb-bfs/pkg/configuration"
	"github.com/buildbarn/bb-bfs/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewBlockDeviceFromConfiguration(t *testing.T) {
	t.Run("NoConfiguration", func(t *testing.T) {
		_, _, _, err := blockdevice.NewBlockDeviceFromConfiguration(nil, false)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Block device configuration not specified"), err)
	})

	t.Run("NoSource", func(t *testing.T) {
		_, _, _, err := blockdevice.NewBlockDeviceFromConfiguration(&configuration.BlockDeviceConfiguration{}, false)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Configuration did not contain a supported block device source"), err)
	})

	t.Run("MultipleSources", func(t *testing.T) {
		_, _, _, err := blockdevice.NewBlockDeviceFromConfiguration(&configuration.BlockDeviceConfiguration{
			File:     &configuration.FileBlockDeviceConfiguration{Path: "/tmp/bfs", SizeBytes: 1024},
			InMemory: &configuration.InMemoryBlockDeviceConfiguration{SizeBytes: 1024},
		}, false)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "Block device configuration contains multiple sources"), err)
	})

	t.Run("InMemoryBadSize", func(t *testing.T) {
		_, _, _, err := blockdevice.NewBlockDeviceFromConfiguration(&configuration.BlockDeviceConfiguration{
			InMemory: &configuration.InMemoryBlockDeviceConfiguration{SizeBytes: 1000},
		}, false)
		testutil.RequireEqualStatus(t, status.Error(codes.InvalidArgument, "In-memory block device size must be a positive multiple of 512 bytes"), err)
	})

	t.Run("InMemory", func(t *testing.T) {
		blockDevice, sectorSizeBytes, sectorCount, err := blockdevice.NewBlockDeviceFromConfiguration(&configuration.BlockDeviceConfiguration{
			InMemory:                &configuration.InMemoryBlockDeviceConfiguration{SizeBytes: 4096},
			MaximumConcurrentWrites: 2,
		}, false)
		require.NoError(t, err)
		require.Equal(t, 512, sectorSizeBytes)
		require.Equal(t, int64(8), sectorCount)

		n, err := blockDevice.WriteAt([]byte("Hello"), 4091)
		require.NoError(t, err)
		require.Equal(t, 5, n)
	})
}

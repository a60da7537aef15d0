package blockdevice

import (
	"github.com/buildbarn/bb-bfs/pkg/configuration"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// inMemorySectorSizeBytes is the sector size reported for in-memory
// block devices. It matches the smallest sector size of physical disks.
const inMemorySectorSizeBytes = 512

// NewBlockDeviceFromConfiguration creates a BlockDevice based on
// parameters provided in a configuration file. The sector size and
// number of sectors of the block device are returned as well.
func NewBlockDeviceFromConfiguration(configuration *configuration.BlockDeviceConfiguration, mayZeroInitialize bool) (BlockDevice, int, int64, error) {
	if configuration == nil {
		return nil, 0, 0, status.Error(codes.InvalidArgument, "Block device configuration not specified")
	}

	var blockDevice BlockDevice
	var sectorSizeBytes int
	var sectorCount int64
	switch {
	case configuration.File != nil && configuration.InMemory != nil:
		return nil, 0, 0, status.Error(codes.InvalidArgument, "Block device configuration contains multiple sources")
	case configuration.File != nil:
		var err error
		blockDevice, sectorSizeBytes, sectorCount, err = NewBlockDeviceFromFile(configuration.File.Path, configuration.File.SizeBytes, mayZeroInitialize)
		if err != nil {
			return nil, 0, 0, err
		}
	case configuration.InMemory != nil:
		sizeBytes := configuration.InMemory.SizeBytes
		if sizeBytes <= 0 || sizeBytes%inMemorySectorSizeBytes != 0 {
			return nil, 0, 0, status.Errorf(codes.InvalidArgument, "In-memory block device size must be a positive multiple of %d bytes", inMemorySectorSizeBytes)
		}
		blockDevice = NewInMemoryBlockDevice(int(sizeBytes))
		sectorSizeBytes = inMemorySectorSizeBytes
		sectorCount = sizeBytes / inMemorySectorSizeBytes
	default:
		return nil, 0, 0, status.Error(codes.InvalidArgument, "Configuration did not contain a supported block device source")
	}

	if maximumConcurrentWrites := configuration.MaximumConcurrentWrites; maximumConcurrentWrites > 0 {
		blockDevice = NewWriteConcurrencyLimitingBlockDevice(blockDevice, semaphore.NewWeighted(maximumConcurrentWrites))
	}
	return blockDevice, sectorSizeBytes, sectorCount, nil
}

package main

import (
	"log"
	"os"

	"github.com/buildbarn/bb-bfs/pkg/bfs"
	"github.com/buildbarn/bb-bfs/pkg/bfs/httpservers"
	"github.com/buildbarn/bb-bfs/pkg/blockdevice"
	"github.com/buildbarn/bb-bfs/pkg/clock"
	"github.com/buildbarn/bb-bfs/pkg/configuration"
	"github.com/buildbarn/bb-bfs/pkg/fileio"
	"github.com/buildbarn/bb-bfs/pkg/global"
	http_server "github.com/buildbarn/bb-bfs/pkg/http/server"
	"github.com/buildbarn/bb-bfs/pkg/util"
	"github.com/google/uuid"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultMaximumMessageSizeBytes = 16 * 1024 * 1024
	defaultMaximumStagingBlocks    = 1024
	defaultMaximumOpenFiles        = 1024
)

func main() {
	if len(os.Args) != 2 {
		log.Fatal("Usage: bb_bfs bb_bfs.jsonnet")
	}
	var configuration configuration.ApplicationConfiguration
	if err := util.UnmarshalConfigurationFromFile(os.Args[1], &configuration); err != nil {
		log.Fatalf("Failed to read configuration from %s: %s", os.Args[1], err)
	}
	diagnosticsServer, err := global.ApplyConfiguration(configuration.Global)
	if err != nil {
		log.Fatal("Failed to apply global configuration options: ", err)
	}

	formatConfiguration := configuration.Format
	mayFormat := formatConfiguration != nil && formatConfiguration.FormatIfMissing
	blockDevice, sectorSizeBytes, sectorCount, err := blockdevice.NewBlockDeviceFromConfiguration(configuration.BlockDevice, mayFormat)
	if err != nil {
		log.Fatal("Failed to open block device: ", err)
	}
	blockDevice = blockdevice.NewMetricsBlockDevice(blockDevice, "volume")

	volume, err := bfs.MountVolume(blockDevice)
	if status.Code(err) == codes.FailedPrecondition && mayFormat {
		log.Print("Block device does not contain a valid volume. Formatting it: ", err)
		if err := bfs.Format(
			blockDevice,
			int64(sectorSizeBytes)*sectorCount,
			bfs.FormatParameters{
				BlockSizeBytes: formatConfiguration.BlockSizeBytes,
				InodeCount:     formatConfiguration.InodeCount,
			},
			uuid.NewRandom,
		); err != nil {
			log.Fatal("Failed to format volume: ", err)
		}
		volume, err = bfs.MountVolume(blockDevice)
	}
	if err != nil {
		log.Fatal("Failed to mount volume: ", err)
	}
	log.Printf("Mounted volume %s with %d free blocks of %d bytes", volume.VolumeUUID(), volume.FreeBlockCount(), volume.BlockSizeBytes())

	maximumStagingBlocks := configuration.MaximumStagingBlocks
	if maximumStagingBlocks <= 0 {
		maximumStagingBlocks = defaultMaximumStagingBlocks
	}
	maximumOpenFiles := configuration.MaximumOpenFiles
	if maximumOpenFiles <= 0 {
		maximumOpenFiles = defaultMaximumOpenFiles
	}
	maximumMessageSizeBytes := configuration.MaximumMessageSizeBytes
	if maximumMessageSizeBytes <= 0 {
		maximumMessageSizeBytes = defaultMaximumMessageSizeBytes
	}

	sessions := bfs.NewOpenFileTable(maximumOpenFiles)
	fileSystem := bfs.NewFileSystem(
		volume,
		sessions,
		fileio.NewMetricsEngine(
			fileio.NewBlockEngine(sessions, volume, volume.BlockSizeBytes(), maximumStagingBlocks),
			"volume"))

	terminationContext, terminationGroup := global.InstallGracefulTerminationHandler()
	global.ServeDiagnostics(terminationContext, terminationGroup, diagnosticsServer)
	http_server.NewServersFromConfigurationAndServe(
		terminationContext,
		terminationGroup,
		configuration.HTTPServers,
		http_server.NewMetricsHandler(
			httpservers.NewFileServer(fileSystem, maximumMessageSizeBytes),
			"FileServer"))

	if syncInterval := configuration.SyncInterval.AsDuration(); syncInterval > 0 {
		periodicSyncer := bfs.NewPeriodicSyncer(
			fileSystem,
			clock.SystemClock,
			util.NewMetricsErrorLogger(util.DefaultErrorLogger, "PeriodicSyncer"),
			syncInterval)
		terminationGroup.Go(func() error {
			return periodicSyncer.Run(terminationContext)
		})
	}

	// Flush all pending writes prior to shutting down.
	terminationGroup.Go(func() error {
		<-terminationContext.Done()
		diagnosticsServer.SetNotServing()
		if err := fileSystem.Sync(); err != nil {
			return util.StatusWrap(err, "Final synchronization failed")
		}
		return nil
	})

	diagnosticsServer.SetReady()
	if err := terminationGroup.Wait(); err != nil {
		log.Fatal(err)
	}

	// The graceful termination handler terminates the process by
	// raising the original signal once again.
	select {}
}

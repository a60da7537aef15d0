// Package configuration contains the structures that Jsonnet
// configuration files of bb_bfs are decoded into.
package configuration

import (
	"encoding/json"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ApplicationConfiguration is the top-level configuration of bb_bfs.
type ApplicationConfiguration struct {
	Global      *GlobalConfiguration       `json:"global"`
	BlockDevice *BlockDeviceConfiguration  `json:"blockDevice"`
	Format      *FormatConfiguration       `json:"format"`
	HTTPServers []*HTTPServerConfiguration `json:"httpServers"`

	// Interval at which the block device is synchronized to
	// stable storage. Synchronization is disabled when zero.
	SyncInterval Duration `json:"syncInterval"`

	// Maximum size of request bodies accepted by the HTTP file
	// server.
	MaximumMessageSizeBytes int64 `json:"maximumMessageSizeBytes"`

	// Maximum number of blocks a single write stages in memory
	// before writing them back.
	MaximumStagingBlocks int `json:"maximumStagingBlocks"`

	// Maximum number of files that may be opened at the same time.
	MaximumOpenFiles int `json:"maximumOpenFiles"`
}

// GlobalConfiguration contains options that apply to the process as a
// whole.
type GlobalConfiguration struct {
	DiagnosticsHTTPServer *DiagnosticsHTTPServerConfiguration `json:"diagnosticsHttpServer"`

	// Paths of files to which log output is written, in addition
	// to standard error.
	LogPaths []string `json:"logPaths"`

	// If set, the umask of the process is changed to this value.
	SetUmask *uint32 `json:"setUmask"`
}

// DiagnosticsHTTPServerConfiguration controls the web server that
// exposes health checks, Prometheus metrics and pprof.
type DiagnosticsHTTPServerConfiguration struct {
	ListenAddress    string `json:"listenAddress"`
	EnablePrometheus bool   `json:"enablePrometheus"`
	EnablePprof      bool   `json:"enablePprof"`
}

// BlockDeviceConfiguration selects the storage medium. Exactly one of
// File and InMemory must be set.
type BlockDeviceConfiguration struct {
	File     *FileBlockDeviceConfiguration     `json:"file"`
	InMemory *InMemoryBlockDeviceConfiguration `json:"inMemory"`

	// When non-zero, the number of WriteAt() calls that may be
	// in flight against the block device at the same time.
	MaximumConcurrentWrites int64 `json:"maximumConcurrentWrites"`
}

// FileBlockDeviceConfiguration stores data in a regular file.
type FileBlockDeviceConfiguration struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
}

// InMemoryBlockDeviceConfiguration stores data in memory. Its contents
// are lost when the process terminates.
type InMemoryBlockDeviceConfiguration struct {
	SizeBytes int64 `json:"sizeBytes"`
}

// FormatConfiguration contains the parameters used when a block device
// without a file system on it is formatted.
type FormatConfiguration struct {
	BlockSizeBytes int `json:"blockSizeBytes"`
	InodeCount     int `json:"inodeCount"`

	// Format the block device on startup if it does not contain a
	// superblock. When false, startup fails instead.
	FormatIfMissing bool `json:"formatIfMissing"`
}

// HTTPServerConfiguration contains the addresses on which the HTTP
// file server listens.
type HTTPServerConfiguration struct {
	ListenAddresses []string `json:"listenAddresses"`
}

// Duration is a time.Duration that is encoded as a string in the
// format accepted by time.ParseDuration() (e.g., "60s").
type Duration time.Duration

// UnmarshalJSON decodes a duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return status.Errorf(codes.InvalidArgument, "Duration must be a string: %s", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "Invalid duration %#v: %s", s, err)
	}
	*d = Duration(v)
	return nil
}

// AsDuration returns the duration as a time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

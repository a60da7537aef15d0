package blockdevice_test

import (
	"testing"

	"github.com/buildbarn/bb-bfs/internal/mock"
	"github.com/buildbarn/bb-bfs/pkg/blockdevice"
	"github.com/buildbarn/bb-bfs/pkg/testutil"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMetricsBlockDevice(t *testing.T) {
	ctrl := gomock.NewController(t)

	baseBlockDevice := mock.NewMockBlockDevice(ctrl)
	blockDevice := blockdevice.NewMetricsBlockDevice(baseBlockDevice, "TestMetricsBlockDevice")

	t.Run("Forwarding", func(t *testing.T) {
		baseBlockDevice.EXPECT().WriteAt([]byte("Hello"), int64(1024)).Return(5, nil)
		n, err := blockDevice.WriteAt([]byte("Hello"), 1024)
		require.NoError(t, err)
		require.Equal(t, 5, n)

		baseBlockDevice.EXPECT().ReadAt(gomock.Len(3), int64(1025)).DoAndReturn(
			func(p []byte, off int64) (int, error) {
				return copy(p, "ell"), nil
			})
		var b [3]byte
		n, err = blockDevice.ReadAt(b[:], 1025)
		require.NoError(t, err)
		require.Equal(t, 3, n)
		require.Equal(t, []byte("ell"), b[:])
	})

	t.Run("ErrorsArePropagated", func(t *testing.T) {
		baseBlockDevice.EXPECT().Sync().Return(status.Error(codes.Internal, "Disk on fire"))
		testutil.RequireEqualStatus(t, status.Error(codes.Internal, "Disk on fire"), blockDevice.Sync())
	})

	t.Run("Metrics", func(t *testing.T) {
		families, err := prometheus.DefaultGatherer.Gather()
		require.NoError(t, err)
		require.Equal(t, 5.0, getCounterValue(families, "buildbarn_blockdevice_operations_bytes_total", "WriteAt"))
		require.Equal(t, 3.0, getCounterValue(families, "buildbarn_blockdevice_operations_bytes_total", "ReadAt"))
	})
}

// getCounterValue extracts the value of a counter that was created by
// TestMetricsBlockDevice from the output of a Prometheus gatherer.
func getCounterValue(families []*dto.MetricFamily, familyName, operation string) float64 {
	for _, family := range families {
		if family.GetName() != familyName {
			continue
		}
		for _, metric := range family.Metric {
			labels := map[string]string{}
			for _, label := range metric.Label {
				labels[label.GetName()] = label.GetValue()
			}
			if labels["name"] == "TestMetricsBlockDevice" && labels["operation"] == operation {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return -1
}

package util_test

import (
	"testing"

	"github.com/buildbarn/bb-bfs/pkg/testutil"
	"github.com/buildbarn/bb-bfs/pkg/util"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type exampleConfiguration struct {
	ListenAddress string `json:"listenAddress"`
	InodeCount    int    `json:"inodeCount"`
}

func TestUnmarshalConfigurationFromSnippet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var configuration exampleConfiguration
		require.NoError(t, util.UnmarshalConfigurationFromSnippet(
			"bb_bfs.jsonnet",
			`{ listenAddress: std.extVar("LISTEN"), inodeCount: 8 * 8 }`,
			[]string{"LISTEN=:8080"},
			&configuration))
		require.Equal(t, exampleConfiguration{
			ListenAddress: ":8080",
			InodeCount:    64,
		}, configuration)
	})

	t.Run("InvalidEnvironment", func(t *testing.T) {
		var configuration exampleConfiguration
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Invalid environment variable: \"LISTEN\""),
			util.UnmarshalConfigurationFromSnippet("bb_bfs.jsonnet", "{}", []string{"LISTEN"}, &configuration))
	})

	t.Run("EvaluationFailure", func(t *testing.T) {
		var configuration exampleConfiguration
		err := util.UnmarshalConfigurationFromSnippet("bb_bfs.jsonnet", `{ inodeCount: error "boom" }`, nil, &configuration)
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("UnknownField", func(t *testing.T) {
		var configuration exampleConfiguration
		err := util.UnmarshalConfigurationFromSnippet("bb_bfs.jsonnet", `{ blockSize: 512 }`, nil, &configuration)
		require.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

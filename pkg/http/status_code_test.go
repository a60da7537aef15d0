package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	bb_http "github.com/buildbarn/bb-bfs/pkg/http"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusCodeFromGRPCCode(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, bb_http.StatusCodeFromGRPCCode(codes.InvalidArgument))
	require.Equal(t, http.StatusNotFound, bb_http.StatusCodeFromGRPCCode(codes.NotFound))
	require.Equal(t, http.StatusTooManyRequests, bb_http.StatusCodeFromGRPCCode(codes.ResourceExhausted))
	require.Equal(t, http.StatusBadRequest, bb_http.StatusCodeFromGRPCCode(codes.OutOfRange))
	require.Equal(t, http.StatusInternalServerError, bb_http.StatusCodeFromGRPCCode(codes.DataLoss))
}

func TestWriteStatusError(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		w := httptest.NewRecorder()
		bb_http.WriteStatusError(w, status.Error(codes.FailedPrecondition, "File \"foo\" is still opened"))
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "File \"foo\" is still opened\n", w.Body.String())
	})

	t.Run("PlainError", func(t *testing.T) {
		w := httptest.NewRecorder()
		bb_http.WriteStatusError(w, errors.New("Something went wrong"))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, "Something went wrong\n", w.Body.String())
	})
}

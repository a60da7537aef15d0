package server

import (
	"context"
	"net/http"

	"github.com/buildbarn/bb-bfs/pkg/configuration"
	"github.com/buildbarn/bb-bfs/pkg/util"

	"golang.org/x/sync/errgroup"
)

// NewServersFromConfigurationAndServe spawns HTTP servers as part of an
// errgroup.Group, based on a configuration message. The web servers are
// automatically terminated if the provided context is canceled.
func NewServersFromConfigurationAndServe(ctx context.Context, group *errgroup.Group, configurations []*configuration.HTTPServerConfiguration, handler http.Handler) {
	for _, configuration := range configurations {
		for _, listenAddress := range configuration.ListenAddresses {
			server := &http.Server{
				Addr:    listenAddress,
				Handler: handler,
			}
			group.Go(func() error {
				<-ctx.Done()
				return server.Close()
			})
			group.Go(func() error {
				if err := server.ListenAndServe(); err != http.ErrServerClosed {
					return util.StatusWrapf(err, "Failed to launch HTTP server %#v", server.Addr)
				}
				return nil
			})
		}
	}
}

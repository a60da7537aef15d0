package global

import (
	"context"
	"io"
	"log"
	"net/http"
	// The pprof package does not provide a function for registering
	// its endpoints against an arbitrary mux. Load it to force
	// registration against the default mux, so we can forward
	// traffic to that mux instead.
	_ "net/http/pprof"
	"os"
	"sync/atomic"

	"github.com/buildbarn/bb-bfs/pkg/configuration"
	"github.com/buildbarn/bb-bfs/pkg/util"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"golang.org/x/sync/errgroup"
)

const (
	stateNotServing int32 = iota
	stateServing
)

// DiagnosticsServer is returned by ApplyConfiguration. It can be used by
// the caller to report whether the application has started up
// successfully.
type DiagnosticsServer struct {
	config *configuration.DiagnosticsHTTPServerConfiguration
	state  atomic.Int32
}

// NewHandler returns the HTTP handler that serves the health check
// endpoints and, if enabled, Prometheus metrics and pprof.
func (ds *DiagnosticsServer) NewHandler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/-/healthy", func(http.ResponseWriter, *http.Request) {})
	router.HandleFunc("/-/ready", func(w http.ResponseWriter, _ *http.Request) {
		if ds.state.Load() == stateServing {
			w.WriteHeader(http.StatusOK)
		} else {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
	if ds.config.EnablePrometheus {
		router.Handle("/metrics", promhttp.Handler())
	}
	if ds.config.EnablePprof {
		router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	}
	return router
}

// Serve can be called to report that the program has started successfully.
// The application should now be reported as being healthy and ready, according
// to isReady, and receive incoming requests if applicable.
func (ds *DiagnosticsServer) Serve(terminationContext context.Context) error {
	// Start a diagnostics web server that exposes Prometheus
	// metrics and provides a health check endpoint.
	if ds.config != nil {
		server := &http.Server{
			Addr:    ds.config.ListenAddress,
			Handler: ds.NewHandler(),
		}
		go func() {
			<-terminationContext.Done()
			ds.SetNotServing()
			server.Shutdown(context.Background())
		}()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
	} else {
		<-terminationContext.Done()
	}
	return nil
}

// SetReady updates the health probe to report healthy and ready.
func (ds *DiagnosticsServer) SetReady() {
	ds.state.Store(stateServing)
}

// SetNotServing updates the health probe to report healthy but not ready.
func (ds *DiagnosticsServer) SetNotServing() {
	ds.state.Store(stateNotServing)
}

// ServeDiagnostics is a wrapper that calls DiagnosticsServer.Serve inside
// a goroutine, managed by the provided errgroup.Group, and returns
// immediately.
func ServeDiagnostics(terminationContext context.Context, terminationGroup *errgroup.Group, diagnosticsServer *DiagnosticsServer) {
	terminationGroup.Go(func() error {
		if err := diagnosticsServer.Serve(terminationContext); err != nil {
			return util.StatusWrap(err, "Diagnostics server")
		}
		return nil
	})
}

// ApplyConfiguration applies configuration options to the running
// process. These configuration options are global, in that they apply
// to the process as a whole, as opposed to the file system it serves.
func ApplyConfiguration(configuration *configuration.GlobalConfiguration) (*DiagnosticsServer, error) {
	if configuration == nil {
		return &DiagnosticsServer{}, nil
	}

	// Set the umask, if requested.
	if umask := configuration.SetUmask; umask != nil {
		if err := setUmask(*umask); err != nil {
			return nil, util.StatusWrap(err, "Failed to set umask")
		}
	}

	// Logging.
	logPaths := configuration.LogPaths
	logWriters := append(make([]io.Writer, 0, len(logPaths)+1), os.Stderr)
	for _, logPath := range logPaths {
		w, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			return nil, util.StatusWrapf(err, "Failed to open log path %#v", logPath)
		}
		logWriters = append(logWriters, w)
	}
	log.SetOutput(io.MultiWriter(logWriters...))

	return &DiagnosticsServer{
		config: configuration.DiagnosticsHTTPServer,
	}, nil
}

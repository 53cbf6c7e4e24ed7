package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout is the time given to the servers to finish their requests
// once the context is done.
const ShutdownTimeout = time.Second * 10

// ListenAndServe runs the servers until the context is done or one of them
// fails. A failing server shuts the others down.
func ListenAndServe(ctx context.Context, servers ...*http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				logs.Warn(errors.New("shutting down the server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
		return nil
	})

	for _, s := range servers {
		g.Go(func() error {
			logs.WithTag("addr", s.Addr).Info("starting server")

			switch err := s.ListenAndServe(); err {
			case nil, http.ErrServerClosed:
				logs.WithTag("addr", s.Addr).Info("stopping server")
				return nil

			default:
				return errors.New("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err)
			}
		})
	}

	return g.Wait()
}

// MetricsPathFormatter returns the path label of a request. Requests that
// were not routed are not labeled and session ids are replaced by a
// placeholder.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed:
		return ""
	}

	rest, ok := strings.CutPrefix(path, "/sessions/")
	if !ok {
		return path
	}
	if _, file, ok := strings.Cut(rest, "/"); ok {
		return "/sessions/{id}/" + file
	}
	return "/sessions/{id}"
}

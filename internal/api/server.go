package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"subforge/internal/logging"
)

const shutdownGrace = 5 * time.Second

// Serve listens on addr and serves handler until ctx is cancelled, then
// drains open requests for a short grace period.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "api")
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			logging.String(logging.FieldEventType, "api_listening"),
			logging.String("addr", listener.Addr().String()),
		)
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown incomplete",
			logging.String(logging.FieldEventType, "api_shutdown_incomplete"),
			logging.Error(err),
		)
		return srv.Close()
	}
	logger.Info("api stopped", logging.String(logging.FieldEventType, "api_stopped"))
	return nil
}

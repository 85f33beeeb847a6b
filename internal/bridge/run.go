package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/tivoctl/internal/logging"
	"github.com/muurk/tivoctl/internal/remote"
)

const shutdownTimeout = 5 * time.Second

// Run listens on Options.Listen and serves until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.opts.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", b.opts.Listen, err)
	}
	return b.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln alongside the box supervisor, which keeps
// the connection alive and runs the status reader. Both stop when ctx is
// cancelled or either fails.
func (b *Bridge) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           b.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Bridge listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("box", b.remote.Addr()),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not closed by Shutdown
		b.hub.closeAll()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		b.supervise(ctx)
		return nil
	})

	err := g.Wait()
	logging.Info("Bridge stopped", zap.Error(err))
	return err
}

// supervise connects to the box, restarts the status reader after the
// connection drops and reconnects on every heartbeat while disconnected.
func (b *Bridge) supervise(ctx context.Context) {
	ticker := time.NewTicker(b.opts.Heartbeat)
	defer ticker.Stop()

	var reader *remote.StatusReader
	defer func() {
		if reader != nil {
			reader.Stop()
		}
	}()

	var readerDone <-chan struct{}
	check := func() {
		if !b.remote.Connected() {
			if err := b.remote.Connect(ctx); err != nil {
				b.metrics.setConnected(false)
				logging.Warn("Box unreachable, retrying on next heartbeat",
					zap.String("remote_addr", b.remote.Addr()),
					zap.Duration("heartbeat", b.opts.Heartbeat),
					zap.Error(err),
				)
				return
			}
			b.metrics.reconnectTotal.Inc()
		}
		b.metrics.setConnected(true)

		if !b.opts.ReadStatus {
			return
		}
		if reader != nil && reader.State() != remote.ReaderClosed {
			return
		}

		reader = b.remote.NewStatusReader(b.opts.StatusMode)
		if err := reader.Start(ctx); err != nil {
			logging.Warn("Failed to start status reader", zap.Error(err))
			return
		}
		readerDone = reader.Done()
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-readerDone:
			readerDone = nil
			if err := reader.Err(); err != nil {
				logging.Warn("Status reader stopped", zap.Error(err))
			}
			b.metrics.setConnected(b.remote.Connected())
		case <-ticker.C:
			check()
		}
	}
}

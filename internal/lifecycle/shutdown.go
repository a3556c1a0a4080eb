package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Closer is one resource the coordinator tears down, in registration order.
type Closer struct {
	Name  string
	Close func(ctx context.Context) error
}

// ShutdownCoordinator runs the teardown sequence at most once, no matter how
// many termination signals arrive or how they interleave. A close failure is
// logged and the sequence continues; the process always exits zero on a
// requested shutdown.
type ShutdownCoordinator struct {
	logger  *slog.Logger
	closers []Closer
	fired   atomic.Bool
	done    chan struct{}
	exit    func(code int)
}

func NewShutdownCoordinator(logger *slog.Logger) *ShutdownCoordinator {
	return &ShutdownCoordinator{
		logger: logger,
		done:   make(chan struct{}),
		exit:   os.Exit,
	}
}

// Register appends a closer. Call during wiring, before Listen arms the
// signal handlers; Register is not safe concurrently with RequestShutdown.
func (c *ShutdownCoordinator) Register(name string, close func(ctx context.Context) error) {
	c.closers = append(c.closers, Closer{Name: name, Close: close})
}

// Listen arms the termination signals and blocks until one arrives and the
// teardown completes. Repeated signals while teardown runs are absorbed by
// the once-only gate.
func (c *ShutdownCoordinator) Listen() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		for sig := range sigs {
			go c.RequestShutdown(sig.String())
		}
	}()
	<-c.done
}

// RequestShutdown runs the teardown sequence. Only the first caller proceeds;
// every later call, concurrent or sequential and under any signal name,
// returns immediately.
func (c *ShutdownCoordinator) RequestShutdown(signalName string) {
	if !c.fired.CompareAndSwap(false, true) {
		return
	}

	c.logger.Info("shutting down", "signal", signalName)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, closer := range c.closers {
		if err := closer.Close(ctx); err != nil {
			c.logger.Error("close failed during shutdown",
				"resource", closer.Name,
				"error", err.Error(),
			)
			continue
		}
		c.logger.Info("closed", "resource", closer.Name)
	}

	c.logger.Info("shutdown complete", "signal", signalName)
	close(c.done)
	c.exit(0)
}

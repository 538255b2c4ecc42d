package dispatcher

import (
	"log/slog"
	"time"

	"github.com/shahadul-17/dispatcher/core/worker"
)

const (
	// DefaultDrainInterval is the cadence of the pending queue drainer.
	DefaultDrainInterval = 5 * time.Millisecond

	// DefaultShutdownTimeout bounds how long Stop waits for in-flight
	// requests and worker exits.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultStuckThreshold is the in-flight request count beyond which
	// Healthcheck reports the dispatcher as stuck.
	DefaultStuckThreshold = 1000
)

type options struct {
	processCount       int
	workerExecutable   string
	serviceInitializer string
	workerArgs         map[string]string
	queueCapacity      int
	drainInterval      time.Duration
	shutdownTimeout    time.Duration
	stuckThreshold     int
	logger             *slog.Logger
	launcher           worker.Launcher
}

// Option configures a Dispatcher.
type Option func(*options)

// WithProcessCount sets the worker pool size. Values below 1 are coerced
// to 1.
func WithProcessCount(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.processCount = n
	}
}

// WithWorkerExecutable sets the worker binary path. It must point to an
// existing file; by default the dispatcher re-executes its own binary and
// relies on the worker argument contract to branch into the runtime.
func WithWorkerExecutable(path string) Option {
	return func(o *options) {
		o.workerExecutable = path
	}
}

// WithServiceInitializer names the registered initializer every worker runs
// before serving its first request.
func WithServiceInitializer(name string) Option {
	return func(o *options) {
		o.serviceInitializer = name
	}
}

// WithWorkerArgs adds user-provided arguments to every worker command line.
func WithWorkerArgs(args map[string]string) Option {
	return func(o *options) {
		o.workerArgs = args
	}
}

// WithQueueCapacity overrides the pending queue bound.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueCapacity = n
		}
	}
}

// WithDrainInterval overrides the drainer cadence.
func WithDrainInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.drainInterval = d
		}
	}
}

// WithShutdownTimeout overrides how long Stop waits before killing workers.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithStuckThreshold overrides the Healthcheck in-flight threshold.
func WithStuckThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.stuckThreshold = n
		}
	}
}

// WithLogger configures structured logging for the dispatcher and its
// worker endpoints. Use slog.New(slog.NewTextHandler(io.Discard, nil)) to
// disable logging.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithWorkerLauncher substitutes the process transport, e.g.
// worker.NewInProcessLauncher for single-process deployments and tests.
// When set, WithWorkerExecutable is ignored.
func WithWorkerLauncher(l worker.Launcher) Option {
	return func(o *options) {
		if l != nil {
			o.launcher = l
		}
	}
}

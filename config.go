package dispatcher

import (
	"os"
	"time"
)

// Config mirrors the dispatcher options for environment-driven setup via
// core/config.Load.
type Config struct {
	ProcessCount       int           `env:"DISPATCHER_PROCESS_COUNT" envDefault:"1"`
	WorkerExecutable   string        `env:"DISPATCHER_WORKER_EXECUTABLE"`
	ServiceInitializer string        `env:"DISPATCHER_SERVICE_INITIALIZER"`
	QueueCapacity      int           `env:"DISPATCHER_QUEUE_CAPACITY" envDefault:"4096"`
	DrainInterval      time.Duration `env:"DISPATCHER_DRAIN_INTERVAL" envDefault:"5ms"`
	ShutdownTimeout    time.Duration `env:"DISPATCHER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the built-in defaults without touching the
// environment.
func DefaultConfig() Config {
	return Config{
		ProcessCount:    1,
		QueueCapacity:   DefaultQueueCapacity,
		DrainInterval:   DefaultDrainInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// NewFromConfig creates a dispatcher from a Config; opts apply on top and
// win on conflict.
func NewFromConfig(cfg Config, opts ...Option) (*Dispatcher, error) {
	base := []Option{
		WithProcessCount(cfg.ProcessCount),
		WithQueueCapacity(cfg.QueueCapacity),
		WithDrainInterval(cfg.DrainInterval),
		WithShutdownTimeout(cfg.ShutdownTimeout),
	}
	if cfg.WorkerExecutable != "" {
		base = append(base, WithWorkerExecutable(cfg.WorkerExecutable))
	}
	if cfg.ServiceInitializer != "" {
		base = append(base, WithServiceInitializer(cfg.ServiceInitializer))
	}
	return New(append(base, opts...)...)
}

// Config returns the effective configuration this dispatcher runs with.
func (d *Dispatcher) Config() Config {
	return Config{
		ProcessCount:       d.opts.processCount,
		WorkerExecutable:   d.opts.workerExecutable,
		ServiceInitializer: d.opts.serviceInitializer,
		QueueCapacity:      d.opts.queueCapacity,
		DrainInterval:      d.opts.drainInterval,
		ShutdownTimeout:    d.opts.shutdownTimeout,
	}
}

// workerExecutablePath resolves the dispatcher's own binary, the default
// worker executable.
func workerExecutablePath() (string, error) {
	return os.Executable()
}

package worker

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shahadul-17/dispatcher/core/ipc"
	"github.com/shahadul-17/dispatcher/core/logger"
	"github.com/shahadul-17/dispatcher/pkg/events"
)

// Endpoint is the parent's handle to one worker process: it owns the
// process's stdio, tracks its in-flight task count, and fans out typed
// lifecycle events to a single consumer.
type Endpoint struct {
	processID   int
	launcher    Launcher
	initializer string
	extraArgs   map[string]string
	log         *slog.Logger
	events      *events.Emitter[Event]

	state     atomic.Int32
	taskCount atomic.Int32

	mu    sync.Mutex
	proc  Proc
	stdin io.WriteCloser
	enc   *ipc.Encoder
	done  chan struct{}
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*Endpoint)

// WithEndpointLogger configures the parent-side logger for this worker.
func WithEndpointLogger(log *slog.Logger) EndpointOption {
	return func(e *Endpoint) {
		if log != nil {
			e.log = log
		}
	}
}

// WithServiceInitializer sets the initializer name passed to the worker.
func WithServiceInitializer(name string) EndpointOption {
	return func(e *Endpoint) {
		e.initializer = name
	}
}

// WithExtraArgs adds user-provided arguments to the worker command line.
func WithExtraArgs(extra map[string]string) EndpointOption {
	return func(e *Endpoint) {
		e.extraArgs = extra
	}
}

// WithEventBuffer overrides the lifecycle event buffer capacity.
func WithEventBuffer(size int) EndpointOption {
	return func(e *Endpoint) {
		if size > 0 {
			e.events = events.NewEmitter[Event](size)
		}
	}
}

// NewEndpoint creates an unspawned endpoint with the given stable process
// index.
func NewEndpoint(processID int, launcher Launcher, opts ...EndpointOption) *Endpoint {
	e := &Endpoint{
		processID: processID,
		launcher:  launcher,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		events:    events.NewEmitter[Event](events.DefaultBufferSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessID returns the worker's stable index in the pool.
func (e *Endpoint) ProcessID() int { return e.processID }

// State returns the current lifecycle state.
func (e *Endpoint) State() State { return State(e.state.Load()) }

// TaskCount returns the number of in-flight requests reserved on this worker.
func (e *Endpoint) TaskCount() int32 { return e.taskCount.Load() }

// Events returns the lifecycle event stream. The channel closes after the
// Close event once the process is fully gone.
func (e *Endpoint) Events() <-chan Event { return e.events.Events() }

// Done is closed when the worker process has terminated and its event stream
// is finished.
func (e *Endpoint) Done() <-chan struct{} { return e.done }

// Spawn launches the worker process and wires its streams. It resolves once
// the process has started; request/response traffic flows afterwards through
// Send and the event stream.
func (e *Endpoint) Spawn(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateUnspawned), int32(StateSpawning)) {
		return ErrAlreadySpawned
	}

	args := BuildArgs(e.processID, e.initializer, e.extraArgs)
	proc, err := e.launcher.Launch(ctx, args)
	if err != nil {
		e.state.Store(int32(StateUnspawned))
		return err
	}

	e.mu.Lock()
	e.proc = proc
	e.stdin = proc.Stdin()
	e.enc = ipc.NewEncoder(e.stdin)
	e.mu.Unlock()

	e.state.Store(int32(StateReady))
	e.events.Emit(Event{Kind: EventSpawn, ProcessID: e.processID})
	e.log.Debug("worker spawned",
		logger.ProcessID(e.processID),
		slog.Int("pid", proc.Pid()))

	go e.readLoop(proc.Stdout())
	go e.stderrLoop(proc.Stderr())
	go e.waitLoop(proc)

	return nil
}

// Send frames one payload onto the worker's stdin. It reports whether the
// write was accepted and never waits for a response. In a terminal state the
// payload is refused.
func (e *Endpoint) Send(payload *ipc.Payload) bool {
	if e.State().Terminal() {
		return false
	}

	e.mu.Lock()
	enc := e.enc
	e.mu.Unlock()
	if enc == nil {
		return false
	}

	if err := enc.Encode(payload); err != nil {
		e.markDisconnected(err)
		return false
	}
	return true
}

// IncrementTaskCount reserves in-flight slots. A step below 1 counts as 1.
func (e *Endpoint) IncrementTaskCount(step int32) {
	if step < 1 {
		step = 1
	}
	e.taskCount.Add(step)
}

// DecrementTaskCount releases in-flight slots, clamping at zero. A step
// below 1 counts as 1.
func (e *Endpoint) DecrementTaskCount(step int32) {
	if step < 1 {
		step = 1
	}
	for {
		current := e.taskCount.Load()
		if current == 0 {
			return
		}
		next := current - step
		if next < 0 {
			next = 0
		}
		if e.taskCount.CompareAndSwap(current, next) {
			return
		}
	}
}

// Close closes the worker's stdin, letting the process exit on EOF.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	stdin := e.stdin
	e.mu.Unlock()
	if stdin == nil {
		return ErrNotSpawned
	}
	return stdin.Close()
}

// Kill forcibly terminates the worker process.
func (e *Endpoint) Kill() error {
	e.mu.Lock()
	proc := e.proc
	e.mu.Unlock()
	if proc == nil {
		return ErrNotSpawned
	}
	return proc.Kill()
}

func (e *Endpoint) markDisconnected(err error) {
	if State(e.state.Load()).Terminal() {
		return
	}
	e.state.Store(int32(StateDisconnected))
	e.events.Emit(Event{Kind: EventError, ProcessID: e.processID, Err: err})
	e.events.Emit(Event{Kind: EventDisconnect, ProcessID: e.processID})
	e.log.Warn("worker disconnected", logger.ProcessID(e.processID), logger.Error(err))
}

// readLoop decodes frames off the worker's stdout and emits them as data
// events. Malformed frames are logged and dropped; the loop keeps parsing.
func (e *Endpoint) readLoop(stdout io.Reader) {
	dec := ipc.NewDecoder(stdout)
	for {
		payload, err := dec.Decode()
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe):
			return
		case errors.Is(err, ipc.ErrFrameDecode), errors.Is(err, ipc.ErrFrameTooLarge):
			e.log.Warn("dropping malformed frame from worker",
				logger.ProcessID(e.processID), logger.Error(err))
			continue
		case err != nil:
			if !e.State().Terminal() {
				e.log.Warn("worker stdout stream failed",
					logger.ProcessID(e.processID), logger.Error(err))
			}
			return
		}

		if !payload.Flag.Valid() {
			continue
		}
		if !e.events.Emit(Event{Kind: EventDataReceive, ProcessID: e.processID, Data: payload}) {
			e.log.Warn("dropping data event, consumer is not keeping up",
				logger.ProcessID(e.processID), logger.PayloadID(payload.PayloadID))
		}
	}
}

// stderrLoop forwards raw stderr lines to the parent logger. Workers send
// their structured logs as Log payloads over stdout; anything on stderr is
// output the worker did not route itself.
func (e *Endpoint) stderrLoop(stderr io.Reader) {
	if stderr == nil {
		return
	}
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		e.log.Warn("worker stderr",
			logger.ProcessID(e.processID),
			slog.String("line", scanner.Text()))
	}
}

// waitLoop reaps the process and finishes the event stream.
func (e *Endpoint) waitLoop(proc Proc) {
	err := proc.Wait()
	code, signal := exitStatus(err)

	e.state.Store(int32(StateExited))
	if err != nil {
		e.events.Emit(Event{Kind: EventError, ProcessID: e.processID, Err: err})
	}
	e.events.Emit(Event{Kind: EventExit, ProcessID: e.processID, ExitCode: code, ExitSignal: signal})
	e.events.Emit(Event{Kind: EventClose, ProcessID: e.processID, ExitCode: code, ExitSignal: signal})
	e.events.Close()
	close(e.done)

	e.log.Debug("worker exited",
		logger.ProcessID(e.processID),
		slog.Int("exit_code", code),
		slog.String("exit_signal", signal))
}

package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shahadul-17/dispatcher/core/ipc"
	"github.com/shahadul-17/dispatcher/core/logger"
	"github.com/shahadul-17/dispatcher/core/worker"
	"github.com/shahadul-17/dispatcher/pkg/uid"
)

// Dispatcher owns a fixed pool of worker processes and executes tasks inside
// them. Construct with New, call Start before dispatching, and Stop when
// done; in-flight requests are allowed to complete on Stop.
type Dispatcher struct {
	opts options
	log  *slog.Logger

	workers     []*worker.Endpoint
	pending     *pendingQueue
	correlation *correlationRegistry
	uidGen      *uid.Generator

	startMu      sync.Mutex
	isStarted    atomic.Bool
	stopDraining chan struct{}
	drainerDone  chan struct{}
	consumersWG  sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
}

// Stats is a point-in-time observability snapshot.
type Stats struct {
	IsStarted        bool
	PendingRequests  int
	InFlightRequests int
	Processed        int64
	Failed           int64
	WorkerTaskCounts []int32
}

// New creates a dispatcher. The worker executable (the dispatcher's own
// binary unless overridden) is validated at construction time; a missing
// file fails fast here rather than at Start.
func New(opts ...Option) (*Dispatcher, error) {
	o := options{
		processCount:    1,
		queueCapacity:   DefaultQueueCapacity,
		drainInterval:   DefaultDrainInterval,
		shutdownTimeout: DefaultShutdownTimeout,
		stuckThreshold:  DefaultStuckThreshold,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.launcher == nil {
		path := o.workerExecutable
		if path == "" {
			executable, err := workerExecutablePath()
			if err != nil {
				return nil, fmt.Errorf("resolve worker executable: %w", err)
			}
			path = executable
		}
		launcher, err := worker.NewExecLauncher(path)
		if err != nil {
			return nil, err
		}
		o.launcher = launcher
	}

	return &Dispatcher{
		opts:        o,
		log:         o.logger,
		pending:     newPendingQueue(o.queueCapacity),
		correlation: newCorrelationRegistry(),
		uidGen:      uid.NewGenerator(),
	}, nil
}

// IsStarted reports whether the dispatcher currently accepts requests.
func (d *Dispatcher) IsStarted() bool {
	return d.isStarted.Load()
}

// ProcessCount returns the configured worker pool size.
func (d *Dispatcher) ProcessCount() int {
	return d.opts.processCount
}

// Start spawns the worker pool and begins draining the pending queue. It is
// idempotent: calling it while started returns nil without spawning extra
// workers. Concurrent calls are serialized; a call that waited behind a
// successful Start returns nil, while one that waited behind a failed Start
// makes its own spawn attempt instead of receiving that failure.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.startMu.Lock()
	defer d.startMu.Unlock()

	if d.isStarted.Load() {
		return nil
	}

	endpoints := make([]*worker.Endpoint, d.opts.processCount)
	for i := range endpoints {
		endpoints[i] = worker.NewEndpoint(i, d.opts.launcher,
			worker.WithServiceInitializer(d.opts.serviceInitializer),
			worker.WithExtraArgs(d.opts.workerArgs),
			worker.WithEndpointLogger(d.log),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, endpoint := range endpoints {
		g.Go(func() error {
			return endpoint.Spawn(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		for _, endpoint := range endpoints {
			if endpoint.State() == worker.StateReady {
				_ = endpoint.Close()
				_ = endpoint.Kill()
			}
		}
		return fmt.Errorf("spawn worker pool: %w", err)
	}

	d.workers = endpoints
	for _, endpoint := range endpoints {
		d.consumersWG.Add(1)
		go d.consumeEvents(endpoint)
	}

	d.stopDraining = make(chan struct{})
	d.drainerDone = make(chan struct{})
	go d.drainLoop()

	d.isStarted.Store(true)
	d.log.Info("dispatcher started", logger.Count("process_count", d.opts.processCount))
	return nil
}

// Stop takes the dispatcher out of the started state, waits for in-flight
// requests to complete within the shutdown timeout, and shuts the workers
// down. Requests still in the pending queue are failed with ErrStopped.
func (d *Dispatcher) Stop() error {
	d.startMu.Lock()
	defer d.startMu.Unlock()

	if !d.isStarted.Load() {
		return ErrNotStarted
	}
	d.isStarted.Store(false)

	// Closing stopDraining ends the drainer; wait until it has exited.
	close(d.stopDraining)
	<-d.drainerDone

	stopErr := newError(ErrStopped, CodeStopped, "dispatcher stopped before the request was dispatched")
	for _, payload := range d.pending.drain() {
		if future, ok := d.correlation.take(payload.PayloadID); ok {
			d.failed.Add(1)
			future.Reject(stopErr)
		}
	}

	deadline := time.Now().Add(d.opts.shutdownTimeout)
	for d.correlation.length() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	for _, endpoint := range d.workers {
		_ = endpoint.Close()
	}

	exited := make(chan struct{})
	go func() {
		for _, endpoint := range d.workers {
			<-endpoint.Done()
		}
		close(exited)
	}()

	select {
	case <-exited:
	case <-time.After(time.Until(deadline) + time.Second):
		d.log.Warn("killing workers that did not exit in time")
		for _, endpoint := range d.workers {
			_ = endpoint.Kill()
		}
		<-exited
	}

	d.consumersWG.Wait()

	abandonedErr := newError(ErrStopped, CodeStopped, "dispatcher stopped before the response arrived")
	for _, future := range d.correlation.takeAll() {
		d.failed.Add(1)
		future.Reject(abandonedErr)
	}

	d.log.Info("dispatcher stopped")
	return nil
}

// Dispatch executes one task inside a worker process and returns the
// method's marshalled return value. It blocks until the matching response
// arrives, the context is cancelled, or the request fails. Use Call for a
// typed result.
func (d *Dispatcher) Dispatch(ctx context.Context, task Task) (json.RawMessage, error) {
	if !d.isStarted.Load() {
		return nil, newError(ErrNotStarted, CodeNotStarted, "dispatcher must be started before dispatching")
	}

	serviceName := strings.TrimSpace(task.ServiceName)
	if serviceName == "" {
		return nil, newError(ErrInvalidService, CodeInvalidService, "task must reference a service by name")
	}
	methodName := strings.TrimSpace(task.MethodName)
	if methodName == "" {
		return nil, newError(ErrInvalidMethod, CodeInvalidMethod, "task must name a method to invoke")
	}

	args, err := ipc.EncodeArguments(task.MethodArguments)
	if err != nil {
		return nil, fmt.Errorf("encode task arguments: %w", err)
	}

	payloadID := d.uidGen.Next()
	future := d.correlation.register(payloadID)
	payload := ipc.NewDispatchRequest(payloadID, -1, serviceName, task.ServiceScopeName, methodName, args)

	if err := d.pending.enqueue(payload); err != nil {
		d.correlation.take(payloadID)
		return nil, newError(ErrQueueFull, CodeQueueFull, "pending queue is full")
	}

	response, err := future.Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Abandon the waiter; the late response, if it ever arrives, is
			// dropped by the router.
			d.correlation.take(payloadID)
		}
		return nil, err
	}
	return response.Result, nil
}

// Call dispatches a task and decodes its result into T.
func Call[T any](ctx context.Context, d *Dispatcher, task Task) (T, error) {
	var out T
	raw, err := d.Dispatch(ctx, task)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode dispatch result: %w", err)
	}
	return out, nil
}

// Stats returns current dispatcher statistics for observability.
func (d *Dispatcher) Stats() Stats {
	stats := Stats{
		IsStarted:        d.isStarted.Load(),
		PendingRequests:  d.pending.length(),
		InFlightRequests: d.correlation.length(),
		Processed:        d.processed.Load(),
		Failed:           d.failed.Load(),
	}
	for _, endpoint := range d.workers {
		stats.WorkerTaskCounts = append(stats.WorkerTaskCounts, endpoint.TaskCount())
	}
	return stats
}

// Healthcheck validates that the dispatcher is operational.
func (d *Dispatcher) Healthcheck(_ context.Context) error {
	stats := d.Stats()
	if !stats.IsStarted {
		return fmt.Errorf("%w: %w", ErrHealthcheckFailed, ErrNotStarted)
	}
	if stats.InFlightRequests > d.opts.stuckThreshold {
		return fmt.Errorf("%w: %w: %d in-flight requests (threshold: %d)",
			ErrHealthcheckFailed, ErrDispatcherStuck, stats.InFlightRequests, d.opts.stuckThreshold)
	}
	return nil
}

// drainLoop pulls queued payloads on a fixed cadence and writes them to the
// least-busy ready worker. It exits when the dispatcher leaves the started
// state.
func (d *Dispatcher) drainLoop() {
	defer close(d.drainerDone)

	ticker := time.NewTicker(d.opts.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopDraining:
			return
		case <-ticker.C:
			if !d.isStarted.Load() {
				return
			}
			d.drainPending()
		}
	}
}

func (d *Dispatcher) drainPending() {
	for {
		payload, ok := d.pending.dequeue()
		if !ok {
			return
		}

		endpoint := d.selectWorker()
		if endpoint == nil {
			// No ready worker; the payload waits for the next tick.
			d.pending.requeueFront(payload)
			return
		}

		payload.ProcessID = endpoint.ProcessID()
		d.correlation.assign(payload.PayloadID, endpoint.ProcessID())

		if !endpoint.Send(payload) {
			endpoint.DecrementTaskCount(1)
			if future, ok := d.correlation.take(payload.PayloadID); ok {
				d.failed.Add(1)
				future.Reject(newError(ErrCommunicationFailure, CodeCommunicationFailure,
					fmt.Sprintf("request could not be written to worker %d", endpoint.ProcessID())))
			}
		}
	}
}

// selectWorker implements least-busy selection: the first ready worker with
// the strictly smallest task count wins, ties keeping the earlier index. The
// winner's task count is incremented as the reservation before returning.
func (d *Dispatcher) selectWorker() *worker.Endpoint {
	var candidate *worker.Endpoint
	for _, endpoint := range d.workers {
		if endpoint.State() != worker.StateReady {
			continue
		}
		if candidate == nil || endpoint.TaskCount() < candidate.TaskCount() {
			candidate = endpoint
		}
	}
	if candidate != nil {
		candidate.IncrementTaskCount(1)
	}
	return candidate
}

// consumeEvents routes one worker's lifecycle events until its stream ends.
func (d *Dispatcher) consumeEvents(endpoint *worker.Endpoint) {
	defer d.consumersWG.Done()

	for event := range endpoint.Events() {
		switch event.Kind {
		case worker.EventSpawn:
			d.log.Debug("worker ready", logger.ProcessID(event.ProcessID))
		case worker.EventDataReceive:
			d.routePayload(event.Data)
		case worker.EventError:
			d.log.Error("worker error", logger.ProcessID(event.ProcessID), logger.Error(event.Err))
		case worker.EventDisconnect:
			d.log.Warn("worker disconnected", logger.ProcessID(event.ProcessID))
			d.failInFlight(event.ProcessID)
		case worker.EventExit:
			d.log.Warn("worker exited",
				logger.ProcessID(event.ProcessID),
				slog.Int("exit_code", event.ExitCode),
				slog.String("exit_signal", event.ExitSignal))
		case worker.EventClose:
			d.log.Debug("worker closed", logger.ProcessID(event.ProcessID))
		}
	}

	// Stream ended: the process is gone for good. Anything still routed to
	// it will never get a response.
	d.failInFlight(endpoint.ProcessID())
}

// routePayload branches on the payload flag and completes the matching
// waiter, forwards a log record, or drops the payload.
func (d *Dispatcher) routePayload(payload *ipc.Payload) {
	if payload == nil {
		return
	}

	switch payload.Flag {
	case ipc.FlagLog:
		d.relayLog(payload)

	case ipc.FlagAvailable:
		// Reserved for out-of-band availability signalling; the least-busy
		// scheduler does not consume it.

	case ipc.FlagDispatch:
		d.completeRequest(payload)

	case ipc.FlagError:
		if strings.TrimSpace(payload.PayloadID) == "" {
			remote, err := payload.RemoteError()
			if err != nil {
				d.log.Error("worker reported an undecodable error",
					logger.ProcessID(payload.ProcessID), logger.Error(err))
				return
			}
			d.log.Error("worker reported an error without a payload id",
				logger.ProcessID(payload.ProcessID),
				slog.String("message", remote.Message))
			return
		}
		d.completeRequest(payload)
	}
}

// completeRequest delivers one terminal response to its waiter and releases
// the worker reservation. Late responses whose waiter is gone are dropped.
func (d *Dispatcher) completeRequest(payload *ipc.Payload) {
	// Release the worker reservation first: even when the waiter is gone
	// (caller gave up), the response still accounts for one in-flight slot.
	if payload.ProcessID >= 0 && payload.ProcessID < len(d.workers) {
		d.workers[payload.ProcessID].DecrementTaskCount(1)
	}

	future, ok := d.correlation.take(payload.PayloadID)
	if !ok {
		d.log.Debug("dropping late response", logger.PayloadID(payload.PayloadID))
		return
	}

	if payload.Flag == ipc.FlagError {
		remote, err := payload.RemoteError()
		if err != nil {
			remote = ipc.RemoteError{Message: "worker returned an undecodable error"}
		}
		d.failed.Add(1)
		future.Reject(newRemoteError(remote))
		return
	}

	d.processed.Add(1)
	future.Resolve(payload)
}

// failInFlight rejects every waiter assigned to a worker that can no longer
// respond.
func (d *Dispatcher) failInFlight(processID int) {
	futures := d.correlation.takeByWorker(processID)
	if len(futures) == 0 {
		return
	}

	commErr := newError(ErrCommunicationFailure, CodeCommunicationFailure,
		fmt.Sprintf("worker %d terminated before responding", processID))
	for _, future := range futures {
		d.failed.Add(1)
		future.Reject(commErr)
	}
	if processID >= 0 && processID < len(d.workers) {
		d.workers[processID].DecrementTaskCount(int32(len(futures)))
	}
}

// relayLog re-logs a worker's forwarded record under the parent logger.
func (d *Dispatcher) relayLog(payload *ipc.Payload) {
	record, err := payload.LogRecord()
	if err != nil {
		d.log.Warn("dropping undecodable log payload",
			logger.ProcessID(payload.ProcessID), logger.Error(err))
		return
	}

	attrs := make([]any, 0, len(record.Attrs)+1)
	attrs = append(attrs, logger.ProcessID(payload.ProcessID))
	for _, attr := range record.Attrs {
		var value any
		if err := json.Unmarshal(attr.Value, &value); err != nil {
			value = string(attr.Value)
		}
		attrs = append(attrs, slog.Any(attr.Key, value))
	}

	d.log.Log(context.Background(), worker.ParseLevel(record.Level), record.Message, attrs...)
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shahadul-17/dispatcher/core/ipc"
	"github.com/shahadul-17/dispatcher/core/logger"
	"github.com/shahadul-17/dispatcher/core/service"
)

// Runtime is the request loop running inside a worker process. It reads
// framed payloads from its input stream, invokes service methods, and writes
// exactly one terminal response per request back to its output stream.
// Requests are processed serially, so responses leave in request order.
type Runtime struct {
	cfg         RuntimeConfig
	registry    *service.Registry
	initializer service.Initializer
	in          io.Reader
	enc         *ipc.Encoder
	log         *slog.Logger
	initialized bool
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeIO overrides the runtime's streams. Defaults are os.Stdin and
// os.Stdout, which is what a spawned worker process uses.
func WithRuntimeIO(in io.Reader, out io.Writer) RuntimeOption {
	return func(rt *Runtime) {
		if in != nil {
			rt.in = in
		}
		if out != nil {
			rt.enc = ipc.NewEncoder(out)
		}
	}
}

// WithRuntimeLogger overrides the runtime's own diagnostics logger. By
// default records are forwarded to the parent as Log payloads.
func WithRuntimeLogger(log *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		if log != nil {
			rt.log = log
		}
	}
}

// WithRuntimeRegistry injects a pre-populated service registry.
func WithRuntimeRegistry(reg *service.Registry) RuntimeOption {
	return func(rt *Runtime) {
		if reg != nil {
			rt.registry = reg
		}
	}
}

// WithRuntimeInitializer injects the initializer directly, bypassing the
// named initializer registry. Used when embedding a runtime in-process.
func WithRuntimeInitializer(init service.Initializer) RuntimeOption {
	return func(rt *Runtime) {
		if init != nil {
			rt.initializer = init
		}
	}
}

// NewRuntime creates a worker runtime from its parsed configuration.
func NewRuntime(cfg RuntimeConfig, opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		cfg:      cfg,
		registry: service.NewRegistry(),
		in:       os.Stdin,
		enc:      ipc.NewEncoder(os.Stdout),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.log == nil {
		rt.log = slog.New(NewForwardHandler(rt.enc, cfg.ProcessID, slog.LevelInfo))
	}
	return rt
}

// Run processes requests until the input stream ends or the context is
// cancelled. A clean EOF returns nil.
func (rt *Runtime) Run(ctx context.Context) error {
	dec := ipc.NewDecoder(rt.in)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		payload, err := dec.Decode()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ipc.ErrFrameDecode), errors.Is(err, ipc.ErrFrameTooLarge):
			rt.log.Warn("dropping malformed frame", logger.Error(err))
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read request frame: %w", err)
		}

		if !payload.Flag.Valid() {
			continue
		}
		if payload.Flag != ipc.FlagDispatch {
			rt.log.Debug("ignoring non-dispatch payload",
				slog.String("flag", payload.Flag.String()))
			continue
		}

		rt.processPayload(ctx, payload)
	}
}

// processPayload handles one request and always sends exactly one terminal
// response for it.
func (rt *Runtime) processPayload(ctx context.Context, payload *ipc.Payload) {
	if err := rt.ensureInitialized(ctx); err != nil {
		rt.reply(ipc.NewErrorResponse(payload.PayloadID, rt.cfg.ProcessID, ipc.RemoteError{
			Code:    ipc.CodeInitializerFailure,
			Message: err.Error(),
		}))
		return
	}

	svc, err := rt.registry.GetByName(payload.ServiceName, payload.ServiceScopeName)
	if err != nil {
		rt.reply(ipc.NewErrorResponse(payload.PayloadID, rt.cfg.ProcessID, ipc.RemoteError{
			Code:    ipc.CodeServiceNotRegistered,
			Message: fmt.Sprintf("service %q is not registered", payload.ServiceName),
		}))
		return
	}

	result, err := invokeMethod(ctx, svc, payload.MethodName, payload.MethodArguments)
	if err != nil {
		rt.reply(ipc.NewErrorResponse(payload.PayloadID, rt.cfg.ProcessID, rt.remoteError(payload, err)))
		return
	}

	rt.reply(ipc.NewDispatchResponse(payload.PayloadID, rt.cfg.ProcessID, result))
}

// ensureInitialized runs the service initializer at most once. A failed
// attempt is reported to the triggering request and retried by the next one.
func (rt *Runtime) ensureInitialized(ctx context.Context) error {
	if rt.initialized {
		return nil
	}

	init := rt.initializer
	if init == nil {
		factory, err := service.RegisteredInitializer(rt.cfg.ServiceInitializer)
		if err != nil {
			return err
		}
		init = factory()
	}

	if err := init.Initialize(ctx, rt.registry); err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}
	rt.initialized = true
	return nil
}

func (rt *Runtime) remoteError(payload *ipc.Payload, err error) ipc.RemoteError {
	var pErr *panicError
	switch {
	case errors.As(err, &pErr):
		return ipc.RemoteError{
			Code:    ipc.CodeRemoteInvocationFailure,
			Message: pErr.Error(),
			Stack:   pErr.stack,
		}
	case errors.Is(err, errMethodNotFound):
		return ipc.RemoteError{
			Code: ipc.CodeInvalidMethod,
			Message: fmt.Sprintf("requested method %q does not belong to service %q",
				payload.MethodName, payload.ServiceName),
		}
	default:
		return ipc.RemoteError{
			Code:    ipc.CodeRemoteInvocationFailure,
			Message: err.Error(),
		}
	}
}

func (rt *Runtime) reply(payload *ipc.Payload) {
	if err := rt.enc.Encode(payload); err != nil {
		// The response channel itself is gone; nothing useful remains to do
		// for this request.
		rt.log.Error("write response frame", logger.Error(err), logger.PayloadID(payload.PayloadID))
	}
}

package dispatcher

import (
	"errors"

	"github.com/shahadul-17/dispatcher/core/ipc"
)

// Sentinel errors for errors.Is matching. Every *Error returned by Dispatch
// wraps one of these; context errors and argument-encoding failures are
// returned without a sentinel.
var (
	// ErrNotStarted is returned when Dispatch or Stop is called outside the
	// started state.
	ErrNotStarted = errors.New("dispatcher is not started")

	// ErrInvalidService is returned for a task without a service name.
	ErrInvalidService = errors.New("task does not reference a valid service")

	// ErrInvalidMethod is returned for a blank method name, or relayed from
	// a worker that could not find the method on the service.
	ErrInvalidMethod = errors.New("invalid method name")

	// ErrServiceNotRegistered is relayed from a worker that has no service
	// under the requested name and scope.
	ErrServiceNotRegistered = errors.New("service is not registered")

	// ErrCommunicationFailure is returned when a request could not be
	// written to its worker, or the worker terminated mid-request.
	ErrCommunicationFailure = errors.New("worker communication failed")

	// ErrRemoteInvocation is returned when the worker-side method failed;
	// the wrapping Error preserves the remote message and stack.
	ErrRemoteInvocation = errors.New("remote invocation failed")

	// ErrInitializerFailure is relayed from a worker whose service
	// initializer could not run.
	ErrInitializerFailure = errors.New("service initializer failed")

	// ErrQueueFull is returned when the pending queue cannot admit another
	// request.
	ErrQueueFull = errors.New("pending queue is full")

	// ErrStopped is returned for requests abandoned by Stop.
	ErrStopped = errors.New("dispatcher stopped")

	// ErrHealthcheckFailed wraps every failure reported by Healthcheck.
	ErrHealthcheckFailed = errors.New("dispatcher healthcheck failed")

	// ErrDispatcherStuck signals that the in-flight request count exceeded
	// the stuck threshold.
	ErrDispatcherStuck = errors.New("dispatcher appears stuck")
)

// Machine-readable codes carried by Error.
const (
	CodeNotStarted              = "not_started"
	CodeInvalidService          = "invalid_service"
	CodeInvalidMethod           = "invalid_method"
	CodeServiceNotRegistered    = "service_not_registered"
	CodeCommunicationFailure    = "communication_failure"
	CodeRemoteInvocationFailure = "remote_invocation_failure"
	CodeInitializerFailure      = "initializer_failure"
	CodeQueueFull               = "queue_full"
	CodeStopped                 = "stopped"
)

// Error is the structured error surfaced by Dispatch. For remote failures it
// preserves the worker-side message and stack verbatim.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`

	kind error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel kind for errors.Is.
func (e *Error) Unwrap() error {
	return e.kind
}

func newError(kind error, code, message string) *Error {
	return &Error{Code: code, Message: message, kind: kind}
}

// newRemoteError rebuilds a typed error from a worker's sanitized error
// descriptor, mapping its wire code back onto the local taxonomy.
func newRemoteError(remote ipc.RemoteError) *Error {
	err := &Error{
		Message: remote.Message,
		Stack:   remote.Stack,
	}
	switch remote.Code {
	case ipc.CodeServiceNotRegistered:
		err.Code = CodeServiceNotRegistered
		err.kind = ErrServiceNotRegistered
	case ipc.CodeInvalidMethod:
		err.Code = CodeInvalidMethod
		err.kind = ErrInvalidMethod
	case ipc.CodeInitializerFailure:
		err.Code = CodeInitializerFailure
		err.kind = ErrInitializerFailure
	default:
		err.Code = CodeRemoteInvocationFailure
		err.kind = ErrRemoteInvocation
	}
	return err
}

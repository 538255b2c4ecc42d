package worker

import "github.com/shahadul-17/dispatcher/core/ipc"

// EventKind identifies a worker lifecycle notification.
type EventKind int

const (
	// EventSpawn fires once the OS process has started.
	EventSpawn EventKind = iota + 1

	// EventDataReceive fires for every decoded payload from the worker's
	// stdout.
	EventDataReceive

	// EventDisconnect fires when the stdin channel to the worker is lost.
	EventDisconnect

	// EventError fires for stream or process failures.
	EventError

	// EventExit fires when the OS process terminates.
	EventExit

	// EventClose fires after exit once all of the worker's pipes are done.
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventSpawn:
		return "spawn"
	case EventDataReceive:
		return "data_receive"
	case EventDisconnect:
		return "disconnect"
	case EventError:
		return "error"
	case EventExit:
		return "exit"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification from an Endpoint. ProcessID is always
// set; the remaining fields are populated per kind.
type Event struct {
	Kind       EventKind
	ProcessID  int
	Data       *ipc.Payload
	Err        error
	ExitCode   int
	ExitSignal string
}

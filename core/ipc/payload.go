package ipc

import (
	"encoding/json"
	"fmt"
)

// Flag tags a payload with its role on the wire. Values are positive by
// contract; zero and negative flags are invalid and receivers drop them.
type Flag int

const (
	// FlagDispatch marks a method invocation request from the parent, or the
	// successful response carrying the method's return value.
	FlagDispatch Flag = 1

	// FlagAvailable is a worker-initiated availability signal. It is reserved
	// for out-of-band scheduling and ignored by the least-busy scheduler.
	FlagAvailable Flag = 2

	// FlagError marks a failure response. When it refers to a specific
	// request the payload id is set.
	FlagError Flag = 3

	// FlagLog carries a forwarded log record from a worker.
	FlagLog Flag = 4
)

// Valid reports whether the flag is one of the known positive values.
func (f Flag) Valid() bool {
	return f >= FlagDispatch && f <= FlagLog
}

func (f Flag) String() string {
	switch f {
	case FlagDispatch:
		return "dispatch"
	case FlagAvailable:
		return "available"
	case FlagError:
		return "error"
	case FlagLog:
		return "log"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// Payload is the single record exchanged between parent and workers, in both
// directions. The shape of Result depends on Flag: a method return value on
// dispatch responses, a RemoteError on error responses, a LogRecord on log
// payloads. Use the typed constructors and accessors rather than populating
// Result by hand so flag and result shape stay in agreement.
type Payload struct {
	Flag             Flag              `json:"flag"`
	PayloadID        string            `json:"payloadId,omitempty"`
	ProcessID        int               `json:"processId"`
	ServiceName      string            `json:"serviceName,omitempty"`
	ServiceScopeName string            `json:"serviceScopeName,omitempty"`
	MethodName       string            `json:"methodName,omitempty"`
	MethodArguments  []json.RawMessage `json:"methodArguments,omitempty"`
	Result           json.RawMessage   `json:"result,omitempty"`
}

// RemoteError is the sanitized descriptor of a failure that occurred inside a
// worker. Only data crosses the boundary; JSON marshalling guarantees no live
// references or cycles survive.
type RemoteError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// LogAttr is one structured attribute of a forwarded log record.
type LogAttr struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// LogRecord carries one worker-side log line to the parent.
type LogRecord struct {
	Level   string    `json:"logLevel"`
	Message string    `json:"message"`
	Attrs   []LogAttr `json:"attrs,omitempty"`
}

// NewDispatchRequest builds the parent-to-worker invocation payload.
func NewDispatchRequest(payloadID string, processID int, serviceName, serviceScopeName, methodName string, args []json.RawMessage) *Payload {
	return &Payload{
		Flag:             FlagDispatch,
		PayloadID:        payloadID,
		ProcessID:        processID,
		ServiceName:      serviceName,
		ServiceScopeName: serviceScopeName,
		MethodName:       methodName,
		MethodArguments:  args,
	}
}

// NewDispatchResponse builds the success response echoing the request id.
func NewDispatchResponse(payloadID string, processID int, result json.RawMessage) *Payload {
	return &Payload{
		Flag:      FlagDispatch,
		PayloadID: payloadID,
		ProcessID: processID,
		Result:    result,
	}
}

// NewErrorResponse builds a failure response. payloadID may be empty for
// failures that do not refer to a specific request.
func NewErrorResponse(payloadID string, processID int, remote RemoteError) *Payload {
	result, err := json.Marshal(remote)
	if err != nil {
		// RemoteError is plain strings; marshalling cannot realistically
		// fail, but a payload must still go out.
		result = json.RawMessage(`{"message":"unserializable error"}`)
	}
	return &Payload{
		Flag:      FlagError,
		PayloadID: payloadID,
		ProcessID: processID,
		Result:    result,
	}
}

// NewLogPayload builds a forwarded log record payload.
func NewLogPayload(processID int, record LogRecord) (*Payload, error) {
	result, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal log record: %w", err)
	}
	return &Payload{
		Flag:      FlagLog,
		ProcessID: processID,
		Result:    result,
	}, nil
}

// RemoteError decodes the Result of an error payload.
func (p *Payload) RemoteError() (RemoteError, error) {
	var remote RemoteError
	if p.Flag != FlagError {
		return remote, fmt.Errorf("payload flag is %s, not %s", p.Flag, FlagError)
	}
	if err := json.Unmarshal(p.Result, &remote); err != nil {
		return remote, fmt.Errorf("decode remote error: %w", err)
	}
	return remote, nil
}

// LogRecord decodes the Result of a log payload.
func (p *Payload) LogRecord() (LogRecord, error) {
	var record LogRecord
	if p.Flag != FlagLog {
		return record, fmt.Errorf("payload flag is %s, not %s", p.Flag, FlagLog)
	}
	if err := json.Unmarshal(p.Result, &record); err != nil {
		return record, fmt.Errorf("decode log record: %w", err)
	}
	return record, nil
}

// DecodeResult unmarshals a dispatch response's Result into v. A null or
// absent result leaves v untouched.
func (p *Payload) DecodeResult(v any) error {
	if len(p.Result) == 0 || string(p.Result) == "null" {
		return nil
	}
	return json.Unmarshal(p.Result, v)
}

// EncodeArguments marshals ordered call arguments into their wire form.
// Argument order is preserved verbatim.
func EncodeArguments(args []any) ([]json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	encoded := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("marshal argument %d: %w", i, err)
		}
		encoded = append(encoded, raw)
	}
	return encoded, nil
}

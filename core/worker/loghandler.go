package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/shahadul-17/dispatcher/core/ipc"
)

// ForwardHandler is a slog.Handler that frames every record as a Log payload
// to the parent process, so worker diagnostics travel on the same channel as
// responses instead of interleaving raw text into the stream.
type ForwardHandler struct {
	enc       *ipc.Encoder
	processID int
	level     slog.Leveler
	attrs     []ipc.LogAttr
	prefix    string
}

var _ slog.Handler = (*ForwardHandler)(nil)

// NewForwardHandler creates a handler writing to the worker's encoder.
// Records below level are discarded; a nil level forwards everything from
// slog.LevelInfo up.
func NewForwardHandler(enc *ipc.Encoder, processID int, level slog.Leveler) *ForwardHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ForwardHandler{enc: enc, processID: processID, level: level}
}

func (h *ForwardHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ForwardHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]ipc.LogAttr, 0, len(h.attrs)+record.NumAttrs())
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.logAttr(a))
		return true
	})

	payload, err := ipc.NewLogPayload(h.processID, ipc.LogRecord{
		Level:   record.Level.String(),
		Message: record.Message,
		Attrs:   attrs,
	})
	if err != nil {
		return err
	}
	return h.enc.Encode(payload)
}

func (h *ForwardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]ipc.LogAttr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(clone.attrs, h.attrs)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.logAttr(a))
	}
	return &clone
}

func (h *ForwardHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *ForwardHandler) logAttr(a slog.Attr) ipc.LogAttr {
	value, err := json.Marshal(a.Value.Any())
	if err != nil {
		// Attribute values are diagnostics; an unserializable one becomes
		// its string form rather than losing the record.
		value, _ = json.Marshal(a.Value.String())
	}
	return ipc.LogAttr{Key: h.prefix + a.Key, Value: value}
}

// ParseLevel maps a forwarded level string back to a slog.Level. Unknown
// strings map to slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

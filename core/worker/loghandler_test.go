package worker_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul-17/dispatcher/core/ipc"
	"github.com/shahadul-17/dispatcher/core/worker"
)

func TestForwardHandlerFramesRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := worker.NewForwardHandler(ipc.NewEncoder(&buf), 3, slog.LevelInfo)
	log := slog.New(handler)

	log.Info("service ready", slog.String("name", "MathService"), slog.Int("count", 2))

	payload, err := ipc.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	require.Equal(t, ipc.FlagLog, payload.Flag)
	assert.Equal(t, 3, payload.ProcessID)

	record, err := payload.LogRecord()
	require.NoError(t, err)
	assert.Equal(t, "INFO", record.Level)
	assert.Equal(t, "service ready", record.Message)
	require.Len(t, record.Attrs, 2)
	assert.Equal(t, "name", record.Attrs[0].Key)
	assert.Equal(t, `"MathService"`, string(record.Attrs[0].Value))
	assert.Equal(t, "count", record.Attrs[1].Key)
	assert.Equal(t, `2`, string(record.Attrs[1].Value))
}

func TestForwardHandlerLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := worker.NewForwardHandler(ipc.NewEncoder(&buf), 0, slog.LevelWarn)
	log := slog.New(handler)

	log.Info("filtered out")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	payload, err := ipc.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	record, err := payload.LogRecord()
	require.NoError(t, err)
	assert.Equal(t, "WARN", record.Level)
}

func TestForwardHandlerWithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := worker.NewForwardHandler(ipc.NewEncoder(&buf), 0, slog.LevelInfo)
	log := slog.New(handler).With(slog.String("component", "runtime")).WithGroup("req")

	log.Info("handled", slog.String("id", "r1"))

	payload, err := ipc.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	record, err := payload.LogRecord()
	require.NoError(t, err)

	require.Len(t, record.Attrs, 2)
	assert.Equal(t, "component", record.Attrs[0].Key)
	assert.Equal(t, "req.id", record.Attrs[1].Key)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, worker.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, worker.ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, worker.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, worker.ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, worker.ParseLevel("bogus"))
}

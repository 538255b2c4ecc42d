package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul-17/dispatcher/core/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestErrors(t *testing.T) {
	t.Parallel()

	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestDuration(t *testing.T) {
	t.Parallel()

	attr := logger.Duration(250 * time.Millisecond)
	require.Equal(t, "duration", attr.Key)
	assert.Equal(t, 250*time.Millisecond, attr.Value.Duration())
}

func TestProcessID(t *testing.T) {
	t.Parallel()

	attr := logger.ProcessID(3)
	require.Equal(t, "process_id", attr.Key)
	assert.Equal(t, int64(3), attr.Value.Int64())
}

func TestPayloadID(t *testing.T) {
	t.Parallel()

	attr := logger.PayloadID("abc-1")
	require.Equal(t, "payload_id", attr.Key)
	assert.Equal(t, "abc-1", attr.Value.String())

	empty := logger.PayloadID("")
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestID(t *testing.T) {
	t.Parallel()

	attr := logger.ID("task_id", 9)
	require.Equal(t, "task_id", attr.Key)

	empty := logger.ID("task_id", nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

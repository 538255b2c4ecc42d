package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul-17/dispatcher/core/ipc"
	"github.com/shahadul-17/dispatcher/core/service"
	"github.com/shahadul-17/dispatcher/core/worker"
)

func TestPendingQueueFIFO(t *testing.T) {
	t.Parallel()

	q := newPendingQueue(4)
	for i := range 3 {
		require.NoError(t, q.enqueue(&ipc.Payload{PayloadID: string(rune('a' + i))}))
	}
	assert.Equal(t, 3, q.length())

	for i := range 3 {
		p, ok := q.dequeue()
		require.True(t, ok)
		assert.Equal(t, string(rune('a'+i)), p.PayloadID)
	}

	_, ok := q.dequeue()
	assert.False(t, ok)
}

func TestPendingQueueBound(t *testing.T) {
	t.Parallel()

	q := newPendingQueue(2)
	require.NoError(t, q.enqueue(&ipc.Payload{PayloadID: "a"}))
	require.NoError(t, q.enqueue(&ipc.Payload{PayloadID: "b"}))
	assert.ErrorIs(t, q.enqueue(&ipc.Payload{PayloadID: "c"}), ErrQueueFull)

	// Draining one slot readmits.
	_, ok := q.dequeue()
	require.True(t, ok)
	assert.NoError(t, q.enqueue(&ipc.Payload{PayloadID: "c"}))
}

func TestPendingQueueRequeueFront(t *testing.T) {
	t.Parallel()

	q := newPendingQueue(4)
	require.NoError(t, q.enqueue(&ipc.Payload{PayloadID: "a"}))
	require.NoError(t, q.enqueue(&ipc.Payload{PayloadID: "b"}))

	p, ok := q.dequeue()
	require.True(t, ok)
	require.Equal(t, "a", p.PayloadID)

	q.requeueFront(p)

	p, ok = q.dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", p.PayloadID)
}

func TestPendingQueueDrain(t *testing.T) {
	t.Parallel()

	q := newPendingQueue(4)
	require.NoError(t, q.enqueue(&ipc.Payload{PayloadID: "a"}))
	require.NoError(t, q.enqueue(&ipc.Payload{PayloadID: "b"}))

	drained := q.drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].PayloadID)
	assert.Equal(t, 0, q.length())
}

func TestCorrelationRegistryDelivery(t *testing.T) {
	t.Parallel()

	reg := newCorrelationRegistry()
	future := reg.register("id-1")
	assert.Equal(t, 1, reg.length())

	taken, ok := reg.take("id-1")
	require.True(t, ok)
	assert.Same(t, future, taken)
	assert.Equal(t, 0, reg.length())

	// A second take for the same id finds nothing: late responses drop.
	_, ok = reg.take("id-1")
	assert.False(t, ok)
}

func TestCorrelationRegistryByWorker(t *testing.T) {
	t.Parallel()

	reg := newCorrelationRegistry()
	reg.register("id-1")
	reg.register("id-2")
	reg.register("id-3")
	reg.assign("id-1", 0)
	reg.assign("id-2", 0)
	reg.assign("id-3", 1)

	failed := reg.takeByWorker(0)
	assert.Len(t, failed, 2)
	assert.Equal(t, 1, reg.length())

	// Assigning a taken id is a no-op.
	reg.assign("id-1", 1)
	assert.Len(t, reg.takeByWorker(1), 1)
	assert.Equal(t, 0, reg.length())
}

func TestCorrelationRegistryTakeAll(t *testing.T) {
	t.Parallel()

	reg := newCorrelationRegistry()
	reg.register("id-1")
	reg.register("id-2")

	assert.Len(t, reg.takeAll(), 2)
	assert.Equal(t, 0, reg.length())
}

func newStartedDispatcher(t *testing.T, processCount int) *Dispatcher {
	t.Helper()

	launcher := worker.NewInProcessLauncher(
		worker.WithRuntimeInitializer(service.InitializerFunc(
			func(ctx context.Context, reg *service.Registry) error {
				return reg.Register("NopService", struct{}{})
			})),
	)

	d, err := New(
		WithProcessCount(processCount),
		WithWorkerLauncher(launcher),
	)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() {
		if d.IsStarted() {
			require.NoError(t, d.Stop())
		}
	})
	return d
}

func TestSelectWorkerLeastBusy(t *testing.T) {
	t.Parallel()

	d := newStartedDispatcher(t, 3)

	d.workers[0].IncrementTaskCount(2)
	d.workers[1].IncrementTaskCount(1)
	d.workers[2].IncrementTaskCount(5)

	selected := d.selectWorker()
	require.NotNil(t, selected)
	assert.Equal(t, 1, selected.ProcessID())

	// Selection reserves a slot on the winner.
	assert.EqualValues(t, 2, d.workers[1].TaskCount())
}

func TestSelectWorkerTieKeepsEarlierIndex(t *testing.T) {
	t.Parallel()

	d := newStartedDispatcher(t, 3)

	selected := d.selectWorker()
	require.NotNil(t, selected)
	assert.Equal(t, 0, selected.ProcessID())
}

func TestSelectWorkerSkipsNonReady(t *testing.T) {
	t.Parallel()

	d := newStartedDispatcher(t, 2)

	require.NoError(t, d.workers[0].Close())
	<-d.workers[0].Done()

	selected := d.selectWorker()
	require.NotNil(t, selected)
	assert.Equal(t, 1, selected.ProcessID())
}

func TestSelectWorkerNoneReady(t *testing.T) {
	t.Parallel()

	d := newStartedDispatcher(t, 1)

	require.NoError(t, d.workers[0].Close())
	<-d.workers[0].Done()

	assert.Nil(t, d.selectWorker())
}

func TestNewRemoteErrorMapsCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		wireCode string
		wantKind error
		wantCode string
	}{
		{ipc.CodeServiceNotRegistered, ErrServiceNotRegistered, CodeServiceNotRegistered},
		{ipc.CodeInvalidMethod, ErrInvalidMethod, CodeInvalidMethod},
		{ipc.CodeInitializerFailure, ErrInitializerFailure, CodeInitializerFailure},
		{ipc.CodeRemoteInvocationFailure, ErrRemoteInvocation, CodeRemoteInvocationFailure},
		{"", ErrRemoteInvocation, CodeRemoteInvocationFailure},
	}

	for _, tc := range cases {
		err := newRemoteError(ipc.RemoteError{Code: tc.wireCode, Message: "m", Stack: "s"})
		assert.True(t, errors.Is(err, tc.wantKind), "code %q", tc.wireCode)
		assert.Equal(t, tc.wantCode, err.Code)
		assert.Equal(t, "m", err.Message)
		assert.Equal(t, "s", err.Stack)
	}
}

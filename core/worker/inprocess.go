package worker

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
)

// InProcessLauncher runs worker runtimes inside the parent process over
// in-memory pipes instead of spawning OS children. It keeps the full framed
// protocol and the endpoint contract intact, which makes it the transport
// for single-process deployments and for tests.
type InProcessLauncher struct {
	opts []RuntimeOption
}

// NewInProcessLauncher creates a launcher applying opts to every runtime it
// starts.
func NewInProcessLauncher(opts ...RuntimeOption) *InProcessLauncher {
	return &InProcessLauncher{opts: opts}
}

// Launch implements Launcher.
func (l *InProcessLauncher) Launch(_ context.Context, args []string) (Proc, error) {
	cfg, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}

	stdinReader, stdinWriter := io.Pipe()
	stdoutReader, stdoutWriter := io.Pipe()

	runCtx, cancel := context.WithCancel(context.Background())
	opts := append(append([]RuntimeOption(nil), l.opts...), WithRuntimeIO(stdinReader, stdoutWriter))
	rt := NewRuntime(cfg, opts...)

	p := &inProcessProc{
		stdin:  stdinWriter,
		stdout: stdoutReader,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		p.err = rt.Run(runCtx)
		// Unblock any writer still parked on the stdin pipe before the
		// endpoint learns the process is gone.
		stdinReader.CloseWithError(io.ErrClosedPipe)
		stdoutWriter.Close()
		close(p.done)
	}()

	return p, nil
}

type inProcessProc struct {
	stdin    io.WriteCloser
	stdout   io.Reader
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
	killOnce sync.Once
}

func (p *inProcessProc) Stdin() io.WriteCloser { return p.stdin }
func (p *inProcessProc) Stdout() io.Reader     { return p.stdout }
func (p *inProcessProc) Stderr() io.Reader     { return strings.NewReader("") }
func (p *inProcessProc) Pid() int              { return os.Getpid() }

func (p *inProcessProc) Wait() error {
	<-p.done
	return p.err
}

func (p *inProcessProc) Kill() error {
	p.killOnce.Do(func() {
		p.cancel()
		p.stdin.Close()
	})
	return nil
}

// Package dispatcher executes named service methods inside a fixed pool of
// worker child processes while keeping the calling API indistinguishable
// from an in-process call.
//
// The parent owns the pool: requests are queued, routed to the least-busy
// worker, written as delimiter-framed JSON payloads onto the worker's stdin,
// and correlated back to their callers when the response frame arrives on
// the worker's stdout. Workers run the same binary, branching into the
// worker runtime when spawned with the child-process arguments.
//
// Basic usage:
//
//	func main() {
//		if worker.IsChildProcess(os.Args[1:]) {
//			cfg, _ := worker.ParseArgs(os.Args[1:])
//			_ = worker.NewRuntime(cfg).Run(context.Background())
//			return
//		}
//
//		d, err := dispatcher.New(
//			dispatcher.WithProcessCount(4),
//			dispatcher.WithServiceInitializer("app"),
//		)
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := d.Start(context.Background()); err != nil {
//			log.Fatal(err)
//		}
//		defer d.Stop()
//
//		echo := d.Service("EchoService")
//		reply, err := dispatcher.Invoke[string](ctx, echo, "Echo", "hello")
//		// reply == "hello"
//	}
//
// Services are plain Go values registered by a named initializer; see
// core/service. Apart from context errors and argument-encoding failures,
// Dispatch rejects with a typed *Error: use errors.Is against the package
// sentinels (ErrNotStarted, ErrRemoteInvocation, ...) and errors.As to reach
// the remote message and stack.
package dispatcher

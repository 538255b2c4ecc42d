// Package worker contains both halves of the dispatcher's process boundary:
// the parent-side Endpoint that owns one worker child process, and the
// child-side Runtime that receives requests, invokes service methods, and
// writes results back.
//
// An Endpoint wraps the OS process: it spawns it with the worker argument
// contract, frames payloads onto its stdin, decodes frames off its stdout,
// forwards its stderr to the parent logger, and fans out typed lifecycle
// events (spawn, data, disconnect, error, exit, close) to its consumer.
//
// The Runtime is the loop on the other end of the pipes. Worker binaries are
// ordinarily the same executable as the parent, branching early in main:
//
//	func main() {
//		if worker.IsChildProcess(os.Args[1:]) {
//			cfg, err := worker.ParseArgs(os.Args[1:])
//			if err != nil {
//				os.Exit(1)
//			}
//			if err := worker.NewRuntime(cfg).Run(context.Background()); err != nil {
//				os.Exit(1)
//			}
//			return
//		}
//		// parent-side application code
//	}
//
// Process transport is pluggable through the Launcher interface. The default
// launcher starts a real OS process; NewInProcessLauncher runs a Runtime over
// in-memory pipes inside the parent process, which serves single-process
// deployments and tests.
package worker

// Package service holds the worker-side service registry and the initializer
// contract that populates it.
//
// A service is any value whose exported methods should be invocable through
// the dispatcher. Services are registered under a name, optionally qualified
// by an opaque scope string that is passed through from the caller verbatim.
//
// Initializers are registered at build time under a name and selected per
// worker process with the --serviceInitializer command-line argument:
//
//	func init() {
//		service.RegisterInitializer("app", func() service.Initializer {
//			return &AppInitializer{}
//		})
//	}
//
//	type AppInitializer struct{}
//
//	func (AppInitializer) Initialize(ctx context.Context, reg *service.Registry) error {
//		return reg.Register("EchoService", &EchoService{})
//	}
package service

// Package async provides a one-shot future primitive for handing a value (or
// an error) from the goroutine that produces it to the goroutine that awaits
// it. The dispatcher's correlation registry keys futures by payload id and
// resolves them when the matching response arrives.
//
// A future completes exactly once; later Resolve or Reject calls are no-ops.
//
//	f := async.NewFuture[string]()
//	go func() { f.Resolve("done") }()
//	v, err := f.Await(ctx)
package async

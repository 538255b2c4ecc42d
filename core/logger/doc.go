// Package logger provides slog attribute helpers shared by the dispatcher
// parent and its worker processes.
//
// The helpers use the empty Attr pattern for nil safety, so call sites never
// need explicit nil checks:
//
//	log.Error("send failed",
//		logger.Error(err),
//		logger.ProcessID(endpoint.ProcessID()),
//		logger.PayloadID(payload.PayloadID),
//	)
//
// Timing helpers follow the same shape:
//
//	start := time.Now()
//	// ... invoke method ...
//	log.Debug("method completed",
//		logger.Service(task.ServiceName),
//		logger.Method(task.MethodName),
//		logger.Elapsed(start),
//	)
package logger

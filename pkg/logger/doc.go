// Package logger provides the structured logging interface shared by the
// fetcher, upstream client, and schedule optimizer.
//
// # Component-scoped logging
//
// Each of those components calls WithComponent before logging so records
// can be filtered by component:
//
//	log := logger.NewDefaultLogger().(logger.ComponentAwareLogger).WithComponent("fetcher")
//	log.Info("issuing page request", "path", "/talks/", "page", 3)
//
// # Configuration
//
// The default logger honors LOG_LEVEL (debug, info, warn, error); unset
// defaults to info.
package logger

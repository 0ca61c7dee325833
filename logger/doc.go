// Package logger provides structured logging capabilities.
//
// The logger package sets up the application's zap logger from the logging
// section of the configuration. Logs are always written to stderr.
//
// Usage:
//
//	log, err := logger.NewFromConfig(cfg)
//	if err != nil {
//	    panic(err)
//	}
//	defer logger.Sync(log)
//	log.Info("Application started")
package logger

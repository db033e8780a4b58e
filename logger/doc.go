// Package logger is structured logging on zerolog with JSON or console
// output.
//
//	logging:
//	  level: info
//	  format: console
//
// Loggers are derived per component and per run:
//
//	log := logger.New(&cfg, "roundtrip").WithComponent("harness.verifier").WithContext(ctx)
//	log.Info("pass matched", logger.Fields(logger.FieldGroupID, group, logger.FieldRecords, 1))
package logger

// Package logging provides structured logging for simfleet runs.
//
// This package wraps Go's log/slog to write JSON-formatted records to a log
// file in the configured log directory. Every CLI invocation gets its own
// run id so the records of one pairing sweep or fleet reset can be filtered
// out of a shared, rotating log file after the fact.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("instance created", "udid", udid, "device_type", dt)
//
// # Context Propagation
//
//	runLogger := logger.WithRun("6f1c...").WithPhase("pairing")
//	runLogger.Warn("pairing failed", "companion", w, "primary", p)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"pairing failed","run_id":"6f1c...","phase":"pairing","companion":"...","primary":"..."}
//
// # Log Rotation
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	})
//
// Rotated files are named simfleet.log.1, simfleet.log.2, etc., where .1 is
// the most recent backup.
package logging

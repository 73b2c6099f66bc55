// Package logging provides structured logging for the WiFi portal.
//
// This package wraps a package-level zap logger with convenience functions
// for the events the portal cares about: the boot decision, mode changes,
// portal requests, captive DNS answers and storage operations.
//
// # Log Levels
//
//   - Debug: DNS answers, storage reads and writes, station poll ticks
//   - Info: boot decision, network bring-up, requests, restarts
//   - Warn: storage failures collapsed into a fresh record, missing pages
//   - Error: listener failures, failed saves
//
// # Sinks
//
// Logs always go to stdout in console format. Two optional sinks mirror the
// same entries without color codes:
//
//   - a serial console (go.bug.st/serial, 115200 8N1 by default), the
//     device's transient trace
//   - a rotating file (lumberjack)
//
// # Configuration
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    Level:       "info",
//	    ConsolePort: "/dev/ttyUSB0",
//	}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
// With no level and WIFIPORTAL_LOG_LEVEL unset the logger is a no-op, which
// keeps CLI commands quiet.
package logging

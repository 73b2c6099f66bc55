package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.bug.st/serial"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger  *zap.Logger
	closers []io.Closer
)

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "WIFIPORTAL_LOG_LEVEL"

// DefaultConsoleBaud matches the device's serial console.
const DefaultConsoleBaud = 115200

// Options selects the log level and the extra sinks.
type Options struct {
	Level       string // debug, info, warn, error; empty falls back to the env var
	ConsolePort string // serial device mirroring the trace, e.g. /dev/ttyUSB0
	ConsoleBaud int    // 0 means DefaultConsoleBaud
	File        string // rotating log file path
	FileMaxMB   int    // 0 means 10
}

// Initialize creates a logger at the given level writing to stdout.
// If level is empty, it checks WIFIPORTAL_LOG_LEVEL.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	return InitializeWithOptions(Options{Level: level})
}

// InitializeFromEnv initializes the logger from WIFIPORTAL_LOG_LEVEL only.
// CLI commands use it so they stay quiet by default.
func InitializeFromEnv() error {
	return Initialize("")
}

// InitializeWithOptions builds the logger with stdout plus any configured
// serial console and rotating file sinks.
func InitializeWithOptions(opts Options) error {
	Sync()
	closeSinks()

	level := opts.Level
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	zapLevel := parseLevel(level)

	stdoutCfg := zap.NewDevelopmentEncoderConfig()
	stdoutCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	stdoutCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	stdoutCfg.EncodeCaller = zapcore.ShortCallerEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(stdoutCfg), zapcore.Lock(os.Stdout), zapLevel),
	}

	// Serial and file sinks get no color codes
	plainCfg := stdoutCfg
	plainCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	if opts.ConsolePort != "" {
		baud := opts.ConsoleBaud
		if baud == 0 {
			baud = DefaultConsoleBaud
		}
		port, err := serial.Open(opts.ConsolePort, &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return fmt.Errorf("failed to open serial console %s: %w", opts.ConsolePort, err)
		}
		closers = append(closers, port)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(plainCfg), zapcore.AddSync(port), zapLevel))
	}

	if opts.File != "" {
		maxMB := opts.FileMaxMB
		if maxMB == 0 {
			maxMB = 10
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxMB, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		closers = append(closers, rotating)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(plainCfg), zapcore.AddSync(rotating), zapLevel))
	}

	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogBoot logs the outcome of reading the stored record at boot
func LogBoot(status string, mode string, ssid string) {
	Info("Boot",
		zap.String("store", status),
		zap.String("mode", mode),
		zap.String("ssid", ssid),
	)
}

// LogModeChange logs a mode transition that will take effect after restart
func LogModeChange(from, to, reason string) {
	Info("Mode change",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("reason", reason),
	)
}

// LogHTTPRequest logs a portal request and the page or action that answered it
func LogHTTPRequest(remoteAddr, method, path, served string) {
	Info("HTTP request",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("served", served),
	)
}

// LogDNSQuery logs a captive DNS answer
func LogDNSQuery(remoteAddr string, names []string, answer string) {
	Debug("DNS query",
		zap.String("remote_addr", remoteAddr),
		zap.Strings("names", names),
		zap.String("answer", answer),
	)
}

// LogStore logs a storage operation
func LogStore(op string, offset int64, err error) {
	if err != nil {
		Warn("Storage operation failed",
			zap.String("op", op),
			zap.Int64("offset", offset),
			zap.Error(err),
		)
		return
	}
	Debug("Storage operation",
		zap.String("op", op),
		zap.Int64("offset", offset),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// Close flushes the logger and releases the serial console and log file.
func Close() {
	Sync()
	closeSinks()
}

func closeSinks() {
	for _, c := range closers {
		_ = c.Close()
	}
	closers = nil
}

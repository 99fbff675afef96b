package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	logger zerolog.Logger
}

// LoggerOptions selects level and rendering for NewLogger.
type LoggerOptions struct {
	Level  string // debug, info, warn, error, disabled
	Format string // auto, json, console
}

// NewLogger creates a new structured logger writing to output (stderr when
// nil). Format "auto" renders for humans when output is a terminal and JSON
// otherwise.
func NewLogger(service, version string, output io.Writer, opts LoggerOptions) *Logger {
	if output == nil {
		output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	if useConsole(output, opts.Format) {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.WarnLevel
	}

	logger := zerolog.New(output).Level(level).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", getHostname()).
		Logger()

	return &Logger{
		logger: logger,
	}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

func useConsole(output io.Writer, format string) bool {
	switch format {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := output.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WithOperation adds operation_id context to logger.
func (l *Logger) WithOperation(operationID string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("operation_id", operationID).Logger(),
	}
}

// WithFile adds file context to logger.
func (l *Logger) WithFile(filePath string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("file_path", filePath).Logger(),
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// HashStarted logs the start of a digest computation.
func (l *Logger) HashStarted(algorithm string, chunkSize int) {
	l.logger.Debug().
		Str("algorithm", algorithm).
		Int("chunk_size", chunkSize).
		Msg("hash started")
}

// HashCompleted logs a finished digest computation.
func (l *Logger) HashCompleted(algorithm string, bytesHashed int64, chunks int, duration time.Duration) {
	l.logger.Info().
		Str("algorithm", algorithm).
		Int64("bytes", bytesHashed).
		Int("chunks", chunks).
		Float64("duration_seconds", duration.Seconds()).
		Msg("hash completed")
}

// KeypairExists logs a refused generation because key files are present.
func (l *Logger) KeypairExists(path string) {
	l.logger.Warn().
		Str("path", path).
		Msg("key files already exist; use --force to overwrite")
}

// KeypairGenerated logs a freshly written keypair.
func (l *Logger) KeypairGenerated(publicPath, secretPath, fingerprint string, forced bool) {
	l.logger.Info().
		Str("public_key_path", publicPath).
		Str("secret_key_path", secretPath).
		Str("fingerprint", fingerprint).
		Bool("forced", forced).
		Msg("keypair generated")
}

// SignatureWritten logs a detached signature written to disk.
func (l *Logger) SignatureWritten(signaturePath, algorithm, fingerprint string) {
	l.logger.Info().
		Str("signature_path", signaturePath).
		Str("algorithm", algorithm).
		Str("fingerprint", fingerprint).
		Msg("signature written")
}

// VerificationResult logs the outcome of a signature check.
func (l *Logger) VerificationResult(signaturePath, fingerprint string, valid bool) {
	ev := l.logger.Info()
	if !valid {
		ev = l.logger.Warn()
	}
	ev.Str("signature_path", signaturePath).
		Str("fingerprint", fingerprint).
		Bool("valid", valid).
		Msg("signature verified")
}

// Helper function to get hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}

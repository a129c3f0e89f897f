// Package logger builds the zap loggers used across buildcap.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured logging.
const (
	FieldComponent  = "component"
	FieldPath       = "path"
	FieldProject    = "project"
	FieldProjectID  = "project_id"
	FieldCommand    = "command"
	FieldExitCode   = "exit_code"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldLanguage   = "language"
	FieldError      = "error"
)

// Nop returns a logger that discards everything. Components default to it
// so a nil logger is never dereferenced.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// New builds a logger writing to stderr. JSON output is meant for machine
// consumption; the console encoder is for people at a terminal.
func New(jsonOutput, verbose bool) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		l, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stderr),
		level,
	)
	return zap.New(core).Sugar(), nil
}

// Component returns a child logger tagged with the component name.
func Component(l *zap.SugaredLogger, name string) *zap.SugaredLogger {
	if l == nil {
		l = Nop()
	}
	return l.With(FieldComponent, name)
}

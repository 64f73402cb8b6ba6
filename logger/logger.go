package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultFileName   = "catalog-sync.log"
	DefaultMaxSizeMB  = 5
	DefaultMaxAgeDays = 30
)

// Options configures the log sinks.
type Options struct {
	Env        string
	Dir        string // empty disables the file sink
	FileName   string
	MaxSizeMB  int
	MaxAgeDays int
	CloudWatch io.Writer
}

// Initialize builds the logger from opts and installs it as the zap global.
func Initialize(opts Options) (*zap.Logger, error) {
	log, err := New(opts)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

// New tees console output with an optional rotating file and an optional
// CloudWatch writer. The file rotates at MaxSizeMB into timestamped archives
// and archives older than MaxAgeDays are pruned.
func New(opts Options) (*zap.Logger, error) {
	var config zap.Config
	if opts.Env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
	}

	level := zap.NewAtomicLevelAt(config.Level.Level())
	jsonEncoder := zapcore.NewJSONEncoder(config.EncoderConfig)

	consoleConfig := config.EncoderConfig
	if opts.Env != "production" {
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(os.Stdout), level),
	}

	if opts.Dir != "" {
		sink, err := FileSink(opts)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(sink), level))
	}

	if opts.CloudWatch != nil {
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(opts.CloudWatch), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// FileSink returns the rotating file writer described by opts.
func FileSink(opts Options) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	name := opts.FileName
	if name == "" {
		name = DefaultFileName
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = DefaultMaxSizeMB
	}
	maxAge := opts.MaxAgeDays
	if maxAge <= 0 {
		maxAge = DefaultMaxAgeDays
	}
	return &lumberjack.Logger{
		Filename:  filepath.Join(opts.Dir, name),
		MaxSize:   maxSize,
		MaxAge:    maxAge,
		LocalTime: true,
	}, nil
}

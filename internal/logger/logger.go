// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// The console writes lifecycle, backend, and access events to one JSON log
// per day under `<root>/logs/YYYY-MM-DD.log`.  Operators usually start it
// from a terminal, so when stdout is a TTY the same events are teed there in
// console form.  Lumberjack rotates, compresses, and prunes the files.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Root: root, Tee: isTTY(), Level: "debug"})
//	if err != nil { … }
//	log.Infow("backend reachable", "templates", n)
//
// Notes
// -----
// • ISO-8601 timestamps and lowercase levels.
// • Unknown level names fall back to info.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	Root  string // log files live in Root/logs
	Tee   bool   // also write to stdout
	Level string // debug, info, warn, error
}

// New builds the process logger and installs it with zap.ReplaceGlobals so
// zap.S() works in packages that are not handed a logger.
func New(opts Options) (*zap.SugaredLogger, error) {
	logDir := filepath.Join(opts.Root, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	level := zap.InfoLevel
	if opts.Level != "" {
		if l, err := zapcore.ParseLevel(opts.Level); err == nil {
			level = l
		}
	}

	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, time.Now().Format("2006-01-02")+".log"),
		MaxSize:    20, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), level),
	}
	if opts.Tee {
		termCfg := encCfg
		termCfg.EncodeLevel = zapcore.LowercaseColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(termCfg),
			zapcore.Lock(os.Stdout),
			level,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
	)
	zap.ReplaceGlobals(z)

	s := z.Sugar()
	s.Infow("logger online", "tee", opts.Tee, "level", level.String())
	return s, nil
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Backends accepted by Options.Backend.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Options selects the backend, level and sink of the process logger.
type Options struct {
	Backend string // "slog" (default) or "zap"
	Level   string // debug, info, warn, error
	File    string // when set, logs also go to File rotated daily
	MaxAge  time.Duration
}

// New builds the process logger. The returned close function releases the
// file sink and flushes zap; it is never nil.
func New(opts Options) (Logger, func() error, error) {
	var (
		out     io.Writer = os.Stdout
		closers []func() error
	)

	if opts.File != "" {
		maxAge := opts.MaxAge
		if maxAge <= 0 {
			maxAge = 7 * 24 * time.Hour
		}
		rl, err := rotatelogs.New(
			opts.File+".%Y%m%d",
			rotatelogs.WithLinkName(opts.File),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(maxAge),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, rl)
		closers = append(closers, rl.Close)
	}

	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendSlog:
		h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slogLevel(opts.Level)})
		return NewSlogLogger(slog.New(h)), closeAll, nil
	case BackendZap:
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(out), zapLevel(opts.Level))
		zl := NewZapLogger(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))
		closers = append(closers, func() error {
			// stdout sync fails with EINVAL on most terminals
			_ = zl.Sync()
			return nil
		})
		return zl, closeAll, nil
	default:
		_ = closeAll()
		return nil, nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

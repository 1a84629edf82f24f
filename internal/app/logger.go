package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"loadboard-dispatch/internal/config"
	"loadboard-dispatch/internal/logx"
)

// NewLogger builds the process logger from LOG_BACKEND and LOG_LEVEL.
func NewLogger(cfg *config.Config) (logx.Logger, error) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg *config.Config, out io.Writer) (logx.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LogBackend)) {
	case "", "slog":
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
		base := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl}))
		return logx.NewSlogAdapter(base), nil
	case "zap":
		lvl, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
		}
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(out), lvl)
		return logx.NewZapAdapter(zap.New(core)), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.LogBackend)
	}
}

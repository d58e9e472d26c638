package internal

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the hook logger. Hooks own stdout for protocol output,
// so diagnostics go to a rotating file; with no level configured the
// logger is a no-op.
func NewLogger(cfg LogConfig) *zap.Logger {
	if cfg.Level == "" || cfg.Path == "" {
		return zap.NewNop()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return zap.NewNop()
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level)

	return zap.New(core)
}

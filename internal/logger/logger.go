package logger

import (
	"os"

	"github.com/gkr185/vip-pay-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger 基于 zap 的 kratos log.Logger 实现
type zapLogger struct {
	log *zap.Logger
}

// New 根据配置创建 logger
func New(c *conf.Log) log.Logger {
	level := zapcore.InfoLevel
	if c != nil && c.Level != "" {
		if l, err := zapcore.ParseLevel(c.Level); err == nil {
			level = l
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "" // 时间戳由 kratos log.With 统一添加
	var encoder zapcore.Encoder
	if c != nil && c.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	sink := zapcore.AddSync(os.Stdout)
	if c != nil && c.Output == "file" && c.FilePath != "" {
		if f, err := os.OpenFile(c.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)
	return &zapLogger{log: zap.New(core)}
}

// Log 实现 kratos log.Logger 接口
func (l *zapLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 || len(keyvals)%2 != 0 {
		l.log.Warn("malformed log keyvals", zap.Any("keyvals", keyvals))
		return nil
	}

	var msg string
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		if key == log.DefaultMessageKey {
			if s, ok := keyvals[i+1].(string); ok {
				msg = s
				continue
			}
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	switch level {
	case log.LevelDebug:
		l.log.Debug(msg, fields...)
	case log.LevelInfo:
		l.log.Info(msg, fields...)
	case log.LevelWarn:
		l.log.Warn(msg, fields...)
	case log.LevelError:
		l.log.Error(msg, fields...)
	case log.LevelFatal:
		l.log.Fatal(msg, fields...)
	default:
		l.log.Info(msg, fields...)
	}
	return nil
}

// internal/logger/logger.go
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создает новый логгер. В development режиме пишет цветной консольный
// вывод на уровне Debug, иначе JSON на уровне Info.
func New(development bool) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	level := zapcore.InfoLevel
	if development {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
		level = zapcore.DebugLevel
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// Sync сбрасывает буферы логгера, игнорируя безвредные ошибки stdout.
func Sync(l *zap.Logger) {
	if err := l.Sync(); err != nil {
		if err.Error() == "sync /dev/stdout: invalid argument" ||
			err.Error() == "sync /dev/stderr: inappropriate ioctl for device" {
			return
		}
	}
}

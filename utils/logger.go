package utils

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// InitLogger inicializa o logger global no nível informado
func InitLogger(level string) error {
	var initErr error
	loggerOnce.Do(func() {
		logger, initErr = newLogger(level)
	})
	return initErr
}

func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("erro ao criar logger: %w", err)
	}
	return l, nil
}

// Logger retorna o logger global, criando um padrão se necessário
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		l, err := newLogger("info")
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	})
	return logger
}

// ReplaceLogger troca o logger global e retorna a função que restaura o anterior
func ReplaceLogger(l *zap.Logger) func() {
	prev := Logger()
	logger = l
	return func() { logger = prev }
}

// SyncLogger descarrega os buffers do logger
func SyncLogger() {
	_ = Logger().Sync()
}

// LogInfo registra uma mensagem informativa
func LogInfo(format string, v ...interface{}) {
	Logger().Info(fmt.Sprintf(format, v...))
}

// LogWarn registra um aviso
func LogWarn(format string, v ...interface{}) {
	Logger().Warn(fmt.Sprintf(format, v...))
}

// LogError registra uma mensagem de erro
func LogError(format string, v ...interface{}) {
	Logger().Error(fmt.Sprintf(format, v...))
}

// LogDebug registra uma mensagem de depuração
func LogDebug(format string, v ...interface{}) {
	Logger().Debug(fmt.Sprintf(format, v...))
}

// LogOperation registra a duração de uma operação e seu resultado
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	if err != nil {
		Logger().Error("operação falhou",
			zap.String("operation", operation),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	Logger().Info("operação concluída",
		zap.String("operation", operation),
		zap.Duration("duration", duration),
	)
}

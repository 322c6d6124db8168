package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"survive/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
	level  = zap.NewAtomicLevel()

	// per-module loggers configured under log.modules
	moduleLoggers = map[string]*zap.Logger{}
	moduleLevels  = map[string]zap.AtomicLevel{}
)

// Init builds the process logger from config and returns it
func Init(cfg *config.LogConfig) (*zap.Logger, error) {
	encoder := newEncoder(cfg.Format)

	sinks, errSink, err := openSinks(cfg)
	if err != nil {
		return nil, err
	}

	level.SetLevel(parseLevel(cfg.Level))

	var cores []zapcore.Core
	for _, s := range sinks {
		cores = append(cores, zapcore.NewCore(encoder, s, level))
	}
	if errSink != nil {
		cores = append(cores, zapcore.NewCore(encoder, errSink, zapcore.ErrorLevel))
	}

	l := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	modules := make(map[string]*zap.Logger, len(cfg.Modules))
	levels := make(map[string]zap.AtomicLevel, len(cfg.Modules))
	for module, lvl := range cfg.Modules {
		ml := zap.NewAtomicLevelAt(parseLevel(lvl))
		var mcores []zapcore.Core
		for _, s := range sinks {
			mcores = append(mcores, zapcore.NewCore(encoder, s, ml))
		}
		modules[module] = zap.New(zapcore.NewTee(mcores...), zap.AddCaller()).Named(module)
		levels[module] = ml
	}

	mu.Lock()
	logger = l
	moduleLoggers = modules
	moduleLevels = levels
	mu.Unlock()

	return l, nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// openSinks returns the level-filtered writers plus the error-only file writer, if any
func openSinks(cfg *config.LogConfig) ([]zapcore.WriteSyncer, zapcore.WriteSyncer, error) {
	var sinks []zapcore.WriteSyncer
	var errSink zapcore.WriteSyncer

	switch cfg.Output {
	case "", "stdout", "file", "both":
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}

	if cfg.Output == "" || cfg.Output == "stdout" || cfg.Output == "both" {
		sinks = append(sinks, zapcore.AddSync(os.Stdout))
	}

	if cfg.Output == "file" || cfg.Output == "both" {
		if err := os.MkdirAll(cfg.File.Path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(cfg.File.Path, cfg.File.Filename),
			MaxSize:    cfg.File.MaxSize,
			MaxAge:     cfg.File.MaxAge,
			MaxBackups: cfg.File.MaxBackups,
			Compress:   cfg.File.Compress,
		}))
		errSink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(cfg.File.Path, "error.log"),
			MaxSize:    cfg.File.MaxSize,
			MaxAge:     cfg.File.MaxAge,
			MaxBackups: cfg.File.MaxBackups,
			Compress:   cfg.File.Compress,
		})
	}

	return sinks, errSink, nil
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Get returns the process logger (a no-op logger before Init)
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithModule returns the logger for a module, honouring log.modules overrides
func WithModule(module string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if l, ok := moduleLoggers[module]; ok {
		return l
	}
	return logger.Named(module)
}

// SetLevel changes the level of the running logger without rebuilding it
func SetLevel(s string) {
	level.SetLevel(parseLevel(s))
}

// SetModuleLevels applies per-module level overrides to already-built module loggers
func SetModuleLevels(levels map[string]string) {
	mu.RLock()
	defer mu.RUnlock()
	for module, lvl := range levels {
		if al, ok := moduleLevels[module]; ok {
			al.SetLevel(parseLevel(lvl))
		}
	}
}

// Level reports the current base level
func Level() zapcore.Level {
	return level.Level()
}

// Sync flushes buffered log entries
func Sync() {
	// stdout sync returns EINVAL on some platforms
	_ = Get().Sync()
}

// LogGameEvent records a room-level game event on the game module logger
func LogGameEvent(event, roomID string, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("event", event),
		zap.String("room_id", roomID),
	}, fields...)
	WithModule("game").Info("game_event", fields...)
}

// LogWebSocketMessage records one inbound or outbound socket message at debug level
func LogWebSocketMessage(direction, messageType string, payload interface{}) {
	WithModule("websocket").Debug("ws_message",
		zap.String("direction", direction),
		zap.String("type", messageType),
		zap.Any("payload", payload),
	)
}

// LogPanic records a recovered panic with its stack
func LogPanic(l *zap.Logger, recovered interface{}, stack []byte) {
	l.Error("panic recovered",
		zap.Any("panic", recovered),
		zap.ByteString("stack", stack),
	)
}

package log

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process wide logger. It discards everything until InitLogger runs.
var Logger = zap.NewNop()

// Config selects the level and encoding of the process logger.
type Config struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Encoding    string `yaml:"encoding"` // json or console
}

func InitLogger(cfg Config) error {
	var config zap.Config
	if cfg.Development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	if cfg.Encoding != "" {
		config.Encoding = cfg.Encoding
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	config.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(time.RFC3339))
	}
	// colour codes only make sense on a terminal
	if isatty.IsTerminal(os.Stderr.Fd()) {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}

// Sync flushes buffered entries, ignoring the EINVAL some platforms return for stderr.
func Sync() {
	_ = Logger.Sync()
}

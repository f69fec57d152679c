package logging

import (
	"github.com/l1jgo/mars/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity is a bitmask of the message classes to print.
type Verbosity uint8

const (
	Error   Verbosity = 1 << iota // error and worse
	Warning                       // warn
	Notice                        // info and debug

	Quiet Verbosity = 0
	All             = Error | Warning | Notice
)

// Allows reports whether messages at l pass the mask.
func (v Verbosity) Allows(l zapcore.Level) bool {
	switch {
	case l >= zapcore.ErrorLevel:
		return v&Error != 0
	case l == zapcore.WarnLevel:
		return v&Warning != 0
	default:
		return v&Notice != 0
	}
}

// New builds the process logger: console or JSON output at cfg.Level,
// further filtered by the verbosity mask.
func New(cfg config.LoggingConfig, v Verbosity) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return Filter(c, v)
	}))
}

// Filter drops entries the mask does not allow before they reach c.
func Filter(c zapcore.Core, v Verbosity) zapcore.Core {
	return &maskCore{Core: c, mask: v}
}

type maskCore struct {
	zapcore.Core
	mask Verbosity
}

func (c *maskCore) Enabled(l zapcore.Level) bool {
	return c.mask.Allows(l) && c.Core.Enabled(l)
}

func (c *maskCore) With(fields []zapcore.Field) zapcore.Core {
	return &maskCore{Core: c.Core.With(fields), mask: c.mask}
}

func (c *maskCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.mask.Allows(ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}

// Package obslog wires go.uber.org/zap behind the go-logr/logr interface,
// matching the logging seam the teacher repo uses throughout its agent and
// controller packages (there obtained from controller-runtime; here built
// directly since this engine has no controller-runtime dependency).
package obslog

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap-backed logr.Logger. json selects JSON encoding
// for production/container environments; otherwise a human-readable
// console encoding is used. level is one of "debug", "info", "warn",
// "error" (case-insensitive), defaulting to "info" on an unrecognized
// value.
func NewLogger(json bool, level string) (logr.Logger, error) {
	zapLevel := parseLevel(level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if json {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), zapLevel)
	zl := zap.New(core)
	return zapr.NewLogger(zl), nil
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

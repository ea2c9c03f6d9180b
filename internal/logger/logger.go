package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger. When logFile is empty, output goes to
// stderr so a consuming UI can redirect it; otherwise the file is appended
// to, matching the config's log_file setting.
func New(logFile string) (*zap.Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(os.Stderr)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, err
		}
		sink = zapcore.AddSync(f)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, zap.InfoLevel)
	return zap.New(core), nil
}

// NewNop returns a logger that discards everything, for tests and optional
// dependencies.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

package services

import "go.uber.org/zap"

// Notifier delivers fire-and-forget user notifications. Rendering (toasts,
// status bars) is the consumer's concern; the engine only emits.
type Notifier interface {
	Info(message string)
	Success(message string)
	Warning(message string)
	Error(message string)
}

// LogNotifier writes notifications to the application log. It is the
// default sink when no UI is attached.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Info(message string)    { n.logger.Info(message, zap.String("kind", "info")) }
func (n *LogNotifier) Success(message string) { n.logger.Info(message, zap.String("kind", "success")) }
func (n *LogNotifier) Warning(message string) { n.logger.Warn(message, zap.String("kind", "warning")) }
func (n *LogNotifier) Error(message string)   { n.logger.Warn(message, zap.String("kind", "error")) }

package resource

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the resource package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the resource package's logger.
// This must be called before any registry operations.
func SetLogger(l *zap.Logger) {
	logger = l
}

// LogObserver logs registry lifecycle events at debug level. Attach it with
// Subscribe to trace handle churn on a live registry.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver creates an observer logging to l, or to the package logger
// when l is nil.
func NewLogObserver(l *zap.Logger) *LogObserver {
	if l == nil {
		l = Logger()
	}
	return &LogObserver{log: l}
}

// OnRegistryEvent implements Observer.
func (o *LogObserver) OnRegistryEvent(e Event) {
	switch e.Type {
	case EventRegistered:
		o.log.Debug("resource registered",
			zap.Uint32("handle", uint32(e.Handle)),
			zap.Uint32("kind", e.Kind))
	case EventDropped:
		o.log.Debug("resource dropped",
			zap.Uint32("handle", uint32(e.Handle)),
			zap.Uint32("kind", e.Kind))
	}
}

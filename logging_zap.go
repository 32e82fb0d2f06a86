package autonow

import "go.uber.org/zap"

type zapLogger struct {
	logger *zap.Logger
}

// NewZapLogger logs lifecycle events at info, decisions at debug and
// failures at warn.
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return zapLogger{logger: logger.Named("autonow")}
}

func (l zapLogger) Log(event LogEvent) {
	fields := []zap.Field{
		zap.String("scope", event.Scope),
		zap.String("action", event.Action),
	}
	if event.Action == ActionDecide {
		fields = append(fields,
			zap.String("kind", event.Kind),
			zap.String("field", event.Field),
			zap.String("owner", event.Owner),
			zap.Bool("insert", event.Insert),
			zap.Bool("override", event.Override),
		)
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}
	switch {
	case event.Err != nil:
		l.logger.Warn("autonow scope", append(fields, zap.Error(event.Err))...)
	case event.Action == ActionDecide:
		l.logger.Debug("autonow decision", fields...)
	default:
		l.logger.Info("autonow scope", fields...)
	}
}

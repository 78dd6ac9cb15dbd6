// Package logger builds log/slog loggers for session components: JSON or
// text encoding, env-driven level, static attributes, and context-derived
// attributes (e.g. a request id) injected at log time.
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithAttr(slog.String("component", "session")),
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			if id, ok := ctx.Value(requestIDKey).(string); ok {
//				return slog.String("request_id", id), true
//			}
//			return slog.Attr{}, false
//		}),
//	)
//
//	manager := session.New(session.WithLogger(log))
package logger

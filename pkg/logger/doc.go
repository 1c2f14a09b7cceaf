// Package logger provides a structured logging interface for the tweet relay.
//
// It wraps zerolog behind the Logger interface:
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("request_id", id)
//	log.InfoWithFields("Stream started", map[string]interface{}{"username": u})
//
// Request handlers receive a scoped logger through IntoContext/FromContext.
// Tests use NewNopLogger or NewTestLogger, which captures messages for assertions.
package logger

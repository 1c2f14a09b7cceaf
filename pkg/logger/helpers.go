package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogHTTPRequest logs a completed HTTP request at a level derived from its status
func LogHTTPRequest(l Logger, method, path string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.InfoWithFields("HTTP request completed", fields)
	}
}

// LogStreamStart logs the beginning of a relayed tweet stream
func LogStreamStart(l Logger, source, target string, maxTweets int) {
	l.WithFields(map[string]interface{}{
		"source":     source,
		"target":     target,
		"max_tweets": maxTweets,
	}).Info("Stream started")
}

// LogStreamEnd logs how a relayed tweet stream finished
func LogStreamEnd(l Logger, outcome string, count int, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"outcome":  outcome,
		"count":    count,
		"duration": duration,
	}

	if err != nil {
		l.WithError(err).WarnWithFields("Stream failed", fields)
		return
	}
	l.InfoWithFields("Stream finished", fields)
}

// LogDownload logs download operations
func LogDownload(url, path string, success bool, err error) {
	logger := GetLogger().WithFields(map[string]interface{}{
		"url":     url,
		"path":    path,
		"success": success,
	})

	if err != nil {
		logger.WithError(err).Error("Download failed")
	} else if success {
		logger.Debug("Download completed")
	} else {
		logger.Debug("Download skipped")
	}
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	logger := GetLogger().WithField("component", component)
	if len(config) > 0 {
		logger = logger.WithFields(config)
	}
	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }

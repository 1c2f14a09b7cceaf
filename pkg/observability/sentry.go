package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"tweetrelay/pkg/config"
	"tweetrelay/pkg/logger"
)

// Reporter sends errors to Sentry on its own hub. A nil *Reporter is a
// valid no-op.
type Reporter struct {
	hub *sentry.Hub
}

// NewReporter returns nil when cfg has no DSN
func NewReporter(cfg config.SentryConfig, release string) (*Reporter, error) {
	if cfg.DSN == "" {
		return nil, nil
	}
	return NewReporterWithOptions(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     release,
	})
}

// NewReporterWithOptions builds a Reporter from raw client options
func NewReporterWithOptions(opts sentry.ClientOptions) (*Reporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Report captures err with tags on a fresh scope
func (r *Reporter) Report(ctx context.Context, err error, tags map[string]string) {
	if r == nil || err == nil {
		return
	}

	r.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		r.hub.CaptureException(err)
	})
	logger.FromContextOr(ctx, logger.GetLogger()).DebugWithFields("error reported", map[string]interface{}{
		"error": err.Error(),
	})
}

// Flush waits for queued events
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r == nil {
		return true
	}
	return r.hub.Flush(timeout)
}

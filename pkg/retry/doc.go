// Package retry retries transient failures with exponential backoff.
//
// Typed errors from pkg/errors decide what is retried: network, rate limit
// and server errors are, validation and auth errors are not. Context
// cancellation stops a retry loop immediately.
//
//	cfg := retry.FromConfig(appConfig.Retry, log)
//	data, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
//		return fetch(ctx, url)
//	}, cfg)
package retry

// Package ratelimit paces image downloads so a large media export does not
// hammer the image CDN.
//
// TokenBucket wraps golang.org/x/time/rate behind the small Limiter
// interface used by the download pool:
//
//	limiter := ratelimit.PerMinute(120, 5)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit

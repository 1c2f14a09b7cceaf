package twitter

import (
	"context"
	"fmt"
	"strings"
)

// Result is one item of a tweet sequence. Exactly one of Tweet and Err is set.
type Result struct {
	Tweet *Tweet
	Err   error
}

// SearchMode selects which search tab is queried
type SearchMode string

const (
	SearchLatest SearchMode = "latest"
	SearchTop    SearchMode = "top"
	SearchPhotos SearchMode = "photos"
	SearchVideos SearchMode = "videos"
)

// ParseSearchMode maps a config or request value to a SearchMode
func ParseSearchMode(s string) (SearchMode, error) {
	switch mode := SearchMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return SearchLatest, nil
	case SearchLatest, SearchTop, SearchPhotos, SearchVideos:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown search mode %q", s)
	}
}

// Scraper is the capability set the relay needs from the external scraping
// library. Sequences are lazy, finite and not restartable: a producer
// goroutine sends into the returned channel and closes it when the sequence
// ends, fails, or ctx is cancelled. Callers that stop early must cancel ctx.
type Scraper interface {
	// SetCookies installs serialized cookie strings as the session credentials
	SetCookies(ctx context.Context, cookies []string) error
	IsLoggedIn(ctx context.Context) (bool, error)
	// GetTweets yields a user's timeline, newest first, up to max items
	GetTweets(ctx context.Context, username string, max int) <-chan *Result
	GetLikedTweets(ctx context.Context, username string, max int) <-chan *Result
	SearchTweets(ctx context.Context, query string, max int, mode SearchMode) <-chan *Result
	Logout(ctx context.Context) error
}

// Factory builds a fresh Scraper. Instances are never shared between requests.
type Factory func() Scraper

// Drain discards the rest of a sequence in the background so its producer
// goroutine can exit.
func Drain(results <-chan *Result) {
	go func() {
		for range results {
		}
	}()
}

// failed returns a closed single-item sequence holding err
func failed(err error) <-chan *Result {
	ch := make(chan *Result, 1)
	ch <- &Result{Err: err}
	close(ch)
	return ch
}

// Package twittertest provides an in-memory twitter.Scraper for tests.
package twittertest

import (
	"context"
	"fmt"
	"sync"

	"tweetrelay/pkg/twitter"
)

// Fake is a scriptable twitter.Scraper. The zero value yields nothing.
type Fake struct {
	// Tweets are yielded in order by every sequence method, ignoring max
	Tweets []*twitter.Tweet
	// FailAfter, when >= 0, sends Err after that many tweets and ends the sequence
	FailAfter int
	Err       error
	// Endless keeps producing generated tweets until the context ends
	Endless bool

	SetCookiesErr error
	LoggedIn      bool
	LogoutErr     error

	mu        sync.Mutex
	cookies   []string
	calls     []string
	maxes     []int
	queries   []string
	modes     []twitter.SearchMode
	producers sync.WaitGroup
}

// New returns a Fake yielding tweets with no failure
func New(tweets ...*twitter.Tweet) *Fake {
	return &Fake{Tweets: tweets, FailAfter: -1, LoggedIn: true}
}

// Factory returns a twitter.Factory that always hands out f
func (f *Fake) Factory() twitter.Factory {
	return func() twitter.Scraper { return f }
}

func (f *Fake) SetCookies(ctx context.Context, cookies []string) error {
	f.record("SetCookies")
	if f.SetCookiesErr != nil {
		return f.SetCookiesErr
	}
	f.mu.Lock()
	f.cookies = append([]string(nil), cookies...)
	f.mu.Unlock()
	return nil
}

func (f *Fake) IsLoggedIn(ctx context.Context) (bool, error) {
	f.record("IsLoggedIn")
	return f.LoggedIn, nil
}

func (f *Fake) GetTweets(ctx context.Context, username string, max int) <-chan *twitter.Result {
	f.record("GetTweets")
	return f.produce(ctx, username, max)
}

func (f *Fake) GetLikedTweets(ctx context.Context, username string, max int) <-chan *twitter.Result {
	f.record("GetLikedTweets")
	return f.produce(ctx, username, max)
}

func (f *Fake) SearchTweets(ctx context.Context, query string, max int, mode twitter.SearchMode) <-chan *twitter.Result {
	f.record("SearchTweets")
	f.mu.Lock()
	f.modes = append(f.modes, mode)
	f.mu.Unlock()
	return f.produce(ctx, query, max)
}

func (f *Fake) Logout(ctx context.Context) error {
	f.record("Logout")
	return f.LogoutErr
}

func (f *Fake) produce(ctx context.Context, target string, max int) <-chan *twitter.Result {
	f.mu.Lock()
	f.maxes = append(f.maxes, max)
	f.queries = append(f.queries, target)
	f.mu.Unlock()

	out := make(chan *twitter.Result)
	f.producers.Add(1)

	go func() {
		defer f.producers.Done()
		defer close(out)

		send := func(r *twitter.Result) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for i, t := range f.Tweets {
			if f.FailAfter >= 0 && i == f.FailAfter {
				send(&twitter.Result{Err: f.Err})
				return
			}
			if !send(&twitter.Result{Tweet: t}) {
				return
			}
		}
		if f.FailAfter >= 0 && f.FailAfter >= len(f.Tweets) {
			send(&twitter.Result{Err: f.Err})
			return
		}

		for i := len(f.Tweets); f.Endless; i++ {
			if !send(&twitter.Result{Tweet: Tweet(i + 1)}) {
				return
			}
		}
	}()

	return out
}

// Wait blocks until every producer goroutine has exited
func (f *Fake) Wait() {
	f.producers.Wait()
}

// Cookies returns the cookies installed by the last SetCookies call
func (f *Fake) Cookies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cookies...)
}

// Calls returns the method names invoked so far, in order
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Maxes returns the max argument of every sequence call
func (f *Fake) Maxes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.maxes...)
}

// Targets returns the username or query of every sequence call
func (f *Fake) Targets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// Modes returns the search mode of every SearchTweets call
func (f *Fake) Modes() []twitter.SearchMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]twitter.SearchMode(nil), f.modes...)
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

// Tweet builds a numbered tweet
func Tweet(n int) *twitter.Tweet {
	return &twitter.Tweet{
		ID:           fmt.Sprintf("%d", n),
		Text:         fmt.Sprintf("tweet %d", n),
		Username:     "jack",
		PermanentURL: fmt.Sprintf("https://twitter.com/jack/status/%d", n),
		Photos:       []twitter.Photo{},
		Videos:       []twitter.Video{},
	}
}

// Tweets builds n numbered tweets starting at 1
func Tweets(n int) []*twitter.Tweet {
	out := make([]*twitter.Tweet, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Tweet(i))
	}
	return out
}

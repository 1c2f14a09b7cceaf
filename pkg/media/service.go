package media

import (
	"context"
	"sync"

	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/twitter"
)

const (
	DefaultProfileMax = 200
	DefaultLikedMax   = 200
	DefaultSearchMax  = 50
)

// ErrNotAuthenticated is returned by collectors before a successful Authenticate
var ErrNotAuthenticated = apperrors.New(apperrors.ErrorTypeAuth, "Not authenticated. Call Authenticate first.").WithCode(401)

// Service wraps one scraper session and collects media from its sequences
type Service struct {
	scraper twitter.Scraper
	logger  logger.Logger

	mu            sync.RWMutex
	authenticated bool
}

// NewService creates a Service around s
func NewService(s twitter.Scraper, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{scraper: s, logger: log.WithField("component", "media")}
}

// Authenticate installs cookies and checks the session. Any failure is
// logged and reported as false.
func (s *Service) Authenticate(ctx context.Context, cookies []string) bool {
	ok, err := s.authenticate(ctx, cookies)
	if err != nil {
		s.logger.WithError(err).Error("Authentication failed")
	}

	s.mu.Lock()
	s.authenticated = ok
	s.mu.Unlock()
	return ok
}

func (s *Service) authenticate(ctx context.Context, cookies []string) (bool, error) {
	if err := s.scraper.SetCookies(ctx, cookies); err != nil {
		return false, err
	}
	return s.scraper.IsLoggedIn(ctx)
}

// Authenticated reports the current session state
func (s *Service) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// ProfileMedia collects media from a user's tweets. max <= 0 means DefaultProfileMax.
func (s *Service) ProfileMedia(ctx context.Context, username string, max int) ([]Item, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	max = orDefault(max, DefaultProfileMax)
	return s.collect(ctx, "profile", max, func(ctx context.Context) <-chan *twitter.Result {
		return s.scraper.GetTweets(ctx, username, max)
	})
}

// LikedMedia collects media from tweets a user liked. max <= 0 means DefaultLikedMax.
func (s *Service) LikedMedia(ctx context.Context, username string, max int) ([]Item, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	max = orDefault(max, DefaultLikedMax)
	return s.collect(ctx, "liked", max, func(ctx context.Context) <-chan *twitter.Result {
		return s.scraper.GetLikedTweets(ctx, username, max)
	})
}

// SearchMedia collects media from the latest search results. max <= 0 means DefaultSearchMax.
func (s *Service) SearchMedia(ctx context.Context, query string, max int) ([]Item, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	max = orDefault(max, DefaultSearchMax)
	return s.collect(ctx, "search", max, func(ctx context.Context) <-chan *twitter.Result {
		return s.scraper.SearchTweets(ctx, query, max, twitter.SearchLatest)
	})
}

// Logout ends the session. Errors are logged, never returned, and the
// service is unauthenticated afterwards either way.
func (s *Service) Logout(ctx context.Context) {
	if err := s.scraper.Logout(ctx); err != nil {
		s.logger.WithError(err).Warn("Logout error")
	}
	s.mu.Lock()
	s.authenticated = false
	s.mu.Unlock()
}

func (s *Service) requireAuth() error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// collect keeps only tweets with media. At most max tweets are read; the
// sequence is cancelled and drained on return.
func (s *Service) collect(ctx context.Context, kind string, max int, open func(context.Context) <-chan *twitter.Result) ([]Item, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := open(ctx)
	defer twitter.Drain(results)

	items := make([]Item, 0)
	seen := 0
	for seen < max {
		var (
			res *twitter.Result
			ok  bool
		)
		select {
		case <-ctx.Done():
			return items, apperrors.Wrap(apperrors.ErrorTypeCancelled, ctx.Err(), "media collection cancelled")
		case res, ok = <-results:
		}
		if !ok {
			break
		}
		if res.Err != nil {
			s.logger.WithError(res.Err).WithField("kind", kind).Error("Error fetching media")
			return items, res.Err
		}
		seen++
		if item, has := FromTweet(res.Tweet); has {
			items = append(items, item)
		}
	}

	s.logger.DebugWithFields("media collected", map[string]interface{}{
		"kind":   kind,
		"tweets": seen,
		"items":  len(items),
	})
	return items, nil
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

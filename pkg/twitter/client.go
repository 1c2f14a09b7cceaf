package twitter

import (
	"context"
	"time"

	twitterscraper "github.com/n0madic/twitter-scraper"
	"tweetrelay/pkg/cookies"
	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/logger"
)

// ClientOptions configures the library-backed Scraper
type ClientOptions struct {
	// Delay between upstream page requests, in seconds
	Delay int64
}

// Client adapts github.com/n0madic/twitter-scraper to the Scraper interface
type Client struct {
	scraper *twitterscraper.Scraper
	logger  logger.Logger
}

// NewClient creates a Client around a fresh library scraper
func NewClient(opts ClientOptions, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	s := twitterscraper.New()
	if opts.Delay > 0 {
		s.WithDelay(opts.Delay)
	}

	return &Client{scraper: s, logger: log}
}

// NewFactory returns a Factory producing independent Clients
func NewFactory(opts ClientOptions, log logger.Logger) Factory {
	return func() Scraper {
		return NewClient(opts, log)
	}
}

// SetCookies parses the serialized cookies and installs them into the
// library's cookie jar.
func (c *Client) SetCookies(ctx context.Context, serialized []string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeCancelled, err, "request cancelled")
	}

	httpCookies, err := cookies.ToHTTP(serialized)
	if err != nil {
		return apperrors.Auth(err, err.Error())
	}

	c.scraper.SetCookies(httpCookies)
	c.logger.DebugWithFields("installed session cookies", map[string]interface{}{
		"cookies": cookies.Names(serialized),
	})
	return nil
}

// IsLoggedIn asks the library whether the installed session is valid
func (c *Client) IsLoggedIn(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.scraper.IsLoggedIn(), nil
}

// GetTweets streams a user's timeline
func (c *Client) GetTweets(ctx context.Context, username string, max int) <-chan *Result {
	return c.relay(ctx, c.scraper.GetTweets(ctx, username, max))
}

// GetLikedTweets is not offered by the library
func (c *Client) GetLikedTweets(ctx context.Context, username string, max int) <-chan *Result {
	c.logger.WithField("username", username).Warn("liked tweets requested but not supported by the scraper library")
	return failed(apperrors.Unsupported("fetching liked tweets"))
}

// SearchTweets streams search results for query
func (c *Client) SearchTweets(ctx context.Context, query string, max int, mode SearchMode) <-chan *Result {
	c.scraper.SetSearchMode(libraryMode(mode))
	return c.relay(ctx, c.scraper.SearchTweets(ctx, query, max))
}

// Logout ends the upstream session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.scraper.Logout(); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeUpstream, err, "logout failed")
	}
	return nil
}

// relay converts library results into Results. When ctx ends first the
// upstream channel is drained so the library goroutine can finish.
func (c *Client) relay(ctx context.Context, upstream <-chan *twitterscraper.TweetResult) <-chan *Result {
	out := make(chan *Result)

	go func() {
		defer close(out)

		for res := range upstream {
			var r *Result
			if res.Error != nil {
				r = &Result{Err: apperrors.Upstream(res.Error)}
			} else {
				r = &Result{Tweet: convertTweet(&res.Tweet)}
			}

			select {
			case out <- r:
			case <-ctx.Done():
				go func() {
					for range upstream {
					}
				}()
				return
			}
		}
	}()

	return out
}

func libraryMode(mode SearchMode) twitterscraper.SearchMode {
	switch mode {
	case SearchTop:
		return twitterscraper.SearchTop
	case SearchPhotos:
		return twitterscraper.SearchPhotos
	case SearchVideos:
		return twitterscraper.SearchVideos
	default:
		return twitterscraper.SearchLatest
	}
}

func convertTweet(t *twitterscraper.Tweet) *Tweet {
	tweet := &Tweet{
		ID:               t.ID,
		ConversationID:   t.ConversationID,
		Text:             t.Text,
		HTML:             t.HTML,
		Username:         t.Username,
		Name:             t.Name,
		UserID:           t.UserID,
		PermanentURL:     t.PermanentURL,
		Timestamp:        t.Timestamp,
		TimeParsed:       t.TimeParsed,
		Likes:            t.Likes,
		Retweets:         t.Retweets,
		Replies:          t.Replies,
		Views:            t.Views,
		Hashtags:         t.Hashtags,
		URLs:             t.URLs,
		IsRetweet:        t.IsRetweet,
		IsReply:          t.IsReply,
		IsQuoted:         t.IsQuoted,
		IsPin:            t.IsPin,
		SensitiveContent: t.SensitiveContent,
		Photos:           make([]Photo, 0, len(t.Photos)),
		Videos:           make([]Video, 0, len(t.Videos)),
	}

	if !t.TimeParsed.IsZero() {
		tweet.CreatedAt = t.TimeParsed.UTC().Format(time.RFC3339)
	}
	for _, p := range t.Photos {
		tweet.Photos = append(tweet.Photos, Photo{ID: p.ID, URL: p.URL})
	}
	for _, v := range t.Videos {
		tweet.Videos = append(tweet.Videos, Video{ID: v.ID, Preview: v.Preview, URL: v.URL})
	}

	return tweet
}

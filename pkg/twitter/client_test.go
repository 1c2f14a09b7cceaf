package twitter

import (
	"context"
	"testing"
	"time"

	twitterscraper "github.com/n0madic/twitter-scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/logger"
)

func TestConvertTweet(t *testing.T) {
	parsed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &twitterscraper.Tweet{
		ID:           "42",
		Text:         "hello",
		Username:     "jack",
		PermanentURL: "https://twitter.com/jack/status/42",
		Timestamp:    parsed.Unix(),
		TimeParsed:   parsed,
		Likes:        7,
		Photos:       []twitterscraper.Photo{{ID: "p1", URL: "https://pbs.twimg.com/media/a.jpg"}},
		Videos:       []twitterscraper.Video{{ID: "v1", Preview: "https://pbs.twimg.com/v.jpg", URL: "https://video.twimg.com/v.mp4?tag=12"}},
	}

	got := convertTweet(src)

	assert.Equal(t, "42", got.ID)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "2024-03-01T12:00:00Z", got.CreatedAt)
	assert.Equal(t, 7, got.Likes)
	require.Len(t, got.Photos, 1)
	assert.Equal(t, "https://pbs.twimg.com/media/a.jpg", got.Photos[0].URL)
	require.Len(t, got.Videos, 1)
	assert.Equal(t, "https://pbs.twimg.com/v.jpg", got.Videos[0].Preview)
	assert.True(t, got.HasMedia())
}

func TestConvertTweetWithoutMedia(t *testing.T) {
	got := convertTweet(&twitterscraper.Tweet{ID: "1"})

	assert.NotNil(t, got.Photos)
	assert.NotNil(t, got.Videos)
	assert.Empty(t, got.CreatedAt)
	assert.False(t, got.HasMedia())
}

func TestClientRelayStopsOnCancel(t *testing.T) {
	c := &Client{logger: logger.NewNopLogger()}
	upstream := make(chan *twitterscraper.TweetResult)
	producerDone := make(chan struct{})

	go func() {
		defer close(producerDone)
		defer close(upstream)
		for i := 0; i < 5; i++ {
			upstream <- &twitterscraper.TweetResult{Tweet: twitterscraper.Tweet{ID: "x"}}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	out := c.relay(ctx, upstream)

	first := <-out
	require.NotNil(t, first.Tweet)
	cancel()

	select {
	case <-producerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream producer was not released after cancel")
	}
}

func TestClientRelayWrapsErrors(t *testing.T) {
	c := &Client{logger: logger.NewNopLogger()}
	upstream := make(chan *twitterscraper.TweetResult, 1)
	upstream <- &twitterscraper.TweetResult{Error: assert.AnError}
	close(upstream)

	var results []*Result
	for r := range c.relay(context.Background(), upstream) {
		results = append(results, r)
	}

	require.Len(t, results, 1)
	assert.True(t, apperrors.Is(results[0].Err, apperrors.ErrorTypeUpstream))
	assert.ErrorIs(t, results[0].Err, assert.AnError)
}

func TestClientLikedUnsupported(t *testing.T) {
	c := &Client{logger: logger.NewNopLogger()}

	var results []*Result
	for r := range c.GetLikedTweets(context.Background(), "jack", 10) {
		results = append(results, r)
	}

	require.Len(t, results, 1)
	assert.True(t, apperrors.Is(results[0].Err, apperrors.ErrorTypeUnsupported))
}

func TestSetCookiesRejectsMalformed(t *testing.T) {
	c := NewClient(ClientOptions{}, logger.NewNopLogger())

	err := c.SetCookies(context.Background(), []string{"no-equals-sign"})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeAuth))
}

func TestParseSearchMode(t *testing.T) {
	mode, err := ParseSearchMode("")
	require.NoError(t, err)
	assert.Equal(t, SearchLatest, mode)

	mode, err = ParseSearchMode("Top")
	require.NoError(t, err)
	assert.Equal(t, SearchTop, mode)

	_, err = ParseSearchMode("random")
	assert.Error(t, err)
}

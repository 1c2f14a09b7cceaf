package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/export"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/relay"
	"tweetrelay/pkg/stream"
)

func TestFetchDispatchesEventsInOrder(t *testing.T) {
	var got relay.FetchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/fetch-tweets", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		sw, err := stream.NewWriter(w)
		require.NoError(t, err)
		sw.Send(stream.Progress("Fetching tweets for @jack..."))
		sw.Send(stream.TweetEvent(json.RawMessage(`{"id":"1","photos":[{"url":"https://x/a?name=small"}]}`)))
		sw.Send(stream.TweetEvent(json.RawMessage(`{"id":"2"}`)))
		sw.Send(stream.Complete(2))
	}))
	defer server.Close()

	c := New(server.URL, logger.NewNopLogger())
	acc := export.NewAccumulator()
	var types []stream.EventType

	err := c.Fetch(context.Background(), relay.SourceTweets, relay.NewFetchRequest("jack", 5, []string{"auth_token=abc; Domain=.twitter.com"}), func(e stream.Event) error {
		types = append(types, e.Type)
		acc.Apply(e)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "jack", got.Username)
	require.NotNil(t, got.MaxTweets)
	assert.Equal(t, 5, *got.MaxTweets)
	require.Len(t, got.Cookies, 1)
	assert.JSONEq(t, `"auth_token=abc; Domain=.twitter.com"`, string(got.Cookies[0]))

	assert.Equal(t, []stream.EventType{stream.EventProgress, stream.EventTweet, stream.EventTweet, stream.EventComplete}, types)
	assert.Equal(t, "Completed! Fetched 2 tweets", acc.Status())
	assert.Equal(t, []string{"https://x/a?format=jpg&name=large"}, export.ImageURLs(acc.Tweets()))
}

func TestFetchUsesSourceEndpoint(t *testing.T) {
	tests := []struct {
		source relay.Source
		path   string
	}{
		{relay.SourceTweets, "/api/fetch-tweets"},
		{relay.SourceLiked, "/api/fetch-liked"},
		{relay.SourceSearch, "/api/search-tweets"},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			var path string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				sw, err := stream.NewWriter(w)
				require.NoError(t, err)
				sw.Send(stream.Complete(0))
			}))
			defer server.Close()

			err := New(server.URL+"/", logger.NewNopLogger()).Fetch(context.Background(), tt.source, relay.FetchRequest{}, func(stream.Event) error { return nil })
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
		})
	}

	_, err := Endpoint(relay.Source("bogus"))
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
}

func TestFetchReturnsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"Invalid request parameters"}`)
	}))
	defer server.Close()

	called := false
	err := New(server.URL, logger.NewNopLogger()).Fetch(context.Background(), relay.SourceTweets, relay.FetchRequest{}, func(stream.Event) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, "Invalid request parameters", err.Error())
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
}

func TestFetchNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL, logger.NewNopLogger()).Fetch(context.Background(), relay.SourceTweets, relay.FetchRequest{}, func(stream.Event) error { return nil })
	require.Error(t, err)
	assert.Equal(t, "unexpected status 502", err.Error())
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeServerError))
}

func TestFetchMalformedEventKeepsPartialResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"tweet\",\"tweet\":{\"id\":\"1\"}}\n\ndata: {not json}\n\n")
	}))
	defer server.Close()

	acc := export.NewAccumulator()
	err := New(server.URL, logger.NewNopLogger()).Fetch(context.Background(), relay.SourceTweets, relay.FetchRequest{}, func(e stream.Event) error {
		acc.Apply(e)
		return nil
	})
	require.Error(t, err)
	acc.Fail()

	assert.Equal(t, export.GenericErrorMessage, acc.Err())
	assert.Equal(t, 1, acc.Len())
}

func TestFetchCallbackErrorStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw, err := stream.NewWriter(w)
		require.NoError(t, err)
		sw.Send(stream.Progress("one"))
		sw.Send(stream.Progress("two"))
	}))
	defer server.Close()

	stop := assert.AnError
	calls := 0
	err := New(server.URL, logger.NewNopLogger()).Fetch(context.Background(), relay.SourceTweets, relay.FetchRequest{}, func(stream.Event) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := New(url, logger.NewNopLogger()).Fetch(context.Background(), relay.SourceTweets, relay.FetchRequest{}, func(stream.Event) error { return nil })
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNetwork))
}

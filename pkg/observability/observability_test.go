package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetrelay/pkg/config"
	"tweetrelay/pkg/relay"
)

var _ relay.Observer = (*Metrics)(nil)
var _ relay.Reporter = (*Reporter)(nil)

func TestMetricsObserveStreams(t *testing.T) {
	m := NewMetrics()

	m.StreamStarted("tweets")
	m.StreamStarted("search")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveStreams))

	m.TweetRelayed("tweets")
	m.TweetRelayed("tweets")
	m.StreamFinished("tweets", "complete", 2, 1500*time.Millisecond)
	m.StreamFinished("search", "error", 0, time.Second)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveStreams))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TweetsRelayed.WithLabelValues("tweets")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsTotal.WithLabelValues("tweets", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsTotal.WithLabelValues("search", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StreamDuration))
}

func TestMetricsRequestsAndDownloads(t *testing.T) {
	m := NewMetrics()
	m.RequestServed("POST", "/api/fetch-tweets", 200)
	m.RequestServed("GET", "", 404)
	m.DownloadFinished("downloaded")
	m.DownloadFinished("failed")
	m.DownloadFinished("downloaded")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/fetch-tweets", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DownloadsTotal.WithLabelValues("downloaded")))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.StreamStarted("tweets")
	m.TweetRelayed("tweets")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{
		"tweetrelay_active_streams",
		"tweetrelay_tweets_relayed_total",
		"go_goroutines",
	} {
		assert.Contains(t, body, name)
	}
}

func TestNewReporterWithoutDSN(t *testing.T) {
	r, err := NewReporter(config.SentryConfig{}, "dev")
	require.NoError(t, err)
	assert.Nil(t, r)

	// nil reporter is a no-op
	r.Report(context.Background(), errors.New("ignored"), nil)
	assert.True(t, r.Flush(time.Millisecond))
}

func TestReporterCapturesTaggedException(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	r, err := NewReporterWithOptions(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)

	r.Report(context.Background(), errors.New("upstream exploded"), map[string]string{
		"source":     "tweets",
		"error_type": "upstream",
	})
	r.Report(context.Background(), nil, nil)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "tweets", ev.Tags["source"])
	assert.Equal(t, "upstream", ev.Tags["error_type"])
	require.NotEmpty(t, ev.Exception)
	assert.Equal(t, "upstream exploded", ev.Exception[len(ev.Exception)-1].Value)
}

func TestNewReporterRejectsBadDSN(t *testing.T) {
	_, err := NewReporter(config.SentryConfig{DSN: "::not a dsn"}, "dev")
	assert.Error(t, err)
}

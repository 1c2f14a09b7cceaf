package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "tweetrelay/pkg/errors"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/media"
	"tweetrelay/pkg/ratelimit"
	"tweetrelay/pkg/retry"
	"tweetrelay/pkg/storage"
)

// MockFetcher fails the first failures calls, then returns fixed data
type MockFetcher struct {
	delay    time.Duration
	err      error
	failures int32
	calls    int32
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	n := atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	if n <= atomic.LoadInt32(&m.failures) {
		return nil, errs.New(errs.ErrorTypeNetwork, "connection reset")
	}
	return []byte("mock image data"), nil
}

func (m *MockFetcher) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

// MockStore records saved names in memory
type MockStore struct {
	saved   map[string]bool
	saveErr error
	mu      sync.Mutex
}

func NewMockStore(existing ...string) *MockStore {
	s := &MockStore{saved: make(map[string]bool)}
	for _, name := range existing {
		s.saved[name] = true
	}
	return s
}

func (m *MockStore) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[name]
}

func (m *MockStore) Save(r io.Reader, name string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[name] = true
	return nil
}

func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func jobs(n int) []Job {
	out := make([]Job, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Job{
			URL:  fmt.Sprintf("https://example.com/photo%d.jpg", i),
			Name: fmt.Sprintf("photo%d.jpg", i),
		})
	}
	return out
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	fetcher := &MockFetcher{delay: 10 * time.Millisecond}
	store := NewMockStore()

	var observed int32
	pool := NewWorkerPool(Options{
		Workers:  3,
		Limiter:  ratelimit.NewTokenBucket(100, time.Millisecond),
		OnResult: func(string) { atomic.AddInt32(&observed, 1) },
	}, fetcher, store, logger.NewNopLogger())

	sum := pool.Run(context.Background(), jobs(10), nil)

	assert.Equal(t, 10, sum.Downloaded)
	assert.Zero(t, sum.Failed)
	assert.Equal(t, 10, fetcher.Calls())
	assert.Equal(t, 10, store.Count())
	assert.Equal(t, int32(10), atomic.LoadInt32(&observed))
}

func TestWorkerPoolSkipsExisting(t *testing.T) {
	fetcher := &MockFetcher{}
	store := NewMockStore("photo0.jpg", "photo1.jpg")

	pool := NewWorkerPool(Options{Workers: 2}, fetcher, store, logger.NewNopLogger())

	var statuses []string
	sum := pool.Run(context.Background(), jobs(4), func(r Result) {
		statuses = append(statuses, r.Status)
	})

	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 2, sum.Downloaded)
	assert.Equal(t, 2, fetcher.Calls())
	assert.Len(t, statuses, 4)
}

func TestWorkerPoolWithErrors(t *testing.T) {
	fetcher := &MockFetcher{err: errs.FromStatusCode(404, "gone")}
	pool := NewWorkerPool(Options{
		Workers: 2,
		Retry:   &retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}},
	}, fetcher, NewMockStore(), logger.NewNopLogger())

	sum := pool.Run(context.Background(), jobs(5), func(r Result) {
		assert.Equal(t, StatusFailed, r.Status)
		assert.Error(t, r.Err)
	})

	assert.Equal(t, 5, sum.Failed)
	assert.Len(t, sum.Errors, 5)
	// 404 is not retryable
	assert.Equal(t, 5, fetcher.Calls())
}

func TestWorkerPoolRetriesTransientFailures(t *testing.T) {
	fetcher := &MockFetcher{failures: 2}
	pool := NewWorkerPool(Options{
		Workers: 1,
		Retry:   &retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}},
	}, fetcher, NewMockStore(), logger.NewNopLogger())

	sum := pool.Run(context.Background(), jobs(1), nil)

	assert.Equal(t, 1, sum.Downloaded)
	assert.Equal(t, 3, fetcher.Calls())
}

func TestWorkerPoolSaveFailure(t *testing.T) {
	store := NewMockStore()
	store.saveErr = fmt.Errorf("disk full")

	pool := NewWorkerPool(Options{Workers: 1}, &MockFetcher{}, store, logger.NewNopLogger())
	sum := pool.Run(context.Background(), jobs(2), nil)

	assert.Equal(t, 2, sum.Failed)
	assert.ErrorContains(t, sum.Errors[0], "save failed")
}

func TestWorkerPoolConcurrency(t *testing.T) {
	fetcher := &MockFetcher{delay: 100 * time.Millisecond}
	pool := NewWorkerPool(Options{Workers: 5}, fetcher, NewMockStore(), logger.NewNopLogger())

	start := time.Now()
	sum := pool.Run(context.Background(), jobs(10), nil)
	elapsed := time.Since(start)

	assert.Equal(t, 10, sum.Downloaded)
	// 10 jobs of 100ms on 5 workers take about 200ms, not 1s
	assert.Less(t, elapsed, 800*time.Millisecond)
}

func TestWorkerPoolCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &MockFetcher{}
	pool := NewWorkerPool(Options{Workers: 2}, fetcher, NewMockStore(), logger.NewNopLogger())

	done := make(chan Summary, 1)
	go func() { done <- pool.Run(ctx, jobs(20), nil) }()

	select {
	case sum := <-done:
		assert.Zero(t, sum.Downloaded)
		assert.Zero(t, fetcher.Calls())
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop after cancellation")
	}
}

func TestWorkerPoolWritesToStorage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/media/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jpeg:" + r.URL.Path))
	}))
	defer server.Close()

	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	items := []media.Item{
		{TweetID: "1", Images: []media.Image{{URL: server.URL + "/media/AAA?format=jpg&name=large", URLOriginal: server.URL + "/media/AAA?format=jpg&name=orig"}}},
		{TweetID: "2", Images: []media.Image{{URL: server.URL + "/media/missing?format=png&name=large", URLOriginal: server.URL + "/media/missing?format=png&name=orig"}}},
	}

	pool := NewWorkerPool(Options{Workers: 2, Limiter: ratelimit.PerMinute(0, 1)}, NewHTTPFetcher(5*time.Second), store, logger.NewNopLogger())
	sum := pool.Run(context.Background(), JobsFromItems(items), nil)

	assert.Equal(t, 1, sum.Downloaded)
	assert.Equal(t, 1, sum.Failed)
	assert.True(t, store.Exists("1_AAA.jpg"))
	assert.False(t, store.Exists("2_missing.png"))
}

func TestImageName(t *testing.T) {
	tests := []struct {
		tweetID, url, want string
	}{
		{"1", "https://pbs.twimg.com/media/ABC?format=jpg&name=orig", "1_ABC.jpg"},
		{"1", "https://pbs.twimg.com/media/ABC?format=png&name=large", "1_ABC.png"},
		{"2", "https://pbs.twimg.com/media/ABC.jpg?name=large", "2_ABC.jpg"},
		{"", "https://pbs.twimg.com/media/ABC", "ABC.jpg"},
		{"3", "https://pbs.twimg.com/", ""},
		{"3", "://bad", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImageName(tt.tweetID, tt.url), tt.url)
	}
}

func TestJobsFromItemsDeduplicates(t *testing.T) {
	img := media.Image{URL: "https://pbs.twimg.com/media/A?format=jpg&name=large", URLOriginal: "https://pbs.twimg.com/media/A?format=jpg&name=orig"}
	items := []media.Item{
		{TweetID: "1", Images: []media.Image{img, img}},
		{TweetID: "2", Images: []media.Image{{URL: "https://pbs.twimg.com/media/B?format=jpg&name=large"}}},
	}

	got := JobsFromItems(items)
	require.Len(t, got, 2)
	assert.Equal(t, Job{URL: img.URLOriginal, Name: "1_A.jpg", TweetID: "1"}, got[0])
	assert.Equal(t, "https://pbs.twimg.com/media/B?format=jpg&name=large", got[1].URL)
}

package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	errs "tweetrelay/pkg/errors"
	"tweetrelay/pkg/media"
)

const maxImageBytes = 50 << 20

// HTTPFetcher downloads images over HTTP
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with a per-request timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	}
}

// Fetch returns the response body, or a typed error carrying the status
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeValidation, err, "invalid download URL")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, fmt.Sprintf("network error: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}
	return data, nil
}

// ImageName derives a file name for an image URL such as
// https://pbs.twimg.com/media/ABC?format=jpg&name=large, giving
// <tweetID>_ABC.jpg
func ImageName(tweetID, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}

	ext := path.Ext(base)
	if ext == "" {
		format := u.Query().Get("format")
		if format == "" {
			format = "jpg"
		}
		ext = "." + format
	} else {
		base = strings.TrimSuffix(base, ext)
	}

	if tweetID != "" {
		base = tweetID + "_" + base
	}
	return base + ext
}

// JobsFromItems builds one job per image, preferring the original variant
func JobsFromItems(items []media.Item) []Job {
	var jobs []Job
	seen := make(map[string]bool)
	for _, item := range items {
		for _, img := range item.Images {
			src := img.URLOriginal
			if src == "" {
				src = img.URL
			}
			name := ImageName(item.TweetID, src)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			jobs = append(jobs, Job{URL: src, Name: name, TweetID: item.TweetID})
		}
	}
	return jobs
}

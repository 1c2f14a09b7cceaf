// Package client talks to a running relay server and decodes its event
// streams.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/relay"
	"tweetrelay/pkg/stream"
)

// DefaultBaseURL is where a locally started server listens
const DefaultBaseURL = "http://localhost:3001"

var endpoints = map[relay.Source]string{
	relay.SourceTweets: "/api/fetch-tweets",
	relay.SourceLiked:  "/api/fetch-liked",
	relay.SourceSearch: "/api/search-tweets",
}

// Client posts fetch requests and hands the streamed events to a callback
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     logger.Logger
}

// New creates a Client. Streams can run for minutes, so the http.Client has
// no overall timeout; cancel through the context instead.
func New(baseURL string, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying http.Client
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// Endpoint returns the path serving the given source
func Endpoint(source relay.Source) (string, error) {
	path, ok := endpoints[source]
	if !ok {
		return "", apperrors.Validation(fmt.Sprintf("unknown source %q", source))
	}
	return path, nil
}

// Fetch posts req to the endpoint for source and calls fn for each event in
// arrival order. A non-2xx response returns an error carrying the server's
// error text. Returning an error from fn stops the stream.
func (c *Client) Fetch(ctx context.Context, source relay.Source, req relay.FetchRequest, fn func(stream.Event) error) error {
	path, err := Endpoint(source)
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeParsing, err, "failed to encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeValidation, err, "failed to build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	start := time.Now()
	c.logger.DebugWithFields("sending fetch request", map[string]interface{}{
		"url":    httpReq.URL.String(),
		"source": string(source),
	})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.Wrap(apperrors.ErrorTypeCancelled, ctx.Err(), "request cancelled")
		}
		return apperrors.Wrap(apperrors.ErrorTypeNetwork, err, fmt.Sprintf("network error: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}

	events := 0
	err = stream.NewDecoder(resp.Body).Each(func(e stream.Event) error {
		events++
		return fn(e)
	})

	c.logger.DebugWithFields("fetch stream closed", map[string]interface{}{
		"source":   string(source),
		"events":   events,
		"duration": time.Since(start),
	})

	if err != nil && ctx.Err() != nil {
		return apperrors.Wrap(apperrors.ErrorTypeCancelled, ctx.Err(), "request cancelled")
	}
	return err
}

func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(data, &payload) == nil {
		msg = payload.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}

	return apperrors.FromStatusCode(resp.StatusCode, msg)
}

// Package export accumulates relayed tweets on the client side and writes
// them out as JSON files.
package export

import (
	"encoding/json"
	"fmt"
	"sync"

	"tweetrelay/pkg/stream"
)

// GenericErrorMessage is shown when the stream itself breaks
const GenericErrorMessage = "Failed to fetch tweets"

// Accumulator applies stream events in arrival order: progress updates the
// status, tweets are appended, complete writes the final summary and error
// records the message. Accumulated tweets survive any failure.
type Accumulator struct {
	mu       sync.RWMutex
	tweets   []json.RawMessage
	status   string
	errMsg   string
	complete bool
}

// NewAccumulator creates an empty Accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Apply records one event
func (a *Accumulator) Apply(e stream.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch e.Type {
	case stream.EventProgress:
		a.status = e.Message
	case stream.EventTweet:
		a.tweets = append(a.tweets, append(json.RawMessage(nil), e.Tweet...))
	case stream.EventComplete:
		a.complete = true
		a.status = fmt.Sprintf("Completed! Fetched %d tweets", e.Count)
	case stream.EventError:
		a.errMsg = e.Message
	}
}

// Fail records a transport or decoding failure with the generic message
func (a *Accumulator) Fail() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errMsg = GenericErrorMessage
}

// Reset clears everything for a new fetch
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tweets = nil
	a.status = ""
	a.errMsg = ""
	a.complete = false
}

// Tweets returns the accumulated tweets in arrival order
func (a *Accumulator) Tweets() []json.RawMessage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]json.RawMessage(nil), a.tweets...)
}

// Len returns the number of accumulated tweets
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.tweets)
}

// Status returns the latest status line
func (a *Accumulator) Status() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Err returns the recorded error message, empty when none
func (a *Accumulator) Err() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.errMsg
}

// Completed reports whether a complete event arrived
func (a *Accumulator) Completed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.complete
}

// Preview decodes the text and createdAt of up to n tweets
func (a *Accumulator) Preview(n int) []PreviewItem {
	tweets := a.Tweets()
	if len(tweets) > n {
		tweets = tweets[:n]
	}

	out := make([]PreviewItem, 0, len(tweets))
	for _, raw := range tweets {
		var item PreviewItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		out = append(out, item)
	}
	return out
}

// PreviewItem is the subset of a tweet shown in previews
type PreviewItem struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// Package stream defines the events relayed over a server-sent event stream,
// together with the writer used by the server and the decoder used by clients.
package stream

import (
	"encoding/json"
	"fmt"
)

// EventType tags a stream event
type EventType string

const (
	EventProgress EventType = "progress"
	EventTweet    EventType = "tweet"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one message of a tweet stream. Which fields are meaningful
// depends on Type: Message for progress and error, Tweet for tweet, Count
// for complete.
type Event struct {
	Type    EventType       `json:"type"`
	Message string          `json:"message,omitempty"`
	Tweet   json.RawMessage `json:"tweet,omitempty"`
	Count   int             `json:"count,omitempty"`
}

// Progress creates a progress event
func Progress(format string, args ...interface{}) Event {
	return Event{Type: EventProgress, Message: fmt.Sprintf(format, args...)}
}

// TweetEvent wraps an already encoded tweet
func TweetEvent(raw json.RawMessage) Event {
	return Event{Type: EventTweet, Tweet: raw}
}

// Complete creates the successful terminal event
func Complete(count int) Event {
	return Event{Type: EventComplete, Count: count}
}

// Error creates the failed terminal event
func Error(message string) Event {
	return Event{Type: EventError, Message: message}
}

// Terminal reports whether e ends a stream
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// MarshalJSON emits exactly the fields of the event's variant, so a
// complete event always carries count even when it is zero.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventProgress, EventError:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
		}{e.Type, e.Message})
	case EventTweet:
		tweet := e.Tweet
		if len(tweet) == 0 {
			tweet = json.RawMessage("null")
		}
		return json.Marshal(struct {
			Type  EventType       `json:"type"`
			Tweet json.RawMessage `json:"tweet"`
		}{e.Type, tweet})
	case EventComplete:
		return json.Marshal(struct {
			Type  EventType `json:"type"`
			Count int       `json:"count"`
		}{e.Type, e.Count})
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

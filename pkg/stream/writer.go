package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "tweetrelay/pkg/errors"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Sink receives stream events in order. A non-nil error means the consumer
// is gone and no further events should be sent, unless it is a parsing error
// from an event that could not be encoded.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Event) error

func (f SinkFunc) Send(e Event) error { return f(e) }

// Writer writes events as `data: <json>\n\n` lines and flushes after each
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter switches w into event-stream mode and writes the 200 status.
// Nothing may be written to w outside the Writer afterwards.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes one event and flushes it to the client
func (sw *Writer) Send(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeParsing, err, "failed to encode event")
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", data); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

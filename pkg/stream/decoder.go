package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const dataPrefix = "data: "

// Decoder reads events from an event-stream body. Reads may end anywhere
// inside a line; only complete lines are parsed and a trailing segment
// without a newline at EOF is discarded.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder creates a Decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next event, or io.EOF when the stream ends
func (d *Decoder) Next() (Event, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		line = strings.TrimRight(line, "\r\n")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		var e Event
		if err := json.Unmarshal([]byte(line[len(dataPrefix):]), &e); err != nil {
			return Event{}, fmt.Errorf("decode event: %w", err)
		}
		return e, nil
	}
}

// Each calls fn for every event in arrival order until the stream ends,
// fn returns an error, or decoding fails.
func (d *Decoder) Each(fn func(Event) error) error {
	for {
		e, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

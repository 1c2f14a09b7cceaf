package ui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tweetrelay/pkg/export"
	"tweetrelay/pkg/stream"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StreamProgress feeds stream events into an Accumulator and prints a status
// line as they arrive. Handle matches the client callback signature.
type StreamProgress struct {
	console *Console
	acc     *export.Accumulator
	target  int
	verbose bool
	start   time.Time
}

// NewStreamProgress creates a printer for a stream expected to carry up to
// target tweets. Verbose mode prints every tweet instead of a status line.
func NewStreamProgress(c *Console, acc *export.Accumulator, target int, verbose bool) *StreamProgress {
	return &StreamProgress{
		console: c,
		acc:     acc,
		target:  target,
		verbose: verbose,
		start:   time.Now(),
	}
}

// Handle applies e and redraws the status
func (p *StreamProgress) Handle(e stream.Event) error {
	p.acc.Apply(e)

	switch e.Type {
	case stream.EventTweet:
		if p.verbose {
			p.printTweet(e)
			return nil
		}
		p.console.Printf("\r%s", p.line())
	case stream.EventProgress:
		if p.verbose {
			p.console.Dim(e.Message)
			return nil
		}
		p.console.Printf("\r%s", p.line())
	case stream.EventComplete:
		if !p.verbose {
			p.console.Printf("\n")
		}
		p.console.Success(p.acc.Status())
	case stream.EventError:
		if !p.verbose {
			p.console.Printf("\n")
		}
		p.console.Error("Stream error", e.Message)
	}
	return nil
}

// Bar renders the fill ratio of count against target
func Bar(count, target int) string {
	filled := 0
	if target > 0 {
		filled = count * barWidth / target
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, barWidth-filled) + "]"
}

func (p *StreamProgress) line() string {
	count := p.acc.Len()
	rate := 0.0
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		rate = float64(count) / elapsed
	}
	return fmt.Sprintf("%s %d/%d • %.1f/s • %s", Bar(count, p.target), count, p.target, rate, p.acc.Status())
}

func (p *StreamProgress) printTweet(e stream.Event) {
	var item export.PreviewItem
	if err := json.Unmarshal(e.Tweet, &item); err != nil {
		return
	}
	p.console.Info(fmt.Sprintf("#%d", p.acc.Len()), truncate(item.Text, 80))
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

// PrintPreview prints the first n accumulated tweets
func PrintPreview(c *Console, acc *export.Accumulator, n int) {
	items := acc.Preview(n)
	if len(items) == 0 {
		return
	}
	c.Highlight(fmt.Sprintf("First %d tweets", len(items)))
	for i, item := range items {
		c.Printf("%2d. %s\n", i+1, truncate(item.Text, 100))
		if item.CreatedAt != "" {
			c.Dim("    " + item.CreatedAt)
		}
	}
}

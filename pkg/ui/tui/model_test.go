package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetrelay/pkg/export"
	"tweetrelay/pkg/stream"
)

func tweet(text string) stream.Event {
	raw, _ := json.Marshal(map[string]string{"text": text})
	return stream.TweetEvent(raw)
}

func TestModelAppliesEvents(t *testing.T) {
	acc := export.NewAccumulator()
	m := NewModel("@jack", 4, acc, nil)

	assert.Contains(t, m.View(), "Connecting...")

	m.Update(EventMsg{Event: stream.Progress("Fetching tweets for @jack...")})
	m.Update(EventMsg{Event: tweet("hello")})
	m.Update(EventMsg{Event: tweet("world")})

	assert.Equal(t, 2, acc.Len())
	assert.InDelta(t, 0.5, m.ratio(), 0.001)

	view := m.View()
	assert.Contains(t, view, "@jack")
	assert.Contains(t, view, "Fetching tweets for @jack...")
	assert.Contains(t, view, "2/4 tweets")
	assert.Contains(t, view, " 1. hello")
	assert.Contains(t, view, " 2. world")

	m.Update(EventMsg{Event: stream.Complete(2)})
	_, cmd := m.Update(DoneMsg{})
	require.NotNil(t, cmd)
	assert.True(t, m.Done())
	assert.Contains(t, m.View(), "Completed! Fetched 2 tweets")
}

func TestModelShowsStreamError(t *testing.T) {
	acc := export.NewAccumulator()
	m := NewModel("@jack", 10, acc, nil)

	m.Update(EventMsg{Event: tweet("partial")})
	m.Update(EventMsg{Event: stream.Error("rate limited")})
	m.Update(DoneMsg{})

	assert.Contains(t, m.View(), "rate limited")
	assert.Equal(t, 1, acc.Len())
}

func TestModelQuitCancelsStream(t *testing.T) {
	cancelled := false
	m := NewModel("@jack", 10, export.NewAccumulator(), func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.True(t, cancelled)
	assert.True(t, m.Aborted())
}

func TestModelQuitAfterDoneDoesNotCancel(t *testing.T) {
	cancelled := false
	m := NewModel("@jack", 10, export.NewAccumulator(), func() { cancelled = true })

	m.Update(DoneMsg{})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.False(t, cancelled)
	assert.False(t, m.Aborted())
}

func TestRatioIsCapped(t *testing.T) {
	acc := export.NewAccumulator()
	m := NewModel("x", 1, acc, nil)
	m.Update(EventMsg{Event: tweet("a")})
	m.Update(EventMsg{Event: tweet("b")})
	assert.Equal(t, 1.0, m.ratio())

	assert.Zero(t, NewModel("x", 0, acc, nil).ratio())
}

func TestRunStreamsIntoAccumulator(t *testing.T) {
	acc := export.NewAccumulator()
	var out bytes.Buffer

	err := Run(context.Background(), Options{
		Title:  "@jack",
		Target: 2,
		Input:  &bytes.Buffer{},
		Output: &out,
	}, acc, func(ctx context.Context, fn func(stream.Event) error) error {
		for _, e := range []stream.Event{tweet("one"), tweet("two"), stream.Complete(2)} {
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, acc.Len())
	assert.True(t, acc.Completed())
}

func TestRunReturnsFetchError(t *testing.T) {
	acc := export.NewAccumulator()
	boom := errors.New("connection refused")

	err := Run(context.Background(), Options{
		Title:  "@jack",
		Target: 2,
		Input:  &bytes.Buffer{},
		Output: &bytes.Buffer{},
	}, acc, func(ctx context.Context, fn func(stream.Event) error) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
}

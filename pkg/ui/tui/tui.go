package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"tweetrelay/pkg/export"
	"tweetrelay/pkg/stream"
)

// FetchFunc runs a stream, handing each event to fn
type FetchFunc func(ctx context.Context, fn func(stream.Event) error) error

// Options configure Run
type Options struct {
	Title  string
	Target int
	Input  io.Reader
	Output io.Writer
}

// Run shows the live view while fetch streams into acc. Quitting the view
// cancels fetch. The returned error is fetch's, or the program's when it
// failed to start.
func Run(ctx context.Context, opts Options, acc *export.Accumulator, fetch FetchFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(opts.Title, opts.Target, acc, cancel)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	program := tea.NewProgram(model, programOpts...)

	fetchErr := make(chan error, 1)
	go func() {
		err := fetch(ctx, func(e stream.Event) error {
			program.Send(EventMsg{Event: e})
			return nil
		})
		fetchErr <- err
		program.Send(DoneMsg{Err: err})
	}()

	if _, err := program.Run(); err != nil && !model.Aborted() && !model.Done() {
		cancel()
		<-fetchErr
		return err
	}

	cancel()
	return <-fetchErr
}

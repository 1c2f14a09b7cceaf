package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tweetrelay/pkg/client"
	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/export"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/relay"
	"tweetrelay/pkg/stream"
	"tweetrelay/pkg/ui"
	"tweetrelay/pkg/ui/tui"
)

// streamFlags are shared by the commands consuming a relay stream
type streamFlags struct {
	server   string
	max      int
	set      string
	liveView bool
	noExport bool
}

func (f *streamFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", client.DefaultBaseURL, "relay base URL")
	cmd.Flags().IntVarP(&f.max, "max", "m", 0, "maximum number of tweets (default: server default)")
	cmd.Flags().String("cookies", "", "cookie export JSON file")
	cmd.Flags().StringVar(&f.set, "set", "", "stored cookie set to use (see 'tweetrelay auth list')")
	cmd.Flags().StringP("output", "o", "", "export directory")
	cmd.Flags().BoolVar(&f.liveView, "tui", false, "show a full-screen live view")
	cmd.Flags().BoolVar(&f.noExport, "no-export", false, "do not write JSON files")
}

func (f *streamFlags) target() int {
	if f.max > 0 {
		return f.max
	}
	return cfg.Relay.DefaultMaxTweets
}

var fetchFlags streamFlags
var fetchLiked bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <username>",
	Short: "Fetch a user's tweets from a running relay",
	Long: `Fetch tweets from a running relay and export them.

Tweets are written to <username>_tweets.json and the image URLs they carry to
<username>_images.json. If the stream fails part way, the tweets received so
far are still exported.`,
	Example: `  # Fetch up to 200 tweets with a cookie export
  tweetrelay fetch jack --cookies cookies.json

  # Liked tweets, using a stored cookie set and the live view
  tweetrelay fetch jack --liked --set main --tui`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := relay.SourceTweets
		if fetchLiked {
			source = relay.SourceLiked
		}
		return runStream(cmd, &fetchFlags, source, args[0], func(serialized []string) relay.FetchRequest {
			return relay.NewFetchRequest(args[0], fetchFlags.max, serialized)
		})
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchFlags.register(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchLiked, "liked", false, "fetch liked tweets instead of posted ones")
}

// runStream resolves cookies, consumes the stream for source and exports
// whatever arrived under name
func runStream(cmd *cobra.Command, f *streamFlags, source relay.Source, name string, build func([]string) relay.FetchRequest) error {
	serialized, err := resolveCookies(cfg, f.set, managerLoader)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(f.server, logger.GetLogger())
	req := build(serialized)
	acc := export.NewAccumulator()
	fetch := func(ctx context.Context, fn func(stream.Event) error) error {
		return c.Fetch(ctx, source, req, fn)
	}

	if f.liveView {
		err = tui.Run(ctx, tui.Options{Title: string(source) + " · " + name, Target: f.target()}, acc, fetch)
	} else {
		ui.PrintInfo("Relay", f.server)
		ui.PrintInfo("Target", name)
		err = fetch(ctx, ui.NewStreamProgress(ui.Default(), acc, f.target(), verbose).Handle)
	}
	streamErr := streamError(acc, err)

	if !f.noExport && (acc.Len() > 0 || acc.Completed()) {
		if err := exportTweets(name, acc); err != nil {
			return err
		}
	}
	if !f.liveView {
		ui.PrintPreview(ui.Default(), acc, tui.PreviewSize)
	}
	return streamErr
}

// streamError turns the outcome of a stream into the command's error.
// Server errors keep their own text, an error event already shown by the
// progress printer exits quietly and any other failure is recorded on acc
// with the generic message.
func streamError(acc *export.Accumulator, err error) error {
	var appErr *apperrors.Error
	switch {
	case err == nil:
		if acc.Err() != "" {
			return errAlreadyReported
		}
		return nil
	case apperrors.Is(err, apperrors.ErrorTypeCancelled):
		ui.PrintWarning("Stream cancelled, keeping partial results")
		return nil
	case errors.As(err, &appErr) && appErr.Code != 0:
		return err
	default:
		acc.Fail()
		logger.GetLogger().WithError(err).Debug("stream failed")
		return fmt.Errorf("%s: %w", export.GenericErrorMessage, err)
	}
}

func exportTweets(name string, acc *export.Accumulator) error {
	exporter, err := export.NewExporter(cfg.Export.Directory, cfg.Export.OverwriteExisting)
	if err != nil {
		return err
	}

	tweets := acc.Tweets()
	tweetsPath, err := exporter.WriteTweets(name, tweets)
	if err != nil {
		return err
	}
	imagesPath, err := exporter.WriteImages(name, tweets)
	if err != nil {
		return err
	}

	ui.PrintInfo("Tweets", tweetsPath)
	ui.PrintInfo("Images", imagesPath)
	return nil
}

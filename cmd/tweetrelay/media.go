package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tweetrelay/internal/downloader"
	"tweetrelay/pkg/export"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/media"
	"tweetrelay/pkg/observability"
	"tweetrelay/pkg/ratelimit"
	"tweetrelay/pkg/retry"
	"tweetrelay/pkg/storage"
	"tweetrelay/pkg/twitter"
	"tweetrelay/pkg/ui"
)

var (
	mediaMax         int
	mediaSet         string
	mediaLiked       bool
	mediaSearch      bool
	mediaDownload    bool
	mediaNotify      bool
	mediaMetricsFile string
)

var mediaCmd = &cobra.Command{
	Use:   "media <username|query>",
	Short: "Collect media from tweets and optionally download images",
	Long: `Collect the photos and videos attached to a user's tweets, liked tweets or
search results directly through the scraper, without a relay.

Items are written to <name>_media.json. With --download every image is
fetched at its original size into <output>/<name>/, skipping files that are
already there.`,
	Example: `  # List media from a profile
  tweetrelay media jack --cookies cookies.json

  # Download images from a search with 8 workers
  tweetrelay media "#gophers" --search --download --concurrent 8

  # Write download counters for the node exporter textfile collector
  tweetrelay media jack --download --metrics-textfile /var/lib/node_exporter/tweetrelay.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runMedia,
}

func init() {
	rootCmd.AddCommand(mediaCmd)

	mediaCmd.Flags().IntVarP(&mediaMax, "max", "m", 0, "maximum number of tweets to scan (default: relay default)")
	mediaCmd.Flags().String("cookies", "", "cookie export JSON file")
	mediaCmd.Flags().StringVar(&mediaSet, "set", "", "stored cookie set to use")
	mediaCmd.Flags().StringP("output", "o", "", "export directory")
	mediaCmd.Flags().Int("concurrent", 0, "number of concurrent downloads")
	mediaCmd.Flags().BoolVar(&mediaLiked, "liked", false, "scan liked tweets")
	mediaCmd.Flags().BoolVar(&mediaSearch, "search", false, "treat the argument as a search query")
	mediaCmd.Flags().BoolVar(&mediaDownload, "download", false, "download images")
	mediaCmd.Flags().BoolVar(&mediaNotify, "notify", false, "send a desktop notification when done")
	mediaCmd.Flags().StringVar(&mediaMetricsFile, "metrics-textfile", "", "write Prometheus download counters to this file")
	mediaCmd.MarkFlagsMutuallyExclusive("liked", "search")
}

func runMedia(cmd *cobra.Command, args []string) error {
	log := logger.GetLogger()
	name := args[0]

	serialized, err := resolveCookies(cfg, mediaSet, managerLoader)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := media.NewService(twitter.NewClient(twitter.ClientOptions{Delay: cfg.Scraper.Delay}, log), log)
	if !svc.Authenticate(ctx, serialized) {
		return errors.New("cookies were rejected, export them again from a logged in browser")
	}
	defer svc.Logout(context.Background())

	limit := mediaMax
	if limit <= 0 {
		limit = cfg.Relay.DefaultMaxTweets
	}

	var items []media.Item
	switch {
	case mediaSearch:
		items, err = svc.SearchMedia(ctx, name, limit)
	case mediaLiked:
		items, err = svc.LikedMedia(ctx, name, limit)
	default:
		items, err = svc.ProfileMedia(ctx, name, limit)
	}
	if err != nil {
		if len(items) == 0 {
			return err
		}
		ui.PrintWarning("Media scan stopped early", err)
	}
	ui.PrintInfo("Media items", fmt.Sprintf("%d", len(items)))

	exporter, err := export.NewExporter(cfg.Export.Directory, cfg.Export.OverwriteExisting)
	if err != nil {
		return err
	}
	path, err := exporter.WriteJSON(export.MediaFileName(name), items)
	if err != nil {
		return err
	}
	ui.PrintInfo("Saved", path)

	if !mediaDownload {
		return nil
	}

	metrics := observability.NewMetrics()
	summary, err := downloadImages(ctx, name, items, metrics)
	if err != nil {
		return err
	}

	notifier := ui.NewNotifier(ui.Default(), mediaNotify)
	if summary.Failed > 0 {
		notifier.Error("Download finished with errors", fmt.Sprintf("%d of %d images failed", summary.Failed, summary.Downloaded+summary.Skipped+summary.Failed))
	} else {
		notifier.Success("Download complete", fmt.Sprintf("%d images from %s", summary.Downloaded, name))
	}

	if mediaMetricsFile != "" {
		if err := prometheus.WriteToTextfile(mediaMetricsFile, metrics.Registry()); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// downloadImages fetches every image in items into a directory named after
// name inside the export directory
func downloadImages(ctx context.Context, name string, items []media.Item, metrics *observability.Metrics) (downloader.Summary, error) {
	log := logger.GetLogger()

	store, err := storage.NewManager(filepath.Join(cfg.Export.Directory, export.SafeName(name)))
	if err != nil {
		return downloader.Summary{}, err
	}

	jobs := downloader.JobsFromItems(items)
	if len(jobs) == 0 {
		ui.PrintWarning("No images to download")
		return downloader.Summary{}, nil
	}

	pool := downloader.NewWorkerPool(downloader.Options{
		Workers:  cfg.Download.ConcurrentDownloads,
		Limiter:  ratelimit.PerMinute(cfg.Download.RequestsPerMinute, cfg.Download.BurstSize),
		Retry:    retry.FromConfig(cfg.Retry, log),
		OnResult: metrics.DownloadFinished,
	}, downloader.NewHTTPFetcher(cfg.Download.DownloadTimeout), store, log)

	progress := ui.NewDownloadProgress(ui.Default(), name, len(jobs), verbose)
	summary := pool.Run(ctx, jobs, func(r downloader.Result) {
		progress.Record(r.Job.Name, r.Status, int64(r.Size), r.Err)
	})
	progress.Complete()

	ui.PrintInfo("Images", store.GetOutputDir())
	return summary, nil
}

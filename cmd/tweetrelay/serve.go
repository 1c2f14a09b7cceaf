package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tweetrelay/pkg/httpapi"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/observability"
	"tweetrelay/pkg/relay"
	"tweetrelay/pkg/twitter"
	"tweetrelay/pkg/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	Long: `Run the HTTP relay. Each POST to /api/fetch-tweets, /api/fetch-liked or
/api/search-tweets opens a server-sent event stream: a progress event, one
event per tweet, progress every N tweets and a final complete or error event.

Closing the connection stops the upstream fetch.`,
	Example: `  # Listen on the default port 3001
  tweetrelay serve

  # Progress every 25 tweets, 500 tweets per request unless asked otherwise
  tweetrelay serve --addr :8080 --progress-interval 25 --default-max 500`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :3001)")
	serveCmd.Flags().Int("progress-interval", 0, "emit a progress event every N tweets")
	serveCmd.Flags().Int("default-max", 0, "tweets relayed when a request omits maxTweets")
	serveCmd.Flags().Bool("verify-login", false, "reject requests whose cookies do not log in")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.GetLogger()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	reporter, err := observability.NewReporter(cfg.Sentry, version)
	if err != nil {
		return fmt.Errorf("failed to initialize error reporting: %w", err)
	}
	defer reporter.Flush(2 * time.Second)

	r := relay.New(twitter.NewFactory(twitter.ClientOptions{Delay: cfg.Scraper.Delay}, log), relay.OptionsFromConfig(cfg), log)
	if metrics != nil {
		r.SetObserver(metrics)
	}

	deps := httpapi.Deps{
		Config:  cfg,
		Relay:   r,
		Logger:  log,
		Metrics: metrics,
	}
	if reporter != nil {
		r.SetReporter(reporter)
		deps.Reporter = reporter
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintLogo()
	ui.PrintInfo("Listening", cfg.Server.Addr)
	ui.PrintInfo("Progress interval", fmt.Sprintf("%d tweets", cfg.Relay.ProgressInterval))
	ui.PrintInfo("Default max", fmt.Sprintf("%d tweets", cfg.Relay.DefaultMaxTweets))
	if cfg.Metrics.Enabled {
		ui.PrintInfo("Metrics", cfg.Metrics.Path)
	}

	if err := httpapi.NewServer(deps).ListenAndServe(ctx); err != nil {
		return err
	}
	ui.PrintSuccess("Server stopped")
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"tweetrelay/pkg/config"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/ui"
)

var (
	// Version information, set with -ldflags
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool

	// cfg is loaded once per invocation in PersistentPreRunE
	cfg *config.Config
)

// annotationConfig set to "skip" makes a command run without loading the
// configuration, for commands that inspect the configuration themselves
const annotationConfig = "config"

// overrideFlags are the flag names config.MergeCommandLineFlags understands
var overrideFlags = []string{
	"addr",
	"progress-interval",
	"default-max",
	"verify-login",
	"output",
	"concurrent",
	"cookies",
	"log-level",
}

var rootCmd = &cobra.Command{
	Use:   "tweetrelay",
	Short: "Stream tweets to clients over server-sent events",
	Long: `tweetrelay streams a user's tweets, liked tweets or search results from an
external scraping library to HTTP clients as server-sent events, one tweet
per event, with progress updates and a final summary.

The same binary is the client: fetch and search consume a running relay and
export what arrives to <username>_tweets.json and <username>_images.json.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			os.Setenv("NO_COLOR", "1")
			ui.SetOutput(os.Stdout)
		}
		if quiet {
			ui.SetQuietMode(true)
		}

		var loaded *config.Config
		if cmd.Annotations[annotationConfig] == "skip" {
			loaded = config.DefaultConfig()
		} else {
			var err error
			loaded, err = config.Load(configFile, flagOverrides(cmd))
			if err != nil {
				return err
			}
		}
		if verbose && !cmd.Flags().Changed("log-level") {
			loaded.Logging.Level = "debug"
		}
		if err := logger.Initialize(&loaded.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// errAlreadyReported fails a command whose error was printed as it happened
var errAlreadyReported = errors.New("already reported")

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errAlreadyReported) {
			ui.PrintError("Error", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ~/.config/tweetrelay/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every tweet and debug logs")

	rootCmd.SetVersionTemplate(`tweetrelay {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// flagOverrides collects the flags the user set explicitly
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	for _, name := range overrideFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "int":
			v, _ := cmd.Flags().GetInt(name)
			flags[name] = v
		case "bool":
			v, _ := cmd.Flags().GetBool(name)
			flags[name] = v
		default:
			flags[name] = f.Value.String()
		}
	}
	return flags
}

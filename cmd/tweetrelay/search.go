package main

import (
	"github.com/spf13/cobra"

	"tweetrelay/pkg/relay"
	"tweetrelay/pkg/twitter"
)

var searchFlags streamFlags
var searchMode string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Stream search results from a running relay",
	Long: `Stream the tweets matching a search query and export them.

The query uses the usual search operators. Files are named after the query
with unsafe characters replaced, for example from_jack_cats_tweets.json.`,
	Example: `  # Latest tweets mentioning golang
  tweetrelay search golang

  # Top photo tweets from one account
  tweetrelay search "from:jack" --mode photos --max 50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchMode != "" {
			if _, err := twitter.ParseSearchMode(searchMode); err != nil {
				return err
			}
		}
		return runStream(cmd, &searchFlags, relay.SourceSearch, args[0], func(serialized []string) relay.FetchRequest {
			req := relay.NewFetchRequest("", searchFlags.max, serialized)
			req.Query = args[0]
			req.Mode = searchMode
			return req
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchFlags.register(searchCmd)
	searchCmd.Flags().StringVar(&searchMode, "mode", "", "search mode: latest, top, photos or videos")
}

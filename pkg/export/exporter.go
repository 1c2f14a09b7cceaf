package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"tweetrelay/pkg/storage"
)

// largeImageSuffix replaces any query on exported image URLs
const largeImageSuffix = "?format=jpg&name=large"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// TweetsFileName is the export name for a user's tweets
func TweetsFileName(username string) string {
	return safe(username) + "_tweets.json"
}

// ImagesFileName is the export name for a user's image URLs
func ImagesFileName(username string) string {
	return safe(username) + "_images.json"
}

// MediaFileName is the export name for a user's media items
func MediaFileName(username string) string {
	return safe(username) + "_media.json"
}

// SafeName reduces a username or query to a string usable as a file or
// directory name
func SafeName(name string) string {
	return safe(name)
}

func safe(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), ".")
	if name == "" {
		return "export"
	}
	return name
}

// LargeImageURL drops the query of u and requests the large jpg variant
func LargeImageURL(u string) string {
	base, _, _ := strings.Cut(u, "?")
	return base + largeImageSuffix
}

type photoView struct {
	Photos []struct {
		URL string `json:"url"`
	} `json:"photos"`
}

// ImageURLs collects photos[].url across tweets in order, normalized to the
// large variant. Tweets without a photos array and photos without a url are
// skipped.
func ImageURLs(tweets []json.RawMessage) []string {
	urls := make([]string, 0)
	for _, raw := range tweets {
		var view photoView
		if err := json.Unmarshal(raw, &view); err != nil {
			continue
		}
		for _, p := range view.Photos {
			if p.URL == "" {
				continue
			}
			urls = append(urls, LargeImageURL(p.URL))
		}
	}
	return urls
}

// Exporter writes export files through a storage.Manager
type Exporter struct {
	store     *storage.Manager
	overwrite bool
}

// NewExporter creates an Exporter writing into dir
func NewExporter(dir string, overwrite bool) (*Exporter, error) {
	store, err := storage.NewManager(dir)
	if err != nil {
		return nil, err
	}
	return &Exporter{store: store, overwrite: overwrite}, nil
}

// WriteTweets writes <username>_tweets.json and returns its path
func (e *Exporter) WriteTweets(username string, tweets []json.RawMessage) (string, error) {
	if tweets == nil {
		tweets = []json.RawMessage{}
	}
	return e.write(TweetsFileName(username), tweets)
}

// WriteImages writes <username>_images.json and returns its path
func (e *Exporter) WriteImages(username string, tweets []json.RawMessage) (string, error) {
	return e.write(ImagesFileName(username), ImageURLs(tweets))
}

// WriteJSON writes an arbitrary value under name
func (e *Exporter) WriteJSON(name string, v interface{}) (string, error) {
	return e.write(name, v)
}

// Dir returns the export directory
func (e *Exporter) Dir() string {
	return e.store.GetOutputDir()
}

func (e *Exporter) write(name string, v interface{}) (string, error) {
	if !e.overwrite && e.store.Exists(name) {
		return "", fmt.Errorf("%s already exists", e.store.Path(name))
	}
	return e.store.WriteJSON(name, v)
}

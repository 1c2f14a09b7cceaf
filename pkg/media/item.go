// Package media collects the photos and videos attached to tweets.
package media

import (
	"strings"

	"tweetrelay/pkg/twitter"
)

// Item is a tweet that carries at least one image or video
type Item struct {
	TweetID   string  `json:"tweetId"`
	TweetURL  string  `json:"tweetUrl"`
	Username  string  `json:"username"`
	Text      string  `json:"text"`
	Timestamp int64   `json:"timestamp"`
	Likes     int     `json:"likes"`
	Retweets  int     `json:"retweets"`
	Images    []Image `json:"images"`
	Videos    []Video `json:"videos"`
}

// Image holds the large and original variants of a photo
type Image struct {
	URL         string `json:"url"`
	URLOriginal string `json:"urlOriginal"`
}

// Video is a video URL without its query, plus the preview image
type Video struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// FromTweet extracts the media of t. The second result is false when the
// tweet has neither images nor videos.
func FromTweet(t *twitter.Tweet) (Item, bool) {
	if t == nil {
		return Item{}, false
	}

	item := Item{
		TweetID:   t.ID,
		TweetURL:  t.PermanentURL,
		Username:  t.Username,
		Text:      t.Text,
		Timestamp: t.Timestamp,
		Likes:     t.Likes,
		Retweets:  t.Retweets,
		Images:    make([]Image, 0, len(t.Photos)),
		Videos:    make([]Video, 0, len(t.Videos)),
	}

	for _, p := range t.Photos {
		if p.URL == "" {
			continue
		}
		item.Images = append(item.Images, Image{
			URL:         ImageVariant(p.URL, "large"),
			URLOriginal: ImageVariant(p.URL, "orig"),
		})
	}
	for _, v := range t.Videos {
		if v.URL == "" {
			continue
		}
		item.Videos = append(item.Videos, Video{
			URL:          StripQuery(v.URL),
			ThumbnailURL: v.Preview,
		})
	}

	return item, len(item.Images) > 0 || len(item.Videos) > 0
}

// ImageVariant asks for the named size of a photo. The small size marker is
// swapped in place; a URL with no size gets one appended.
func ImageVariant(u, name string) string {
	switch {
	case strings.Contains(u, "name=small"):
		return strings.Replace(u, "name=small", "name="+name, 1)
	case strings.Contains(u, "name="):
		return u
	case strings.Contains(u, "?"):
		return u + "&name=" + name
	default:
		return u + "?name=" + name
	}
}

// StripQuery drops everything from the first '?'
func StripQuery(u string) string {
	base, _, _ := strings.Cut(u, "?")
	return base
}

package twitter

import "time"

// Tweet is the record relayed to clients. Field names follow the JSON shape
// browser clients already consume.
type Tweet struct {
	ID               string    `json:"id"`
	ConversationID   string    `json:"conversationId,omitempty"`
	Text             string    `json:"text"`
	HTML             string    `json:"html,omitempty"`
	Username         string    `json:"username"`
	Name             string    `json:"name,omitempty"`
	UserID           string    `json:"userId,omitempty"`
	PermanentURL     string    `json:"permanentUrl"`
	Timestamp        int64     `json:"timestamp"`
	TimeParsed       time.Time `json:"timeParsed"`
	CreatedAt        string    `json:"createdAt"`
	Likes            int       `json:"likes"`
	Retweets         int       `json:"retweets"`
	Replies          int       `json:"replies"`
	Views            int       `json:"views"`
	Photos           []Photo   `json:"photos"`
	Videos           []Video   `json:"videos"`
	Hashtags         []string  `json:"hashtags"`
	URLs             []string  `json:"urls"`
	IsRetweet        bool      `json:"isRetweet"`
	IsReply          bool      `json:"isReply"`
	IsQuoted         bool      `json:"isQuoted"`
	IsPin            bool      `json:"isPin"`
	SensitiveContent bool      `json:"sensitiveContent"`
}

// Photo is an image attached to a tweet
type Photo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Video is a video attached to a tweet
type Video struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
	URL     string `json:"url"`
}

// HasMedia reports whether the tweet carries photos or videos
func (t *Tweet) HasMedia() bool {
	return len(t.Photos) > 0 || len(t.Videos) > 0
}

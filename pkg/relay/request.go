package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tweetrelay/pkg/cookies"
	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/twitter"
)

// InvalidRequestMessage is the body of every 400 response
const InvalidRequestMessage = "Invalid request parameters"

// Source selects which tweet sequence a stream relays
type Source string

const (
	SourceTweets Source = "tweets"
	SourceLiked  Source = "liked"
	SourceSearch Source = "search"
)

// FetchRequest is the JSON body accepted by the relay endpoints. Cookie
// elements are serialized cookie strings or browser cookie objects.
type FetchRequest struct {
	Username  string            `json:"username"`
	Query     string            `json:"query,omitempty"`
	Mode      string            `json:"mode,omitempty"`
	MaxTweets *int              `json:"maxTweets,omitempty"`
	Cookies   []json.RawMessage `json:"cookies"`
}

// NewFetchRequest builds a request body from serialized cookie strings.
// A max of 0 leaves the server default in place.
func NewFetchRequest(username string, max int, serialized []string) FetchRequest {
	req := FetchRequest{Username: username, Cookies: make([]json.RawMessage, 0, len(serialized))}
	if max > 0 {
		req.MaxTweets = &max
	}
	for _, c := range serialized {
		raw, _ := json.Marshal(c)
		req.Cookies = append(req.Cookies, raw)
	}
	return req
}

// Request is a validated FetchRequest
type Request struct {
	Source    Source
	Username  string
	Query     string
	Mode      twitter.SearchMode
	MaxTweets int
	Cookies   []string
}

// Target is the username or query the stream is about
func (r Request) Target() string {
	if r.Source == SourceSearch {
		return r.Query
	}
	return r.Username
}

// Prepare validates a FetchRequest for the given source. Every failure is a
// validation error whose message is InvalidRequestMessage; the reason is
// kept as the wrapped cause.
func (r *Relay) Prepare(source Source, fr FetchRequest) (Request, error) {
	req := Request{
		Source:   source,
		Username: strings.TrimPrefix(strings.TrimSpace(fr.Username), "@"),
		Query:    strings.TrimSpace(fr.Query),
	}

	var problems []error
	switch source {
	case SourceTweets, SourceLiked:
		if req.Username == "" {
			problems = append(problems, errors.New("username is required"))
		}
	case SourceSearch:
		if req.Query == "" {
			problems = append(problems, errors.New("query is required"))
		}
		mode := fr.Mode
		if mode == "" {
			mode = string(r.opts.SearchMode)
		}
		m, err := twitter.ParseSearchMode(mode)
		if err != nil {
			problems = append(problems, err)
		}
		req.Mode = m
	default:
		problems = append(problems, fmt.Errorf("unknown source %q", source))
	}

	if len(fr.Cookies) == 0 {
		problems = append(problems, errors.New("cookies must be a non-empty array"))
	} else {
		serialized, err := cookies.Normalize(fr.Cookies, r.opts.CookieOptions)
		if err != nil {
			problems = append(problems, err)
		}
		req.Cookies = serialized
	}

	switch {
	case fr.MaxTweets == nil || *fr.MaxTweets == 0:
		req.MaxTweets = r.opts.DefaultMaxTweets
	case *fr.MaxTweets < 0:
		problems = append(problems, errors.New("maxTweets cannot be negative"))
	case *fr.MaxTweets > r.opts.MaxTweetsLimit:
		req.MaxTweets = r.opts.MaxTweetsLimit
	default:
		req.MaxTweets = *fr.MaxTweets
	}

	if len(problems) > 0 {
		return Request{}, apperrors.Wrap(apperrors.ErrorTypeValidation, errors.Join(problems...), InvalidRequestMessage).WithCode(400)
	}
	return req, nil
}

func startMessage(req Request) string {
	switch req.Source {
	case SourceLiked:
		return fmt.Sprintf("Fetching liked tweets for @%s...", req.Username)
	case SourceSearch:
		return fmt.Sprintf("Searching tweets for %q...", req.Query)
	default:
		return fmt.Sprintf("Fetching tweets for @%s...", req.Username)
	}
}

// Package relay drives an external tweet sequence and forwards it as a
// stream of events.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"tweetrelay/pkg/config"
	"tweetrelay/pkg/cookies"
	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/stream"
	"tweetrelay/pkg/twitter"
)

// FallbackErrorMessage is sent when a failure carries no message of its own
const FallbackErrorMessage = "Failed to fetch tweets"

// Outcome describes how a stream ended. OutcomeEncodeFailed means an event
// could not be serialized while the client was still connected.
type Outcome string

const (
	OutcomeComplete     Outcome = "complete"
	OutcomeError        Outcome = "error"
	OutcomeCancelled    Outcome = "cancelled"
	OutcomeEncodeFailed Outcome = "encode_failed"
)

// Summary reports the result of one Stream call
type Summary struct {
	Outcome  Outcome
	Count    int
	Err      error
	Duration time.Duration
}

// Observer is notified about stream lifecycle, for metrics
type Observer interface {
	StreamStarted(source string)
	TweetRelayed(source string)
	StreamFinished(source string, outcome string, count int, duration time.Duration)
}

// Reporter forwards unexpected stream failures to an error tracker
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// Options configures a Relay
type Options struct {
	ProgressInterval int
	DefaultMaxTweets int
	MaxTweetsLimit   int
	VerifyLogin      bool
	SearchMode       twitter.SearchMode
	CookieOptions    cookies.Options
}

// OptionsFromConfig maps configuration onto relay Options
func OptionsFromConfig(cfg *config.Config) Options {
	mode, err := twitter.ParseSearchMode(cfg.Scraper.SearchMode)
	if err != nil {
		mode = twitter.SearchLatest
	}
	return Options{
		ProgressInterval: cfg.Relay.ProgressInterval,
		DefaultMaxTweets: cfg.Relay.DefaultMaxTweets,
		MaxTweetsLimit:   cfg.Relay.MaxTweetsLimit,
		VerifyLogin:      cfg.Relay.VerifyLogin,
		SearchMode:       mode,
		CookieOptions:    cookies.Options{RewriteDomain: cfg.Cookies.RewriteDomain},
	}
}

// Relay streams tweet sequences from freshly built scrapers to sinks
type Relay struct {
	factory  twitter.Factory
	opts     Options
	logger   logger.Logger
	observer Observer
	reporter Reporter
}

// New creates a Relay. Zero option values fall back to the defaults.
func New(factory twitter.Factory, opts Options, log logger.Logger) *Relay {
	defaults := OptionsFromConfig(config.DefaultConfig())
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = defaults.ProgressInterval
	}
	if opts.DefaultMaxTweets <= 0 {
		opts.DefaultMaxTweets = defaults.DefaultMaxTweets
	}
	if opts.MaxTweetsLimit < opts.DefaultMaxTweets {
		opts.MaxTweetsLimit = max(defaults.MaxTweetsLimit, opts.DefaultMaxTweets)
	}
	if opts.SearchMode == "" {
		opts.SearchMode = twitter.SearchLatest
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Relay{
		factory:  factory,
		opts:     opts,
		logger:   log,
		observer: nopObserver{},
		reporter: nopReporter{},
	}
}

// SetObserver installs a lifecycle observer
func (r *Relay) SetObserver(o Observer) {
	if o != nil {
		r.observer = o
	}
}

// SetReporter installs an error reporter
func (r *Relay) SetReporter(rep Reporter) {
	if rep != nil {
		r.reporter = rep
	}
}

// Options returns the effective options
func (r *Relay) Options() Options {
	return r.opts
}

// Stream relays one request to sink. It emits one progress event, the
// tweets with periodic progress events, then exactly one complete or error
// event. When ctx ends or sink fails the upstream sequence is cancelled and
// no terminal event is written.
func (r *Relay) Stream(ctx context.Context, req Request, sink stream.Sink) Summary {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.FromContextOr(ctx, r.logger).WithField("source", string(req.Source))

	source := string(req.Source)
	r.observer.StreamStarted(source)
	logger.LogStreamStart(log, source, req.Target(), req.MaxTweets)

	sum := r.run(ctx, req, sink, log)
	sum.Duration = time.Since(start)

	r.observer.StreamFinished(source, string(sum.Outcome), sum.Count, sum.Duration)
	logger.LogStreamEnd(log, string(sum.Outcome), sum.Count, sum.Duration, sum.Err)
	return sum
}

func (r *Relay) run(ctx context.Context, req Request, sink stream.Sink, log logger.Logger) Summary {
	scraper := r.factory()

	if err := scraper.SetCookies(ctx, req.Cookies); err != nil {
		return r.fail(ctx, req, sink, 0, err)
	}

	if r.opts.VerifyLogin {
		ok, err := scraper.IsLoggedIn(ctx)
		if err != nil {
			return r.fail(ctx, req, sink, 0, err)
		}
		if !ok {
			return r.fail(ctx, req, sink, 0, apperrors.Auth(nil, "Not authenticated. Check your cookies."))
		}
	}

	if err := sink.Send(stream.Progress("%s", startMessage(req))); err != nil {
		return r.sendFailed(ctx, req, sink, 0, err)
	}

	results := open(ctx, scraper, req)
	defer twitter.Drain(results)

	count := 0
	for count < req.MaxTweets {
		var (
			res *twitter.Result
			ok  bool
		)
		select {
		case <-ctx.Done():
			return cancelled(count, ctx.Err())
		case res, ok = <-results:
		}
		if !ok {
			break
		}

		if res.Err != nil {
			return r.fail(ctx, req, sink, count, res.Err)
		}
		if res.Tweet == nil {
			continue
		}

		raw, err := json.Marshal(res.Tweet)
		if err != nil {
			return r.encodeFailed(ctx, req, sink, count, apperrors.Wrap(apperrors.ErrorTypeParsing, err, "failed to encode tweet"))
		}
		if err := sink.Send(stream.TweetEvent(raw)); err != nil {
			return r.sendFailed(ctx, req, sink, count, err)
		}
		count++
		r.observer.TweetRelayed(string(req.Source))

		if count%r.opts.ProgressInterval == 0 {
			log.DebugWithFields("relay progress", map[string]interface{}{"count": count})
			if err := sink.Send(stream.Progress("Fetched %d tweets...", count)); err != nil {
				return r.sendFailed(ctx, req, sink, count, err)
			}
		}
	}

	if ctx.Err() != nil {
		return cancelled(count, ctx.Err())
	}
	if err := sink.Send(stream.Complete(count)); err != nil {
		return r.sendFailed(ctx, req, sink, count, err)
	}
	return Summary{Outcome: OutcomeComplete, Count: count}
}

func open(ctx context.Context, s twitter.Scraper, req Request) <-chan *twitter.Result {
	switch req.Source {
	case SourceLiked:
		return s.GetLikedTweets(ctx, req.Username, req.MaxTweets)
	case SourceSearch:
		return s.SearchTweets(ctx, req.Query, req.MaxTweets, req.Mode)
	default:
		return s.GetTweets(ctx, req.Username, req.MaxTweets)
	}
}

// fail writes the single error event. A failure caused by the client going
// away is reported as a cancellation instead.
func (r *Relay) fail(ctx context.Context, req Request, sink stream.Sink, count int, err error) Summary {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return cancelled(count, err)
	}

	r.reporter.Report(ctx, err, map[string]string{
		"source":     string(req.Source),
		"error_type": string(apperrors.TypeOf(err)),
	})

	if sendErr := sink.Send(stream.Error(ErrorMessage(err))); sendErr != nil {
		return cancelled(count, sendErr)
	}
	return Summary{Outcome: OutcomeError, Count: count, Err: err}
}

// ErrorMessage is the human readable text sent in an error event
func ErrorMessage(err error) string {
	if err == nil {
		return FallbackErrorMessage
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return FallbackErrorMessage
	}
	return msg
}

// sendFailed maps a Sink error. Encoding errors leave the client connected;
// anything else means it went away.
func (r *Relay) sendFailed(ctx context.Context, req Request, sink stream.Sink, count int, err error) Summary {
	if apperrors.Is(err, apperrors.ErrorTypeParsing) {
		return r.encodeFailed(ctx, req, sink, count, err)
	}
	return cancelled(count, err)
}

func (r *Relay) encodeFailed(ctx context.Context, req Request, sink stream.Sink, count int, err error) Summary {
	sum := r.fail(ctx, req, sink, count, err)
	if sum.Outcome == OutcomeError {
		sum.Outcome = OutcomeEncodeFailed
	}
	return sum
}

func cancelled(count int, err error) Summary {
	return Summary{Outcome: OutcomeCancelled, Count: count, Err: err}
}

type nopObserver struct{}

func (nopObserver) StreamStarted(string)                              {}
func (nopObserver) TweetRelayed(string)                               {}
func (nopObserver) StreamFinished(string, string, int, time.Duration) {}

type nopReporter struct{}

func (nopReporter) Report(context.Context, error, map[string]string) {}

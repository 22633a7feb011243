// Package daemon runs the event pipeline: two producers pull the upstream
// streams into one bounded fan-in channel, a single publisher drains it
// onto the downstream topic. Per-stream order is preserved end to end;
// interleaving between the streams is unspecified.
package daemon

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/LuciG420/bsky-dm-cli/domain"
)

// PostSource yields canonical post events from the timeline.
type PostSource interface {
	NextPost(ctx context.Context) (domain.PostEvent, error)
}

// NotificationSource yields upstream notifications.
type NotificationSource interface {
	NextNotification(ctx context.Context) (domain.Notification, error)
}

// Sink publishes one named message onto the downstream topic.
type Sink interface {
	Publish(ctx context.Context, name string, data any) error
}

const (
	DefaultCapacity       = 100
	DefaultBackoff        = 5 * time.Second
	DefaultPublishTimeout = 10 * time.Second
)

// Config tunes the pipeline. Zero values fall back to the defaults.
type Config struct {
	// Capacity bounds the fan-in channel. Producers block while it is
	// full; nothing is dropped.
	Capacity int
	// Backoff is the pause after a failed fetch.
	Backoff time.Duration
	// PublishTimeout bounds each publish call.
	PublishTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = DefaultPublishTimeout
	}
	return c
}

// Daemon owns the pipeline. All collaborators are injected.
type Daemon struct {
	posts  PostSource
	notifs NotificationSource
	sink   Sink
	logger *log.Logger
	cfg    Config

	events chan domain.PostEvent
	stats  *stats
}

func New(posts PostSource, notifs NotificationSource, sink Sink, logger *log.Logger, cfg Config) *Daemon {
	cfg = cfg.withDefaults()
	return &Daemon{
		posts:  posts,
		notifs: notifs,
		sink:   sink,
		logger: logger,
		cfg:    cfg,
		events: make(chan domain.PostEvent, cfg.Capacity),
		stats:  newStats(cfg.Capacity),
	}
}

// Run executes the pipeline until ctx is cancelled or a task fails. The
// first error cancels the remaining tasks and is the one returned; buffered
// events are still published on the way out. A context cancellation
// surfaces as ctx.Err(), which callers treat as a clean shutdown. Run is
// single-use.
func (d *Daemon) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	var producers sync.WaitGroup
	producers.Add(2)
	g.Go(func() error {
		defer producers.Done()
		p := &producer{
			stream:  streamPosts,
			fetch:   d.posts.NextPost,
			out:     d.events,
			backoff: d.cfg.Backoff,
			logger:  d.logger,
			stats:   d.stats,
		}
		return p.run(ctx)
	})
	g.Go(func() error {
		defer producers.Done()
		p := &producer{
			stream:  streamNotifications,
			fetch:   d.nextNotificationEvent,
			out:     d.events,
			backoff: d.cfg.Backoff,
			logger:  d.logger,
			stats:   d.stats,
		}
		return p.run(ctx)
	})
	go func() {
		producers.Wait()
		close(d.events)
	}()
	g.Go(func() error {
		pub := &publisher{
			sink:    d.sink,
			in:      d.events,
			timeout: d.cfg.PublishTimeout,
			logger:  d.logger,
			stats:   d.stats,
		}
		return pub.run()
	})

	return g.Wait()
}

func (d *Daemon) nextNotificationEvent(ctx context.Context) (domain.PostEvent, error) {
	n, err := d.notifs.NextNotification(ctx)
	if err != nil {
		return domain.PostEvent{}, err
	}
	return n.Normalize()
}

// Stats returns a snapshot of the pipeline counters.
func (d *Daemon) Stats() Snapshot {
	return d.stats.snapshot(len(d.events))
}

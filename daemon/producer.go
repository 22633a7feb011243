package daemon

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/LuciG420/bsky-dm-cli/domain"
)

type producerState int

const (
	stateFetching producerState = iota
	stateBackoff
)

// producer pulls events from one upstream stream and enqueues them in
// order. It alternates between two states: Fetching pulls the next event,
// Backoff waits out a failed fetch before trying again. Fetch errors never
// terminate the loop; only cancellation does.
type producer struct {
	stream  string
	fetch   func(ctx context.Context) (domain.PostEvent, error)
	out     chan<- domain.PostEvent
	backoff time.Duration
	logger  *log.Logger
	stats   *stats
}

func (p *producer) run(ctx context.Context) error {
	state := stateFetching
	for {
		switch state {
		case stateFetching:
			ev, err := p.fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, domain.ErrNotPost) {
					p.stats.markDropped(p.stream)
					p.logger.WithField("stream", p.stream).Debug("skipping item without post content")
					continue
				}
				p.stats.markStreamError(p.stream)
				p.logger.WithError(err).WithField("stream", p.stream).Errorf("stream fetch failed, retrying in %s", p.backoff)
				state = stateBackoff
				continue
			}
			select {
			case p.out <- ev:
				p.stats.markIngested(p.stream)
				queueDepth.Set(float64(len(p.out)))
			case <-ctx.Done():
				return ctx.Err()
			}
		case stateBackoff:
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			state = stateFetching
		}
	}
}

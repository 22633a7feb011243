package daemon

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/LuciG420/bsky-dm-cli/domain"
)

// publisher drains the fan-in channel and publishes every event onto the
// sink, one at a time. A publish failure is terminal: the failed event is
// neither retried nor skipped.
type publisher struct {
	sink    Sink
	in      <-chan domain.PostEvent
	timeout time.Duration
	logger  *log.Logger
	stats   *stats
}

// run consumes until the channel is closed and drained. It does not watch
// pipeline cancellation, so buffered events still go out during shutdown;
// each publish carries its own timeout instead.
func (p *publisher) run() error {
	tracer := otel.Tracer("daemon")
	for ev := range p.in {
		queueDepth.Set(float64(len(p.in)))

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		ctx, span := tracer.Start(ctx, "daemon.publish", trace.WithAttributes(
			attribute.String("bsky.did", ev.DID),
		))
		err := p.sink.Publish(ctx, domain.EventTypePost, ev.Message())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			span.End()
			cancel()
			p.stats.markPublishFailed()
			p.logger.WithError(err).Error("failed to publish event")
			return err
		}
		span.SetStatus(codes.Ok, "")
		span.End()
		cancel()
		p.stats.markPublished()
		p.logger.Infof("Published post event from %s", ev.DID)
	}
	return nil
}

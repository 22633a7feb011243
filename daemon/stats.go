package daemon

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	streamPosts         = "posts"
	streamNotifications = "notifications"
)

var (
	ingestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Name:      "events_ingested_total",
		Help:      "Events accepted into the fan-in channel, by upstream stream",
	}, []string{"stream"})
	droppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Name:      "events_dropped_total",
		Help:      "Upstream items skipped because they carry no post content",
	}, []string{"stream"})
	streamErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Name:      "stream_errors_total",
		Help:      "Fetch failures by upstream stream",
	}, []string{"stream"})
	publishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bridge",
		Name:      "events_published_total",
		Help:      "Events published to the topic",
	})
	publishFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bridge",
		Name:      "publish_failures_total",
		Help:      "Publish attempts that failed",
	})
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridge",
		Name:      "queue_depth",
		Help:      "Events buffered in the fan-in channel",
	})
)

func init() {
	prometheus.MustRegister(
		ingestedTotal, droppedTotal, streamErrorsTotal,
		publishedTotal, publishFailuresTotal, queueDepth,
	)
}

type stats struct {
	runID     string
	startedAt time.Time
	capacity  int

	postsIngested  atomic.Int64
	notifsIngested atomic.Int64
	dropped        atomic.Int64
	streamErrors   atomic.Int64
	published      atomic.Int64
	publishFailed  atomic.Int64
}

func newStats(capacity int) *stats {
	return &stats{
		runID:     uuid.NewString(),
		startedAt: time.Now().UTC(),
		capacity:  capacity,
	}
}

func (s *stats) markIngested(stream string) {
	if stream == streamPosts {
		s.postsIngested.Add(1)
	} else {
		s.notifsIngested.Add(1)
	}
	ingestedTotal.WithLabelValues(stream).Inc()
}

func (s *stats) markDropped(stream string) {
	s.dropped.Add(1)
	droppedTotal.WithLabelValues(stream).Inc()
}

func (s *stats) markStreamError(stream string) {
	s.streamErrors.Add(1)
	streamErrorsTotal.WithLabelValues(stream).Inc()
}

func (s *stats) markPublished() {
	s.published.Add(1)
	publishedTotal.Inc()
}

func (s *stats) markPublishFailed() {
	s.publishFailed.Add(1)
	publishFailuresTotal.Inc()
}

// Snapshot is the pipeline state served on /stats.
type Snapshot struct {
	RunID                 string    `json:"runId"`
	StartedAt             time.Time `json:"startedAt"`
	PostsIngested         int64     `json:"postsIngested"`
	NotificationsIngested int64     `json:"notificationsIngested"`
	DroppedNotifications  int64     `json:"droppedNotifications"`
	StreamErrors          int64     `json:"streamErrors"`
	Published             int64     `json:"published"`
	PublishFailures       int64     `json:"publishFailures"`
	QueueDepth            int       `json:"queueDepth"`
	QueueCapacity         int       `json:"queueCapacity"`
	PublishRate           float64   `json:"publishRatePerSecond"`
}

func (s *stats) snapshot(depth int) Snapshot {
	published := s.published.Load()
	elapsed := time.Since(s.startedAt)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(published) / elapsed.Seconds()
	}
	return Snapshot{
		RunID:                 s.runID,
		StartedAt:             s.startedAt,
		PostsIngested:         s.postsIngested.Load(),
		NotificationsIngested: s.notifsIngested.Load(),
		DroppedNotifications:  s.dropped.Load(),
		StreamErrors:          s.streamErrors.Load(),
		Published:             published,
		PublishFailures:       s.publishFailed.Load(),
		QueueDepth:            depth,
		QueueCapacity:         s.capacity,
		PublishRate:           rate,
	}
}

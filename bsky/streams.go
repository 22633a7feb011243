package bsky

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/LuciG420/bsky-dm-cli/domain"
)

// DefaultPollInterval is how long a stream waits between empty polls.
const DefaultPollInterval = 3 * time.Second

const pollPageLimit = 50

// PostStream yields timeline posts as they appear. It polls getTimeline
// and keeps an in-memory high-water mark over indexedAt; the first poll
// only positions the stream instead of replaying the existing feed.
// Not safe for concurrent use; each stream belongs to one reader.
type PostStream struct {
	client   *Client
	interval time.Duration

	mark    string
	seeded  bool
	pending []domain.PostEvent
}

func NewPostStream(client *Client, interval time.Duration) *PostStream {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PostStream{client: client, interval: interval}
}

// NextPost blocks until a new post is available or ctx ends. Poll errors
// surface to the caller; the stream position is untouched, so the same
// items are picked up on the next call.
func (s *PostStream) NextPost(ctx context.Context) (domain.PostEvent, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		batch, err := s.poll(ctx)
		if err != nil {
			return domain.PostEvent{}, err
		}
		if len(batch) > 0 {
			s.pending = batch
			continue
		}
		select {
		case <-time.After(s.interval):
		case <-ctx.Done():
			return domain.PostEvent{}, ctx.Err()
		}
	}
}

func (s *PostStream) poll(ctx context.Context) ([]domain.PostEvent, error) {
	params := url.Values{"limit": {strconv.Itoa(pollPageLimit)}}
	var resp timelineResponse
	if err := s.client.getAuthed(ctx, "app.bsky.feed.getTimeline", params, &resp); err != nil {
		return nil, err
	}

	// Reposts resurface old posts at the top of the feed and would confuse
	// the mark, so they never count as new.
	fresh := make([]feedItem, 0, len(resp.Feed))
	for _, item := range resp.Feed {
		if item.Reason != nil {
			continue
		}
		if !s.seeded || item.Post.IndexedAt > s.mark {
			fresh = append(fresh, item)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Post.IndexedAt < fresh[j].Post.IndexedAt })

	if !s.seeded {
		s.seeded = true
		if n := len(fresh); n > 0 {
			s.mark = fresh[n-1].Post.IndexedAt
		}
		return nil, nil
	}

	events := make([]domain.PostEvent, 0, len(fresh))
	for _, item := range fresh {
		events = append(events, domain.PostEvent{
			DID:       item.Post.Author.DID,
			Text:      item.Post.Record.Text,
			CreatedAt: item.Post.Record.CreatedAt,
		})
		if item.Post.IndexedAt > s.mark {
			s.mark = item.Post.IndexedAt
		}
	}
	return events, nil
}

// NotificationStream yields notifications as they arrive, with the same
// polling and positioning behavior as PostStream.
type NotificationStream struct {
	client   *Client
	interval time.Duration

	mark    string
	seeded  bool
	pending []domain.Notification
}

func NewNotificationStream(client *Client, interval time.Duration) *NotificationStream {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &NotificationStream{client: client, interval: interval}
}

// NextNotification blocks until a new notification is available or ctx
// ends.
func (s *NotificationStream) NextNotification(ctx context.Context) (domain.Notification, error) {
	for {
		if len(s.pending) > 0 {
			n := s.pending[0]
			s.pending = s.pending[1:]
			return n, nil
		}
		batch, err := s.poll(ctx)
		if err != nil {
			return domain.Notification{}, err
		}
		if len(batch) > 0 {
			s.pending = batch
			continue
		}
		select {
		case <-time.After(s.interval):
		case <-ctx.Done():
			return domain.Notification{}, ctx.Err()
		}
	}
}

func (s *NotificationStream) poll(ctx context.Context) ([]domain.Notification, error) {
	params := url.Values{"limit": {strconv.Itoa(pollPageLimit)}}
	var resp notificationsResponse
	if err := s.client.getAuthed(ctx, "app.bsky.notification.listNotifications", params, &resp); err != nil {
		return nil, err
	}

	fresh := make([]NotificationView, 0, len(resp.Notifications))
	for _, n := range resp.Notifications {
		if !s.seeded || n.IndexedAt > s.mark {
			fresh = append(fresh, n)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].IndexedAt < fresh[j].IndexedAt })

	if !s.seeded {
		s.seeded = true
		if n := len(fresh); n > 0 {
			s.mark = fresh[n-1].IndexedAt
		}
		return nil, nil
	}

	out := make([]domain.Notification, 0, len(fresh))
	for _, n := range fresh {
		out = append(out, domain.Notification{
			DID:       n.Author.DID,
			Reason:    n.Reason,
			Text:      n.Record.Text,
			CreatedAt: n.Record.CreatedAt,
		})
		if n.IndexedAt > s.mark {
			s.mark = n.IndexedAt
		}
	}
	return out, nil
}

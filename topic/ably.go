package topic

import (
	"context"
	"fmt"

	"github.com/ably/ably-go/ably"
)

// Channel is the fixed topic every canonical post event goes to. Consumers
// key on it, so it is not configurable.
const Channel = "bsky-events"

// AblyTopic publishes messages onto one Ably channel over REST.
type AblyTopic struct {
	channel *ably.RESTChannel
}

// NewAbly constructs the REST client from the API key and binds the fixed
// channel. A rejected key surfaces here, before the pipeline starts.
func NewAbly(apiKey string) (*AblyTopic, error) {
	client, err := ably.NewREST(ably.WithKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ably client: %w", err)
	}
	return &AblyTopic{channel: client.Channels.Get(Channel)}, nil
}

// Publish sends one named message. One attempt, no batching.
func (t *AblyTopic) Publish(ctx context.Context, name string, data any) error {
	return t.channel.Publish(ctx, name, data)
}

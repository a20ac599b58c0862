package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	ChannelAll        = "skims:all"
	channelPoolPrefix = "skims:pool:"
	channelKindPrefix = "skims:kind:"
)

// Publisher fans skim events out over Redis pub/sub.
type Publisher struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPublisher(client *redis.Client) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Publisher{client: client, logger: logrus.New()}, nil
}

// WithLogger sets a custom logger
func (p *Publisher) WithLogger(logger *logrus.Logger) *Publisher {
	if logger != nil {
		p.logger = logger
	}
	return p
}

func (p *Publisher) Name() string { return "redis" }

// Channels returns every channel an event is published on.
func Channels(ev *SkimEvent) []string {
	return []string{
		ChannelAll,
		channelPoolPrefix + ev.Pool,
		channelKindPrefix + ev.Kind,
	}
}

// Write publishes every event on all of its channels in one pipeline.
func (p *Publisher) Write(ctx context.Context, events []*SkimEvent) error {
	if len(events) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal skim event: %w", err)
		}
		for _, ch := range Channels(ev) {
			pipe.Publish(ctx, ch, data)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish skim events: %w", err)
	}
	return nil
}

// Subscribe delivers events from channel to handler until ctx is done.
// Patterns such as "skims:pool:*" are accepted.
func (p *Publisher) Subscribe(ctx context.Context, channel string, handler func(*SkimEvent)) error {
	pubsub := p.client.PSubscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("Subscribed to skim events")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev SkimEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.WithError(err).Warn("Dropping malformed skim event")
				continue
			}
			handler(&ev)
		}
	}
}

package messaging

import (
	"context"
	"log/slog"
	"sync"

	"pollchain/contexts/governance/poll-ledger/ports"
)

const subscriberBuffer = 128

type member struct {
	ch chan ports.EventEnvelope
}

type group struct {
	members []*member
	next    int
}

// Bus is an in-process event bus with consumer-group semantics: every group
// subscribed to a topic receives each event once, delivered to one of its
// members in turn. Slow members drop events rather than block publishers.
type Bus struct {
	mu     sync.Mutex
	topics map[string]map[string]*group
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		topics: make(map[string]map[string]*group),
		logger: logger,
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	targets := make([]*member, 0, len(b.topics[topic]))
	for _, g := range b.topics[topic] {
		if len(g.members) == 0 {
			continue
		}
		targets = append(targets, g.members[g.next%len(g.members)])
		g.next++
	}
	b.mu.Unlock()

	for _, target := range targets {
		select {
		case target.ch <- event:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"event", "bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
			)
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"groups", len(targets),
	)
	return nil
}

// Subscribe registers handler as a member of consumerGroup on topic until ctx
// is done. Handler errors are logged; the event is not redelivered.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	m := &member{ch: make(chan ports.EventEnvelope, subscriberBuffer)}

	b.mu.Lock()
	groups := b.topics[topic]
	if groups == nil {
		groups = make(map[string]*group)
		b.topics[topic] = groups
	}
	g := groups[consumerGroup]
	if g == nil {
		g = &group{}
		groups[consumerGroup] = g
	}
	g.members = append(g.members, m)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.remove(topic, consumerGroup, m)
				return
			case event := <-m.ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (b *Bus) remove(topic string, consumerGroup string, target *member) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := b.topics[topic][consumerGroup]
	if g == nil {
		return
	}
	filtered := g.members[:0]
	for _, item := range g.members {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	g.members = filtered
	if len(g.members) == 0 {
		delete(b.topics[topic], consumerGroup)
	}
}

var _ ports.EventPublisher = (*Bus)(nil)
var _ ports.EventSubscriber = (*Bus)(nil)

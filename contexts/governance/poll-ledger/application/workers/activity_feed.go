package workers

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/ports"
	"pollchain/internal/shared/events"
)

const (
	defaultActivityCG    = "poll-ledger-activity-cg"
	defaultActivityLimit = 256
)

// ActivityFeed keeps the most recent ledger events in memory for read-only
// views. Replays of an already held event id are ignored.
type ActivityFeed struct {
	Subscriber    ports.EventSubscriber
	ConsumerGroup string
	Limit         int
	Logger        *slog.Logger

	mu     sync.RWMutex
	recent []ports.EventEnvelope
	seen   map[string]struct{}
}

func (f *ActivityFeed) Start(ctx context.Context) error {
	logger := application.ResolveLogger(f.Logger)
	group := strings.TrimSpace(f.ConsumerGroup)
	if group == "" {
		group = defaultActivityCG
	}
	for _, topic := range []string{events.TypePollCreated, events.TypeCandidateRegistered, events.TypeVoteCast} {
		if err := f.Subscriber.Subscribe(ctx, topic, group, f.handle); err != nil {
			logger.Error("activity feed subscribe failed",
				"event", "ledger_activity_subscribe_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("activity feed subscriptions active",
		"event", "ledger_activity_started",
		"module", application.ModuleName,
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (f *ActivityFeed) handle(_ context.Context, event ports.EventEnvelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]struct{})
	}
	if event.EventID != "" {
		if _, ok := f.seen[event.EventID]; ok {
			return nil
		}
		f.seen[event.EventID] = struct{}{}
	}
	f.recent = append(f.recent, event)
	limit := f.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if overflow := len(f.recent) - limit; overflow > 0 {
		for _, dropped := range f.recent[:overflow] {
			delete(f.seen, dropped.EventID)
		}
		f.recent = append([]ports.EventEnvelope(nil), f.recent[overflow:]...)
	}
	return nil
}

// Recent returns up to n events, newest first. n <= 0 returns everything held.
func (f *ActivityFeed) Recent(n int) []ports.EventEnvelope {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n <= 0 || n > len(f.recent) {
		n = len(f.recent)
	}
	out := make([]ports.EventEnvelope, 0, n)
	for i := len(f.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.recent[i])
	}
	return out
}

package workers_test

import (
	"context"
	"testing"
	"time"

	"pollchain/contexts/governance/poll-ledger/adapters/memory"
	"pollchain/contexts/governance/poll-ledger/application/commands"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	"pollchain/contexts/governance/poll-ledger/application/workers"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	"pollchain/contexts/governance/poll-ledger/ports"
)

type stubSubscriber struct {
	handlers map[string]func(context.Context, ports.EventEnvelope) error
}

func (s *stubSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	if s.handlers == nil {
		s.handlers = make(map[string]func(context.Context, ports.EventEnvelope) error)
	}
	s.handlers[topic] = handler
	return nil
}

func TestTallyAuditorReportsMismatchedPolls(t *testing.T) {
	store := memory.NewStore()
	ledger := commands.LedgerUseCase{Store: store}
	for _, pollID := range []uint64{1, 2, 3} {
		if _, err := ledger.CreatePoll(context.Background(), commands.CreatePollCommand{
			PollID:    pollID,
			StartTime: 1,
			EndTime:   time.Now().Add(time.Hour).Unix(),
		}); err != nil {
			t.Fatalf("create poll %d failed: %v", pollID, err)
		}
	}
	store.SetPoll(entities.Poll{PollID: 2, StartTime: 1, EndTime: time.Now().Add(time.Hour).Unix(), TotalVotes: 9})

	auditor := workers.TallyAuditor{Tally: queries.TallyUseCase{Store: store}}
	report, err := auditor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if report.Checked != 3 {
		t.Fatalf("expected 3 polls checked, got %d", report.Checked)
	}
	if len(report.Mismatched) != 1 || report.Mismatched[0] != 2 {
		t.Fatalf("expected poll 2 mismatched, got %v", report.Mismatched)
	}
}

func TestTallyAuditorNoPolls(t *testing.T) {
	auditor := workers.TallyAuditor{Tally: queries.TallyUseCase{Store: memory.NewStore()}}
	report, err := auditor.RunOnce(context.Background())
	if err != nil || report.Checked != 0 {
		t.Fatalf("expected empty report, got %+v %v", report, err)
	}
}

func TestActivityFeedKeepsNewestFirstAndDropsReplays(t *testing.T) {
	subscriber := &stubSubscriber{}
	feed := &workers.ActivityFeed{Subscriber: subscriber, Limit: 2}
	if err := feed.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(subscriber.handlers) != 3 {
		t.Fatalf("expected 3 subscriptions, got %d", len(subscriber.handlers))
	}

	handle := subscriber.handlers["vote.cast"]
	for _, id := range []string{"evt-1", "evt-2", "evt-2", "evt-3"} {
		if err := handle(context.Background(), ports.EventEnvelope{EventID: id, EventType: "vote.cast"}); err != nil {
			t.Fatalf("handle %s failed: %v", id, err)
		}
	}
	recent := feed.Recent(0)
	if len(recent) != 2 || recent[0].EventID != "evt-3" || recent[1].EventID != "evt-2" {
		t.Fatalf("unexpected recent events: %+v", recent)
	}
	if got := feed.Recent(1); len(got) != 1 || got[0].EventID != "evt-3" {
		t.Fatalf("unexpected limited events: %+v", got)
	}
}

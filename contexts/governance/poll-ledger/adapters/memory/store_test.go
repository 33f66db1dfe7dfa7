package memory

import (
	"context"
	"errors"
	"testing"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"
)

func TestCommitCreatesAndVersionsRecords(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	addr := address.Poll(7)

	if err := store.Commit(ctx, ports.ChangeSet{
		Polls: []ports.PollWrite{{Address: addr, Poll: entities.Poll{PollID: 7, StartTime: 1, EndTime: 2}}},
	}); err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	current, err := store.GetPoll(ctx, addr)
	if err != nil {
		t.Fatalf("get poll failed: %v", err)
	}
	if current.Version != 1 {
		t.Fatalf("expected version 1, got %d", current.Version)
	}

	err = store.Commit(ctx, ports.ChangeSet{
		Polls: []ports.PollWrite{{Address: addr, Poll: entities.Poll{PollID: 7}}},
	})
	if !errors.Is(err, domainerrors.ErrAddressInUse) {
		t.Fatalf("expected address in use, got %v", err)
	}
}

func TestCommitRejectsStaleVersionWithoutPartialWrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	pollAddr := address.Poll(1)
	candidateAddr := address.Candidate(1, "Pink")
	store.SetPoll(entities.Poll{PollID: 1, StartTime: 1, EndTime: 2})
	store.SetCandidate(entities.Candidate{PollID: 1, Name: "Pink"})

	err := store.Commit(ctx, ports.ChangeSet{
		Polls:      []ports.PollWrite{{Address: pollAddr, Poll: entities.Poll{PollID: 1, TotalVotes: 1}, Version: 1}},
		Candidates: []ports.CandidateWrite{{Address: candidateAddr, Candidate: entities.Candidate{PollID: 1, Name: "Pink", VoteCount: 1}, Version: 9}},
		Receipts:   []ports.ReceiptWrite{{Address: address.Receipt(1, "alice"), Receipt: entities.VoteReceipt{PollID: 1, Voter: "alice"}}},
	})
	if !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	poll, _ := store.GetPoll(ctx, pollAddr)
	if poll.Poll.TotalVotes != 0 || poll.Version != 1 {
		t.Fatalf("expected untouched poll, got %+v", poll)
	}
	voted, _ := store.HasReceipt(ctx, address.Receipt(1, "alice"))
	if voted {
		t.Fatal("expected no receipt after failed commit")
	}
}

func TestListCandidatesScopesByPoll(t *testing.T) {
	store := NewStore()
	store.SetCandidate(entities.Candidate{PollID: 1, Name: "Pink"})
	store.SetCandidate(entities.Candidate{PollID: 1, Name: "Blue"})
	store.SetCandidate(entities.Candidate{PollID: 2, Name: "Pink"})

	items, err := store.ListCandidates(context.Background(), 1)
	if err != nil {
		t.Fatalf("list candidates failed: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Blue" || items[1].Name != "Pink" {
		t.Fatalf("unexpected candidates: %+v", items)
	}
}

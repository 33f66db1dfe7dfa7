package queries

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"
)

// TallyUseCase serves read-only ledger views. Nothing here writes.
type TallyUseCase struct {
	Store  ports.RecordStore
	Logger *slog.Logger
}

// CountPollVotes reconciles a poll against its candidates. A mismatch between
// the stored total and the candidate sum, or between candidate_count and the
// number of candidate records, fails with ErrTallyMismatch and is never
// repaired here.
func (uc TallyUseCase) CountPollVotes(ctx context.Context, pollID uint64) (entities.Tally, error) {
	logger := application.ResolveLogger(uc.Logger)
	current, err := uc.Store.GetPoll(ctx, address.Poll(pollID))
	if err != nil {
		return entities.Tally{}, err
	}
	poll := current.Poll
	candidates, err := uc.Store.ListCandidates(ctx, pollID)
	if err != nil {
		return entities.Tally{}, err
	}

	var sum uint64
	breakdown := make([]entities.CandidateTally, 0, len(candidates))
	for _, candidate := range candidates {
		sum += candidate.VoteCount
		breakdown = append(breakdown, entities.CandidateTally{
			Name:      candidate.Name,
			VoteCount: candidate.VoteCount,
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Name < breakdown[j].Name
	})

	if sum != poll.TotalVotes || uint64(len(candidates)) != poll.CandidateCount {
		logger.Error("poll tally mismatch",
			"event", "ledger_tally_mismatch",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", pollID,
			"stored_total_votes", poll.TotalVotes,
			"candidate_vote_sum", sum,
			"stored_candidate_count", poll.CandidateCount,
			"candidate_records", len(candidates),
		)
		return entities.Tally{}, fmt.Errorf("%w: poll %d stores %d votes over %d candidates, records sum to %d over %d",
			domainerrors.ErrTallyMismatch, pollID, poll.TotalVotes, poll.CandidateCount, sum, len(candidates))
	}

	logger.Info("poll tally reconciled",
		"event", "ledger_tally_reconciled",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", pollID,
		"total_votes", poll.TotalVotes,
		"candidate_count", poll.CandidateCount,
	)
	return entities.Tally{
		PollID:         pollID,
		Description:    poll.Description,
		CandidateCount: poll.CandidateCount,
		TotalVotes:     poll.TotalVotes,
		Candidates:     breakdown,
	}, nil
}

func (uc TallyUseCase) GetPoll(ctx context.Context, pollID uint64) (entities.Poll, error) {
	current, err := uc.Store.GetPoll(ctx, address.Poll(pollID))
	if err != nil {
		return entities.Poll{}, err
	}
	return current.Poll, nil
}

func (uc TallyUseCase) GetCandidate(ctx context.Context, pollID uint64, name string) (entities.Candidate, error) {
	current, err := uc.Store.GetCandidate(ctx, address.Candidate(pollID, name))
	if err != nil {
		return entities.Candidate{}, err
	}
	return current.Candidate, nil
}

// HasVoted reports whether voter holds a receipt for the poll. The poll must
// exist.
func (uc TallyUseCase) HasVoted(ctx context.Context, pollID uint64, voter string) (bool, error) {
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return false, domainerrors.ErrInvalidPrincipal
	}
	if _, err := uc.Store.GetPoll(ctx, address.Poll(pollID)); err != nil {
		return false, err
	}
	return uc.Store.HasReceipt(ctx, address.Receipt(pollID, voter))
}

func (uc TallyUseCase) ListPolls(ctx context.Context) ([]entities.Poll, error) {
	polls, err := uc.Store.ListPolls(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(polls, func(i, j int) bool {
		return polls[i].PollID < polls[j].PollID
	})
	return polls, nil
}

package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"
	"pollchain/internal/shared/events"
)

type CastVoteCommand struct {
	PollID        uint64
	CandidateName string
	Voter         string
	Now           time.Time
}

// CastVoteResult carries the counters as they stand after the vote landed.
type CastVoteResult struct {
	Poll      entities.Poll
	Candidate entities.Candidate
	Receipt   entities.VoteReceipt
}

// CastVote admits one vote per (poll, voter). Preconditions are checked in
// order, first failure wins: poll exists, poll open at now, candidate exists,
// no receipt yet. The receipt and both counter increments commit together.
func (uc LedgerUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now(cmd.Now)
	voter := strings.TrimSpace(cmd.Voter)
	logger.Info("vote cast processing started",
		"event", "ledger_vote_cast_started",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", cmd.PollID,
		"candidate_name", cmd.CandidateName,
		"voter", voter,
	)
	if voter == "" {
		logger.Warn("vote cast validation failed",
			"event", "ledger_vote_cast_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", cmd.PollID,
		)
		return CastVoteResult{}, domainerrors.ErrInvalidPrincipal
	}

	pollAddr := address.Poll(cmd.PollID)
	candidateAddr := address.Candidate(cmd.PollID, cmd.CandidateName)
	receiptAddr := address.Receipt(cmd.PollID, voter)
	var result CastVoteResult
	err := uc.commit(ctx, "cast_vote", func(ctx context.Context) (ports.ChangeSet, error) {
		currentPoll, err := uc.Store.GetPoll(ctx, pollAddr)
		if err != nil {
			return ports.ChangeSet{}, err
		}
		if !currentPoll.Poll.Open(now.Unix()) {
			return ports.ChangeSet{}, domainerrors.ErrPollNotActive
		}
		currentCandidate, err := uc.Store.GetCandidate(ctx, candidateAddr)
		if err != nil {
			return ports.ChangeSet{}, err
		}
		voted, err := uc.Store.HasReceipt(ctx, receiptAddr)
		if err != nil {
			return ports.ChangeSet{}, err
		}
		if voted {
			return ports.ChangeSet{}, domainerrors.ErrAlreadyVoted
		}

		poll := currentPoll.Poll
		poll.TotalVotes++
		candidate := currentCandidate.Candidate
		candidate.VoteCount++
		receipt := entities.VoteReceipt{PollID: cmd.PollID, Voter: voter, CastAt: now.Unix()}
		result = CastVoteResult{Poll: poll, Candidate: candidate, Receipt: receipt}
		return ports.ChangeSet{
			Polls:      []ports.PollWrite{{Address: pollAddr, Poll: poll, Version: currentPoll.Version}},
			Candidates: []ports.CandidateWrite{{Address: candidateAddr, Candidate: candidate, Version: currentCandidate.Version}},
			Receipts:   []ports.ReceiptWrite{{Address: receiptAddr, Receipt: receipt}},
		}, nil
	})
	if errors.Is(err, domainerrors.ErrAddressInUse) {
		err = domainerrors.ErrAlreadyVoted
	}
	if err != nil {
		logger.Warn("vote cast rejected",
			"event", "ledger_vote_cast_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", cmd.PollID,
			"candidate_name", cmd.CandidateName,
			"voter", voter,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}

	uc.publish(ctx, events.TypeVoteCast, cmd.PollID, now, map[string]any{
		"poll_id":        cmd.PollID,
		"candidate_name": result.Candidate.Name,
		"voter":          voter,
		"vote_count":     result.Candidate.VoteCount,
		"total_votes":    result.Poll.TotalVotes,
	})
	logger.Info("vote cast",
		"event", "ledger_vote_cast",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", cmd.PollID,
		"candidate_name", result.Candidate.Name,
		"voter", voter,
		"vote_count", result.Candidate.VoteCount,
		"total_votes", result.Poll.TotalVotes,
	)
	return result, nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"
	"pollchain/internal/shared/events"
)

type RegisterCandidateCommand struct {
	PollID        uint64
	CandidateName string
	Now           time.Time
}

// RegisterCandidate creates a candidate under an existing poll and bumps the
// poll's candidate counter in the same change set. Registering a name twice
// fails with ErrAlreadyExists.
func (uc LedgerUseCase) RegisterCandidate(ctx context.Context, cmd RegisterCandidateCommand) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("candidate register processing started",
		"event", "ledger_candidate_register_started",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", cmd.PollID,
		"candidate_name", cmd.CandidateName,
	)
	if err := validateCandidateName(cmd.CandidateName); err != nil {
		logger.Warn("candidate register validation failed",
			"event", "ledger_candidate_register_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", cmd.PollID,
			"error", err.Error(),
		)
		return entities.Candidate{}, err
	}

	candidate := entities.Candidate{PollID: cmd.PollID, Name: cmd.CandidateName}
	pollAddr := address.Poll(cmd.PollID)
	candidateAddr := address.Candidate(cmd.PollID, cmd.CandidateName)
	var candidateCount uint64
	err := uc.commit(ctx, "register_candidate", func(ctx context.Context) (ports.ChangeSet, error) {
		current, err := uc.Store.GetPoll(ctx, pollAddr)
		if err != nil {
			return ports.ChangeSet{}, err
		}
		if _, err := uc.Store.GetCandidate(ctx, candidateAddr); err == nil {
			return ports.ChangeSet{}, domainerrors.ErrAlreadyExists
		} else if !errors.Is(err, domainerrors.ErrCandidateNotFound) {
			return ports.ChangeSet{}, err
		}
		poll := current.Poll
		poll.CandidateCount++
		candidateCount = poll.CandidateCount
		return ports.ChangeSet{
			Polls:      []ports.PollWrite{{Address: pollAddr, Poll: poll, Version: current.Version}},
			Candidates: []ports.CandidateWrite{{Address: candidateAddr, Candidate: candidate}},
		}, nil
	})
	if errors.Is(err, domainerrors.ErrAddressInUse) {
		err = domainerrors.ErrAlreadyExists
	}
	if err != nil {
		logger.Warn("candidate register rejected",
			"event", "ledger_candidate_register_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", cmd.PollID,
			"candidate_name", cmd.CandidateName,
			"error", err.Error(),
		)
		return entities.Candidate{}, err
	}

	uc.publish(ctx, events.TypeCandidateRegistered, cmd.PollID, uc.now(cmd.Now), map[string]any{
		"poll_id":         cmd.PollID,
		"candidate_name":  candidate.Name,
		"candidate_count": candidateCount,
	})
	logger.Info("candidate registered",
		"event", "ledger_candidate_registered",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", cmd.PollID,
		"candidate_name", candidate.Name,
		"candidate_count", candidateCount,
	)
	return candidate, nil
}

func validateCandidateName(name string) error {
	if name == "" {
		return domainerrors.ErrInvalidCandidateName
	}
	if len(name) > entities.MaxCandidateNameLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", domainerrors.ErrNameTooLong, len(name), entities.MaxCandidateNameLength)
	}
	return nil
}

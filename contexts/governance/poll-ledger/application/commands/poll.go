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

type CreatePollCommand struct {
	PollID      uint64
	Description string
	StartTime   int64
	EndTime     int64
	// Now overrides the use case clock, e.g. with a block time.
	Now time.Time
}

// CreatePoll validates the time window and creates the poll with zeroed
// counters. start_time is stored as caller metadata and is not compared with
// now.
func (uc LedgerUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now(cmd.Now)
	logger.Info("poll create processing started",
		"event", "ledger_poll_create_started",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", cmd.PollID,
		"start_time", cmd.StartTime,
		"end_time", cmd.EndTime,
	)

	if err := validatePollWindow(cmd, now.Unix()); err != nil {
		logger.Warn("poll create validation failed",
			"event", "ledger_poll_create_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", cmd.PollID,
			"error", err.Error(),
		)
		return entities.Poll{}, err
	}

	poll := entities.Poll{
		PollID:      cmd.PollID,
		Description: cmd.Description,
		StartTime:   cmd.StartTime,
		EndTime:     cmd.EndTime,
	}
	addr := address.Poll(cmd.PollID)
	err := uc.commit(ctx, "create_poll", func(ctx context.Context) (ports.ChangeSet, error) {
		if _, err := uc.Store.GetPoll(ctx, addr); err == nil {
			return ports.ChangeSet{}, domainerrors.ErrAlreadyExists
		} else if !errors.Is(err, domainerrors.ErrPollNotFound) {
			return ports.ChangeSet{}, err
		}
		return ports.ChangeSet{
			Polls: []ports.PollWrite{{Address: addr, Poll: poll}},
		}, nil
	})
	if errors.Is(err, domainerrors.ErrAddressInUse) {
		err = domainerrors.ErrAlreadyExists
	}
	if err != nil {
		logger.Warn("poll create rejected",
			"event", "ledger_poll_create_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"poll_id", cmd.PollID,
			"error", err.Error(),
		)
		return entities.Poll{}, err
	}

	uc.publish(ctx, events.TypePollCreated, poll.PollID, now, map[string]any{
		"poll_id":     poll.PollID,
		"description": poll.Description,
		"start_time":  poll.StartTime,
		"end_time":    poll.EndTime,
	})
	logger.Info("poll created",
		"event", "ledger_poll_created",
		"module", application.ModuleName,
		"layer", "application",
		"poll_id", poll.PollID,
		"address", addr.Hex(),
	)
	return poll, nil
}

func validatePollWindow(cmd CreatePollCommand, now int64) error {
	if len(cmd.Description) > entities.MaxDescriptionLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", domainerrors.ErrDescriptionTooLong, len(cmd.Description), entities.MaxDescriptionLength)
	}
	if cmd.StartTime <= 0 || cmd.EndTime <= 0 {
		return domainerrors.ErrInvalidTimestamp
	}
	if cmd.EndTime <= now {
		return domainerrors.ErrInvalidEndTime
	}
	if cmd.EndTime <= cmd.StartTime {
		return fmt.Errorf("%w: end time must follow start time", domainerrors.ErrInvalidEndTime)
	}
	return nil
}

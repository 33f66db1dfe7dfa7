package commands

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	application "pollchain/contexts/governance/poll-ledger/application"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"
)

const defaultCommitAttempts = 5

// LedgerUseCase owns every mutating ledger operation. Each operation runs as
// read -> validate -> compare-and-swap commit; only version conflicts are
// retried, and each retry re-reads and re-validates from scratch.
type LedgerUseCase struct {
	Store          ports.RecordStore
	Events         ports.EventPublisher
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	CommitAttempts int
	SourceService  string
	Logger         *slog.Logger
}

type attemptFunc func(ctx context.Context) (ports.ChangeSet, error)

func (uc LedgerUseCase) commit(ctx context.Context, operation string, attempt attemptFunc) error {
	logger := application.ResolveLogger(uc.Logger)
	limit := uc.CommitAttempts
	if limit <= 0 {
		limit = defaultCommitAttempts
	}
	for i := 1; i <= limit; i++ {
		changes, err := attempt(ctx)
		if err != nil {
			return err
		}
		err = uc.Store.Commit(ctx, changes)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainerrors.ErrVersionConflict) {
			return err
		}
		logger.Warn("ledger commit lost version race",
			"event", "ledger_commit_version_conflict",
			"module", application.ModuleName,
			"layer", "application",
			"operation", operation,
			"attempt", i,
		)
	}
	logger.Error("ledger commit retries exhausted",
		"event", "ledger_commit_contention",
		"module", application.ModuleName,
		"layer", "application",
		"operation", operation,
		"attempts", limit,
	)
	return domainerrors.ErrContention
}

func (uc LedgerUseCase) now(override time.Time) time.Time {
	if !override.IsZero() {
		return override.UTC()
	}
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// publish emits a ledger event after its change set has committed. Publish
// failures are logged and swallowed: the ledger state is already final.
func (uc LedgerUseCase) publish(ctx context.Context, eventType string, pollID uint64, at time.Time, payload map[string]any) {
	if uc.Events == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	var eventID string
	if uc.IDGen != nil {
		id, err := uc.IDGen.NewID(ctx)
		if err != nil {
			logger.Warn("ledger event id generation failed",
				"event", "ledger_event_id_failed",
				"module", application.ModuleName,
				"layer", "application",
				"event_type", eventType,
				"error", err.Error(),
			)
			return
		}
		eventID = id
	}
	envelope := ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: uc.SourceService,
		OccurredAtUTC: at,
		PartitionKey:  strconv.FormatUint(pollID, 10),
		Payload:       payload,
	}
	if err := uc.Events.Publish(ctx, eventType, envelope); err != nil {
		logger.Warn("ledger event publish failed",
			"event", "ledger_event_publish_failed",
			"module", application.ModuleName,
			"layer", "application",
			"event_type", eventType,
			"poll_id", pollID,
			"error", err.Error(),
		)
	}
}

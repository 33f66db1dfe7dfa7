package ports

import (
	"context"
	"time"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	"pollchain/internal/shared/events"
)

// VersionedPoll is a poll read together with the version it was stored at.
type VersionedPoll struct {
	Poll    entities.Poll
	Version uint64
}

type VersionedCandidate struct {
	Candidate entities.Candidate
	Version   uint64
}

// PollWrite stores Poll at Address. Version is the version the write was
// computed from: 0 creates the record and fails with ErrAddressInUse when the
// address is taken; any other value must match the stored version or the
// commit fails with ErrVersionConflict.
type PollWrite struct {
	Address address.Address
	Poll    entities.Poll
	Version uint64
}

type CandidateWrite struct {
	Address   address.Address
	Candidate entities.Candidate
	Version   uint64
}

// ReceiptWrite always creates; an occupied address fails with ErrAddressInUse.
type ReceiptWrite struct {
	Address address.Address
	Receipt entities.VoteReceipt
}

// ChangeSet is the unit of atomic commit. Either every write lands or none.
type ChangeSet struct {
	Polls      []PollWrite
	Candidates []CandidateWrite
	Receipts   []ReceiptWrite
}

// RecordStore is the content-addressed store backing the ledger. Lookups
// recompute addresses from keys; ListCandidates and ListPolls scan by the
// shared poll id column and exist for reconciliation only.
type RecordStore interface {
	GetPoll(ctx context.Context, addr address.Address) (VersionedPoll, error)
	GetCandidate(ctx context.Context, addr address.Address) (VersionedCandidate, error)
	HasReceipt(ctx context.Context, addr address.Address) (bool, error)
	ListCandidates(ctx context.Context, pollID uint64) ([]entities.Candidate, error)
	ListPolls(ctx context.Context) ([]entities.Poll, error)
	Commit(ctx context.Context, changes ChangeSet) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

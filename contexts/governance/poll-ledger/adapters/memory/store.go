package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"

	"github.com/google/uuid"
)

type pollCell struct {
	poll    entities.Poll
	version uint64
}

type candidateCell struct {
	candidate entities.Candidate
	version   uint64
}

// Store is an in-process record store. One mutex serializes commits, which
// gives every change set the all-or-nothing contract of ports.RecordStore.
type Store struct {
	mu sync.RWMutex

	polls      map[address.Address]pollCell
	candidates map[address.Address]candidateCell
	receipts   map[address.Address]entities.VoteReceipt
}

func NewStore() *Store {
	return &Store{
		polls:      make(map[address.Address]pollCell),
		candidates: make(map[address.Address]candidateCell),
		receipts:   make(map[address.Address]entities.VoteReceipt),
	}
}

// SetPoll overwrites a poll record without validation, bumping its version.
// It exists for seeding and for simulating corruption in tests.
func (s *Store) SetPoll(poll entities.Poll) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := address.Poll(poll.PollID)
	cell := s.polls[addr]
	s.polls[addr] = pollCell{poll: poll, version: cell.version + 1}
}

// SetCandidate overwrites a candidate record without validation.
func (s *Store) SetCandidate(candidate entities.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := address.Candidate(candidate.PollID, candidate.Name)
	cell := s.candidates[addr]
	s.candidates[addr] = candidateCell{candidate: candidate, version: cell.version + 1}
}

func (s *Store) GetPoll(_ context.Context, addr address.Address) (ports.VersionedPoll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cell, ok := s.polls[addr]
	if !ok {
		return ports.VersionedPoll{}, domainerrors.ErrPollNotFound
	}
	return ports.VersionedPoll{Poll: cell.poll, Version: cell.version}, nil
}

func (s *Store) GetCandidate(_ context.Context, addr address.Address) (ports.VersionedCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cell, ok := s.candidates[addr]
	if !ok {
		return ports.VersionedCandidate{}, domainerrors.ErrCandidateNotFound
	}
	return ports.VersionedCandidate{Candidate: cell.candidate, Version: cell.version}, nil
}

func (s *Store) HasReceipt(_ context.Context, addr address.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.receipts[addr]
	return ok, nil
}

func (s *Store) ListCandidates(_ context.Context, pollID uint64) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0)
	for _, cell := range s.candidates {
		if cell.candidate.PollID == pollID {
			items = append(items, cell.candidate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (s *Store) ListPolls(_ context.Context) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Poll, 0, len(s.polls))
	for _, cell := range s.polls {
		items = append(items, cell.poll)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].PollID < items[j].PollID
	})
	return items, nil
}

// Commit checks every write against the current versions before applying
// any of them.
func (s *Store) Commit(ctx context.Context, changes ports.ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, write := range changes.Polls {
		cell, exists := s.polls[write.Address]
		if err := checkVersion(exists, cell.version, write.Version); err != nil {
			return err
		}
	}
	for _, write := range changes.Candidates {
		cell, exists := s.candidates[write.Address]
		if err := checkVersion(exists, cell.version, write.Version); err != nil {
			return err
		}
	}
	for _, write := range changes.Receipts {
		if _, exists := s.receipts[write.Address]; exists {
			return domainerrors.ErrAddressInUse
		}
	}

	for _, write := range changes.Polls {
		s.polls[write.Address] = pollCell{poll: write.Poll, version: write.Version + 1}
	}
	for _, write := range changes.Candidates {
		s.candidates[write.Address] = candidateCell{candidate: write.Candidate, version: write.Version + 1}
	}
	for _, write := range changes.Receipts {
		s.receipts[write.Address] = write.Receipt
	}
	return nil
}

func checkVersion(exists bool, stored uint64, expected uint64) error {
	if expected == 0 {
		if exists {
			return domainerrors.ErrAddressInUse
		}
		return nil
	}
	if !exists || stored != expected {
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

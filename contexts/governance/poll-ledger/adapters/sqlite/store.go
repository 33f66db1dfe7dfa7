// Package sqlite provides a SQLite-backed ledger record store for single-node
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"pollchain/contexts/governance/poll-ledger/adapters/sqlite/migrations"
	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"
	"pollchain/internal/platform/sqlitemigrate"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists ledger records in SQLite. Writers take the database lock at
// BEGIN so compare-and-swap updates never interleave.
type Store struct {
	sqlDB  *sql.DB
	logger *slog.Logger
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "", logger); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, logger: logger}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) GetPoll(ctx context.Context, addr address.Address) (ports.VersionedPoll, error) {
	var (
		pollID                    int64
		candidateCount, totalVote int64
		current                   ports.VersionedPoll
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT poll_id, description, start_time, end_time, candidate_count, total_votes, version
		   FROM ledger_polls WHERE address = ?`,
		addr.Hex(),
	).Scan(&pollID, &current.Poll.Description, &current.Poll.StartTime, &current.Poll.EndTime,
		&candidateCount, &totalVote, &current.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.VersionedPoll{}, domainerrors.ErrPollNotFound
	}
	if err != nil {
		return ports.VersionedPoll{}, s.logError("ledger_sqlite_get_poll_failed", err, "address", addr.Hex())
	}
	current.Poll.PollID = uint64(pollID)
	current.Poll.CandidateCount = uint64(candidateCount)
	current.Poll.TotalVotes = uint64(totalVote)
	return current, nil
}

func (s *Store) GetCandidate(ctx context.Context, addr address.Address) (ports.VersionedCandidate, error) {
	var (
		pollID, voteCount int64
		current           ports.VersionedCandidate
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT poll_id, name, vote_count, version FROM ledger_candidates WHERE address = ?`,
		addr.Hex(),
	).Scan(&pollID, &current.Candidate.Name, &voteCount, &current.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.VersionedCandidate{}, domainerrors.ErrCandidateNotFound
	}
	if err != nil {
		return ports.VersionedCandidate{}, s.logError("ledger_sqlite_get_candidate_failed", err, "address", addr.Hex())
	}
	current.Candidate.PollID = uint64(pollID)
	current.Candidate.VoteCount = uint64(voteCount)
	return current, nil
}

func (s *Store) HasReceipt(ctx context.Context, addr address.Address) (bool, error) {
	var found int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM ledger_vote_receipts WHERE address = ?`, addr.Hex()).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.logError("ledger_sqlite_has_receipt_failed", err, "address", addr.Hex())
	}
	return true, nil
}

func (s *Store) ListCandidates(ctx context.Context, pollID uint64) ([]entities.Candidate, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, vote_count FROM ledger_candidates WHERE poll_id = ? ORDER BY name ASC`,
		int64(pollID),
	)
	if err != nil {
		return nil, s.logError("ledger_sqlite_list_candidates_failed", err, "poll_id", pollID)
	}
	defer rows.Close()

	var items []entities.Candidate
	for rows.Next() {
		var (
			name      string
			voteCount int64
		)
		if err := rows.Scan(&name, &voteCount); err != nil {
			return nil, err
		}
		items = append(items, entities.Candidate{PollID: pollID, Name: name, VoteCount: uint64(voteCount)})
	}
	return items, rows.Err()
}

func (s *Store) ListPolls(ctx context.Context) ([]entities.Poll, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT poll_id, description, start_time, end_time, candidate_count, total_votes FROM ledger_polls`,
	)
	if err != nil {
		return nil, s.logError("ledger_sqlite_list_polls_failed", err)
	}
	defer rows.Close()

	var items []entities.Poll
	for rows.Next() {
		var (
			poll                               entities.Poll
			pollID, candidateCount, totalVotes int64
		)
		if err := rows.Scan(&pollID, &poll.Description, &poll.StartTime, &poll.EndTime, &candidateCount, &totalVotes); err != nil {
			return nil, err
		}
		poll.PollID = uint64(pollID)
		poll.CandidateCount = uint64(candidateCount)
		poll.TotalVotes = uint64(totalVotes)
		items = append(items, poll)
	}
	return items, rows.Err()
}

func (s *Store) Commit(ctx context.Context, changes ports.ChangeSet) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return s.logError("ledger_sqlite_begin_failed", err)
	}
	if err := applyChanges(ctx, tx, changes); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, domainerrors.ErrAddressInUse) || errors.Is(err, domainerrors.ErrVersionConflict) {
			return err
		}
		return s.logError("ledger_sqlite_commit_failed", err,
			"poll_writes", len(changes.Polls),
			"candidate_writes", len(changes.Candidates),
			"receipt_writes", len(changes.Receipts),
		)
	}
	if err := tx.Commit(); err != nil {
		return s.logError("ledger_sqlite_commit_failed", err)
	}
	return nil
}

func applyChanges(ctx context.Context, tx *sql.Tx, changes ports.ChangeSet) error {
	for _, write := range changes.Polls {
		poll := write.Poll
		if write.Version == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ledger_polls (address, poll_id, description, start_time, end_time, candidate_count, total_votes, version)
				 VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
				write.Address.Hex(), int64(poll.PollID), poll.Description, poll.StartTime, poll.EndTime,
				int64(poll.CandidateCount), int64(poll.TotalVotes),
			); err != nil {
				return mapInsertError(err)
			}
			continue
		}
		result, err := tx.ExecContext(ctx,
			`UPDATE ledger_polls
			    SET description = ?, start_time = ?, end_time = ?, candidate_count = ?, total_votes = ?, version = version + 1
			  WHERE address = ? AND version = ?`,
			poll.Description, poll.StartTime, poll.EndTime, int64(poll.CandidateCount), int64(poll.TotalVotes),
			write.Address.Hex(), write.Version,
		)
		if err := checkSwapped(result, err); err != nil {
			return err
		}
	}
	for _, write := range changes.Candidates {
		candidate := write.Candidate
		if write.Version == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ledger_candidates (address, poll_id, name, vote_count, version) VALUES (?, ?, ?, ?, 1)`,
				write.Address.Hex(), int64(candidate.PollID), candidate.Name, int64(candidate.VoteCount),
			); err != nil {
				return mapInsertError(err)
			}
			continue
		}
		result, err := tx.ExecContext(ctx,
			`UPDATE ledger_candidates SET vote_count = ?, version = version + 1 WHERE address = ? AND version = ?`,
			int64(candidate.VoteCount), write.Address.Hex(), write.Version,
		)
		if err := checkSwapped(result, err); err != nil {
			return err
		}
	}
	for _, write := range changes.Receipts {
		receipt := write.Receipt
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_vote_receipts (address, poll_id, voter, cast_at) VALUES (?, ?, ?, ?)`,
			write.Address.Hex(), int64(receipt.PollID), receipt.Voter, receipt.CastAt,
		); err != nil {
			return mapInsertError(err)
		}
	}
	return nil
}

func checkSwapped(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func mapInsertError(err error) error {
	if isConstraintViolation(err) {
		return domainerrors.ErrAddressInUse
	}
	return err
}

func isConstraintViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func (s *Store) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", application.ModuleName,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("ledger sqlite operation failed", fields...)
	return err
}

var _ ports.RecordStore = (*Store)(nil)

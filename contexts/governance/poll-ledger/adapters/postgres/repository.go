package postgresadapter

import (
	"context"
	"errors"
	"log/slog"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository stores ledger records in postgres, one row per address. Poll
// ids are kept as the bigint image of the uint64 so the full id range round
// trips.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the ledger tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&pollModel{}, &candidateModel{}, &receiptModel{}); err != nil {
		return r.logError("ledger_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, addr address.Address) (ports.VersionedPoll, error) {
	var row pollModel
	err := r.db.WithContext(ctx).Where("address = ?", addr.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.VersionedPoll{}, domainerrors.ErrPollNotFound
		}
		return ports.VersionedPoll{}, r.logError("ledger_repo_get_poll_failed", err, "address", addr.Hex())
	}
	return ports.VersionedPoll{Poll: row.toEntity(), Version: row.Version}, nil
}

func (r *Repository) GetCandidate(ctx context.Context, addr address.Address) (ports.VersionedCandidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).Where("address = ?", addr.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.VersionedCandidate{}, domainerrors.ErrCandidateNotFound
		}
		return ports.VersionedCandidate{}, r.logError("ledger_repo_get_candidate_failed", err, "address", addr.Hex())
	}
	return ports.VersionedCandidate{Candidate: row.toEntity(), Version: row.Version}, nil
}

func (r *Repository) HasReceipt(ctx context.Context, addr address.Address) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&receiptModel{}).Where("address = ?", addr.Hex()).Count(&count).Error; err != nil {
		return false, r.logError("ledger_repo_has_receipt_failed", err, "address", addr.Hex())
	}
	return count > 0, nil
}

func (r *Repository) ListCandidates(ctx context.Context, pollID uint64) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", int64(pollID)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_candidates_failed", err, "poll_id", pollID)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPolls(ctx context.Context) ([]entities.Poll, error) {
	var rows []pollModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_polls_failed", err)
	}
	items := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// Commit applies the change set in one transaction. Versioned writes are
// conditional updates; a zero-row update means another writer got there
// first.
func (r *Repository) Commit(ctx context.Context, changes ports.ChangeSet) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, write := range changes.Polls {
			row := pollModelFromEntity(write.Address, write.Poll, write.Version+1)
			if err := commitRow(tx, &row, write.Version, map[string]any{
				"description":     row.Description,
				"start_time":      row.StartTime,
				"end_time":        row.EndTime,
				"candidate_count": row.CandidateCount,
				"total_votes":     row.TotalVotes,
			}); err != nil {
				return err
			}
		}
		for _, write := range changes.Candidates {
			row := candidateModelFromEntity(write.Address, write.Candidate, write.Version+1)
			if err := commitRow(tx, &row, write.Version, map[string]any{
				"vote_count": row.VoteCount,
			}); err != nil {
				return err
			}
		}
		for _, write := range changes.Receipts {
			row := receiptModel{
				Address: write.Address.Hex(),
				PollID:  int64(write.Receipt.PollID),
				Voter:   write.Receipt.Voter,
				CastAt:  write.Receipt.CastAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrAddressInUse
				}
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, domainerrors.ErrAddressInUse) || errors.Is(err, domainerrors.ErrVersionConflict) {
		return err
	}
	return r.logError("ledger_repo_commit_failed", err,
		"poll_writes", len(changes.Polls),
		"candidate_writes", len(changes.Candidates),
		"receipt_writes", len(changes.Receipts),
	)
}

type versionedRow interface {
	rowAddress() string
}

func commitRow(tx *gorm.DB, row versionedRow, expected uint64, updates map[string]any) error {
	if expected == 0 {
		if err := tx.Create(row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAddressInUse
			}
			return err
		}
		return nil
	}
	updates["version"] = expected + 1
	result := tx.Model(row).
		Where("address = ? AND version = ?", row.rowAddress(), expected).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVersionConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", application.ModuleName,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

type pollModel struct {
	Address        string `gorm:"column:address;primaryKey;size:66"`
	PollID         int64  `gorm:"column:poll_id;uniqueIndex"`
	Description    string `gorm:"column:description;size:200"`
	StartTime      int64  `gorm:"column:start_time"`
	EndTime        int64  `gorm:"column:end_time"`
	CandidateCount int64  `gorm:"column:candidate_count"`
	TotalVotes     int64  `gorm:"column:total_votes"`
	Version        uint64 `gorm:"column:version"`
}

func (pollModel) TableName() string {
	return "ledger_polls"
}

func (m *pollModel) rowAddress() string {
	return m.Address
}

func pollModelFromEntity(addr address.Address, poll entities.Poll, version uint64) pollModel {
	return pollModel{
		Address:        addr.Hex(),
		PollID:         int64(poll.PollID),
		Description:    poll.Description,
		StartTime:      poll.StartTime,
		EndTime:        poll.EndTime,
		CandidateCount: int64(poll.CandidateCount),
		TotalVotes:     int64(poll.TotalVotes),
		Version:        version,
	}
}

func (m pollModel) toEntity() entities.Poll {
	return entities.Poll{
		PollID:         uint64(m.PollID),
		Description:    m.Description,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
		CandidateCount: uint64(m.CandidateCount),
		TotalVotes:     uint64(m.TotalVotes),
	}
}

type candidateModel struct {
	Address   string `gorm:"column:address;primaryKey;size:66"`
	PollID    int64  `gorm:"column:poll_id;index"`
	Name      string `gorm:"column:name;size:32"`
	VoteCount int64  `gorm:"column:vote_count"`
	Version   uint64 `gorm:"column:version"`
}

func (candidateModel) TableName() string {
	return "ledger_candidates"
}

func (m *candidateModel) rowAddress() string {
	return m.Address
}

func candidateModelFromEntity(addr address.Address, candidate entities.Candidate, version uint64) candidateModel {
	return candidateModel{
		Address:   addr.Hex(),
		PollID:    int64(candidate.PollID),
		Name:      candidate.Name,
		VoteCount: int64(candidate.VoteCount),
		Version:   version,
	}
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		PollID:    uint64(m.PollID),
		Name:      m.Name,
		VoteCount: uint64(m.VoteCount),
	}
}

type receiptModel struct {
	Address string `gorm:"column:address;primaryKey;size:66"`
	PollID  int64  `gorm:"column:poll_id;index"`
	Voter   string `gorm:"column:voter"`
	CastAt  int64  `gorm:"column:cast_at"`
}

func (receiptModel) TableName() string {
	return "ledger_vote_receipts"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.RecordStore = (*Repository)(nil)
var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}

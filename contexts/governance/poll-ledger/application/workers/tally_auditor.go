package workers

import (
	"context"
	"errors"
	"log/slog"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
)

// AuditReport summarizes one auditor cycle.
type AuditReport struct {
	Checked    int
	Mismatched []uint64
}

// TallyAuditor reconciles every poll on a schedule. It only reports
// mismatches; nothing is repaired.
type TallyAuditor struct {
	Tally  queries.TallyUseCase
	Logger *slog.Logger
}

// RunOnce reconciles each stored poll. Mismatches are collected and the cycle
// continues; any other failure stops the cycle.
func (a TallyAuditor) RunOnce(ctx context.Context) (AuditReport, error) {
	logger := application.ResolveLogger(a.Logger)
	logger.Info("tally audit cycle started",
		"event", "ledger_tally_audit_started",
		"module", application.ModuleName,
		"layer", "worker",
	)

	polls, err := a.Tally.ListPolls(ctx)
	if err != nil {
		logger.Error("tally audit poll listing failed",
			"event", "ledger_tally_audit_list_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return AuditReport{}, err
	}
	if len(polls) == 0 {
		logger.Debug("tally audit found no polls",
			"event", "ledger_tally_audit_noop",
			"module", application.ModuleName,
			"layer", "worker",
		)
		return AuditReport{}, nil
	}

	report := AuditReport{}
	for _, poll := range polls {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		if _, err := a.Tally.CountPollVotes(ctx, poll.PollID); err != nil {
			if errors.Is(err, domainerrors.ErrTallyMismatch) {
				report.Mismatched = append(report.Mismatched, poll.PollID)
				continue
			}
			logger.Error("tally audit reconciliation failed",
				"event", "ledger_tally_audit_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"poll_id", poll.PollID,
				"error", err.Error(),
			)
			return report, err
		}
	}

	level := slog.LevelInfo
	if len(report.Mismatched) > 0 {
		level = slog.LevelError
	}
	logger.Log(ctx, level, "tally audit cycle completed",
		"event", "ledger_tally_audit_completed",
		"module", application.ModuleName,
		"layer", "worker",
		"checked", report.Checked,
		"mismatched", len(report.Mismatched),
	)
	return report, nil
}

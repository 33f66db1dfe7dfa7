package dispatch

import (
	"context"
	"log/slog"
	"time"

	application "pollchain/contexts/governance/poll-ledger/application"
	"pollchain/contexts/governance/poll-ledger/application/commands"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "pollchain/poll-ledger/dispatch"

// Invocation is one call from the execution environment: an authenticated
// principal, the environment's current time and the instruction.
type Invocation struct {
	Principal   string
	Now         time.Time
	Instruction Instruction
}

// Result holds whichever records the operation produced.
type Result struct {
	Op        Operation
	Poll      *entities.Poll
	Candidate *entities.Candidate
	Tally     *entities.Tally
}

type Dispatcher struct {
	Ledger commands.LedgerUseCase
	Tally  queries.TallyUseCase
	Tracer trace.Tracer
	Logger *slog.Logger
}

func (d Dispatcher) tracer() trace.Tracer {
	if d.Tracer != nil {
		return d.Tracer
	}
	return otel.Tracer(tracerName)
}

// Execute validates the instruction shape and runs it.
func (d Dispatcher) Execute(ctx context.Context, inv Invocation) (Result, error) {
	in := inv.Instruction
	ctx, span := d.tracer().Start(ctx, "ledger."+string(in.Op), trace.WithAttributes(
		attribute.String("ledger.op", string(in.Op)),
		attribute.String("ledger.principal", inv.Principal),
	))
	defer span.End()

	result, err := d.execute(ctx, inv)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domainerrors.Code(err))
		application.ResolveLogger(d.Logger).Warn("instruction failed",
			"event", "ledger_instruction_failed",
			"module", application.ModuleName,
			"layer", "dispatch",
			"op", string(in.Op),
			"kind", string(domainerrors.KindOf(err)),
			"code", domainerrors.Code(err),
		)
		return Result{}, err
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (d Dispatcher) execute(ctx context.Context, inv Invocation) (Result, error) {
	in := inv.Instruction
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	switch in.Op {
	case OpCreatePoll:
		poll, err := d.Ledger.CreatePoll(ctx, commands.CreatePollCommand{
			PollID:      in.CreatePoll.PollID,
			Description: in.CreatePoll.Description,
			StartTime:   in.CreatePoll.StartTime,
			EndTime:     in.CreatePoll.EndTime,
			Now:         inv.Now,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Op: in.Op, Poll: &poll}, nil
	case OpRegisterCandidate:
		candidate, err := d.Ledger.RegisterCandidate(ctx, commands.RegisterCandidateCommand{
			PollID:        in.RegisterCandidate.PollID,
			CandidateName: in.RegisterCandidate.CandidateName,
			Now:           inv.Now,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Op: in.Op, Candidate: &candidate}, nil
	case OpCastVote:
		voted, err := d.Ledger.CastVote(ctx, commands.CastVoteCommand{
			PollID:        in.CastVote.PollID,
			CandidateName: in.CastVote.CandidateName,
			Voter:         inv.Principal,
			Now:           inv.Now,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Op: in.Op, Poll: &voted.Poll, Candidate: &voted.Candidate}, nil
	case OpCountPollVotes:
		tally, err := d.Tally.CountPollVotes(ctx, in.CountPollVotes.PollID)
		if err != nil {
			return Result{}, err
		}
		return Result{Op: in.Op, Tally: &tally}, nil
	default:
		return Result{}, domainerrors.ErrInvalidInstruction
	}
}

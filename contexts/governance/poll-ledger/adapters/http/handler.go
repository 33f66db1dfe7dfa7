package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pollchain/contexts/governance/poll-ledger/application/commands"
	"pollchain/contexts/governance/poll-ledger/application/dispatch"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	"pollchain/contexts/governance/poll-ledger/application/workers"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	"pollchain/contexts/governance/poll-ledger/ports"
	httptransport "pollchain/contexts/governance/poll-ledger/transport/http"
)

type Handler struct {
	Ledger     commands.LedgerUseCase
	Tally      queries.TallyUseCase
	Dispatcher dispatch.Dispatcher
	Activity   *workers.ActivityFeed
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (h Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (h Handler) CreatePollHandler(ctx context.Context, req httptransport.CreatePollRequest) (httptransport.PollResponse, error) {
	poll, err := h.Ledger.CreatePoll(ctx, commands.CreatePollCommand{
		PollID:      req.PollID,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return h.mapPoll(poll), nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID uint64) (httptransport.PollResponse, error) {
	poll, err := h.Tally.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return h.mapPoll(poll), nil
}

func (h Handler) ListPollsHandler(ctx context.Context) (httptransport.PollListResponse, error) {
	polls, err := h.Tally.ListPolls(ctx)
	if err != nil {
		return httptransport.PollListResponse{}, err
	}
	items := make([]httptransport.PollResponse, 0, len(polls))
	for _, poll := range polls {
		items = append(items, h.mapPoll(poll))
	}
	return httptransport.PollListResponse{Items: items}, nil
}

func (h Handler) RegisterCandidateHandler(
	ctx context.Context,
	pollID uint64,
	req httptransport.RegisterCandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Ledger.RegisterCandidate(ctx, commands.RegisterCandidateCommand{
		PollID:        pollID,
		CandidateName: req.CandidateName,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return httptransport.FromCandidate(candidate), nil
}

func (h Handler) GetCandidateHandler(ctx context.Context, pollID uint64, name string) (httptransport.CandidateResponse, error) {
	candidate, err := h.Tally.GetCandidate(ctx, pollID, name)
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return httptransport.FromCandidate(candidate), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	pollID uint64,
	voter string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Ledger.CastVote(ctx, commands.CastVoteCommand{
		PollID:        pollID,
		CandidateName: req.CandidateName,
		Voter:         voter,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		PollID:         result.Receipt.PollID,
		CandidateName:  result.Candidate.Name,
		Voter:          result.Receipt.Voter,
		CandidateVotes: result.Candidate.VoteCount,
		TotalVotes:     result.Poll.TotalVotes,
		CastAt:         result.Receipt.CastAt,
	}, nil
}

func (h Handler) TallyHandler(ctx context.Context, pollID uint64) (httptransport.TallyResponse, error) {
	tally, err := h.Tally.CountPollVotes(ctx, pollID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return httptransport.FromTally(tally), nil
}

func (h Handler) VoterStatusHandler(ctx context.Context, pollID uint64, voter string) (httptransport.VoterStatusResponse, error) {
	voted, err := h.Tally.HasVoted(ctx, pollID, voter)
	if err != nil {
		return httptransport.VoterStatusResponse{}, err
	}
	return httptransport.VoterStatusResponse{
		PollID: pollID,
		Voter:  voter,
		Voted:  voted,
	}, nil
}

// ExecuteInstructionHandler runs a raw tagged instruction on behalf of
// principal, the same path a block transaction takes.
func (h Handler) ExecuteInstructionHandler(
	ctx context.Context,
	principal string,
	raw []byte,
) (httptransport.InstructionResponse, error) {
	instruction, err := dispatch.Decode(raw)
	if err != nil {
		return httptransport.InstructionResponse{}, err
	}
	result, err := h.Dispatcher.Execute(ctx, dispatch.Invocation{
		Principal:   principal,
		Now:         h.now(),
		Instruction: instruction,
	})
	if err != nil {
		return httptransport.InstructionResponse{}, err
	}
	return httptransport.FromResult(result, h.now().Unix()), nil
}

func (h Handler) ActivityHandler(_ context.Context, limit int) (httptransport.ActivityResponse, error) {
	if h.Activity == nil {
		return httptransport.ActivityResponse{Items: []httptransport.ActivityItem{}}, nil
	}
	recent := h.Activity.Recent(limit)
	items := make([]httptransport.ActivityItem, 0, len(recent))
	for _, event := range recent {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			return httptransport.ActivityResponse{}, err
		}
		items = append(items, httptransport.ActivityItem{
			EventID:       event.EventID,
			EventType:     event.EventType,
			PartitionKey:  event.PartitionKey,
			OccurredAtUTC: event.OccurredAtUTC.UTC().Format(time.RFC3339),
			Payload:       payload,
		})
	}
	return httptransport.ActivityResponse{Items: items}, nil
}

func (h Handler) mapPoll(poll entities.Poll) httptransport.PollResponse {
	return httptransport.FromPoll(poll, h.now().Unix())
}

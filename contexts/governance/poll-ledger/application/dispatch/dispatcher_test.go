package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pollchain/contexts/governance/poll-ledger/adapters/memory"
	"pollchain/contexts/governance/poll-ledger/application/commands"
	"pollchain/contexts/governance/poll-ledger/application/dispatch"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
)

func newDispatcher() dispatch.Dispatcher {
	store := memory.NewStore()
	return dispatch.Dispatcher{
		Ledger: commands.LedgerUseCase{Store: store},
		Tally:  queries.TallyUseCase{Store: store},
	}
}

func TestDecodeRejectsMalformedInstructions(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"op":`,
		"unknown op":       `{"op":"delete_poll","count_poll_votes":{"poll_id":1}}`,
		"missing payload":  `{"op":"cast_vote"}`,
		"wrong payload":    `{"op":"cast_vote","create_poll":{"poll_id":1}}`,
		"two payloads":     `{"op":"count_poll_votes","count_poll_votes":{"poll_id":1},"cast_vote":{"poll_id":1}}`,
		"unknown field":    `{"op":"count_poll_votes","count_poll_votes":{"poll_id":1},"extra":true}`,
		"negative poll id": `{"op":"count_poll_votes","count_poll_votes":{"poll_id":-1}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := dispatch.Decode([]byte(raw)); !errors.Is(err, domainerrors.ErrInvalidInstruction) {
				t.Fatalf("expected invalid instruction, got %v", err)
			}
		})
	}
}

func TestEncodeDecodeKeepsPayload(t *testing.T) {
	raw, err := dispatch.Encode(dispatch.Instruction{
		Op:       dispatch.OpCastVote,
		CastVote: &dispatch.CastVote{PollID: 7, CandidateName: "Pink"},
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := dispatch.Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Op != dispatch.OpCastVote || decoded.CastVote == nil || decoded.CastVote.CandidateName != "Pink" {
		t.Fatalf("unexpected instruction: %+v", decoded)
	}
	if _, err := dispatch.Encode(dispatch.Instruction{Op: dispatch.OpCastVote}); !errors.Is(err, domainerrors.ErrInvalidInstruction) {
		t.Fatalf("expected encode to reject missing payload, got %v", err)
	}
}

func TestExecuteRoutesEveryOperation(t *testing.T) {
	dispatcher := newDispatcher()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	run := func(principal string, in dispatch.Instruction) (dispatch.Result, error) {
		return dispatcher.Execute(ctx, dispatch.Invocation{Principal: principal, Now: now, Instruction: in})
	}

	result, err := run("admin", dispatch.Instruction{
		Op: dispatch.OpCreatePoll,
		CreatePoll: &dispatch.CreatePoll{
			PollID:      1,
			Description: "Favorite color",
			StartTime:   now.Unix(),
			EndTime:     now.Add(time.Hour).Unix(),
		},
	})
	if err != nil || result.Poll == nil || result.Poll.PollID != 1 {
		t.Fatalf("create poll failed: %+v %v", result, err)
	}
	result, err = run("admin", dispatch.Instruction{
		Op:                dispatch.OpRegisterCandidate,
		RegisterCandidate: &dispatch.RegisterCandidate{PollID: 1, CandidateName: "Pink"},
	})
	if err != nil || result.Candidate == nil || result.Candidate.Name != "Pink" {
		t.Fatalf("register candidate failed: %+v %v", result, err)
	}
	result, err = run("voter-a", dispatch.Instruction{
		Op:       dispatch.OpCastVote,
		CastVote: &dispatch.CastVote{PollID: 1, CandidateName: "Pink"},
	})
	if err != nil || result.Poll.TotalVotes != 1 || result.Candidate.VoteCount != 1 {
		t.Fatalf("cast vote failed: %+v %v", result, err)
	}
	if _, err := run("voter-a", dispatch.Instruction{
		Op:       dispatch.OpCastVote,
		CastVote: &dispatch.CastVote{PollID: 1, CandidateName: "Pink"},
	}); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	result, err = run("", dispatch.Instruction{
		Op:             dispatch.OpCountPollVotes,
		CountPollVotes: &dispatch.CountPollVotes{PollID: 1},
	})
	if err != nil || result.Tally == nil || result.Tally.TotalVotes != 1 {
		t.Fatalf("count poll votes failed: %+v %v", result, err)
	}
}

func TestExecuteUsesInvocationTime(t *testing.T) {
	dispatcher := newDispatcher()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if _, err := dispatcher.Execute(ctx, dispatch.Invocation{Now: start, Instruction: dispatch.Instruction{
		Op:         dispatch.OpCreatePoll,
		CreatePoll: &dispatch.CreatePoll{PollID: 2, StartTime: start.Unix(), EndTime: start.Add(time.Minute).Unix()},
	}}); err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	if _, err := dispatcher.Execute(ctx, dispatch.Invocation{Now: start, Instruction: dispatch.Instruction{
		Op:                dispatch.OpRegisterCandidate,
		RegisterCandidate: &dispatch.RegisterCandidate{PollID: 2, CandidateName: "Blue"},
	}}); err != nil {
		t.Fatalf("register candidate failed: %v", err)
	}
	_, err := dispatcher.Execute(ctx, dispatch.Invocation{
		Principal: "voter-a",
		Now:       start.Add(2 * time.Minute),
		Instruction: dispatch.Instruction{
			Op:       dispatch.OpCastVote,
			CastVote: &dispatch.CastVote{PollID: 2, CandidateName: "Blue"},
		},
	})
	if !errors.Is(err, domainerrors.ErrPollNotActive) {
		t.Fatalf("expected poll not active, got %v", err)
	}
}

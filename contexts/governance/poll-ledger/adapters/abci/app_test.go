package abciadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"pollchain/contexts/governance/poll-ledger/adapters/memory"
	"pollchain/contexts/governance/poll-ledger/application/commands"
	"pollchain/contexts/governance/poll-ledger/application/dispatch"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	httptransport "pollchain/contexts/governance/poll-ledger/transport/http"

	abcitypes "github.com/cometbft/cometbft/abci/types"
)

func newTestApp() *App {
	store := memory.NewStore()
	tally := queries.TallyUseCase{Store: store}
	return &App{
		Dispatcher: dispatch.Dispatcher{
			Ledger: commands.LedgerUseCase{Store: store},
			Tally:  tally,
		},
		Tally: tally,
	}
}

func mustTx(t *testing.T, signer string, in dispatch.Instruction) []byte {
	t.Helper()
	raw, err := EncodeTx(Tx{Signer: signer, Instruction: in})
	if err != nil {
		t.Fatalf("encode tx: %v", err)
	}
	return raw
}

func finalize(t *testing.T, app *App, height int64, at time.Time, txs ...[]byte) *abcitypes.ResponseFinalizeBlock {
	t.Helper()
	resp, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{
		Height: height,
		Time:   at,
		Txs:    txs,
	})
	if err != nil {
		t.Fatalf("finalize block %d: %v", height, err)
	}
	if _, err := app.Commit(context.Background(), &abcitypes.RequestCommit{}); err != nil {
		t.Fatalf("commit block %d: %v", height, err)
	}
	return resp
}

func TestCheckTxValidatesShapeOnly(t *testing.T) {
	app := newTestApp()
	resp, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: []byte(`{"signer":"a","instruction":{"op":"nope"}}`)})
	if err != nil {
		t.Fatalf("check tx: %v", err)
	}
	if resp.Code != domainerrors.ABCICode(domainerrors.ErrInvalidInstruction) {
		t.Fatalf("expected invalid instruction code, got %d", resp.Code)
	}

	// unknown poll still passes CheckTx
	resp, err = app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: mustTx(t, "voter-a", dispatch.Instruction{
		Op:       dispatch.OpCastVote,
		CastVote: &dispatch.CastVote{PollID: 99, CandidateName: "Pink"},
	})})
	if err != nil || resp.Code != abcitypes.CodeTypeOK {
		t.Fatalf("expected ok, got %+v %v", resp, err)
	}

	resp, err = app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: mustTx(t, "", dispatch.Instruction{
		Op:       dispatch.OpCastVote,
		CastVote: &dispatch.CastVote{PollID: 99, CandidateName: "Pink"},
	})})
	if err != nil || resp.Code != domainerrors.ABCICode(domainerrors.ErrInvalidPrincipal) {
		t.Fatalf("expected invalid principal code, got %+v %v", resp, err)
	}
}

func TestFinalizeBlockRunsScenarioAtBlockTime(t *testing.T) {
	app := newTestApp()
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	first := finalize(t, app, 1, start,
		mustTx(t, "admin", dispatch.Instruction{
			Op:         dispatch.OpCreatePoll,
			CreatePoll: &dispatch.CreatePoll{PollID: 1, Description: "Favorite color", StartTime: start.Unix(), EndTime: start.Add(time.Hour).Unix()},
		}),
		mustTx(t, "admin", dispatch.Instruction{
			Op:                dispatch.OpRegisterCandidate,
			RegisterCandidate: &dispatch.RegisterCandidate{PollID: 1, CandidateName: "Pink"},
		}),
		mustTx(t, "admin", dispatch.Instruction{
			Op:                dispatch.OpRegisterCandidate,
			RegisterCandidate: &dispatch.RegisterCandidate{PollID: 1, CandidateName: "Blue"},
		}),
	)
	for i, result := range first.TxResults {
		if result.Code != abcitypes.CodeTypeOK {
			t.Fatalf("tx %d failed: %s", i, result.Log)
		}
	}

	vote := func(voter, candidate string) []byte {
		return mustTx(t, voter, dispatch.Instruction{
			Op:       dispatch.OpCastVote,
			CastVote: &dispatch.CastVote{PollID: 1, CandidateName: candidate},
		})
	}
	second := finalize(t, app, 2, start.Add(time.Minute),
		vote("voter-a", "Pink"),
		vote("voter-b", "Blue"),
		vote("voter-a", "Pink"),
		vote("voter-c", "Pink"),
	)
	wantCodes := []uint32{0, 0, domainerrors.ABCICode(domainerrors.ErrAlreadyVoted), 0}
	for i, result := range second.TxResults {
		if result.Code != wantCodes[i] {
			t.Fatalf("tx %d: expected code %d, got %d (%s)", i, wantCodes[i], result.Code, result.Log)
		}
	}
	if bytes.Equal(first.AppHash, second.AppHash) {
		t.Fatal("expected app hash to advance")
	}

	late := finalize(t, app, 3, start.Add(2*time.Hour), vote("voter-d", "Blue"))
	if late.TxResults[0].Code != domainerrors.ABCICode(domainerrors.ErrPollNotActive) {
		t.Fatalf("expected poll not active after end, got %d", late.TxResults[0].Code)
	}

	resp, err := app.Query(context.Background(), &abcitypes.RequestQuery{Path: "/tally/1"})
	if err != nil || resp.Code != abcitypes.CodeTypeOK {
		t.Fatalf("tally query failed: %+v %v", resp, err)
	}
	var tally httptransport.TallyResponse
	if err := json.Unmarshal(resp.Value, &tally); err != nil {
		t.Fatalf("decode tally: %v", err)
	}
	if tally.TotalVotes != 3 || len(tally.Candidates) != 2 || tally.Candidates[1].VoteCount != 2 {
		t.Fatalf("unexpected tally %+v", tally)
	}
	if resp.Height != 3 {
		t.Fatalf("expected query height 3, got %d", resp.Height)
	}

	info, err := app.Info(context.Background(), &abcitypes.RequestInfo{})
	if err != nil || info.LastBlockHeight != 3 || !bytes.Equal(info.LastBlockAppHash, late.AppHash) {
		t.Fatalf("unexpected info %+v %v", info, err)
	}
}

func TestAppHashIsDeterministic(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	build := func() []byte {
		app := newTestApp()
		resp := finalize(t, app, 1, at, mustTx(t, "admin", dispatch.Instruction{
			Op:         dispatch.OpCreatePoll,
			CreatePoll: &dispatch.CreatePoll{PollID: 7, StartTime: at.Unix(), EndTime: at.Add(time.Hour).Unix()},
		}))
		return resp.AppHash
	}
	if !bytes.Equal(build(), build()) {
		t.Fatal("expected identical app hashes for identical blocks")
	}
}

func TestQueryPaths(t *testing.T) {
	app := newTestApp()
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	finalize(t, app, 1, at,
		mustTx(t, "admin", dispatch.Instruction{
			Op:         dispatch.OpCreatePoll,
			CreatePoll: &dispatch.CreatePoll{PollID: 2, StartTime: at.Unix(), EndTime: at.Add(time.Hour).Unix()},
		}),
		mustTx(t, "admin", dispatch.Instruction{
			Op:                dispatch.OpRegisterCandidate,
			RegisterCandidate: &dispatch.RegisterCandidate{PollID: 2, CandidateName: "Pink"},
		}),
		mustTx(t, "voter-a", dispatch.Instruction{
			Op:       dispatch.OpCastVote,
			CastVote: &dispatch.CastVote{PollID: 2, CandidateName: "Pink"},
		}),
	)

	cases := []struct {
		path string
		code uint32
	}{
		{path: "/poll/2", code: abcitypes.CodeTypeOK},
		{path: "/candidate/2/Pink", code: abcitypes.CodeTypeOK},
		{path: "/receipt/2/voter-a", code: abcitypes.CodeTypeOK},
		{path: "/poll/3", code: domainerrors.ABCICode(domainerrors.ErrPollNotFound)},
		{path: "/candidate/2/Green", code: domainerrors.ABCICode(domainerrors.ErrCandidateNotFound)},
		{path: "/poll/abc", code: domainerrors.ABCICode(domainerrors.ErrInvalidInstruction)},
		{path: "/ballots", code: domainerrors.ABCICode(domainerrors.ErrInvalidInstruction)},
	}
	for _, tc := range cases {
		resp, err := app.Query(context.Background(), &abcitypes.RequestQuery{Path: tc.path})
		if err != nil {
			t.Fatalf("query %s: %v", tc.path, err)
		}
		if resp.Code != tc.code {
			t.Fatalf("query %s: expected code %d, got %d (%s)", tc.path, tc.code, resp.Code, resp.Log)
		}
	}

	resp, _ := app.Query(context.Background(), &abcitypes.RequestQuery{Path: "/receipt/2/voter-a"})
	var status httptransport.VoterStatusResponse
	if err := json.Unmarshal(resp.Value, &status); err != nil || !status.Voted {
		t.Fatalf("expected voted receipt, got %+v %v", status, err)
	}
	resp, _ = app.Query(context.Background(), &abcitypes.RequestQuery{Path: "/poll/2"})
	var poll httptransport.PollResponse
	if err := json.Unmarshal(resp.Value, &poll); err != nil || !poll.Open || poll.TotalVotes != 1 {
		t.Fatalf("unexpected poll view %+v %v", poll, err)
	}
}

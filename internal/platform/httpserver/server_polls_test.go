package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	pollledger "pollchain/contexts/governance/poll-ledger"
	pollhttp "pollchain/contexts/governance/poll-ledger/transport/http"
)

func newTestServer() *Server {
	return New(pollledger.NewInMemoryModule(nil, nil, nil), nil, ":0")
}

func doJSON(t *testing.T, server *Server, method string, path string, principal string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	if principal != "" {
		req.Header.Set("X-User-Id", principal)
	}
	rr := httptest.NewRecorder()
	server.http.Handler.ServeHTTP(rr, req)
	return rr
}

func seedHTTPPoll(t *testing.T, server *Server, pollID uint64, candidates ...string) {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/v1/polls", "", pollhttp.CreatePollRequest{
		PollID:      pollID,
		Description: "Favorite color",
		StartTime:   time.Now().Add(-time.Minute).Unix(),
		EndTime:     time.Now().Add(time.Hour).Unix(),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	for _, name := range candidates {
		rr := doJSON(t, server, http.MethodPost, "/v1/polls/"+strconv.FormatUint(pollID, 10)+"/candidates", "",
			pollhttp.RegisterCandidateRequest{CandidateName: name})
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201 for %s, got %d body=%s", name, rr.Code, rr.Body.String())
		}
	}
}

func TestPollVoteAndTallyFlow(t *testing.T) {
	server := newTestServer()
	seedHTTPPoll(t, server, 1, "Pink", "Blue")

	for _, vote := range []struct{ voter, candidate string }{{"voter-a", "Pink"}, {"voter-b", "Blue"}, {"voter-c", "Pink"}} {
		rr := doJSON(t, server, http.MethodPost, "/v1/polls/1/votes", vote.voter, pollhttp.CastVoteRequest{CandidateName: vote.candidate})
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, server, http.MethodPost, "/v1/polls/1/votes", "voter-a", pollhttp.CastVoteRequest{CandidateName: "Blue"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	var failure pollhttp.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &failure); err != nil || failure.Code != "already_voted" {
		t.Fatalf("expected already_voted, got %+v %v", failure, err)
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/polls/1/tally", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var tally pollhttp.TallyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &tally); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if tally.TotalVotes != 3 || len(tally.Candidates) != 2 {
		t.Fatalf("unexpected tally %+v", tally)
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/polls/1/voters/voter-b", "", nil)
	var status pollhttp.VoterStatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil || !status.Voted {
		t.Fatalf("expected voter-b to have voted, got %+v %v", status, err)
	}
}

func TestCastVoteRequiresPrincipal(t *testing.T) {
	server := newTestServer()
	seedHTTPPoll(t, server, 2, "Pink")

	rr := doJSON(t, server, http.MethodPost, "/v1/polls/2/votes", "", pollhttp.CastVoteRequest{CandidateName: "Pink"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPollErrorsMapToStatus(t *testing.T) {
	server := newTestServer()
	seedHTTPPoll(t, server, 3, "Pink")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{name: "unknown poll", method: http.MethodGet, path: "/v1/polls/99", status: http.StatusNotFound},
		{name: "bad poll id", method: http.MethodGet, path: "/v1/polls/abc", status: http.StatusBadRequest},
		{name: "unknown candidate", method: http.MethodGet, path: "/v1/polls/3/candidates/Green", status: http.StatusNotFound},
		{name: "duplicate candidate", method: http.MethodPost, path: "/v1/polls/3/candidates", body: pollhttp.RegisterCandidateRequest{CandidateName: "Pink"}, status: http.StatusConflict},
		{name: "duplicate poll", method: http.MethodPost, path: "/v1/polls", body: pollhttp.CreatePollRequest{PollID: 3, StartTime: 1, EndTime: time.Now().Add(time.Hour).Unix()}, status: http.StatusConflict},
		{name: "past end", method: http.MethodPost, path: "/v1/polls", body: pollhttp.CreatePollRequest{PollID: 4, StartTime: 1, EndTime: 2}, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, server, tc.method, tc.path, "", tc.body)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d body=%s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestExecuteInstructionUsesPrincipal(t *testing.T) {
	server := newTestServer()
	seedHTTPPoll(t, server, 5, "Pink")

	body := map[string]any{
		"op":       "cast_vote",
		"cast_vote": map[string]any{"poll_id": 5, "candidate_name": "Pink"},
	}
	rr := doJSON(t, server, http.MethodPost, "/v1/instructions", "voter-a", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp pollhttp.InstructionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if resp.Op != "cast_vote" || resp.Candidate == nil || resp.Candidate.VoteCount != 1 {
		t.Fatalf("unexpected instruction response %+v", resp)
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/instructions", "voter-a", map[string]any{"op": "cast_vote"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

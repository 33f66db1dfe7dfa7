package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	pollhttp "pollchain/contexts/governance/poll-ledger/transport/http"
)

const maxInstructionBytes = 64 << 10

func writePollError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{Code: code, Message: message})
}

func writePollDomainError(w http.ResponseWriter, err error) {
	code := domainerrors.Code(err)
	switch domainerrors.KindOf(err) {
	case domainerrors.KindValidation:
		writePollError(w, http.StatusBadRequest, code, err.Error())
	case domainerrors.KindNotFound:
		writePollError(w, http.StatusNotFound, code, err.Error())
	case domainerrors.KindConflict:
		writePollError(w, http.StatusConflict, code, err.Error())
	case domainerrors.KindTemporal:
		writePollError(w, http.StatusUnprocessableEntity, code, err.Error())
	case domainerrors.KindConsistency:
		writePollError(w, http.StatusInternalServerError, code, err.Error())
	default:
		if errors.Is(err, domainerrors.ErrContention) {
			writePollError(w, http.StatusServiceUnavailable, code, err.Error())
			return
		}
		writePollError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// Callers are pre-authenticated; the gateway forwards the principal here.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if principal == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return principal, true
}

func pathPollID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	pollID, err := strconv.ParseUint(r.PathValue("poll_id"), 10, 64)
	if err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_poll_id", "poll_id must be an unsigned integer")
		return 0, false
	}
	return pollID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

// @Summary Create a poll
// @Tags polls
// @Accept json
// @Produce json
// @Param request body pollhttp.CreatePollRequest true "poll"
// @Success 201 {object} pollhttp.PollResponse
// @Failure 400 {object} pollhttp.ErrorResponse
// @Failure 409 {object} pollhttp.ErrorResponse
// @Router /v1/polls [post]
func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req pollhttp.CreatePollRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.polls.Handler.CreatePollHandler(r.Context(), req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ListPollsHandler(r.Context())
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathPollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.GetPollHandler(r.Context(), pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Register a candidate under a poll
// @Tags polls
// @Accept json
// @Produce json
// @Param poll_id path integer true "poll id"
// @Param request body pollhttp.RegisterCandidateRequest true "candidate"
// @Success 201 {object} pollhttp.CandidateResponse
// @Failure 404 {object} pollhttp.ErrorResponse
// @Failure 409 {object} pollhttp.ErrorResponse
// @Router /v1/polls/{poll_id}/candidates [post]
func (s *Server) handleRegisterCandidate(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathPollID(w, r)
	if !ok {
		return
	}
	var req pollhttp.RegisterCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.polls.Handler.RegisterCandidateHandler(r.Context(), pollID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathPollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.GetCandidateHandler(r.Context(), pollID, r.PathValue("name"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Cast a vote
// @Tags polls
// @Accept json
// @Produce json
// @Param poll_id path integer true "poll id"
// @Param X-User-Id header string true "voter principal"
// @Param request body pollhttp.CastVoteRequest true "vote"
// @Success 201 {object} pollhttp.VoteResponse
// @Failure 404 {object} pollhttp.ErrorResponse
// @Failure 409 {object} pollhttp.ErrorResponse
// @Failure 422 {object} pollhttp.ErrorResponse
// @Router /v1/polls/{poll_id}/votes [post]
func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	pollID, ok := pathPollID(w, r)
	if !ok {
		return
	}
	var req pollhttp.CastVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.polls.Handler.CastVoteHandler(r.Context(), pollID, principal, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// @Summary Reconcile a poll tally
// @Tags polls
// @Produce json
// @Param poll_id path integer true "poll id"
// @Success 200 {object} pollhttp.TallyResponse
// @Failure 404 {object} pollhttp.ErrorResponse
// @Failure 500 {object} pollhttp.ErrorResponse
// @Router /v1/polls/{poll_id}/tally [get]
func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathPollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.TallyHandler(r.Context(), pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterStatus(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathPollID(w, r)
	if !ok {
		return
	}
	resp, err := s.polls.Handler.VoterStatusHandler(r.Context(), pollID, r.PathValue("principal"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary Execute a tagged ledger instruction
// @Tags instructions
// @Accept json
// @Produce json
// @Param X-User-Id header string true "caller principal"
// @Success 200 {object} pollhttp.InstructionResponse
// @Failure 400 {object} pollhttp.ErrorResponse
// @Router /v1/instructions [post]
func (s *Server) handleExecuteInstruction(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxInstructionBytes))
	if err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_body", "request body could not be read")
		return
	}
	resp, err := s.polls.Handler.ExecuteInstructionHandler(r.Context(), principal, raw)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writePollError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	resp, err := s.polls.Handler.ActivityHandler(r.Context(), limit)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

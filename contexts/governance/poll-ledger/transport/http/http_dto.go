package http

import "encoding/json"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollRequest struct {
	PollID      uint64 `json:"poll_id"`
	Description string `json:"description"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
}

type PollResponse struct {
	PollID         uint64 `json:"poll_id"`
	Description    string `json:"description"`
	StartTime      int64  `json:"start_time"`
	EndTime        int64  `json:"end_time"`
	CandidateCount uint64 `json:"candidate_count"`
	TotalVotes     uint64 `json:"total_votes"`
	Open           bool   `json:"open"`
}

type PollListResponse struct {
	Items []PollResponse `json:"items"`
}

type RegisterCandidateRequest struct {
	CandidateName string `json:"candidate_name"`
}

type CandidateResponse struct {
	PollID    uint64 `json:"poll_id"`
	Name      string `json:"name"`
	VoteCount uint64 `json:"vote_count"`
}

type CastVoteRequest struct {
	CandidateName string `json:"candidate_name"`
}

type VoteResponse struct {
	PollID         uint64 `json:"poll_id"`
	CandidateName  string `json:"candidate_name"`
	Voter          string `json:"voter"`
	CandidateVotes uint64 `json:"candidate_votes"`
	TotalVotes     uint64 `json:"total_votes"`
	CastAt         int64  `json:"cast_at"`
}

type CandidateTallyItem struct {
	Name      string `json:"name"`
	VoteCount uint64 `json:"vote_count"`
}

type TallyResponse struct {
	PollID         uint64               `json:"poll_id"`
	Description    string               `json:"description"`
	CandidateCount uint64               `json:"candidate_count"`
	TotalVotes     uint64               `json:"total_votes"`
	Candidates     []CandidateTallyItem `json:"candidates"`
}

type VoterStatusResponse struct {
	PollID uint64 `json:"poll_id"`
	Voter  string `json:"voter"`
	Voted  bool   `json:"voted"`
}

// InstructionResponse mirrors dispatch.Result; only the fields the
// operation produced are present.
type InstructionResponse struct {
	Op        string             `json:"op"`
	Poll      *PollResponse      `json:"poll,omitempty"`
	Candidate *CandidateResponse `json:"candidate,omitempty"`
	Tally     *TallyResponse     `json:"tally,omitempty"`
}

type ActivityItem struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	OccurredAtUTC string          `json:"occurred_at_utc"`
	Payload       json.RawMessage `json:"payload"`
}

type ActivityResponse struct {
	Items []ActivityItem `json:"items"`
}

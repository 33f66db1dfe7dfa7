// Package dispatch routes tagged ledger instructions to their use case
// through one switch. The set of operations is closed.
package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"

	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
)

type Operation string

const (
	OpCreatePoll        Operation = "create_poll"
	OpRegisterCandidate Operation = "register_candidate"
	OpCastVote          Operation = "cast_vote"
	OpCountPollVotes    Operation = "count_poll_votes"
)

type CreatePoll struct {
	PollID      uint64 `json:"poll_id"`
	Description string `json:"description"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
}

type RegisterCandidate struct {
	PollID        uint64 `json:"poll_id"`
	CandidateName string `json:"candidate_name"`
}

type CastVote struct {
	PollID        uint64 `json:"poll_id"`
	CandidateName string `json:"candidate_name"`
}

type CountPollVotes struct {
	PollID uint64 `json:"poll_id"`
}

// Instruction is a tagged variant: Op names the operation and exactly the
// matching payload field is set.
type Instruction struct {
	Op                Operation          `json:"op"`
	CreatePoll        *CreatePoll        `json:"create_poll,omitempty"`
	RegisterCandidate *RegisterCandidate `json:"register_candidate,omitempty"`
	CastVote          *CastVote          `json:"cast_vote,omitempty"`
	CountPollVotes    *CountPollVotes    `json:"count_poll_votes,omitempty"`
}

// Mutating reports whether the operation writes ledger state.
func (op Operation) Mutating() bool {
	return op != OpCountPollVotes
}

func (in Instruction) payloads() int {
	count := 0
	if in.CreatePoll != nil {
		count++
	}
	if in.RegisterCandidate != nil {
		count++
	}
	if in.CastVote != nil {
		count++
	}
	if in.CountPollVotes != nil {
		count++
	}
	return count
}

// Validate checks the variant shape only; business rules run in the use
// cases.
func (in Instruction) Validate() error {
	if in.payloads() != 1 {
		return fmt.Errorf("%w: expected exactly one payload", domainerrors.ErrInvalidInstruction)
	}
	var present bool
	switch in.Op {
	case OpCreatePoll:
		present = in.CreatePoll != nil
	case OpRegisterCandidate:
		present = in.RegisterCandidate != nil
	case OpCastVote:
		present = in.CastVote != nil
	case OpCountPollVotes:
		present = in.CountPollVotes != nil
	default:
		return fmt.Errorf("%w: unknown op %q", domainerrors.ErrInvalidInstruction, in.Op)
	}
	if !present {
		return fmt.Errorf("%w: payload does not match op %q", domainerrors.ErrInvalidInstruction, in.Op)
	}
	return nil
}

// Decode parses and validates a JSON instruction. Unknown fields are rejected.
func Decode(raw []byte) (Instruction, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	var in Instruction
	if err := decoder.Decode(&in); err != nil {
		return Instruction{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidInstruction, err)
	}
	if err := in.Validate(); err != nil {
		return Instruction{}, err
	}
	return in, nil
}

func Encode(in Instruction) ([]byte, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(in)
}

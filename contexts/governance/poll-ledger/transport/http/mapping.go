package http

import (
	"pollchain/contexts/governance/poll-ledger/application/dispatch"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
)

// FromPoll maps a poll to its wire form; Open is evaluated at now (Unix
// seconds).
func FromPoll(poll entities.Poll, now int64) PollResponse {
	return PollResponse{
		PollID:         poll.PollID,
		Description:    poll.Description,
		StartTime:      poll.StartTime,
		EndTime:        poll.EndTime,
		CandidateCount: poll.CandidateCount,
		TotalVotes:     poll.TotalVotes,
		Open:           poll.Open(now),
	}
}

func FromCandidate(candidate entities.Candidate) CandidateResponse {
	return CandidateResponse{
		PollID:    candidate.PollID,
		Name:      candidate.Name,
		VoteCount: candidate.VoteCount,
	}
}

func FromTally(tally entities.Tally) TallyResponse {
	items := make([]CandidateTallyItem, 0, len(tally.Candidates))
	for _, candidate := range tally.Candidates {
		items = append(items, CandidateTallyItem{
			Name:      candidate.Name,
			VoteCount: candidate.VoteCount,
		})
	}
	return TallyResponse{
		PollID:         tally.PollID,
		Description:    tally.Description,
		CandidateCount: tally.CandidateCount,
		TotalVotes:     tally.TotalVotes,
		Candidates:     items,
	}
}

func FromResult(result dispatch.Result, now int64) InstructionResponse {
	response := InstructionResponse{Op: string(result.Op)}
	if result.Poll != nil {
		poll := FromPoll(*result.Poll, now)
		response.Poll = &poll
	}
	if result.Candidate != nil {
		candidate := FromCandidate(*result.Candidate)
		response.Candidate = &candidate
	}
	if result.Tally != nil {
		tally := FromTally(*result.Tally)
		response.Tally = &tally
	}
	return response
}

package entities

const (
	// MaxDescriptionLength bounds Poll.Description in bytes.
	MaxDescriptionLength = 200
	// MaxCandidateNameLength bounds Candidate.Name in bytes.
	MaxCandidateNameLength = 32
)

// Poll is a single voting event with a bounded time window. StartTime and
// EndTime are Unix seconds.
type Poll struct {
	PollID         uint64
	Description    string
	StartTime      int64
	EndTime        int64
	CandidateCount uint64
	TotalVotes     uint64
}

// Open reports whether now lies inside [StartTime, EndTime].
func (p Poll) Open(now int64) bool {
	return now >= p.StartTime && now <= p.EndTime
}

type Candidate struct {
	PollID    uint64
	Name      string
	VoteCount uint64
}

// VoteReceipt records that Voter has voted in PollID. Its existence is the
// double-vote guard; it is never updated or removed.
type VoteReceipt struct {
	PollID uint64
	Voter  string
	CastAt int64
}

type CandidateTally struct {
	Name      string
	VoteCount uint64
}

// Tally is the reconciled view of a poll: TotalVotes equals the sum of the
// per-candidate counts.
type Tally struct {
	PollID         uint64
	Description    string
	CandidateCount uint64
	TotalVotes     uint64
	Candidates     []CandidateTally
}

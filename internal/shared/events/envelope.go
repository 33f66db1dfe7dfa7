package events

import "time"

// Envelope is the shared event shape published by the ledger after a change
// set commits. PartitionKey keeps events of one poll ordered on the bus.
type Envelope struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	SourceService string         `json:"source_service"`
	OccurredAtUTC time.Time      `json:"occurred_at_utc"`
	PartitionKey  string         `json:"partition_key"`
	Payload       map[string]any `json:"payload"`
}

const (
	TypePollCreated         = "poll.created"
	TypeCandidateRegistered = "candidate.registered"
	TypeVoteCast            = "vote.cast"
)

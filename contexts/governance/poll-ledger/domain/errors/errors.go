package errors

import "errors"

var (
	ErrAlreadyExists        = errors.New("record already exists")
	ErrInvalidTimestamp     = errors.New("invalid unix timestamp")
	ErrInvalidEndTime       = errors.New("poll end time must be in the future")
	ErrDescriptionTooLong   = errors.New("poll description is too long")
	ErrNameTooLong          = errors.New("candidate name is too long")
	ErrInvalidCandidateName = errors.New("candidate name is required")
	ErrInvalidPrincipal     = errors.New("voter principal is required")
	ErrInvalidInstruction   = errors.New("invalid instruction")
	ErrPollNotFound         = errors.New("poll not found")
	ErrCandidateNotFound    = errors.New("candidate not found")
	ErrPollNotActive        = errors.New("poll is not active")
	ErrAlreadyVoted         = errors.New("voter has already voted in this poll")
	ErrTallyMismatch        = errors.New("poll tally does not match candidate counts")

	// Record store contract failures. ErrVersionConflict is retried by the
	// commit loop; ErrContention is returned once retries are exhausted.
	ErrVersionConflict = errors.New("record version conflict")
	ErrAddressInUse    = errors.New("record address already in use")
	ErrContention      = errors.New("record contention, retries exhausted")
)

// Kind groups named failures by how a caller should react to them.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindNotFound    Kind = "not_found"
	KindTemporal    Kind = "temporal"
	KindConsistency Kind = "consistency"
	KindInternal    Kind = "internal"
)

type classification struct {
	err  error
	kind Kind
	code string
	abci uint32
}

// ABCI result codes start at 1; 0 is success.
var classifications = []classification{
	{ErrInvalidTimestamp, KindValidation, "invalid_timestamp", 1},
	{ErrInvalidEndTime, KindValidation, "invalid_end_time", 2},
	{ErrDescriptionTooLong, KindValidation, "description_too_long", 3},
	{ErrNameTooLong, KindValidation, "name_too_long", 4},
	{ErrInvalidCandidateName, KindValidation, "invalid_candidate_name", 5},
	{ErrInvalidPrincipal, KindValidation, "invalid_principal", 6},
	{ErrInvalidInstruction, KindValidation, "invalid_instruction", 7},
	{ErrAlreadyExists, KindConflict, "already_exists", 10},
	{ErrAlreadyVoted, KindConflict, "already_voted", 11},
	{ErrPollNotFound, KindNotFound, "poll_not_found", 20},
	{ErrCandidateNotFound, KindNotFound, "candidate_not_found", 21},
	{ErrPollNotActive, KindTemporal, "poll_not_active", 30},
	{ErrTallyMismatch, KindConsistency, "tally_mismatch", 40},
	{ErrContention, KindInternal, "contention", 50},
}

const internalABCICode uint32 = 99

func classify(err error) (classification, bool) {
	for _, item := range classifications {
		if errors.Is(err, item.err) {
			return item, true
		}
	}
	return classification{}, false
}

// KindOf reports the failure kind of err. Unknown errors are internal.
func KindOf(err error) Kind {
	if item, ok := classify(err); ok {
		return item.kind
	}
	return KindInternal
}

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	if item, ok := classify(err); ok {
		return item.code
	}
	return "internal_error"
}

// ABCICode returns the transaction result code used for err. A nil error
// maps to 0.
func ABCICode(err error) uint32 {
	if err == nil {
		return 0
	}
	if item, ok := classify(err); ok {
		return item.abci
	}
	return internalABCICode
}

package pact

import (
	"errors"
	"fmt"
)

// Kind groups errors by how a caller should react
type Kind string

const (
	// KindNotFound means the addressed record does not exist
	KindNotFound Kind = "not_found"
	// KindConflict means the record exists but its state forbids the operation
	KindConflict Kind = "conflict"
	// KindInvalid means the request itself is malformed
	KindInvalid Kind = "invalid"
)

// Error is a lifecycle failure with a stable numeric code.
// Codes 6000-6013 keep the numbering of the on-chain program.
type Error struct {
	Code    int
	Name    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

func newError(code int, name string, kind Kind, message string) *Error {
	return &Error{Code: code, Name: name, Kind: kind, Message: message}
}

var (
	ErrNotInitialized           = newError(6000, "PactNotInitialized", KindConflict, "pact is not accepting participants")
	ErrAlreadyJoined            = newError(6001, "AlreadyJoined", KindConflict, "participant already joined this pact")
	ErrNotCreator               = newError(6002, "NotPactCreator", KindConflict, "only the pact creator may do this")
	ErrNotParticipant           = newError(6003, "NotParticipant", KindConflict, "account is not a participant of this pact")
	ErrAlreadyCompleted         = newError(6005, "PactAlreadyCompleted", KindConflict, "pact is already completed")
	ErrAlreadyCancelled         = newError(6006, "PactAlreadyCancelled", KindConflict, "pact is already cancelled")
	ErrInvalidGoalType          = newError(6007, "InvalidGoalType", KindInvalid, "unknown goal type")
	ErrInvalidVerificationType  = newError(6008, "InvalidVerificationType", KindInvalid, "unknown verification type")
	ErrInvalidComparison        = newError(6009, "InvalidComparisonOperator", KindInvalid, "unknown comparison operator")
	ErrInvalidAmount            = newError(6010, "InvalidAmount", KindInvalid, "amount must be greater than zero")
	ErrAlreadyStaked            = newError(6011, "AlreadyStaked", KindConflict, "participant already staked")
	ErrNotFullyStaked           = newError(6012, "PlayerNotStaked", KindConflict, "not every participant has staked")
	ErrMissingParticipantRecord = newError(6013, "MissingParticipantRecord", KindConflict, "participant stake record is missing")
	ErrCapacityExceeded         = newError(6014, "CapacityExceeded", KindConflict, "pact is full")
	ErrInsufficientVaultBalance = newError(6015, "InsufficientVaultBalance", KindConflict, "vault cannot cover the payout")
	ErrNotActive                = newError(6016, "PactNotActive", KindConflict, "pact is not active")
	ErrStakeMismatch            = newError(6017, "StakeMismatch", KindInvalid, "amount must equal the pact stake")
	ErrWinnerEliminated         = newError(6018, "WinnerEliminated", KindConflict, "winner has been eliminated")
	ErrNoSurvivors              = newError(6019, "NoSurvivors", KindConflict, "every participant has been eliminated")
	ErrPactNotFound             = newError(6020, "PactNotFound", KindNotFound, "pact does not exist")
	ErrPactExists               = newError(6021, "PactExists", KindConflict, "a pact with this name already exists for the creator")
	ErrNameTooLong              = newError(6022, "NameTooLong", KindInvalid, "name exceeds 32 bytes")
	ErrDescriptionTooLong       = newError(6023, "DescriptionTooLong", KindInvalid, "description exceeds 32 bytes")
	ErrInvalidName              = newError(6024, "InvalidName", KindInvalid, "name is required")
	ErrInsufficientFunds        = newError(6025, "InsufficientFunds", KindConflict, "account cannot cover the stake")
	ErrInvalidAccount           = newError(6026, "InvalidAccount", KindInvalid, "account cannot be used here")
	ErrProfileExists            = newError(6027, "ProfileExists", KindConflict, "profile already exists")
	ErrProfileNotFound          = newError(6028, "ProfileNotFound", KindNotFound, "profile does not exist")
)

// AsError returns the lifecycle error carried by err, if any
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

package client

import "errors"

// Precondition failures surfaced to the UI. Every one of them is rejected
// before any backend call, so a failed action leaves the local state exactly
// as it was.
var (
	ErrNoAccount          = errors.New("no account connected")
	ErrNotRegistered      = errors.New("player not registered")
	ErrUnknownStage       = errors.New("unknown solo stage")
	ErrInsufficientLevel  = errors.New("player level too low for this stage")
	ErrInsufficientTokens = errors.New("not enough rock tokens")
	ErrInvalidRole        = errors.New("unknown instrument role")
	ErrRoleFull           = errors.New("band has no open slot for this role")
	ErrAlreadyInBand      = errors.New("player already belongs to a band")
	ErrNotInBand          = errors.New("player does not belong to a band")
	ErrBandNotFound       = errors.New("band not found")
	ErrNoOpenTournament   = errors.New("no tournament open for registration")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

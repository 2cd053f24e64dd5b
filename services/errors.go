package services

import "errors"

var (
	// ErrStackNotFound is returned when the provisioning service has no
	// stack for the given reference. On delete paths this signals that the
	// desired end-state already holds.
	ErrStackNotFound = errors.New("stack not found")

	// ErrAmbiguousStack is returned when describing a stack reference
	// yields more than one match. This is an internal-consistency failure,
	// never treated as not-found.
	ErrAmbiguousStack = errors.New("stack reference matches multiple stacks")

	// ErrRecordNotFound is returned when no use case record exists for an ID.
	ErrRecordNotFound = errors.New("use case record not found")

	// ErrConfigNotFound is returned when a config store key does not exist.
	ErrConfigNotFound = errors.New("configuration parameter not found")

	// ErrSecretNotFound is returned when a secret does not exist.
	ErrSecretNotFound = errors.New("secret not found")
)

package domain

import "fmt"

// OperationStatus is the business-level outcome of a deployment workflow.
// A failed lead-step provisioning call reports StatusFailed without an
// accompanying error; failures after infrastructure has moved report
// StatusFailed together with the error so callers can retry or alert.
type OperationStatus int

const (
	StatusSuccess OperationStatus = iota
	StatusFailed
)

func (s OperationStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func ParseOperationStatus(s string) (OperationStatus, error) {
	switch s {
	case "success":
		return StatusSuccess, nil
	case "failed":
		return StatusFailed, nil
	default:
		return StatusFailed, fmt.Errorf("invalid operation status: %q", s)
	}
}

package enums

import "fmt"

// MatchingStatus describes the lifecycle state of an owned card's
// identification run.
type MatchingStatus string

const (
	MatchingStatusPending MatchingStatus = "pending"
	MatchingStatusMatched MatchingStatus = "matched"
	MatchingStatusFailed  MatchingStatus = "failed"
)

var validMatchingStatuses = []MatchingStatus{
	MatchingStatusPending,
	MatchingStatusMatched,
	MatchingStatusFailed,
}

// String returns the literal string for the status.
func (m MatchingStatus) String() string {
	return string(m)
}

// IsValid reports whether the status is known.
func (m MatchingStatus) IsValid() bool {
	for _, candidate := range validMatchingStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends a run. Terminal cards are only
// re-processed by a fresh external trigger.
func (m MatchingStatus) IsTerminal() bool {
	return m == MatchingStatusMatched || m == MatchingStatusFailed
}

// ParseMatchingStatus converts raw input into a MatchingStatus.
func ParseMatchingStatus(value string) (MatchingStatus, error) {
	for _, candidate := range validMatchingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid matching status %q", value)
}

// Package types defines the BigQuery row shapes emitted by the matching
// worker.
package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// MatchEventRow is one matching pipeline run, terminal outcome included.
type MatchEventRow struct {
	EventID          string               `bigquery:"event_id"`
	CardID           string               `bigquery:"card_id"`
	RefCardID        cbigquery.NullString `bigquery:"ref_card_id"`
	Status           string               `bigquery:"status"`
	FailureStage     cbigquery.NullString `bigquery:"failure_stage"`
	FailureKind      cbigquery.NullString `bigquery:"failure_kind"`
	ExtractedName    cbigquery.NullString `bigquery:"extracted_name"`
	ExtractedLocalID cbigquery.NullString `bigquery:"extracted_local_id"`
	ExtractedYear    cbigquery.NullInt64  `bigquery:"extracted_year"`
	CandidateCount   int                  `bigquery:"candidate_count"`
	DurationMS       int64                `bigquery:"duration_ms"`
	OccurredAt       time.Time            `bigquery:"occurred_at"`
}

// ToNullString converts a string to a BigQuery nullable string; empty maps
// to null.
func ToNullString(value string) cbigquery.NullString {
	if value == "" {
		return cbigquery.NullString{}
	}
	return cbigquery.NullString{StringVal: value, Valid: true}
}

// ToNullInt64 converts an int to a BigQuery nullable integer; zero maps to
// null.
func ToNullInt64(value int) cbigquery.NullInt64 {
	if value == 0 {
		return cbigquery.NullInt64{}
	}
	return cbigquery.NullInt64{Int64: int64(value), Valid: true}
}

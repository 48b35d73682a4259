package domain

import (
	"fmt"
	"time"
)

// RecordType labels what stage of processing a record describes.
type RecordType string

const (
	RecordSourceItem RecordType = "source-item"
	RecordAnalysis   RecordType = "analysis"
	RecordBrief      RecordType = "brief"
)

// OutcomeStatus enumerates per-record outcomes.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusError   OutcomeStatus = "error"
	StatusSkipped OutcomeStatus = "skipped"
)

// ProcessingRecord is one append-only outcome event. Records are never
// mutated after write; multiple records may reference the same item across
// runs.
type ProcessingRecord struct {
	ID           string        `json:"id"`
	Type         RecordType    `json:"type"`
	ItemID       int           `json:"itemId"`
	Status       OutcomeStatus `json:"status"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	ProcessedAt  time.Time     `json:"processedAt"`
}

// ItemRecordID derives the record identifier for a source-item outcome.
func ItemRecordID(itemID int) string {
	return fmt.Sprintf("source-item-%d", itemID)
}

// Stats is the singleton aggregate updated by the orchestrator at the end of
// each run cycle. Counters are cumulative totals, not per-run deltas.
type Stats struct {
	LastProcessedAt time.Time `json:"lastProcessedAt"`
	TotalProcessed  int       `json:"totalProcessed"`
	TotalErrors     int       `json:"totalErrors"`
	TotalSkipped    int       `json:"totalSkipped"`
	LastMaxItemID   int       `json:"lastMaxItemId"`
	LastNewCount    int       `json:"lastNewCount"`
}

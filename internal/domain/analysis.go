package domain

import (
	"errors"
	"fmt"
	"time"
)

// Reserved tags marking a sentinel analysis so downstream aggregation can
// exclude it from trend statistics.
const (
	TagError          = "error"
	TagAnalysisFailed = "analysis-failed"
	TagLimitedInfo    = "limited-information"
)

// ErrUpstreamModel marks replies in which the model service reported its own
// failure. No analysis happened, so no sentinel result is substituted.
var ErrUpstreamModel = errors.New("model service reported an error")

// ErrMalformedReply marks replies the parse cascade could not decode. The
// error sentinel result accompanies it so downstream output still exists.
var ErrMalformedReply = errors.New("model reply could not be parsed")

// AnalysisResult is the structured analysis derived from exactly one Item.
// All list fields are always non-nil; absence of information is an empty
// list, never a missing field.
type AnalysisResult struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	KeyPoints         []string  `json:"keyPoints"`
	TechnicalInsights []string  `json:"technicalInsights"`
	Trends            []string  `json:"trends"`
	Tags              []string  `json:"tags"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// AnalysisID derives the stable analysis identifier for an item.
func AnalysisID(itemID int) string {
	return fmt.Sprintf("analysis-%d", itemID)
}

// Sentinel reports whether the result is a failure substitute rather than a
// real model analysis.
func (a AnalysisResult) Sentinel() bool {
	for _, tag := range a.Tags {
		if tag == TagAnalysisFailed {
			return true
		}
	}
	return false
}

// LimitedInfo reports whether the result was produced from the item fields
// alone because external content could not be retrieved.
func (a AnalysisResult) LimitedInfo() bool {
	for _, tag := range a.Tags {
		if tag == TagLimitedInfo {
			return true
		}
	}
	return false
}

// Normalize replaces nil list fields with empty slices so marshalled output
// never contains null arrays.
func (a *AnalysisResult) Normalize() {
	if a.KeyPoints == nil {
		a.KeyPoints = []string{}
	}
	if a.TechnicalInsights == nil {
		a.TechnicalInsights = []string{}
	}
	if a.Trends == nil {
		a.Trends = []string{}
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
}

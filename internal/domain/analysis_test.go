package domain

import (
	"testing"
	"time"
)

func TestAnalysisIDAndBriefID(t *testing.T) {
	t.Parallel()

	if got := AnalysisID(123); got != "analysis-123" {
		t.Fatalf("unexpected analysis id: %s", got)
	}

	at := time.UnixMilli(1700000000000)
	if got := BriefID(123, at); got != "brief-123-1700000000000" {
		t.Fatalf("unexpected brief id: %s", got)
	}
}

func TestSentinelAndLimitedInfo(t *testing.T) {
	t.Parallel()

	sentinel := AnalysisResult{Tags: []string{TagError, TagAnalysisFailed}}
	if !sentinel.Sentinel() {
		t.Fatalf("expected sentinel")
	}
	if sentinel.LimitedInfo() {
		t.Fatalf("sentinel is not limited-info")
	}

	limited := AnalysisResult{Tags: []string{TagLimitedInfo, "story"}}
	if limited.Sentinel() {
		t.Fatalf("limited-info is not the error sentinel")
	}
	if !limited.LimitedInfo() {
		t.Fatalf("expected limited-info")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	var a AnalysisResult
	a.Normalize()
	if a.KeyPoints == nil || a.TechnicalInsights == nil || a.Trends == nil || a.Tags == nil {
		t.Fatalf("normalize must replace nil lists: %+v", a)
	}

	a.Tags = append(a.Tags, "go")
	a.Normalize()
	if len(a.Tags) != 1 {
		t.Fatalf("normalize must not drop values: %+v", a.Tags)
	}
}

func TestUnprocessable(t *testing.T) {
	t.Parallel()

	var missing *Item
	if !missing.Unprocessable() {
		t.Fatalf("nil item is unprocessable")
	}
	if !(&Item{ID: 1, Deleted: true}).Unprocessable() {
		t.Fatalf("deleted item is unprocessable")
	}
	if !(&Item{ID: 1, Dead: true}).Unprocessable() {
		t.Fatalf("dead item is unprocessable")
	}
	if (&Item{ID: 1}).Unprocessable() {
		t.Fatalf("live item is processable")
	}
}

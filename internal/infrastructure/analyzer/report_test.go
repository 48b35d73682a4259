package analyzer

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"hnbriefs/internal/config"
	"hnbriefs/internal/domain"
)

func trendsConfig() config.TrendsConfig {
	return config.TrendsConfig{
		MaxTrends:       5,
		MinOccurrence:   2,
		EnableBlacklist: true,
		TagBlacklist:    []string{"technology", "software"},
	}
}

func analysisWithTags(id int, tags ...string) domain.AnalysisResult {
	return domain.AnalysisResult{
		ID:      domain.AnalysisID(id),
		Title:   fmt.Sprintf("item %d", id),
		Summary: "s",
		Tags:    tags,
	}
}

func TestAnalysisStatsFiltersAndRanks(t *testing.T) {
	t.Parallel()

	analyses := []domain.AnalysisResult{
		analysisWithTags(1, "Go", "technology"),
		analysisWithTags(2, "go", "rust"),
		analysisWithTags(3, "go", "rust", "software"),
		analysisWithTags(4, domain.TagError, domain.TagAnalysisFailed),
	}

	stats := AnalysisStats(analyses, trendsConfig())
	if stats.Total != 4 {
		t.Fatalf("expected total 4, got %d", stats.Total)
	}
	if !reflect.DeepEqual(stats.TopTags, []string{"go", "rust"}) {
		t.Fatalf("unexpected top tags: %v", stats.TopTags)
	}
	if stats.TagCounts["go"] != 3 {
		t.Fatalf("expected case-insensitive count 3 for go, got %d", stats.TagCounts["go"])
	}
	if _, ok := stats.TagCounts["technology"]; ok {
		t.Fatalf("blacklisted tag must not be counted")
	}
	if _, ok := stats.TagCounts[domain.TagError]; ok {
		t.Fatalf("sentinel tag must not be counted")
	}
}

func TestAnalysisStatsMinOccurrence(t *testing.T) {
	t.Parallel()

	analyses := []domain.AnalysisResult{
		analysisWithTags(1, "go", "zig"),
		analysisWithTags(2, "go"),
	}

	stats := AnalysisStats(analyses, trendsConfig())
	if !reflect.DeepEqual(stats.TopTags, []string{"go"}) {
		t.Fatalf("tags below the threshold must be excluded, got %v", stats.TopTags)
	}
}

func TestFilterByTags(t *testing.T) {
	t.Parallel()

	analyses := []domain.AnalysisResult{
		analysisWithTags(1, "go"),
		analysisWithTags(2, "rust"),
		analysisWithTags(3, "GO", "db"),
	}

	got := FilterByTags(analyses, []string{"go"})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}

	if got := FilterByTags(analyses, nil); len(got) != 3 {
		t.Fatalf("empty filter must match everything, got %d", len(got))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	in := []domain.AnalysisResult{
		{
			ID:          "analysis-7",
			Title:       "t",
			Summary:     "s",
			KeyPoints:   []string{"k"},
			Tags:        []string{"go"},
			GeneratedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	data, err := ExportJSON(in)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	out, err := ImportJSON(data)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if len(out) != 1 || out[0].ID != "analysis-7" {
		t.Fatalf("unexpected round trip: %+v", out)
	}
	if out[0].Trends == nil {
		t.Fatalf("imported results must be normalized")
	}
}

func TestTrendReportFallback(t *testing.T) {
	t.Parallel()

	analyses := []domain.AnalysisResult{
		analysisWithTags(1, "go"),
		analysisWithTags(2, "go"),
	}
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	report := TrendReport(context.Background(), nil, analyses, trendsConfig(), now)
	if !strings.Contains(report, "# Technology Trend Report") {
		t.Fatalf("missing report heading: %s", report)
	}
	if !strings.Contains(report, "- go (2)") {
		t.Fatalf("missing tag line: %s", report)
	}
	if !strings.Contains(report, "2026-08-15") {
		t.Fatalf("missing date: %s", report)
	}
}

func TestTrendReportUsesModel(t *testing.T) {
	t.Parallel()

	model := &fakeModel{reply: "## Themes\n\nBuild tooling dominates."}
	report := TrendReport(context.Background(), model, nil, trendsConfig(), time.Now())
	if report != model.reply {
		t.Fatalf("expected model report, got %s", report)
	}
	if !strings.Contains(model.lastPrompt, "trend report") {
		t.Fatalf("unexpected prompt: %s", model.lastPrompt)
	}
}

func TestTrendReportModelErrorFallsBack(t *testing.T) {
	t.Parallel()

	model := &fakeModel{err: fmt.Errorf("boom")}
	report := TrendReport(context.Background(), model, nil, trendsConfig(), time.Now())
	if !strings.Contains(report, "# Technology Trend Report") {
		t.Fatalf("expected fallback report, got %s", report)
	}
}

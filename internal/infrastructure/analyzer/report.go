package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"hnbriefs/internal/config"
	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

// Stats aggregates a set of analyses for reporting.
type Stats struct {
	Total     int            `json:"total"`
	TagCounts map[string]int `json:"tagCounts"`
	TopTags   []string       `json:"topTags"`
}

// AnalysisStats computes tag frequencies across analyses. When the blacklist
// is enabled, sentinel and generic tags are excluded from aggregation.
func AnalysisStats(analyses []domain.AnalysisResult, cfg config.TrendsConfig) Stats {
	blacklist := map[string]bool{
		domain.TagError:          true,
		domain.TagAnalysisFailed: true,
	}
	if cfg.EnableBlacklist {
		for _, tag := range cfg.TagBlacklist {
			blacklist[strings.ToLower(tag)] = true
		}
	}

	counts := map[string]int{}
	for _, a := range analyses {
		for _, tag := range a.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" || blacklist[tag] {
				continue
			}
			counts[tag]++
		}
	}

	return Stats{
		Total:     len(analyses),
		TagCounts: counts,
		TopTags:   topTags(counts, cfg.MaxTrends, cfg.MinOccurrence),
	}
}

func topTags(counts map[string]int, limit, minOccurrence int) []string {
	type tc struct {
		tag   string
		count int
	}
	ranked := make([]tc, 0, len(counts))
	for tag, count := range counts {
		if count >= minOccurrence {
			ranked = append(ranked, tc{tag, count})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].tag < ranked[j].tag
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	tags := make([]string, len(ranked))
	for i, r := range ranked {
		tags[i] = r.tag
	}
	return tags
}

// FilterByTags keeps analyses that carry at least one of the given tags.
// Matching is case-insensitive. An empty tag set matches everything.
func FilterByTags(analyses []domain.AnalysisResult, tags []string) []domain.AnalysisResult {
	if len(tags) == 0 {
		return analyses
	}
	want := map[string]bool{}
	for _, tag := range tags {
		want[strings.ToLower(tag)] = true
	}
	out := []domain.AnalysisResult{}
	for _, a := range analyses {
		for _, tag := range a.Tags {
			if want[strings.ToLower(tag)] {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// ExportJSON serializes analyses for transfer between installations.
func ExportJSON(analyses []domain.AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(analyses, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export analyses: %w", err)
	}
	return data, nil
}

// ImportJSON is the inverse of ExportJSON. Imported results are normalized
// so array fields are never nil.
func ImportJSON(data []byte) ([]domain.AnalysisResult, error) {
	var analyses []domain.AnalysisResult
	if err := json.Unmarshal(data, &analyses); err != nil {
		return nil, fmt.Errorf("import analyses: %w", err)
	}
	for i := range analyses {
		analyses[i].Normalize()
	}
	return analyses, nil
}

// TrendReport renders a markdown report over the analyses. It asks the model
// for a synthesized narrative; when the model is unavailable or fails, it
// falls back to a deterministic tag-frequency report.
func TrendReport(ctx context.Context, model ports.ModelClient, analyses []domain.AnalysisResult, cfg config.TrendsConfig, now time.Time) string {
	stats := AnalysisStats(analyses, cfg)

	if model != nil {
		if report, err := modelTrendReport(ctx, model, analyses, stats); err == nil {
			return report
		}
	}
	return fallbackTrendReport(stats, now)
}

func modelTrendReport(ctx context.Context, model ports.ModelClient, analyses []domain.AnalysisResult, stats Stats) (string, error) {
	var b strings.Builder
	b.WriteString("Write a concise markdown technology-trend report from these HackerNews analyses.\n")
	b.WriteString("Group related topics, name the dominant themes, and keep it under 500 words.\n\n")
	fmt.Fprintf(&b, "Top tags: %s\n\nAnalyses:\n", strings.Join(stats.TopTags, ", "))
	for _, a := range analyses {
		fmt.Fprintf(&b, "- %s: %s (trends: %s)\n", a.Title, a.Summary, strings.Join(a.Trends, "; "))
	}

	report, err := model.Complete(ctx, b.String())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(report) == "" || isUpstreamError(report) {
		return "", fmt.Errorf("unusable trend report reply")
	}
	return report, nil
}

func fallbackTrendReport(stats Stats, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Technology Trend Report\n\n")
	fmt.Fprintf(&b, "Generated on %s from %d analyses.\n\n", now.Format("2006-01-02"), stats.Total)
	b.WriteString("## Top Tags\n\n")
	if len(stats.TopTags) == 0 {
		b.WriteString("No recurring tags above the occurrence threshold.\n")
		return b.String()
	}
	for _, tag := range stats.TopTags {
		fmt.Fprintf(&b, "- %s (%d)\n", tag, stats.TagCounts[tag])
	}
	return b.String()
}

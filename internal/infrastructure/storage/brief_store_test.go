package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hnbriefs/internal/domain"
)

func sampleBrief(id string, createdAt time.Time) domain.Brief {
	return domain.Brief{
		ID:      id,
		Title:   "Sample Title",
		Content: "body text",
		Summary: "a summary",
		Analysis: domain.AnalysisResult{
			ID:                "analysis-1",
			Summary:           "a summary",
			KeyPoints:         []string{"point one"},
			TechnicalInsights: []string{"insight one"},
			Trends:            []string{},
			Tags:              []string{"go", "tooling"},
		},
		Tags:      []string{"go", "tooling"},
		CreatedAt: createdAt,
	}
}

func TestBriefStoreWritesJSONAndMarkdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewBriefStore(dir)
	if err != nil {
		t.Fatalf("NewBriefStore: %v", err)
	}

	brief := sampleBrief("brief-1-1000", time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	if err := store.SaveBrief(brief); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "brief-1-1000.json")); err != nil {
		t.Fatalf("missing json twin: %v", err)
	}
	md, err := os.ReadFile(filepath.Join(dir, "brief-1-1000.md"))
	if err != nil {
		t.Fatalf("missing markdown twin: %v", err)
	}
	text := string(md)
	for _, want := range []string{
		"# Sample Title",
		"body text",
		"## Summary",
		"- point one",
		"## Technical Insights",
		"- insight one",
		"go, tooling",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("markdown missing %q:\n%s", want, text)
		}
	}
}

func TestBriefStoreLoadAndMiss(t *testing.T) {
	t.Parallel()

	store, err := NewBriefStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBriefStore: %v", err)
	}

	if b, err := store.LoadBrief("brief-0-0"); err != nil || b != nil {
		t.Fatalf("miss must be (nil, nil), got %+v, %v", b, err)
	}

	brief := sampleBrief("brief-2-2000", time.Now().UTC())
	if err := store.SaveBrief(brief); err != nil {
		t.Fatalf("SaveBrief: %v", err)
	}
	loaded, err := store.LoadBrief("brief-2-2000")
	if err != nil {
		t.Fatalf("LoadBrief: %v", err)
	}
	if loaded == nil || loaded.Title != "Sample Title" || loaded.Analysis.ID != "analysis-1" {
		t.Fatalf("unexpected brief: %+v", loaded)
	}
}

func TestBriefStoreListingNewestFirst(t *testing.T) {
	t.Parallel()

	store, err := NewBriefStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBriefStore: %v", err)
	}

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"brief-1-1", "brief-2-2", "brief-3-3"} {
		if err := store.SaveBrief(sampleBrief(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveBrief: %v", err)
		}
	}

	briefs, err := store.AllBriefs()
	if err != nil {
		t.Fatalf("AllBriefs: %v", err)
	}
	if len(briefs) != 3 || briefs[0].ID != "brief-3-3" {
		t.Fatalf("expected newest first, got %+v", briefs)
	}

	metas, err := store.Metadata()
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if len(metas) != 3 || metas[0].ID != "brief-3-3" {
		t.Fatalf("unexpected metadata: %+v", metas)
	}
}

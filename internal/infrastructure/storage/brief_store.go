package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

// BriefStore persists briefs as <id>.json plus a rendered <id>.md twin.
// The web layer reads these files; it never writes them.
type BriefStore struct {
	dir string
}

var _ ports.BriefStore = (*BriefStore)(nil)

// NewBriefStore creates the brief directory if needed.
func NewBriefStore(dir string) (*BriefStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create brief dir: %w", err)
	}
	return &BriefStore{dir: dir}, nil
}

// SaveBrief writes both the JSON record and the markdown rendering.
func (s *BriefStore) SaveBrief(brief domain.Brief) error {
	data, err := json.MarshalIndent(brief, "", "  ")
	if err != nil {
		return fmt.Errorf("encode brief %s: %w", brief.ID, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, brief.ID+".json"), data, 0o644); err != nil {
		return fmt.Errorf("write brief %s: %w", brief.ID, err)
	}

	md := renderMarkdown(brief)
	if err := os.WriteFile(filepath.Join(s.dir, brief.ID+".md"), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write brief markdown %s: %w", brief.ID, err)
	}
	return nil
}

// LoadBrief returns the stored brief, or (nil, nil) when none exists.
func (s *BriefStore) LoadBrief(id string) (*domain.Brief, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read brief %s: %w", id, err)
	}

	var brief domain.Brief
	if err := json.Unmarshal(data, &brief); err != nil {
		return nil, fmt.Errorf("decode brief %s: %w", id, err)
	}
	return &brief, nil
}

// AllBriefs loads every stored brief, newest first.
func (s *BriefStore) AllBriefs() ([]domain.Brief, error) {
	ids, err := s.briefIDs()
	if err != nil {
		return nil, err
	}

	briefs := make([]domain.Brief, 0, len(ids))
	for _, id := range ids {
		brief, err := s.LoadBrief(id)
		if err != nil {
			return nil, err
		}
		if brief != nil {
			briefs = append(briefs, *brief)
		}
	}

	sort.Slice(briefs, func(i, j int) bool {
		return briefs[i].CreatedAt.After(briefs[j].CreatedAt)
	})
	return briefs, nil
}

// Metadata lists every stored brief without content, newest first.
func (s *BriefStore) Metadata() ([]domain.BriefMeta, error) {
	briefs, err := s.AllBriefs()
	if err != nil {
		return nil, err
	}

	metadata := make([]domain.BriefMeta, 0, len(briefs))
	for _, brief := range briefs {
		metadata = append(metadata, brief.Meta())
	}
	return metadata, nil
}

func (s *BriefStore) briefIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list brief dir: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

func renderMarkdown(brief domain.Brief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", brief.Title)
	b.WriteString(brief.Content)
	b.WriteString("\n\n## Summary\n")
	b.WriteString(brief.Summary)
	b.WriteString("\n\n## Key Points\n")
	for _, point := range brief.Analysis.KeyPoints {
		fmt.Fprintf(&b, "- %s\n", point)
	}
	b.WriteString("\n## Technical Insights\n")
	for _, insight := range brief.Analysis.TechnicalInsights {
		fmt.Fprintf(&b, "- %s\n", insight)
	}
	b.WriteString("\n## Tags\n")
	b.WriteString(strings.Join(brief.Tags, ", "))
	fmt.Fprintf(&b, "\n\n*Generated on: %s*\n", brief.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
	return b.String()
}

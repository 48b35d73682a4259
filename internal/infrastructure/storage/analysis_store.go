package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

// AnalysisStore persists analysis results in the data directory as
// analysis-<itemID>.json, next to the raw cache.
type AnalysisStore struct {
	dir string
}

var _ ports.AnalysisStore = (*AnalysisStore)(nil)

// NewAnalysisStore creates the data directory if needed.
func NewAnalysisStore(dir string) (*AnalysisStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create analysis dir: %w", err)
	}
	return &AnalysisStore{dir: dir}, nil
}

func (s *AnalysisStore) analysisPath(itemID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", domain.AnalysisID(itemID)))
}

// SaveAnalysis writes the analysis, overwriting any previous copy.
func (s *AnalysisStore) SaveAnalysis(analysis domain.AnalysisResult) error {
	analysis.Normalize()

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", analysis.ID, err)
	}
	path := filepath.Join(s.dir, analysis.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write analysis %s: %w", analysis.ID, err)
	}
	return nil
}

// LoadAnalysis returns the stored analysis for an item, or (nil, nil) when
// none exists.
func (s *AnalysisStore) LoadAnalysis(itemID int) (*domain.AnalysisResult, error) {
	data, err := os.ReadFile(s.analysisPath(itemID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read analysis for item %d: %w", itemID, err)
	}

	var analysis domain.AnalysisResult
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis for item %d: %w", itemID, err)
	}
	analysis.Normalize()
	return &analysis, nil
}

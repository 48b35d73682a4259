package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

const (
	recordsFile = "processing-records.json"
	statsFile   = "processing-stats.json"
)

// Tracker owns the append-only processing record log and the stats
// singleton. All state round-trips through the two files so crash-restart
// never loses acknowledged outcomes; the mutex serializes writes from
// concurrent batch items.
type Tracker struct {
	mu  sync.Mutex
	dir string
}

var _ ports.Tracker = (*Tracker)(nil)

// New creates the tracker directory if needed.
func New(dir string) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tracker dir: %w", err)
	}
	return &Tracker{dir: dir}, nil
}

// IsItemDone reports whether a success record of type source-item or
// analysis exists for the item. This is the sole dedup gate.
func (t *Tracker) IsItemDone(itemID int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.loadRecords()
	if err != nil {
		return false, err
	}
	for _, record := range records {
		if record.ItemID != itemID || record.Status != domain.StatusSuccess {
			continue
		}
		if record.Type == domain.RecordSourceItem || record.Type == domain.RecordAnalysis {
			return true, nil
		}
	}
	return false, nil
}

// Record appends one processing record. It never rejects and never
// deduplicates at write time; duplicate records in the log are harmless.
func (t *Tracker) Record(record domain.ProcessingRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.loadRecords()
	if err != nil {
		return err
	}
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}
	records = append(records, record)
	return t.saveRecords(records)
}

// HasNewWork reports whether the upstream feed has advanced since the last
// recorded stats. This is a cheap pre-filter, never a substitute for the
// per-item IsItemDone check.
func (t *Tracker) HasNewWork(currentMaxID, currentNewCount int) (bool, error) {
	stats, err := t.Stats()
	if err != nil {
		return false, err
	}
	if currentMaxID > stats.LastMaxItemID {
		return true, nil
	}
	if currentNewCount != stats.LastNewCount {
		return true, nil
	}
	return false, nil
}

// Stats returns the singleton aggregate, zero-valued when none exists yet.
func (t *Tracker) Stats() (domain.Stats, error) {
	data, err := os.ReadFile(filepath.Join(t.dir, statsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Stats{}, nil
		}
		return domain.Stats{}, fmt.Errorf("read stats: %w", err)
	}

	var stats domain.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return domain.Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// UpdateStats overwrites the singleton with the caller-merged aggregate.
// Counters are absolute totals supplied by the caller, not deltas. A zero
// LastProcessedAt keeps the currently stored timestamp.
func (t *Tracker) UpdateStats(stats domain.Stats) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stats.LastProcessedAt.IsZero() {
		current, err := t.Stats()
		if err != nil {
			return err
		}
		stats.LastProcessedAt = current.LastProcessedAt
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := os.WriteFile(filepath.Join(t.dir, statsFile), data, 0o644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// Recent returns records processed at or after the cutoff.
func (t *Tracker) Recent(since time.Time) ([]domain.ProcessingRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.loadRecords()
	if err != nil {
		return nil, err
	}

	recent := make([]domain.ProcessingRecord, 0)
	for _, record := range records {
		if !record.ProcessedAt.Before(since) {
			recent = append(recent, record)
		}
	}
	return recent, nil
}

// Prune deletes records older than maxAge and returns how many were
// removed. Stats are never pruned.
func (t *Tracker) Prune(maxAge time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.loadRecords()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	kept := records[:0]
	for _, record := range records {
		if record.ProcessedAt.After(cutoff) {
			kept = append(kept, record)
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := t.saveRecords(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (t *Tracker) loadRecords() ([]domain.ProcessingRecord, error) {
	data, err := os.ReadFile(filepath.Join(t.dir, recordsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.ProcessingRecord{}, nil
		}
		return nil, fmt.Errorf("read records: %w", err)
	}

	var records []domain.ProcessingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func (t *Tracker) saveRecords(records []domain.ProcessingRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := os.WriteFile(filepath.Join(t.dir, recordsFile), data, 0o644); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

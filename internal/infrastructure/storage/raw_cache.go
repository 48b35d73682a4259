package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

var storyFileExpr = regexp.MustCompile(`^story-(\d+)\.json$`)

// RawCache is a content-addressed file cache of source items keyed by ID.
// It sits in front of the source client as a read-through cache.
type RawCache struct {
	dir string
}

var _ ports.RawCache = (*RawCache)(nil)

// NewRawCache creates the cache directory if needed.
func NewRawCache(dir string) (*RawCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &RawCache{dir: dir}, nil
}

func (c *RawCache) itemPath(id int) string {
	return filepath.Join(c.dir, fmt.Sprintf("story-%d.json", id))
}

// Has reports whether an item is cached.
func (c *RawCache) Has(id int) bool {
	_, err := os.Stat(c.itemPath(id))
	return err == nil
}

// Load returns the cached item, or (nil, nil) on a miss. A miss is a normal
// outcome, not an error.
func (c *RawCache) Load(id int) (*domain.Item, error) {
	data, err := os.ReadFile(c.itemPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cached item %d: %w", id, err)
	}

	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("decode cached item %d: %w", id, err)
	}
	return &item, nil
}

// Save writes the item, overwriting any previous copy. Idempotent by ID.
func (c *RawCache) Save(item *domain.Item) error {
	if item == nil {
		return fmt.Errorf("save nil item")
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("encode item %d: %w", item.ID, err)
	}
	if err := os.WriteFile(c.itemPath(item.ID), data, 0o644); err != nil {
		return fmt.Errorf("write item %d: %w", item.ID, err)
	}
	return nil
}

// CachedIDs lists all cached item IDs in ascending order.
func (c *RawCache) CachedIDs() ([]int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("list cache dir: %w", err)
	}

	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		match := storyFileExpr.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		id, err := strconv.Atoi(match[1])
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// Stats summarizes cache contents: count, ID range, and total bytes.
func (c *RawCache) Stats() (ports.CacheStats, error) {
	ids, err := c.CachedIDs()
	if err != nil {
		return ports.CacheStats{}, err
	}
	if len(ids) == 0 {
		return ports.CacheStats{}, nil
	}

	stats := ports.CacheStats{
		Count: len(ids),
		MinID: ids[0],
		MaxID: ids[len(ids)-1],
	}
	for _, id := range ids {
		info, err := os.Stat(c.itemPath(id))
		if err != nil {
			continue
		}
		stats.TotalBytes += info.Size()
	}
	return stats, nil
}

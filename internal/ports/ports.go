package ports

import (
	"context"
	"time"

	"hnbriefs/internal/domain"
)

// ItemSource pulls items and feed metadata from HackerNews. Item returns
// (nil, nil) when the item does not exist upstream; a non-nil error means a
// transient fetch failure the caller should record. MaxItemID and NewestIDs
// absorb failures internally and return neutral zero values so that a single
// flaky housekeeping call never aborts a run.
type ItemSource interface {
	Item(ctx context.Context, id int) (*domain.Item, error)
	MaxItemID(ctx context.Context) int
	NewestIDs(ctx context.Context) []int
}

// CacheStats summarizes the raw cache contents.
type CacheStats struct {
	Count      int
	MinID      int
	MaxID      int
	TotalBytes int64
}

// RawCache is content-addressed storage of source items keyed by ID.
// Load reports a miss as (nil, nil), never as an error.
type RawCache interface {
	Has(id int) bool
	Load(id int) (*domain.Item, error)
	Save(item *domain.Item) error
	CachedIDs() ([]int, error)
	Stats() (CacheStats, error)
}

// AnalysisStore persists analysis results next to the raw cache.
// Load reports a miss as (nil, nil).
type AnalysisStore interface {
	SaveAnalysis(analysis domain.AnalysisResult) error
	LoadAnalysis(itemID int) (*domain.AnalysisResult, error)
}

// BriefStore owns persisted briefs (JSON plus a rendered markdown twin).
type BriefStore interface {
	SaveBrief(brief domain.Brief) error
	LoadBrief(id string) (*domain.Brief, error)
	AllBriefs() ([]domain.Brief, error)
	Metadata() ([]domain.BriefMeta, error)
}

// TagCount pairs a tag with its occurrence count.
type TagCount struct {
	Tag   string
	Count int
}

// BriefIndex is the queryable metadata index over persisted briefs. The
// JSON files remain the source of truth; the index is rebuildable from them.
type BriefIndex interface {
	Add(meta domain.BriefMeta) error
	Recent(limit int) ([]domain.BriefMeta, error)
	ByTag(tag string) ([]domain.BriefMeta, error)
	Search(keyword string) ([]domain.BriefMeta, error)
	TopTags(limit int) ([]TagCount, error)
	Close() error
}

// Tracker answers "is this item already done?" and "is there new work at
// all?", and owns the append-only record log plus the stats singleton.
type Tracker interface {
	IsItemDone(itemID int) (bool, error)
	Record(record domain.ProcessingRecord) error
	HasNewWork(currentMaxID, currentNewCount int) (bool, error)
	Stats() (domain.Stats, error)
	UpdateStats(stats domain.Stats) error
	Recent(since time.Time) ([]domain.ProcessingRecord, error)
	Prune(maxAge time.Duration) (int, error)
}

// Analyzer produces a structured analysis for one item. The returned result
// is always structurally valid; the error classifies upstream-model and
// malformed-reply conditions for outcome recording.
type Analyzer interface {
	Analyze(ctx context.Context, item *domain.Item) (domain.AnalysisResult, error)
}

// ModelClient is the opaque text-in/text-out model service.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// PageReader retrieves readable text from an item's external URL for prompt
// enrichment.
type PageReader interface {
	Read(ctx context.Context, pageURL string) (string, error)
}

// Scheduler controls when pipeline cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

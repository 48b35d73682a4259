package storage

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

const indexSchema = `
CREATE TABLE IF NOT EXISTS briefs (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    summary    TEXT NOT NULL,
    tags       TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS brief_tags (
    brief_id TEXT NOT NULL REFERENCES briefs(id) ON DELETE CASCADE,
    tag      TEXT NOT NULL,
    PRIMARY KEY (brief_id, tag)
);
CREATE INDEX IF NOT EXISTS idx_brief_tags_tag ON brief_tags(tag);
CREATE INDEX IF NOT EXISTS idx_briefs_created_at ON briefs(created_at);
`

// Index is a SQLite metadata index over persisted briefs. The JSON files in
// the brief store remain the source of truth; the index only accelerates the
// listing, search, and trend queries the web layer issues.
type Index struct {
	db *sql.DB
}

var _ ports.BriefIndex = (*Index)(nil)

// OpenIndex opens (creating if needed) the index database.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database connection.
func (x *Index) Close() error {
	if x == nil || x.db == nil {
		return nil
	}
	return x.db.Close()
}

// Add upserts one brief's metadata row and its tag rows.
func (x *Index) Add(meta domain.BriefMeta) error {
	query, args, err := sq.Insert("briefs").
		Columns("id", "title", "summary", "tags", "created_at").
		Values(meta.ID, meta.Title, meta.Summary, strings.Join(meta.Tags, ","), meta.CreatedAt).
		Suffix("ON CONFLICT(id) DO UPDATE SET title=excluded.title, summary=excluded.summary, tags=excluded.tags, created_at=excluded.created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := x.db.Exec(query, args...); err != nil {
		return fmt.Errorf("index brief %s: %w", meta.ID, err)
	}

	if _, err := x.db.Exec("DELETE FROM brief_tags WHERE brief_id = ?", meta.ID); err != nil {
		return fmt.Errorf("clear tags for %s: %w", meta.ID, err)
	}
	for _, tag := range meta.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		query, args, err := sq.Insert("brief_tags").
			Columns("brief_id", "tag").
			Values(meta.ID, tag).
			Suffix("ON CONFLICT(brief_id, tag) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("build tag insert: %w", err)
		}
		if _, err := x.db.Exec(query, args...); err != nil {
			return fmt.Errorf("index tag %q for %s: %w", tag, meta.ID, err)
		}
	}
	return nil
}

// Recent returns up to limit briefs, newest first.
func (x *Index) Recent(limit int) ([]domain.BriefMeta, error) {
	builder := sq.Select("id", "title", "summary", "tags", "created_at").
		From("briefs").
		OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return x.queryMeta(builder)
}

// ByTag returns briefs carrying the exact tag, newest first.
func (x *Index) ByTag(tag string) ([]domain.BriefMeta, error) {
	builder := sq.Select("b.id", "b.title", "b.summary", "b.tags", "b.created_at").
		From("briefs b").
		Join("brief_tags t ON t.brief_id = b.id").
		Where(sq.Eq{"t.tag": tag}).
		OrderBy("b.created_at DESC")
	return x.queryMeta(builder)
}

// Search returns briefs whose title, summary, or tags contain the keyword,
// newest first.
func (x *Index) Search(keyword string) ([]domain.BriefMeta, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"
	builder := sq.Select("id", "title", "summary", "tags", "created_at").
		From("briefs").
		Where(sq.Or{
			sq.Like{"lower(title)": pattern},
			sq.Like{"lower(summary)": pattern},
			sq.Like{"lower(tags)": pattern},
		}).
		OrderBy("created_at DESC")
	return x.queryMeta(builder)
}

// TopTags returns tag frequencies in descending order.
func (x *Index) TopTags(limit int) ([]ports.TagCount, error) {
	builder := sq.Select("tag", "COUNT(*) AS cnt").
		From("brief_tags").
		GroupBy("tag").
		OrderBy("cnt DESC", "tag ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tag query: %w", err)
	}

	rows, err := x.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var counts []ports.TagCount
	for rows.Next() {
		var tc ports.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag rows: %w", err)
	}
	return counts, nil
}

func (x *Index) queryMeta(builder sq.SelectBuilder) ([]domain.BriefMeta, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := x.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query briefs: %w", err)
	}
	defer rows.Close()

	var metadata []domain.BriefMeta
	for rows.Next() {
		var meta domain.BriefMeta
		var tags string
		if err := rows.Scan(&meta.ID, &meta.Title, &meta.Summary, &tags, &meta.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan brief row: %w", err)
		}
		if tags != "" {
			meta.Tags = strings.Split(tags, ",")
		} else {
			meta.Tags = []string{}
		}
		metadata = append(metadata, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brief rows: %w", err)
	}
	return metadata, nil
}

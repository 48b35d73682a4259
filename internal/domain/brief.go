package domain

import (
	"fmt"
	"time"
)

// Brief is the externally visible artifact combining an Item with its
// analysis. Briefs are created once and never updated in place.
type Brief struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Summary   string         `json:"summary"`
	Analysis  AnalysisResult `json:"analysis"`
	Tags      []string       `json:"tags"`
	CreatedAt time.Time      `json:"createdAt"`
}

// BriefMeta is the listing shape read by the web layer (no content, no
// embedded analysis).
type BriefMeta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// BriefID derives a globally unique brief identifier. The millisecond
// component guarantees reprocessing the same item never collides with an
// existing stored brief.
func BriefID(itemID int, at time.Time) string {
	return fmt.Sprintf("brief-%d-%d", itemID, at.UnixMilli())
}

// Meta projects the brief into its listing shape.
func (b Brief) Meta() BriefMeta {
	return BriefMeta{
		ID:        b.ID,
		Title:     b.Title,
		Summary:   b.Summary,
		Tags:      b.Tags,
		CreatedAt: b.CreatedAt,
	}
}

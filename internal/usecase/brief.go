package usecase

import (
	"fmt"
	"time"

	"hnbriefs/internal/domain"
)

// BuildBrief assembles a brief from an item and its analysis. It is total:
// any item/analysis pair yields a well-formed brief, with placeholders for
// missing title and body text.
func BuildBrief(item *domain.Item, analysis domain.AnalysisResult, at time.Time) domain.Brief {
	title := item.Title
	if title == "" {
		title = fmt.Sprintf("HN Item %d", item.ID)
	}

	content := item.Text
	if content == "" {
		content = "No text content"
	}

	tags := analysis.Tags
	if tags == nil {
		tags = []string{}
	}

	return domain.Brief{
		ID:        domain.BriefID(item.ID, at),
		Title:     title,
		Content:   content,
		Summary:   analysis.Summary,
		Analysis:  analysis,
		Tags:      tags,
		CreatedAt: at,
	}
}

package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hnbriefs/internal/domain"
	"hnbriefs/internal/ports"
)

// Analyzer turns a HackerNews item into a structured analysis via a model
// client, optionally enriching the prompt with the linked page's content.
type Analyzer struct {
	model  ports.ModelClient
	pages  ports.PageReader
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Analyzer)

// WithPageReader enables fetching the item's URL so an excerpt of the page
// can be embedded in the prompt. Fetch failures degrade to a title-only
// prompt, never to an error.
func WithPageReader(pages ports.PageReader) Option {
	return func(a *Analyzer) { a.pages = pages }
}

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func New(model ports.ModelClient, logger *slog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		model:  model,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze produces an analysis for the item. The error taxonomy:
//
//   - upstream model error: zero result, error wrapping domain.ErrUpstreamModel
//   - malformed reply: error sentinel result AND an error wrapping
//     domain.ErrMalformedReply, so the caller can record the failure while still
//     having renderable output
//   - fetch-failure reply: limited-information result, nil error
//   - otherwise: parsed result, nil error
func (a *Analyzer) Analyze(ctx context.Context, item *domain.Item) (domain.AnalysisResult, error) {
	excerpt := a.pageExcerpt(ctx, item)

	reply, err := a.model.Complete(ctx, buildPrompt(item, excerpt))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("item %d: %w: %w", item.ID, domain.ErrUpstreamModel, err)
	}

	if isUpstreamError(reply) {
		a.logger.Warn("model reply carries an upstream error", "item_id", item.ID)
		return domain.AnalysisResult{}, fmt.Errorf("item %d: %w", item.ID, domain.ErrUpstreamModel)
	}

	if isFetchFailure(reply) {
		a.logger.Info("model could not fetch linked content, using item fields only", "item_id", item.ID)
		return a.limitedResult(item), nil
	}

	p, ok := parseReply(reply)
	if !ok {
		a.logger.Warn("model reply failed all parse stages", "item_id", item.ID)
		return a.errorResult(item, "unparseable model reply"), fmt.Errorf("item %d: %w", item.ID, domain.ErrMalformedReply)
	}

	return a.result(item, p), nil
}

func (a *Analyzer) pageExcerpt(ctx context.Context, item *domain.Item) string {
	if a.pages == nil || item.URL == "" {
		return ""
	}
	text, err := a.pages.Read(ctx, item.URL)
	if err != nil {
		a.logger.Info("linked page unreadable, analyzing item fields only",
			"item_id", item.ID, "url", item.URL, "error", err)
		return ""
	}
	return text
}

func (a *Analyzer) result(item *domain.Item, p payload) domain.AnalysisResult {
	r := domain.AnalysisResult{
		ID:                domain.AnalysisID(item.ID),
		Title:             item.Title,
		Summary:           p.Summary,
		KeyPoints:         p.KeyPoints,
		TechnicalInsights: p.TechnicalInsights,
		Trends:            p.Trends,
		Tags:              p.Tags,
		GeneratedAt:       a.now(),
	}
	r.Normalize()
	return r
}

// errorResult is the analysis-failed sentinel. Its tags are reserved so the
// condition stays detectable downstream.
func (a *Analyzer) errorResult(item *domain.Item, reason string) domain.AnalysisResult {
	return domain.AnalysisResult{
		ID:                domain.AnalysisID(item.ID),
		Title:             item.Title,
		Summary:           reason + ": full analysis unavailable",
		KeyPoints:         []string{"analysis failed"},
		TechnicalInsights: []string{"technical analysis unavailable"},
		Trends:            []string{"no trends identified"},
		Tags:              []string{domain.TagError, domain.TagAnalysisFailed},
		GeneratedAt:       a.now(),
	}
}

// limitedResult is the best-effort analysis built from the item's own
// fields when the linked content was unreachable. It is a valid outcome,
// not an error.
func (a *Analyzer) limitedResult(item *domain.Item) domain.AnalysisResult {
	keyPoints := []string{}
	if item.Title != "" {
		keyPoints = append(keyPoints, item.Title)
	}
	return domain.AnalysisResult{
		ID:                domain.AnalysisID(item.ID),
		Title:             item.Title,
		Summary:           fmt.Sprintf("Limited-information analysis of %s item %d based on its own fields", item.Type, item.ID),
		KeyPoints:         keyPoints,
		TechnicalInsights: []string{},
		Trends:            []string{},
		Tags:              []string{domain.TagLimitedInfo, string(item.Type)},
		GeneratedAt:       a.now(),
	}
}

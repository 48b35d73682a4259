package webpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hnbriefs/internal/ports"
)

const (
	defaultTimeout  = 20 * time.Second
	maxExcerptRunes = 4000
	jinaBaseURL     = "https://r.jina.ai/"
)

// Reader fetches an item's external URL and extracts readable text for
// prompt enrichment. It tries a direct fetch with HTML extraction first and
// falls back to the jina reader proxy, which returns markdown for pages
// that block plain clients.
type Reader struct {
	client      *http.Client
	jinaEnabled bool
	jinaBase    string
}

var _ ports.PageReader = (*Reader)(nil)

// NewReader wires an HTTP client; nil falls back to a 20s-timeout default.
func NewReader(client *http.Client) *Reader {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Reader{client: client, jinaEnabled: true, jinaBase: jinaBaseURL}
}

// Read returns a trimmed text excerpt of the page, or an error when the
// content cannot be retrieved by any strategy.
func (r *Reader) Read(ctx context.Context, pageURL string) (string, error) {
	if strings.TrimSpace(pageURL) == "" {
		return "", fmt.Errorf("empty page url")
	}

	text, directErr := r.readDirect(ctx, pageURL)
	if directErr == nil && text != "" {
		return text, nil
	}

	if r.jinaEnabled {
		text, jinaErr := r.readJina(ctx, pageURL)
		if jinaErr == nil && text != "" {
			return text, nil
		}
		if directErr == nil {
			directErr = jinaErr
		}
	}
	if directErr == nil {
		directErr = fmt.Errorf("no readable content")
	}
	return "", fmt.Errorf("retrieve content from %s: %w", pageURL, directErr)
}

func (r *Reader) readDirect(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "hnbriefs/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text") {
		return "", fmt.Errorf("unsupported content type %s", contentType)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	return extractText(doc), nil
}

func (r *Reader) readJina(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.jinaBase+pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build jina request: %w", err)
	}
	req.Header.Set("X-Return-Format", "markdown")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request jina reader: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jina reader returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read jina body: %w", err)
	}
	return truncate(strings.TrimSpace(string(body))), nil
}

func extractText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, noscript").Remove()

	var parts []string
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		parts = append(parts, title)
	}

	doc.Find("article p, main p, p, li").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) >= 40 {
			parts = append(parts, text)
		}
	})

	return truncate(strings.Join(parts, "\n\n"))
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxExcerptRunes {
		return text
	}
	return string(runes[:maxExcerptRunes]) + "..."
}

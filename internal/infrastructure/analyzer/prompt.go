package analyzer

import (
	"fmt"
	"strings"

	"hnbriefs/internal/domain"
)

// buildPrompt embeds the item's own fields, plus an optional page excerpt,
// and instructs the model to emit exactly one five-field JSON object.
func buildPrompt(item *domain.Item, pageExcerpt string) string {
	var b strings.Builder

	b.WriteString("Analyze the following HackerNews item and provide deep technical trend insight.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Text: %s\n", item.Text)
	fmt.Fprintf(&b, "Type: %s\n", item.Type)
	fmt.Fprintf(&b, "URL: %s\n", item.URL)

	if pageExcerpt != "" {
		b.WriteString("\nLinked page content (excerpt):\n")
		b.WriteString(pageExcerpt)
		b.WriteString("\n")
	}

	b.WriteString(`
Important:
- If the linked content could not be retrieved, analyze only the title, text, and type given above.
- Do not attempt to access external links; focus on the information provided.
- When information is limited, make reasonable technical inferences from the title and type.

Analyze along these dimensions:
1. Summary - a concise summary of the core content
2. Key points - the important technical concepts, tools, or methods
3. Technical insights - technical value, novelty, or potential impact
4. Trends - related technology trends or directions
5. Tags - short classification labels

Respond with ONLY a valid JSON object and no explanatory text. Every array
field must be present; output an empty array when a dimension yields nothing.

Required JSON shape:
{
  "summary": "summary of the content",
  "keyPoints": ["key point 1", "key point 2"],
  "technicalInsights": ["insight 1", "insight 2"],
  "trends": ["trend 1", "trend 2"],
  "tags": ["tag1", "tag2", "tag3"]
}
`)

	return b.String()
}

// Known upstream-service-error phrasing. A reply matching any of these is a
// hard failure: the model service itself failed, no analysis happened.
var apiErrorPatterns = []string{
	"api error:",
	"connection error",
	"authentication failed",
	"rate limit exceeded",
	"service unavailable",
	"internal server error",
	"bad request",
	"unauthorized",
	"forbidden",
	"not found",
}

// Known could-not-fetch phrasing. The model answered but without structured
// output because the external URL was unreachable.
var fetchFailurePatterns = []string{
	"failed to retrieve content",
	"unable to fetch content",
	"could not fetch",
	"webfetch tool failed",
	"fetch error",
	"network error",
	"connection timeout",
}

func isUpstreamError(reply string) bool {
	lower := strings.ToLower(reply)
	for _, pattern := range apiErrorPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func isFetchFailure(reply string) bool {
	lower := strings.ToLower(reply)
	for _, pattern := range fetchFailurePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

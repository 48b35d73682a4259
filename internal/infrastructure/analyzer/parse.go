package analyzer

import (
	"encoding/json"
	"regexp"
	"strings"
)

// payload is the model-supplied half of an analysis, before the item's
// identity fields are attached.
type payload struct {
	Summary           string
	KeyPoints         []string
	TechnicalInsights []string
	Trends            []string
	Tags              []string
}

// parseReply runs the parse cascade over a raw model reply: strict JSON on
// the sliced object, then textual repairs, then per-field regex extraction.
// ok is false only when every stage fails to produce all five fields.
func parseReply(reply string) (payload, bool) {
	slice := sliceObject(reply)
	if slice == "" {
		return payload{}, false
	}
	if p, ok := parseStrict(slice); ok {
		return p, true
	}
	if p, ok := parseStrict(repairJSON(slice)); ok {
		return p, true
	}
	return parseExtracted(slice)
}

// sliceObject cuts the candidate JSON object out of surrounding prose:
// everything from the first '{' to the last '}'.
func sliceObject(reply string) string {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return ""
	}
	return reply[start : end+1]
}

func parseStrict(slice string) (payload, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(slice), &m); err != nil {
		return payload{}, false
	}
	return validate(m)
}

// validate requires all five fields with the right shapes. Array fields must
// be arrays of strings; a single wrong-typed element rejects the stage.
func validate(m map[string]any) (payload, bool) {
	summary, ok := m["summary"].(string)
	if !ok {
		return payload{}, false
	}
	p := payload{Summary: summary}
	for field, dst := range map[string]*[]string{
		"keyPoints":         &p.KeyPoints,
		"technicalInsights": &p.TechnicalInsights,
		"trends":            &p.Trends,
		"tags":              &p.Tags,
	} {
		items, ok := stringSlice(m[field])
		if !ok {
			return payload{}, false
		}
		*dst = items
	}
	return p, true
}

func stringSlice(v any) ([]string, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

var (
	trailingCommaExpr = regexp.MustCompile(`,(\s*[}\]])`)
	bareKeyExpr       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	singleQuoteExpr   = regexp.MustCompile(`([:\[,]\s*)'((?:[^'\\]|\\.)*)'`)
)

// repairJSON applies the common model sloppiness fixes: trailing commas,
// unquoted keys, single-quoted strings.
func repairJSON(slice string) string {
	out := trailingCommaExpr.ReplaceAllString(slice, `$1`)
	out = bareKeyExpr.ReplaceAllString(out, `$1"$2":`)
	out = singleQuoteExpr.ReplaceAllString(out, `$1"$2"`)
	return out
}

var (
	summaryExpr = regexp.MustCompile(`"summary"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	arrayExprs  = map[string]*regexp.Regexp{
		"keyPoints":         regexp.MustCompile(`"keyPoints"\s*:\s*\[([^\]]*)\]`),
		"technicalInsights": regexp.MustCompile(`"technicalInsights"\s*:\s*\[([^\]]*)\]`),
		"trends":            regexp.MustCompile(`"trends"\s*:\s*\[([^\]]*)\]`),
		"tags":              regexp.MustCompile(`"tags"\s*:\s*\[([^\]]*)\]`),
	}
)

// parseExtracted matches each field independently. It runs on the repaired
// slice so that single-quoted and bare-key variants still expose the fields.
func parseExtracted(slice string) (payload, bool) {
	slice = repairJSON(slice)

	sm := summaryExpr.FindStringSubmatch(slice)
	if sm == nil {
		return payload{}, false
	}
	p := payload{Summary: unescape(sm[1])}

	for field, dst := range map[string]*[]string{
		"keyPoints":         &p.KeyPoints,
		"technicalInsights": &p.TechnicalInsights,
		"trends":            &p.Trends,
		"tags":              &p.Tags,
	} {
		m := arrayExprs[field].FindStringSubmatch(slice)
		if m == nil {
			return payload{}, false
		}
		*dst = parseArrayBody(m[1])
	}
	return p, true
}

// parseArrayBody decodes a matched array interior, first as JSON, then by
// splitting on commas and stripping quotes.
func parseArrayBody(body string) []string {
	var arr []string
	if err := json.Unmarshal([]byte("["+body+"]"), &arr); err == nil {
		return arr
	}
	out := []string{}
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

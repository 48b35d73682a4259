package analyzer

import (
	"reflect"
	"testing"
)

func TestParseReplyStrictWithSurroundingProse(t *testing.T) {
	t.Parallel()

	reply := `Here is the analysis you asked for:
{"summary":"a compiler story","keyPoints":["ssa"],"technicalInsights":["faster builds"],"trends":["tooling"],"tags":["go","compilers"]}
Let me know if you need more detail.`

	p, ok := parseReply(reply)
	if !ok {
		t.Fatalf("expected reply to parse")
	}
	if p.Summary != "a compiler story" {
		t.Fatalf("unexpected summary: %q", p.Summary)
	}
	if !reflect.DeepEqual(p.Tags, []string{"go", "compilers"}) {
		t.Fatalf("unexpected tags: %v", p.Tags)
	}
}

func TestParseReplyRepairsTrailingComma(t *testing.T) {
	t.Parallel()

	reply := `{"summary":"s","keyPoints":["a",],"technicalInsights":[],"trends":[],"tags":["b"],}`

	p, ok := parseReply(reply)
	if !ok {
		t.Fatalf("expected repaired reply to parse")
	}
	if !reflect.DeepEqual(p.KeyPoints, []string{"a"}) {
		t.Fatalf("unexpected key points: %v", p.KeyPoints)
	}
}

func TestParseReplyRepairsBareKeys(t *testing.T) {
	t.Parallel()

	reply := `{summary: "s", keyPoints: [], technicalInsights: [], trends: [], tags: ["x"]}`

	p, ok := parseReply(reply)
	if !ok {
		t.Fatalf("expected bare-key reply to parse")
	}
	if p.Summary != "s" {
		t.Fatalf("unexpected summary: %q", p.Summary)
	}
}

func TestParseReplyRepairsSingleQuotedArrayElement(t *testing.T) {
	t.Parallel()

	reply := `{"summary":"ok","keyPoints":[],"technicalInsights":[],"trends":[],"tags":['x']}`

	p, ok := parseReply(reply)
	if !ok {
		t.Fatalf("expected single-quoted reply to parse")
	}
	if !reflect.DeepEqual(p.Tags, []string{"x"}) {
		t.Fatalf("unexpected tags: %v", p.Tags)
	}
}

func TestParseReplyExtractsFromBrokenStructure(t *testing.T) {
	t.Parallel()

	reply := `{"summary": "ok", "keyPoints": ["k"], "technicalInsights": ["i"], "trends": ["t"], "tags": ["x"], "extra": {broken}`
	reply += "}"

	p, ok := parseReply(reply)
	if !ok {
		t.Fatalf("expected extraction stage to recover the fields")
	}
	if !reflect.DeepEqual(p.Trends, []string{"t"}) {
		t.Fatalf("unexpected trends: %v", p.Trends)
	}
}

func TestParseReplyRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		reply string
	}{
		{"no object", "no json here at all"},
		{"missing field", `{"summary":"s","keyPoints":[],"technicalInsights":[],"tags":[]}`},
		{"summary not a string", `{"summary":7,"keyPoints":[],"technicalInsights":[],"trends":[],"tags":[]}`},
		{"empty reply", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, ok := parseReply(tc.reply); ok {
				t.Fatalf("expected %q to be rejected", tc.reply)
			}
		})
	}
}

func TestParseArrayBodyCommaFallback(t *testing.T) {
	t.Parallel()

	got := parseArrayBody(`'a', "b", c`)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected elements: %v", got)
	}
}

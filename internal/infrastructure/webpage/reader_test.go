package webpage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Sample Post</title><style>body{color:red}</style></head>
<body>
<nav>Home | About | Contact navigation links everywhere</nav>
<article>
<p>This paragraph is long enough to be considered real content of the page.</p>
<p>short</p>
<p>Another sufficiently long paragraph describing the technical subject matter.</p>
</article>
<script>console.log("tracking")</script>
<footer>Copyright notice that should be stripped from the extraction.</footer>
</body>
</html>`

func TestReadDirect(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	t.Cleanup(server.Close)

	reader := NewReader(server.Client())
	reader.jinaEnabled = false

	text, err := reader.Read(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for _, want := range []string{"Sample Post", "real content", "technical subject matter"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in extraction:\n%s", want, text)
		}
	}
	for _, unwanted := range []string{"console.log", "color:red", "navigation links", "Copyright"} {
		if strings.Contains(text, unwanted) {
			t.Fatalf("extraction must strip %q:\n%s", unwanted, text)
		}
	}
}

func TestReadFallsBackToJina(t *testing.T) {
	t.Parallel()

	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(direct.Close)

	jina := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Return-Format"); got != "markdown" {
			t.Errorf("unexpected format header: %s", got)
		}
		w.Write([]byte("# Sample Post\n\nreadable markdown body"))
	}))
	t.Cleanup(jina.Close)

	reader := NewReader(direct.Client())
	reader.jinaBase = jina.URL + "/"

	text, err := reader.Read(context.Background(), direct.URL)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.Contains(text, "readable markdown body") {
		t.Fatalf("expected jina body, got %q", text)
	}
}

func TestReadAllStrategiesFail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	reader := NewReader(server.Client())
	reader.jinaBase = server.URL + "/"

	if _, err := reader.Read(context.Background(), server.URL); err == nil {
		t.Fatalf("expected an error when every strategy fails")
	}
}

func TestReadEmptyURL(t *testing.T) {
	t.Parallel()

	reader := NewReader(nil)
	if _, err := reader.Read(context.Background(), "  "); err == nil {
		t.Fatalf("expected an error for an empty url")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ü", maxExcerptRunes+10)
	got := truncate(long)
	if len([]rune(got)) != maxExcerptRunes+3 {
		t.Fatalf("unexpected truncated length: %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix")
	}

	if truncate("short") != "short" {
		t.Fatalf("short text must pass through")
	}
}

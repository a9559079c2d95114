package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tournx/webaudit/internal/model"
)

// TestParser tests HTML parsing functionality.
func TestParser(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and meta description", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<title>Test Page</title>
			<meta name="description" content="A page for testing.">
		</head><body></body></html>`
		parser, err := NewParser("https://test.example/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Title != "Test Page" {
			t.Errorf("expected title 'Test Page', got %q", result.Title)
		}
		if result.MetaDescription != "A page for testing." {
			t.Errorf("unexpected meta description: %q", result.MetaDescription)
		}
	})

	t.Run("extracts links and classifies them", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="/internal">Internal Link</a>
			<a href="https://test.example/same">Same Site</a>
			<a href="https://other.example/external">External</a>
		</body></html>`

		parser, err := NewParser("https://test.example/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 3 {
			t.Errorf("expected 3 links, got %d", len(result.Links))
		}
		if len(result.InternalLinks) != 2 {
			t.Errorf("expected 2 internal links, got %d: %v", len(result.InternalLinks), result.InternalLinks)
		}
		if len(result.ExternalLinks) != 1 {
			t.Errorf("expected 1 external link, got %d", len(result.ExternalLinks))
		}
	})

	t.Run("counts headings and collects h1 texts", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<h1>First</h1>
			<h1>Second</h1>
			<h2>Sub</h2>
		</body></html>`

		parser, _ := NewParser("https://test.example/")
		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.HeadingCounts["h1"] != 2 {
			t.Errorf("expected 2 h1, got %d", result.HeadingCounts["h1"])
		}
		if result.HeadingCounts["h2"] != 1 {
			t.Errorf("expected 1 h2, got %d", result.HeadingCounts["h2"])
		}
		if len(result.H1Texts) != 2 || result.H1Texts[0] != "First" {
			t.Errorf("unexpected h1 texts: %v", result.H1Texts)
		}
	})

	t.Run("tracks image alt status", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<img src="/a.png" alt="described">
			<img src="/b.png" alt="">
			<img src="/c.png">
		</body></html>`

		parser, _ := NewParser("https://test.example/")
		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Images) != 3 {
			t.Fatalf("expected 3 images, got %d", len(result.Images))
		}
		if !result.Images[0].HasAlt {
			t.Error("image with alt text should have HasAlt=true")
		}
		if result.Images[1].HasAlt {
			t.Error("image with empty alt should have HasAlt=false")
		}
		if result.Images[2].HasAlt {
			t.Error("image without alt attribute should have HasAlt=false")
		}
	})

	t.Run("extracts canonical and stylesheet links", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<link rel="canonical" href="https://test.example/page">
			<link rel="stylesheet" href="/main.css">
		</head><body></body></html>`

		parser, _ := NewParser("https://test.example/page")
		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Canonical != "https://test.example/page" {
			t.Errorf("unexpected canonical: %q", result.Canonical)
		}
		if len(result.Stylesheets) != 1 {
			t.Errorf("expected 1 stylesheet, got %d", len(result.Stylesheets))
		}
	})

	t.Run("extracts forms with label detection", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<form action="/signup" method="post">
				<label for="email">Email</label>
				<input type="email" name="email" id="email">
				<input type="text" name="nickname">
				<input type="hidden" name="csrf" value="x">
				<label>Phone <input type="tel" name="phone"></label>
			</form>
		</body></html>`

		parser, _ := NewParser("https://test.example/")
		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Forms) != 1 {
			t.Fatalf("expected 1 form, got %d", len(result.Forms))
		}
		form := result.Forms[0]
		if form.Method != "POST" {
			t.Errorf("expected POST method, got %q", form.Method)
		}
		if len(form.Fields) != 4 {
			t.Fatalf("expected 4 fields, got %d", len(form.Fields))
		}

		byName := map[string]model.FormField{}
		for _, f := range form.Fields {
			byName[f.Name] = f
		}
		if !byName["email"].HasLabel {
			t.Error("field referenced by label[for] should have a label")
		}
		if byName["nickname"].HasLabel {
			t.Error("unlabeled field should have HasLabel=false")
		}
		if !byName["csrf"].HasLabel {
			t.Error("hidden fields don't need labels")
		}
		if !byName["phone"].HasLabel {
			t.Error("label-wrapped field should have a label")
		}
	})

	t.Run("detects structured data and counts words", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<script type="application/ld+json">{"@type":"Organization"}</script>
			<script src="/app.js"></script>
			<script src="http://cdn.example/lib.js"></script>
			<style>body { color: red }</style>
		</head><body>
			<p>one two three four five</p>
		</body></html>`

		parser, _ := NewParser("https://test.example/")
		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if !result.HasStructuredData {
			t.Error("expected structured data to be detected")
		}
		if len(result.Scripts) != 2 {
			t.Fatalf("expected 2 external scripts, got %d", len(result.Scripts))
		}
		// Insecure script URLs must survive parsing so the mixed-content
		// analyzer can flag them
		if result.Scripts[1] != "http://cdn.example/lib.js" {
			t.Errorf("unexpected second script URL: %q", result.Scripts[1])
		}
		// Script and style contents must not count as words
		if result.WordCount != 5 {
			t.Errorf("expected word count 5, got %d", result.WordCount)
		}
	})

	t.Run("counts empty anchors and nofollow links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="/a">Text</a>
			<a href="/b"></a>
			<a href="/c"><img src="/icon.png" alt="icon"></a>
			<a href="/d" rel="nofollow">Sponsored</a>
		</body></html>`

		parser, _ := NewParser("https://test.example/")
		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.EmptyAnchorCount != 1 {
			t.Errorf("expected 1 empty anchor, got %d", result.EmptyAnchorCount)
		}
		if result.NofollowCount != 1 {
			t.Errorf("expected 1 nofollow link, got %d", result.NofollowCount)
		}
	})

	t.Run("skips javascript and mailto links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="javascript:void(0)">JS</a>
			<a href="mailto:x@example.com">Mail</a>
			<a href="/real">Real</a>
		</body></html>`

		parser, _ := NewParser("https://test.example/")
		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 1 {
			t.Errorf("expected 1 link, got %d: %v", len(result.Links), result.Links)
		}
	})
}

// TestSpiderCrawl tests the breadth-first crawl behavior.
func TestSpiderCrawl(t *testing.T) {
	t.Parallel()

	t.Run("crawls a three page chain breadth-first", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><head><title>Home</title></head><body><a href="/about">About</a></body></html>`)
		})
		mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><head><title>About</title></head><body><a href="/contact">Contact</a></body></html>`)
		})
		mux.HandleFunc("/contact", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><head><title>Contact</title></head><body></body></html>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxPages(10), WithDelay(0))
		report, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}

		if report.PagesCrawled() != 3 {
			t.Fatalf("expected 3 pages, got %d", report.PagesCrawled())
		}

		// Strict breadth-first order: seed, then its link, then the next
		wantSuffixes := []string{"/", "/about", "/contact"}
		for i, want := range wantSuffixes {
			if !strings.HasSuffix(report.PageResults[i].URL, want) {
				t.Errorf("result %d = %q, want suffix %q", i, report.PageResults[i].URL, want)
			}
		}
		for i, r := range report.PageResults {
			if r.Depth != i {
				t.Errorf("result %d depth = %d, want %d", i, r.Depth, i)
			}
		}
		if report.Truncated {
			t.Error("expected Truncated=false when queue drained")
		}
	})

	t.Run("maxPages one fetches only the seed and sets Truncated", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body><a href="/next">Next</a></body></html>`)
		})
		mux.HandleFunc("/next", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body></body></html>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxPages(1), WithDelay(0))
		report, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}

		if report.PagesCrawled() != 1 {
			t.Errorf("expected exactly 1 page, got %d", report.PagesCrawled())
		}
		if !report.Truncated {
			t.Error("expected Truncated=true when budget hit with queue non-empty")
		}
	})

	t.Run("failed fetch counts against budget and never halts", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body><a href="/broken">Broken</a><a href="/ok">OK</a></body></html>`)
		})
		mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><head><title>OK</title></head><body></body></html>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxPages(10), WithDelay(0))
		report, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}

		if report.PagesCrawled() != 3 {
			t.Fatalf("expected 3 results including the failure, got %d", report.PagesCrawled())
		}
		if report.FailedPages != 1 {
			t.Errorf("expected 1 failed page, got %d", report.FailedPages)
		}
		if report.SuccessfulPages != 2 {
			t.Errorf("expected 2 successful pages, got %d", report.SuccessfulPages)
		}

		// Failed result carries no signals
		for _, r := range report.PageResults {
			if r.Status == model.PageStatusError && r.Signals != nil {
				t.Error("error result must not carry signals")
			}
		}
	})

	t.Run("malformed seed errors before any fetch", func(t *testing.T) {
		t.Parallel()

		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			requests++
		}))
		defer server.Close()

		spider := NewSpider(server.Client(), WithDelay(0))

		for _, seed := range []string{"://missing-scheme", "ftp://example.com", "https://", "not a url"} {
			if _, err := spider.Crawl(context.Background(), seed); !errors.Is(err, ErrInvalidSeedURL) {
				t.Errorf("Crawl(%q) error = %v, want ErrInvalidSeedURL", seed, err)
			}
		}
		if requests != 0 {
			t.Errorf("expected no requests for invalid seeds, got %d", requests)
		}
	})

	t.Run("each normalized URL is fetched at most once", func(t *testing.T) {
		t.Parallel()

		var fetches []string
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			fetches = append(fetches, r.URL.Path)
			// Same page under several representations
			fmt.Fprint(w, `<html><body>
				<a href="/page">A</a>
				<a href="/page/">B</a>
				<a href="/page#section">C</a>
			</body></html>`)
		})
		mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
			fetches = append(fetches, r.URL.Path)
			fmt.Fprint(w, `<html><body></body></html>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxPages(10), WithDelay(0))
		report, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}

		if report.PagesCrawled() != 2 {
			t.Errorf("expected 2 pages (duplicates collapsed), got %d", report.PagesCrawled())
		}
		if len(fetches) != 2 {
			t.Errorf("expected 2 HTTP fetches, got %d: %v", len(fetches), fetches)
		}
	})

	t.Run("stays on the seed host by default", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body><a href="https://elsewhere.example/page">Away</a></body></html>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxPages(10), WithDelay(0))
		report, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}

		if report.PagesCrawled() != 1 {
			t.Errorf("expected only the seed page, got %d", report.PagesCrawled())
		}
	})

	t.Run("aggregates missing titles across pages", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><head><title>Home</title></head><body><a href="/a">A</a><a href="/b">B</a></body></html>`)
		})
		mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><head></head><body><h1>A</h1></body></html>`)
		})
		mux.HandleFunc("/b", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><head></head><body><h1>B</h1></body></html>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxPages(10), WithDelay(0))
		report, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}

		if len(report.MissingTitle) != 2 {
			t.Errorf("expected 2 pages missing a title, got %d: %v", len(report.MissingTitle), report.MissingTitle)
		}
	})

	t.Run("ignore patterns skip matching paths", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body><a href="/admin/panel">Admin</a><a href="/public">Public</a></body></html>`)
		})
		mux.HandleFunc("/admin/panel", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body></body></html>`)
		})
		mux.HandleFunc("/public", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body></body></html>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(),
			WithMaxPages(10),
			WithDelay(0),
			WithIgnorePatterns([]string{"/admin/*"}),
		)
		report, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Crawl() error = %v", err)
		}

		for _, r := range report.PageResults {
			if strings.Contains(r.URL, "/admin/") {
				t.Errorf("admin path should have been skipped: %q", r.URL)
			}
		}
		if report.PagesCrawled() != 2 {
			t.Errorf("expected 2 pages, got %d", report.PagesCrawled())
		}
	})

	t.Run("cancelled context stops the crawl", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body><a href="/next">Next</a></body></html>`)
		})
		mux.HandleFunc("/next", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body></body></html>`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		spider := NewSpider(server.Client(), WithDelay(time.Second))
		_, err := spider.Crawl(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestNormalizeURL tests URL normalization for deduplication.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	spider := NewSpider(http.DefaultClient)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips fragment",
			input: "https://example.com/page#section",
			want:  "https://example.com/page",
		},
		{
			name:  "lowercases scheme and host",
			input: "HTTPS://Example.COM/Page",
			want:  "https://example.com/Page",
		},
		{
			name:  "empty path becomes root",
			input: "https://example.com",
			want:  "https://example.com/",
		},
		{
			name:  "drops trailing slash on non-root path",
			input: "https://example.com/page/",
			want:  "https://example.com/page",
		},
		{
			name:  "root slash is kept",
			input: "https://example.com/",
			want:  "https://example.com/",
		},
		{
			name:  "query string is preserved",
			input: "https://example.com/search?q=go&page=2",
			want:  "https://example.com/search?q=go&page=2",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := spider.normalizeURL(tt.input); got != tt.want {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestVisitedSet tests visited URL tracking.
func TestVisitedSet(t *testing.T) {
	t.Parallel()

	v := NewVisitedSet()

	if v.Contains("https://example.com/") {
		t.Error("empty set should not contain anything")
	}
	if !v.Mark("https://example.com/") {
		t.Error("first Mark should return true")
	}
	if v.Mark("https://example.com/") {
		t.Error("second Mark should return false")
	}
	if !v.Contains("https://example.com/") {
		t.Error("marked URL should be contained")
	}
	if v.Len() != 1 {
		t.Errorf("expected length 1, got %d", v.Len())
	}
}

// TestHTMLSignalAnalyzer tests the default per-page analyzer.
func TestHTMLSignalAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("derives signals and issues", func(t *testing.T) {
		t.Parallel()

		parsed := &ParseResult{
			Title:         "",
			HeadingCounts: map[string]int{"h1": 2},
			Images: []model.Image{
				{Source: "/a.png", HasAlt: false},
			},
			WordCount: 100,
		}
		page := &model.Page{URL: "https://example.com/"}

		analyzer := NewHTMLSignalAnalyzer()
		signals, issues := analyzer.AnalyzePage(page, parsed)

		if signals.HasTitle {
			t.Error("expected HasTitle=false")
		}
		if signals.H1Count != 2 {
			t.Errorf("expected H1Count=2, got %d", signals.H1Count)
		}
		if len(signals.ImagesMissingAlt) != 1 {
			t.Errorf("expected 1 image missing alt, got %d", len(signals.ImagesMissingAlt))
		}
		if len(issues) == 0 {
			t.Error("expected issues for a problematic page")
		}
	})

	t.Run("nil parse result yields empty signals", func(t *testing.T) {
		t.Parallel()

		analyzer := NewHTMLSignalAnalyzer()
		signals, issues := analyzer.AnalyzePage(&model.Page{}, nil)

		if signals == nil {
			t.Fatal("expected non-nil signals")
		}
		if len(issues) != 0 {
			t.Errorf("expected no issues for non-HTML page, got %v", issues)
		}
	})
}

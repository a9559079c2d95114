package model

import (
	"testing"
)

// TestCrawlReportAggregation tests incremental issue aggregation.
func TestCrawlReportAggregation(t *testing.T) {
	t.Parallel()

	t.Run("aggregates page issues", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://example.com/", 10)

		r.AddResult(PageResult{
			URL:    "https://example.com/",
			Status: PageStatusSuccess,
			Signals: &PageSignals{
				HasTitle:           true,
				H1Count:            1,
				HasCanonical:       true,
				HasMetaDescription: true,
				WordCount:          400,
				PageSizeKB:         50,
			},
		})
		r.AddResult(PageResult{
			URL:    "https://example.com/contact",
			Status: PageStatusSuccess,
			Signals: &PageSignals{
				HasTitle:         false,
				H1Count:          2,
				ImagesMissingAlt: []string{"https://example.com/a.png", "https://example.com/b.png"},
				HasCanonical:     false,
				WordCount:        200,
				PageSizeKB:       30,
			},
		})
		r.Finalize(false)

		if len(r.MissingTitle) != 1 || r.MissingTitle[0] != "https://example.com/contact" {
			t.Errorf("expected missing-title list to contain only /contact, got %v", r.MissingTitle)
		}
		if len(r.MultipleH1) != 1 {
			t.Errorf("expected 1 multiple-h1 page, got %d", len(r.MultipleH1))
		}
		if r.ImagesWithoutAlt != 2 {
			t.Errorf("expected 2 images without alt, got %d", r.ImagesWithoutAlt)
		}
		if len(r.ImagesWithoutAltPages) != 1 || r.ImagesWithoutAltPages[0].Count != 2 {
			t.Errorf("unexpected images-without-alt pages: %v", r.ImagesWithoutAltPages)
		}
		if len(r.MissingCanonical) != 1 {
			t.Errorf("expected 1 missing-canonical page, got %d", len(r.MissingCanonical))
		}
		if r.AvgWordCount != 300 {
			t.Errorf("expected avg word count 300, got %d", r.AvgWordCount)
		}
		if r.AvgPageSizeKB != 40 {
			t.Errorf("expected avg page size 40, got %d", r.AvgPageSizeKB)
		}
		if r.Truncated {
			t.Error("expected truncated=false")
		}
	})

	t.Run("failed fetch carries no signals but is counted", func(t *testing.T) {
		t.Parallel()

		r := NewCrawlReport("https://example.com/", 10)
		r.AddResult(PageResult{
			URL:    "https://example.com/broken",
			Status: PageStatusError,
			Error:  "connection refused",
		})
		r.Finalize(true)

		if r.PagesCrawled() != 1 {
			t.Errorf("expected failed page to count toward the budget, got %d", r.PagesCrawled())
		}
		if r.FailedPages != 1 {
			t.Errorf("expected 1 failed page, got %d", r.FailedPages)
		}
		if len(r.MissingTitle) != 0 {
			t.Error("error result must not contribute issue entries")
		}
		if !r.Truncated {
			t.Error("expected truncated=true")
		}
	})
}

// TestCrawlReportScore tests the crawl health score weighting.
func TestCrawlReportScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		build   func() *CrawlReport
		want    int
	}{
		{
			name: "empty report scores zero",
			build: func() *CrawlReport {
				return NewCrawlReport("https://example.com/", 5)
			},
			want: 0,
		},
		{
			name: "clean crawl scores 100",
			build: func() *CrawlReport {
				r := NewCrawlReport("https://example.com/", 5)
				r.AddResult(PageResult{
					URL:    "https://example.com/",
					Status: PageStatusSuccess,
					Signals: &PageSignals{
						HasTitle: true, H1Count: 1, HasCanonical: true, HasMetaDescription: true,
					},
				})
				return r
			},
			want: 100,
		},
		{
			name: "issues subtract fixed penalties",
			build: func() *CrawlReport {
				r := NewCrawlReport("https://example.com/", 5)
				// Missing title (-2), missing H1 (-3), missing canonical (-1), 2 alt (-1).
				r.AddResult(PageResult{
					URL:    "https://example.com/",
					Status: PageStatusSuccess,
					Signals: &PageSignals{
						ImagesMissingAlt:   []string{"a", "b"},
						HasMetaDescription: true,
					},
				})
				return r
			},
			want: 93,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := tt.build()
			r.Finalize(false)
			if got := r.Score(); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestCrawlReportAllIssues tests the flattened issue listing.
func TestCrawlReportAllIssues(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport("https://example.com/", 5)
	r.AddResult(PageResult{
		URL:    "https://example.com/a",
		Status: PageStatusSuccess,
		Issues: []string{"Missing title", "Missing H1"},
		Signals: &PageSignals{
			HasMetaDescription: true, HasCanonical: true,
		},
	})
	r.AddResult(PageResult{
		URL:    "https://example.com/b",
		Status: PageStatusSuccess,
		Issues: []string{"Missing canonical URL"},
		Signals: &PageSignals{
			HasTitle: true, H1Count: 1, HasMetaDescription: true,
		},
	})

	all := r.AllIssues(0)
	if len(all) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(all), all)
	}
	if all[0] != "https://example.com/a: Missing title" {
		t.Errorf("unexpected first issue: %q", all[0])
	}

	capped := r.AllIssues(2)
	if len(capped) != 2 {
		t.Errorf("expected issue list capped at 2, got %d", len(capped))
	}
}

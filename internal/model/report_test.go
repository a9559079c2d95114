package model

import "testing"

func TestAuditReportAddFinding(t *testing.T) {
	t.Parallel()

	t.Run("initializes simple report and counts severities", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("https://example.com", "example.com")
		r.AddFinding(NewFinding("no_https", "security", "Site served over HTTP", "", "https://example.com"))
		r.AddFinding(NewFinding("missing_title", "seo", "Missing title tag", "", "https://example.com/about"))
		r.AddFinding(NewFinding("multiple_h1", "seo", "Multiple H1 headings", "3", "https://example.com/about"))

		if r.SimpleReport == nil {
			t.Fatal("expected simple report to be initialized")
		}
		if r.SimpleReport.CriticalCount != 1 {
			t.Errorf("expected 1 critical finding, got %d", r.SimpleReport.CriticalCount)
		}
		if r.SimpleReport.HighCount != 1 {
			t.Errorf("expected 1 high finding, got %d", r.SimpleReport.HighCount)
		}
		if r.SimpleReport.LowCount != 1 {
			t.Errorf("expected 1 low finding, got %d", r.SimpleReport.LowCount)
		}
		if got := len(r.Findings()); got != 3 {
			t.Errorf("expected 3 findings, got %d", got)
		}
	})

	t.Run("drops duplicate findings", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("https://example.com", "example.com")
		f := NewFinding("missing_hsts", "security", "Missing HSTS header", "", "https://example.com")
		r.AddFinding(f)
		r.AddFinding(f)

		if got := len(r.Findings()); got != 1 {
			t.Errorf("expected duplicate to be dropped, got %d findings", got)
		}
		if r.SimpleReport.HighCount != 1 {
			t.Errorf("expected severity count 1, got %d", r.SimpleReport.HighCount)
		}
	})

	t.Run("same type on different pages is kept", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("https://example.com", "example.com")
		r.AddFinding(NewFinding("missing_h1", "seo", "Missing H1", "", "https://example.com/a"))
		r.AddFinding(NewFinding("missing_h1", "seo", "Missing H1", "", "https://example.com/b"))

		if got := len(r.Findings()); got != 2 {
			t.Errorf("expected 2 findings, got %d", got)
		}
	})
}

func TestAuditReportPages(t *testing.T) {
	t.Parallel()

	r := NewAuditReport("https://example.com", "example.com")
	if r.SeedPage() != nil {
		t.Error("expected nil seed page on empty report")
	}
	if r.GetPage("https://example.com/") != nil {
		t.Error("expected nil for uncrawled page")
	}

	r.Pages = []*Page{
		{URL: "https://example.com/"},
		{URL: "https://example.com/about"},
	}
	if got := r.SeedPage(); got == nil || got.URL != "https://example.com/" {
		t.Errorf("unexpected seed page: %v", got)
	}
	if got := r.GetPage("https://example.com/about"); got == nil {
		t.Error("expected /about page to be found")
	}
}

func TestNewFinding(t *testing.T) {
	t.Parallel()

	f := NewFinding("mixed_content", "security", "Mixed content", "http://example.com/a.js", "https://example.com")
	if f.Severity != SeverityHigh {
		t.Errorf("unexpected severity: %v", f.Severity)
	}
	if f.SeverityText != "HIGH" {
		t.Errorf("unexpected severity text: %q", f.SeverityText)
	}
	if f.Impact == "" || f.Recommendation == "" {
		t.Error("expected impact and recommendation from the finding mapping")
	}

	t.Run("derives title from type when empty", func(t *testing.T) {
		t.Parallel()
		f := NewFinding("missing_meta_description", "seo", "", "", "https://example.com")
		if f.Title != "Missing Meta Description" {
			t.Errorf("unexpected derived title: %q", f.Title)
		}
	})
}

func TestSimpleReportFindingsBySeverity(t *testing.T) {
	t.Parallel()

	r := NewAuditReport("https://example.com", "example.com")
	r.AddFinding(NewFinding("missing_csp", "security", "Missing CSP", "", "https://example.com"))
	r.AddFinding(NewFinding("missing_viewport", "ux", "Missing viewport", "", "https://example.com"))
	r.AddFinding(NewFinding("url_underscores", "seo", "Underscores in URL", "", "https://example.com/my_page"))

	s := NewSimpleReport(r)
	high := s.FindingsBySeverity(SeverityHigh)
	if len(high) != 2 {
		t.Errorf("expected 2 high findings, got %d", len(high))
	}
	if s.TotalFindings() != 3 {
		t.Errorf("expected 3 total findings, got %d", s.TotalFindings())
	}
	if !s.HasFindings() {
		t.Error("expected HasFindings to be true")
	}
}

func TestRecommendationsTotal(t *testing.T) {
	t.Parallel()

	r := &Recommendations{
		Critical:       []Recommendation{{Issue: "a"}},
		HighPriority:   []Recommendation{{Issue: "b"}, {Issue: "c"}},
		MediumPriority: nil,
		QuickWins:      []Recommendation{{Issue: "d"}},
	}
	if got := r.Total(); got != 4 {
		t.Errorf("Total() = %d, want 4", got)
	}
}

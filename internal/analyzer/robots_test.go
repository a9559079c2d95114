package analyzer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/tournx/webaudit/internal/model"
)

// newRobotsServer serves the given robots.txt body and optional sitemap.
// Passing an empty robots body makes /robots.txt answer 404.
func newRobotsServer(t *testing.T, robotsBody string, serveSitemap bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		if robotsBody == "" {
			http.NotFound(w, nil)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(robotsBody))
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		if !serveSitemap {
			http.NotFound(w, nil)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><urlset></urlset>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func analysisDataFor(t *testing.T, siteURL string) *AnalysisData {
	t.Helper()

	u, err := url.Parse(siteURL)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", siteURL, err)
	}
	return &AnalysisData{
		SiteURL: siteURL,
		Domain:  u.Hostname(),
		Report:  &model.AuditReport{},
	}
}

func TestRobotsAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("requires an HTTP client", func(t *testing.T) {
		t.Parallel()

		a := NewRobotsAnalyzer()
		_, err := a.Analyze(context.Background(), &AnalysisData{SiteURL: "https://example.com/"})
		if !errors.Is(err, ErrNoHTTPClient) {
			t.Errorf("Analyze() error = %v, want ErrNoHTTPClient", err)
		}
	})

	t.Run("missing robots.txt and sitemap", func(t *testing.T) {
		t.Parallel()

		srv := newRobotsServer(t, "", false)

		a := NewRobotsAnalyzer()
		a.SetHTTPClient(srv.Client())

		data := analysisDataFor(t, srv.URL+"/")
		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}

		types := typesOf(findings)
		if types["robots_txt_missing"] != 1 {
			t.Error("expected robots_txt_missing finding")
		}
		if types["sitemap_missing"] != 1 {
			t.Error("expected sitemap_missing finding")
		}
		if data.Report.Robots == nil || data.Report.Robots.RobotsTxtFound {
			t.Error("report must record that robots.txt was not found")
		}
	})

	t.Run("disallow all", func(t *testing.T) {
		t.Parallel()

		srv := newRobotsServer(t, "User-agent: *\nDisallow: /\n", true)

		a := NewRobotsAnalyzer()
		a.SetHTTPClient(srv.Client())

		data := analysisDataFor(t, srv.URL+"/")
		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}

		if typesOf(findings)["robots_disallow_all"] != 1 {
			t.Error("expected robots_disallow_all finding")
		}
		if !data.Report.Robots.DisallowAll {
			t.Error("report must record the disallow-all state")
		}
	})

	t.Run("declared sitemap is verified", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\nSitemap: " + srv.URL + "/custom-sitemap.xml\n"))
		})
		mux.HandleFunc("/custom-sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<?xml version="1.0"?><urlset></urlset>`))
		})
		srv = httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		a := NewRobotsAnalyzer()
		a.SetHTTPClient(srv.Client())

		data := analysisDataFor(t, srv.URL+"/")
		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}

		if len(findings) != 0 {
			t.Errorf("findings = %v, want none for a well-configured site", typesOf(findings))
		}
		if !data.Report.Robots.SitemapFound {
			t.Error("report must record the reachable sitemap")
		}
		if len(data.Report.Robots.Sitemaps) != 1 {
			t.Errorf("Sitemaps = %v, want the declared URL", data.Report.Robots.Sitemaps)
		}
	})

	t.Run("permissive robots with default sitemap", func(t *testing.T) {
		t.Parallel()

		srv := newRobotsServer(t, "User-agent: *\nDisallow: /admin/\n", true)

		a := NewRobotsAnalyzer()
		a.SetHTTPClient(srv.Client())

		data := analysisDataFor(t, srv.URL+"/")
		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}

		types := typesOf(findings)
		if types["robots_disallow_all"] != 0 {
			t.Error("a partial disallow must not count as disallow-all")
		}
		if types["sitemap_missing"] != 0 {
			t.Error("reachable /sitemap.xml must not be flagged as missing")
		}
		if !data.Report.Robots.RobotsTxtFound {
			t.Error("report must record the found robots.txt")
		}
	})

	t.Run("unreachable declared sitemap", func(t *testing.T) {
		t.Parallel()

		var srv *httptest.Server
		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\nSitemap: " + srv.URL + "/gone.xml\n"))
		})
		srv = httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		a := NewRobotsAnalyzer()
		a.SetHTTPClient(srv.Client())

		data := analysisDataFor(t, srv.URL+"/")
		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}

		if typesOf(findings)["sitemap_missing"] != 1 {
			t.Error("expected sitemap_missing for an unreachable declared sitemap")
		}
	})
}

func TestEXIFAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("requires an HTTP client", func(t *testing.T) {
		t.Parallel()

		a := NewEXIFAnalyzer()
		_, err := a.Analyze(context.Background(), &AnalysisData{})
		if !errors.Is(err, ErrNoHTTPClient) {
			t.Errorf("Analyze() error = %v, want ErrNoHTTPClient", err)
		}
	})

	t.Run("skips non-image and third-party URLs", func(t *testing.T) {
		t.Parallel()

		requests := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests++
			http.NotFound(w, nil)
		}))
		t.Cleanup(srv.Close)

		a := NewEXIFAnalyzer()
		a.SetHTTPClient(srv.Client())

		page := htmlPage(srv.URL + "/")
		page.Images = []model.Image{
			{Source: srv.URL + "/logo.png"},                  // not an EXIF format
			{Source: srv.URL + "/icon.svg"},                  // not an EXIF format
			{Source: "https://cdn.example.com/photo.jpg"},    // third party
			{Source: "https://other.example.net/image.jpeg"}, // third party
		}

		data := analysisDataFor(t, srv.URL+"/")
		data.Pages = []*model.Page{page}

		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("findings = %d, want none", len(findings))
		}
		if requests != 0 {
			t.Errorf("server received %d requests, want 0", requests)
		}
	})

	t.Run("same-origin jpeg without EXIF", func(t *testing.T) {
		t.Parallel()

		// A bare JFIF header with no EXIF segment.
		jpegBody := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0xFF, 0xD9}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(jpegBody)
		}))
		t.Cleanup(srv.Close)

		a := NewEXIFAnalyzer()
		a.SetHTTPClient(srv.Client())

		page := htmlPage(srv.URL + "/")
		page.Images = []model.Image{{Source: srv.URL + "/photo.jpg"}}

		data := analysisDataFor(t, srv.URL+"/")
		data.Pages = []*model.Page{page}

		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("findings = %d, want none for an EXIF-free image", len(findings))
		}
	})

	t.Run("image URL pattern", func(t *testing.T) {
		t.Parallel()

		a := NewEXIFAnalyzer()

		tests := []struct {
			url  string
			want bool
		}{
			{url: "https://example.com/a.jpg", want: true},
			{url: "https://example.com/a.JPEG", want: true},
			{url: "https://example.com/a.tiff?v=2", want: true},
			{url: "https://example.com/a.png", want: false},
			{url: "https://example.com/a.webp", want: false},
			{url: "https://example.com/a.jpg.html", want: false},
		}

		for _, tt := range tests {
			if got := a.imageURLPattern.MatchString(tt.url); got != tt.want {
				t.Errorf("imageURLPattern.MatchString(%q) = %v, want %v", tt.url, got, tt.want)
			}
		}
	})

	t.Run("non-image bytes yield no findings", func(t *testing.T) {
		t.Parallel()

		a := NewEXIFAnalyzer()
		findings := a.analyzeImageData([]byte("not an image"), "https://example.com/a.jpg", "https://example.com/")
		if len(findings) != 0 {
			t.Errorf("findings = %d, want none", len(findings))
		}
	})
}

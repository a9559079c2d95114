package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tournx/webaudit/internal/model"
)

func TestTLSAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("plain HTTP site", func(t *testing.T) {
		t.Parallel()

		a := NewTLSAnalyzer()
		data := &AnalysisData{
			SiteURL: "http://example.com/",
			Report:  &model.AuditReport{},
		}

		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}

		if typesOf(findings)["no_https"] != 1 {
			t.Error("expected no_https finding")
		}
		if data.Report.TLS == nil || data.Report.TLS.Enabled {
			t.Error("report must record TLS as disabled")
		}
	})

	t.Run("self-signed certificate", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		a := NewTLSAnalyzer()
		data := analysisDataFor(t, srv.URL+"/")

		findings, err := a.Analyze(context.Background(), data)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}

		if typesOf(findings)["ssl_invalid"] != 1 {
			t.Errorf("findings = %v, want ssl_invalid for a self-signed certificate", typesOf(findings))
		}

		info := data.Report.TLS
		if info == nil {
			t.Fatal("report must record TLS details")
		}
		if !info.Enabled {
			t.Error("TLS must be recorded as enabled")
		}
		if info.Valid {
			t.Error("self-signed certificate must not verify")
		}
		if info.Protocol == "" {
			t.Error("negotiated protocol must be recorded")
		}
		if info.DaysUntilExpiry <= 0 {
			t.Errorf("DaysUntilExpiry = %d, want positive for the test certificate", info.DaysUntilExpiry)
		}
	})

	t.Run("invalid site URL", func(t *testing.T) {
		t.Parallel()

		a := NewTLSAnalyzer()
		_, err := a.Analyze(context.Background(), &AnalysisData{
			SiteURL: "https://exa mple.com/",
			Report:  &model.AuditReport{},
		})
		if err == nil {
			t.Error("expected a parse error for an invalid URL")
		}
	})
}

package model

import "testing"

func TestSeverityString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityInfo, "INFO"},
		{SeverityLow, "LOW"},
		{SeverityMedium, "MEDIUM"},
		{SeverityHigh, "HIGH"},
		{SeverityCritical, "CRITICAL"},
		{Severity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.severity.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		findingType string
		want        Severity
	}{
		{"no_https", SeverityCritical},
		{"meta_noindex", SeverityCritical},
		{"not_a_real_type", SeverityInfo},
		{"missing_hsts", SeverityHigh},
		{"missing_title", SeverityHigh},
		{"missing_h1", SeverityMedium},
		{"multiple_h1", SeverityLow},
		{"nofollow_links", SeverityInfo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.findingType, func(t *testing.T) {
			t.Parallel()

			if got := GetSeverity(tt.findingType); got != tt.want {
				t.Errorf("GetSeverity(%q) = %v, want %v", tt.findingType, got, tt.want)
			}
		})
	}
}

func TestGetFindingInfo(t *testing.T) {
	t.Parallel()

	t.Run("known type carries impact and recommendation", func(t *testing.T) {
		t.Parallel()

		info := GetFindingInfo("missing_canonical")
		if info.Severity != SeverityMedium {
			t.Errorf("unexpected severity: %v", info.Severity)
		}
		if info.Impact == "" || info.Recommendation == "" {
			t.Error("expected non-empty impact and recommendation")
		}
	})

	t.Run("unknown type falls back to info", func(t *testing.T) {
		t.Parallel()

		info := GetFindingInfo("definitely_not_a_finding")
		if info.Severity != SeverityInfo {
			t.Errorf("unexpected severity: %v", info.Severity)
		}
		if info.Impact == "" {
			t.Error("expected fallback impact text")
		}
	})
}

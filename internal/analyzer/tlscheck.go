package analyzer

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tournx/webaudit/internal/model"
)

// expiryWarningWindow is how close to expiry a certificate can get
// before the audit warns about it.
const expiryWarningWindow = 30 * 24 * time.Hour

// TLSAnalyzer checks the site's TLS deployment.
//
// This analyzer checks for:
//   - Plain-HTTP sites (no TLS at all)
//   - Expired, soon-to-expire, or unverifiable certificates
//   - The negotiated protocol version
//   - HTTP requests not redirecting to HTTPS
//
// The collected certificate details are recorded on the audit report for
// the report writers.
type TLSAnalyzer struct {
	// client is used for the HTTP-to-HTTPS redirect probe.
	client *http.Client

	// dialer performs the TLS handshake. Swappable for tests.
	dialer *tls.Dialer
}

// NewTLSAnalyzer creates a new TLSAnalyzer.
func NewTLSAnalyzer() *TLSAnalyzer {
	return &TLSAnalyzer{
		dialer: &tls.Dialer{
			// We inspect the certificate ourselves: handshake first,
			// verify after, so an invalid certificate still yields
			// expiry and issuer details for the report.
			Config: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // Verification done manually below
		},
	}
}

// SetHTTPClient injects the HTTP client used for the redirect probe.
func (a *TLSAnalyzer) SetHTTPClient(client *http.Client) {
	a.client = client
}

// Name returns the analyzer name.
func (a *TLSAnalyzer) Name() string {
	return "tls"
}

// Category returns the analyzer category.
func (a *TLSAnalyzer) Category() string {
	return CategorySecurity
}

// Analyze inspects the site's certificate and records TLS details on the
// report.
func (a *TLSAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	u, err := url.Parse(data.SiteURL)
	if err != nil {
		return findings, err
	}

	if u.Scheme != "https" {
		if data.Report != nil {
			data.Report.TLS = &model.TLSInfo{Enabled: false}
		}
		findings = append(findings, model.NewFinding("no_https", CategorySecurity,
			"Site Served Over Plain HTTP", "", data.SiteURL))
		return findings, nil
	}

	info, certFindings := a.inspectCertificate(ctx, u)
	if data.Report != nil {
		data.Report.TLS = info
	}
	findings = append(findings, certFindings...)

	findings = append(findings, a.checkHTTPRedirect(ctx, u)...)

	return findings, nil
}

// inspectCertificate performs the TLS handshake and evaluates the
// certificate chain.
func (a *TLSAnalyzer) inspectCertificate(ctx context.Context, u *url.URL) (*model.TLSInfo, []model.Finding) {
	findings := make([]model.Finding, 0)

	addr := u.Host
	if u.Port() == "" {
		addr += ":443"
	}

	dialer := a.dialer
	dialer.Config.ServerName = u.Hostname()

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		info := &model.TLSInfo{Enabled: true, Valid: false, VerifyError: err.Error()}
		findings = append(findings, model.NewFinding("ssl_invalid", CategorySecurity,
			"TLS Handshake Failed", err.Error(), u.String()))
		return info, findings
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return &model.TLSInfo{Enabled: true}, findings
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return &model.TLSInfo{Enabled: true}, findings
	}

	cert := state.PeerCertificates[0]
	now := time.Now()
	daysLeft := int(cert.NotAfter.Sub(now).Hours() / 24)

	info := &model.TLSInfo{
		Enabled:         true,
		Issuer:          cert.Issuer.CommonName,
		Subject:         cert.Subject.CommonName,
		NotAfter:        cert.NotAfter,
		DaysUntilExpiry: daysLeft,
		Protocol:        tls.VersionName(state.Version),
		SANs:            cert.DNSNames,
	}

	// Verify the chain against the system pool
	info.Valid = true
	if err := a.verifyChain(state.PeerCertificates, u.Hostname()); err != nil {
		info.Valid = false
		info.VerifyError = err.Error()
		findings = append(findings, model.NewFinding("ssl_invalid", CategorySecurity,
			"Certificate Verification Failed", err.Error(), u.String()))
	}

	switch {
	case now.After(cert.NotAfter):
		info.Valid = false
		findings = append(findings, model.NewFinding("ssl_expired", CategorySecurity,
			"Certificate Expired",
			fmt.Sprintf("expired %s", cert.NotAfter.Format("2006-01-02")), u.String()))
	case cert.NotAfter.Sub(now) < expiryWarningWindow:
		findings = append(findings, model.NewFinding("ssl_expiring_soon", CategorySecurity,
			"Certificate Expiring Soon",
			fmt.Sprintf("%d days remaining", daysLeft), u.String()))
	}

	return info, findings
}

// verifyChain verifies the presented certificate chain for the hostname.
func (a *TLSAnalyzer) verifyChain(certs []*x509.Certificate, hostname string) error {
	intermediates := x509.NewCertPool()
	for _, c := range certs[1:] {
		intermediates.AddCert(c)
	}

	_, err := certs[0].Verify(x509.VerifyOptions{
		DNSName:       hostname,
		Intermediates: intermediates,
	})
	return err
}

// checkHTTPRedirect probes whether the plain-HTTP origin redirects to
// HTTPS. Sites reachable over both schemes without a redirect split
// their traffic and their search ranking.
func (a *TLSAnalyzer) checkHTTPRedirect(ctx context.Context, u *url.URL) []model.Finding {
	findings := make([]model.Finding, 0)

	if a.client == nil || u.Port() != "" {
		// Without a standard port layout the probe would test the
		// wrong origin (common in tests).
		return findings
	}

	probe := *a.client
	probe.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	httpURL := "http://" + u.Hostname() + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpURL, nil)
	if err != nil {
		return findings
	}

	resp, err := probe.Do(req)
	if err != nil {
		// HTTP port closed entirely is fine
		return findings
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	redirectsToHTTPS := resp.StatusCode >= 300 && resp.StatusCode < 400 &&
		strings.HasPrefix(location, "https://")
	if !redirectsToHTTPS {
		findings = append(findings, model.NewFinding("http_no_redirect", CategorySecurity,
			"HTTP Does Not Redirect to HTTPS",
			fmt.Sprintf("status %d", resp.StatusCode), httpURL))
	}

	return findings
}

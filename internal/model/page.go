package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Page represents a fetched web page with all extracted information.
// This structure holds both the raw response data and parsed content.
//
// Design decision: We store both raw bytes and parsed content because:
// 1. Raw bytes are needed for binary analysis (image EXIF, page weight)
// 2. Parsed content is needed for SEO and accessibility checks
// 3. The hash allows deduplication and change detection between audits
type Page struct {
	// URL is the full URL of the page.
	URL string `json:"url"`

	// Depth is the link distance from the seed URL.
	// The seed page itself is depth 0.
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code.
	// Zero when the fetch failed before receiving a response.
	StatusCode int `json:"status_code"`

	// FetchError holds the error message for a failed fetch.
	// Empty on success.
	FetchError string `json:"fetch_error,omitempty"`

	// Headers contains all HTTP response headers.
	// Keys are header names (canonicalized), values are slices of header values.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the MIME type of the response.
	// Extracted from Content-Type header for convenience.
	ContentType string `json:"content_type,omitempty"`

	// Title is the page title extracted from the <title> tag.
	// Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// MetaDescription is the content of <meta name="description">.
	MetaDescription string `json:"meta_description,omitempty"`

	// MetaTags contains meta tag name/property to content mappings.
	// Includes viewport, robots, Open Graph and Twitter Card tags.
	MetaTags map[string]string `json:"meta_tags,omitempty"`

	// Canonical is the href of <link rel="canonical">, resolved to an
	// absolute URL. Empty when no canonical link is declared.
	Canonical string `json:"canonical,omitempty"`

	// HeadingCounts maps heading levels ("h1".."h6") to their counts.
	HeadingCounts map[string]int `json:"heading_counts,omitempty"`

	// H1Texts contains the text content of all <h1> elements.
	H1Texts []string `json:"h1_texts,omitempty"`

	// Images contains all images referenced by the page.
	Images []Image `json:"images,omitempty"`

	// InternalLinks are same-site links discovered on the page.
	InternalLinks []string `json:"internal_links,omitempty"`

	// ExternalLinks are links pointing off-site.
	ExternalLinks []string `json:"external_links,omitempty"`

	// EmptyAnchorCount is the number of links without anchor text.
	EmptyAnchorCount int `json:"empty_anchor_count,omitempty"`

	// NofollowCount is the number of links carrying rel="nofollow".
	NofollowCount int `json:"nofollow_count,omitempty"`

	// Forms contains all HTML forms found on the page.
	Forms []Form `json:"forms,omitempty"`

	// Scripts contains external script sources.
	Scripts []string `json:"scripts,omitempty"`

	// Stylesheets contains stylesheet hrefs.
	Stylesheets []string `json:"stylesheets,omitempty"`

	// HasStructuredData is true when JSON-LD structured data is present.
	HasStructuredData bool `json:"has_structured_data"`

	// WordCount is the number of words in the visible text content.
	WordCount int `json:"word_count"`

	// Snapshot is a text-only snapshot of the page content.
	// Limited to MaxSnapshotSize bytes to prevent memory issues.
	Snapshot string `json:"-"`

	// Raw contains the raw response body bytes.
	// Limited to MaxPageSize bytes. Used for page-weight and EXIF analysis.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of the raw content.
	// Used for duplicate-content detection and change tracking.
	Hash string `json:"hash,omitempty"`
}

// MaxSnapshotSize is the maximum size of the text snapshot in bytes.
const MaxSnapshotSize = 512 * 1024 // 512 KB

// MaxPageSize is the maximum size of raw page content to store.
// Larger pages are truncated to this size.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Image represents an image reference on a page.
type Image struct {
	// Source is the resolved src URL.
	Source string `json:"source"`

	// Alt is the alt attribute. Empty means missing or empty alt text.
	Alt string `json:"alt,omitempty"`

	// HasAlt distinguishes alt="" from a missing attribute.
	// Decorative images may legitimately carry an empty alt.
	HasAlt bool `json:"has_alt"`
}

// Form represents an HTML form element.
type Form struct {
	// Action is the form's resolved action URL.
	Action string `json:"action"`

	// Method is the HTTP method (GET, POST). Defaults to GET.
	Method string `json:"method"`

	// Fields contains the form's input fields.
	Fields []FormField `json:"fields,omitempty"`
}

// FormField represents an input field in a form.
type FormField struct {
	// Type is the input type (text, password, hidden, etc.).
	Type string `json:"type"`

	// Name is the input's name attribute.
	Name string `json:"name"`

	// HasLabel is true when a <label> references this field.
	HasLabel bool `json:"has_label"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
// This should be called after setting the Raw field.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// GetAllHeaders returns all values of the specified header.
// Returns nil if the header is not present.
func (p *Page) GetAllHeaders(name string) []string {
	return p.Headers[name]
}

// IsHTML returns true if the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	return strings.HasPrefix(p.ContentType, "text/html") ||
		strings.HasPrefix(p.ContentType, "application/xhtml+xml")
}

// Fetched returns true when the page was successfully retrieved.
// A page with a transport error or no response is not fetched.
func (p *Page) Fetched() bool {
	return p.FetchError == "" && p.StatusCode != 0
}

// OK returns true for a successful (2xx) response.
func (p *Page) OK() bool {
	return p.Fetched() && p.StatusCode >= 200 && p.StatusCode < 300
}

// SizeKB returns the raw page size in kilobytes.
func (p *Page) SizeKB() int {
	return len(p.Raw) / 1024
}

// ImagesMissingAlt returns the sources of images lacking alt text.
func (p *Page) ImagesMissingAlt() []string {
	var missing []string
	for _, img := range p.Images {
		if !img.HasAlt {
			missing = append(missing, img.Source)
		}
	}
	return missing
}

// TruncateSnapshot ensures the snapshot doesn't exceed MaxSnapshotSize.
// Call this after setting the snapshot to enforce the size limit.
func (p *Page) TruncateSnapshot() {
	if len(p.Snapshot) > MaxSnapshotSize {
		p.Snapshot = p.Snapshot[:MaxSnapshotSize]
	}
}

// TruncateRaw ensures the raw content doesn't exceed MaxPageSize.
// Call this after setting Raw to enforce the size limit.
func (p *Page) TruncateRaw() {
	if len(p.Raw) > MaxPageSize {
		p.Raw = p.Raw[:MaxPageSize]
	}
}

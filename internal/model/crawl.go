package model

// PageStatus describes the fetch outcome for one page.
type PageStatus string

const (
	// PageStatusSuccess means the page was fetched and analyzed.
	PageStatusSuccess PageStatus = "success"

	// PageStatusError means the fetch failed (timeout, non-2xx, network
	// error). An error result carries no extracted signals.
	PageStatusError PageStatus = "error"
)

// PageSignals holds the audit signals extracted from one fetched page.
// Signals are produced by the page analyzer and are never set on error
// results.
type PageSignals struct {
	// HasTitle is true when the page declares a non-empty <title>.
	HasTitle bool `json:"has_title"`

	// Title is the extracted title text.
	Title string `json:"title,omitempty"`

	// H1Count is the number of <h1> elements on the page.
	H1Count int `json:"h1_count"`

	// ImagesMissingAlt lists the sources of images without alt text.
	ImagesMissingAlt []string `json:"images_missing_alt,omitempty"`

	// HasCanonical is true when the page declares a canonical URL.
	HasCanonical bool `json:"has_canonical"`

	// HasMetaDescription is true when a meta description is present.
	HasMetaDescription bool `json:"has_meta_description"`

	// WordCount is the number of words in the visible text.
	WordCount int `json:"word_count"`

	// PageSizeKB is the fetched body size in kilobytes.
	PageSizeKB int `json:"page_size_kb"`
}

// PageResult is the per-page outcome of a crawl.
// A result is produced exactly once per fetched URL and is immutable
// after creation.
type PageResult struct {
	// URL is the normalized URL that was fetched.
	URL string `json:"url"`

	// Depth is the link distance from the seed.
	Depth int `json:"depth"`

	// Status indicates whether the fetch succeeded.
	Status PageStatus `json:"status"`

	// StatusCode is the HTTP status code, zero on transport failure.
	StatusCode int `json:"status_code,omitempty"`

	// Error holds the failure reason for error results.
	Error string `json:"error,omitempty"`

	// Signals holds the extracted audit signals. Nil for error results.
	Signals *PageSignals `json:"signals,omitempty"`

	// Issues lists human-readable per-page issues derived from signals.
	Issues []string `json:"issues,omitempty"`
}

// IssueRef records one page exhibiting an issue category.
type IssueRef struct {
	// URL is the offending page.
	URL string `json:"url"`

	// Count is the number of occurrences on that page.
	// Always 1 for boolean issues such as a missing title.
	Count int `json:"count"`
}

// CrawlReport aggregates per-page findings across one crawl run.
// It is built incrementally as pages complete and finalized when the run
// ends, either because the queue emptied or the page budget was exhausted.
type CrawlReport struct {
	// SeedURL is the normalized starting URL of the crawl.
	SeedURL string `json:"seed_url"`

	// MaxPages is the configured page budget for the run.
	MaxPages int `json:"max_pages"`

	// PageResults contains one entry per fetched page, in fetch order.
	// The crawler guarantees len(PageResults) <= MaxPages.
	PageResults []PageResult `json:"page_results"`

	// Truncated is true when the run stopped because the page budget was
	// exhausted while undiscovered pages remained queued.
	Truncated bool `json:"truncated"`

	// === Per-issue aggregation ===

	// MissingTitle lists pages without a title tag.
	MissingTitle []string `json:"missing_title,omitempty"`

	// MissingH1 lists pages without any <h1>.
	MissingH1 []string `json:"missing_h1,omitempty"`

	// MultipleH1 lists pages with more than one <h1>.
	MultipleH1 []string `json:"multiple_h1,omitempty"`

	// ImagesWithoutAlt is the cumulative count of images lacking alt text
	// across all pages.
	ImagesWithoutAlt int `json:"images_without_alt"`

	// ImagesWithoutAltPages lists the pages contributing to
	// ImagesWithoutAlt together with their per-page counts.
	ImagesWithoutAltPages []IssueRef `json:"images_without_alt_pages,omitempty"`

	// MissingCanonical lists pages without a canonical URL.
	MissingCanonical []string `json:"missing_canonical,omitempty"`

	// MissingDescription lists pages without a meta description.
	MissingDescription []string `json:"missing_description,omitempty"`

	// === Aggregate statistics ===

	// SuccessfulPages is the number of pages fetched without error.
	SuccessfulPages int `json:"successful_pages"`

	// FailedPages is the number of error results.
	FailedPages int `json:"failed_pages"`

	// AvgWordCount is the mean word count over successful pages.
	AvgWordCount int `json:"avg_word_count"`

	// AvgPageSizeKB is the mean page size over successful pages.
	AvgPageSizeKB int `json:"avg_page_size_kb"`

	totalWords  int
	totalSizeKB int
}

// NewCrawlReport creates an empty report for the given seed and budget.
func NewCrawlReport(seedURL string, maxPages int) *CrawlReport {
	return &CrawlReport{
		SeedURL:     seedURL,
		MaxPages:    maxPages,
		PageResults: make([]PageResult, 0),
	}
}

// PagesCrawled returns the number of pages fetched so far.
// Failed fetches count: they consume the page budget.
func (r *CrawlReport) PagesCrawled() int {
	return len(r.PageResults)
}

// AddResult records a completed page and updates the issue aggregation.
// Results must be added in fetch order to preserve the breadth-first
// ordering of PageResults.
func (r *CrawlReport) AddResult(result PageResult) {
	r.PageResults = append(r.PageResults, result)

	if result.Status != PageStatusSuccess {
		r.FailedPages++
		return
	}
	r.SuccessfulPages++

	s := result.Signals
	if s == nil {
		return
	}

	r.totalWords += s.WordCount
	r.totalSizeKB += s.PageSizeKB

	if !s.HasTitle {
		r.MissingTitle = append(r.MissingTitle, result.URL)
	}
	if s.H1Count == 0 {
		r.MissingH1 = append(r.MissingH1, result.URL)
	}
	if s.H1Count > 1 {
		r.MultipleH1 = append(r.MultipleH1, result.URL)
	}
	if n := len(s.ImagesMissingAlt); n > 0 {
		r.ImagesWithoutAlt += n
		r.ImagesWithoutAltPages = append(r.ImagesWithoutAltPages, IssueRef{
			URL:   result.URL,
			Count: n,
		})
	}
	if !s.HasCanonical {
		r.MissingCanonical = append(r.MissingCanonical, result.URL)
	}
	if !s.HasMetaDescription {
		r.MissingDescription = append(r.MissingDescription, result.URL)
	}
}

// Finalize computes the aggregate statistics and the truncation flag.
// Called once by the crawler when the run ends.
func (r *CrawlReport) Finalize(truncated bool) {
	r.Truncated = truncated
	if r.SuccessfulPages > 0 {
		r.AvgWordCount = r.totalWords / r.SuccessfulPages
		r.AvgPageSizeKB = r.totalSizeKB / r.SuccessfulPages
	}
}

// Score computes the crawl health score (0-100).
//
// The weighting follows a simple issue-penalty model: failed fetches cost
// up to 30 points proportionally, then each page-level issue subtracts a
// fixed amount. Missing H1 weighs more than a missing title because it
// usually indicates a structural template problem across the site.
func (r *CrawlReport) Score() int {
	if len(r.PageResults) == 0 {
		return 0
	}

	score := 100.0
	score -= float64(r.FailedPages) / float64(len(r.PageResults)) * 30

	score -= float64(len(r.MissingTitle)) * 2
	score -= float64(len(r.MissingH1)) * 3
	score -= float64(len(r.MultipleH1)) * 1
	score -= float64(r.ImagesWithoutAlt) * 0.5
	score -= float64(len(r.MissingCanonical)) * 1

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// AllIssues returns a flat "URL: issue" list across all pages,
// capped at limit entries. A limit of zero means no cap.
func (r *CrawlReport) AllIssues(limit int) []string {
	issues := make([]string, 0)
	for _, page := range r.PageResults {
		for _, issue := range page.Issues {
			issues = append(issues, page.URL+": "+issue)
			if limit > 0 && len(issues) >= limit {
				return issues
			}
		}
	}
	return issues
}

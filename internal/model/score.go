package model

// Scores holds the category scores (0-100) computed for an audit.
// Performance and Accessibility come from PageSpeed Insights when available;
// the remaining categories are derived from findings and crawl data.
type Scores struct {
	// Overall is the weighted average of the category scores.
	Overall int `json:"overall"`

	// SEO reflects on-page SEO health across the crawled pages.
	SEO int `json:"seo"` //nolint:tagliatelle // SEO is standard acronym

	// Security reflects TLS and security-header posture.
	Security int `json:"security"`

	// Content reflects content depth and readability.
	Content int `json:"content"`

	// Crawl is the crawl health score from the crawl report.
	Crawl int `json:"crawl"`

	// Performance is the Lighthouse performance score.
	// -1 when PageSpeed data was not collected.
	Performance int `json:"performance"`

	// Accessibility is the Lighthouse accessibility score.
	// -1 when PageSpeed data was not collected.
	Accessibility int `json:"accessibility"`
}

// Status thresholds follow the industry-standard bands the original
// reporting used: 90+ excellent, 75+ good, 50+ needs work, below 50 poor.
const (
	statusExcellent = 90
	statusGood      = 75
	statusNeedsWork = 50
)

// ScoreStatus returns the qualitative band for a score.
func ScoreStatus(score int) string {
	switch {
	case score >= statusExcellent:
		return "excellent"
	case score >= statusGood:
		return "good"
	case score >= statusNeedsWork:
		return "needs work"
	default:
		return "poor"
	}
}

// ComputeOverall recalculates the overall score as the mean of the
// available category scores. Categories marked unavailable (-1) are
// excluded rather than treated as zero so a missing PageSpeed key does
// not drag the overall score down.
func (s *Scores) ComputeOverall() {
	categories := []int{s.SEO, s.Security, s.Content, s.Crawl, s.Performance, s.Accessibility}

	sum, n := 0, 0
	for _, c := range categories {
		if c < 0 {
			continue
		}
		sum += c
		n++
	}

	if n == 0 {
		s.Overall = 0
		return
	}
	s.Overall = sum / n
}

// NewScores creates a Scores value with PageSpeed-derived categories
// marked unavailable.
func NewScores() *Scores {
	return &Scores{
		Performance:   -1,
		Accessibility: -1,
	}
}

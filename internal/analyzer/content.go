package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tournx/webaudit/internal/config"
	"github.com/tournx/webaudit/internal/model"
)

// readabilityThreshold is the Flesch reading-ease score below which a
// page is flagged as hard to read.
const readabilityThreshold = 50.0

// ContentAnalyzer assesses the text content of crawled pages.
//
// This analyzer checks for:
//   - Thin content (word count below the configured minimum)
//   - Hard-to-read text (Flesch reading ease)
//   - Title terms never used in the body text
//   - Byte-identical pages served under different URLs
type ContentAnalyzer struct{}

// NewContentAnalyzer creates a new ContentAnalyzer.
func NewContentAnalyzer() *ContentAnalyzer {
	return &ContentAnalyzer{}
}

// Name returns the analyzer name.
func (a *ContentAnalyzer) Name() string {
	return "content"
}

// Category returns the analyzer category.
func (a *ContentAnalyzer) Category() string {
	return CategoryContent
}

// Analyze examines page text for content quality issues.
func (a *ContentAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	hashes := make(map[string]string) // hash -> first URL

	for _, page := range data.Pages {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if !page.IsHTML() {
			continue
		}

		findings = append(findings, a.checkThinContent(page)...)

		text := visibleText(page)
		findings = append(findings, a.checkReadability(page, text)...)
		findings = append(findings, a.checkTitleKeywords(page, text)...)

		// Duplicate content by content hash
		if page.Hash != "" {
			if first, seen := hashes[page.Hash]; seen {
				f := model.NewFinding("duplicate_content", CategoryContent,
					"Duplicate Page Content", first, page.URL)
				f.Description = fmt.Sprintf("This page serves byte-identical content to %s.", first)
				findings = append(findings, f)
			} else {
				hashes[page.Hash] = page.URL
			}
		}
	}

	return findings, nil
}

// checkThinContent flags pages below the minimum word count.
func (a *ContentAnalyzer) checkThinContent(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	if page.WordCount > 0 && page.WordCount < config.MinWordCount {
		findings = append(findings, model.NewFinding("thin_content", CategoryContent,
			"Thin Content", fmt.Sprintf("%d words", page.WordCount), page.URL))
	}

	return findings
}

// checkReadability flags pages whose text scores below the Flesch
// reading-ease threshold. Pages with very little text are skipped: the
// formula is meaningless under a few sentences.
func (a *ContentAnalyzer) checkReadability(page *model.Page, text string) []model.Finding {
	findings := make([]model.Finding, 0)

	words := strings.Fields(text)
	if len(words) < 100 {
		return findings
	}

	score := fleschReadingEase(text)
	if score < readabilityThreshold {
		f := model.NewFinding("low_readability", CategoryContent,
			"Text Is Hard to Read",
			fmt.Sprintf("Flesch score %.0f (%s)", score, readingLevel(score)), page.URL)
		findings = append(findings, f)
	}

	return findings
}

// checkTitleKeywords flags pages whose body never uses any significant
// title term.
func (a *ContentAnalyzer) checkTitleKeywords(page *model.Page, text string) []model.Finding {
	findings := make([]model.Finding, 0)

	terms := significantTerms(page.Title)
	if len(terms) == 0 || len(text) == 0 {
		return findings
	}

	body := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(body, term) {
			return findings
		}
	}

	findings = append(findings, model.NewFinding("title_keyword_unused", CategoryContent,
		"Title Terms Missing From Body Text",
		strings.Join(terms, ", "), page.URL))

	return findings
}

// significantTerms extracts the meaningful lowercase words of a title.
// Short words are skipped: articles and prepositions carry no keyword
// signal.
func significantTerms(title string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,:;!?\"'()[]|-")
		if len(w) > 3 {
			terms = append(terms, w)
		}
	}
	return terms
}

// visibleText extracts the rendered text of a page, excluding script
// and style content.
func visibleText(page *model.Page) string {
	if page.Snapshot == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Snapshot))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript").Remove()
	return doc.Find("body").Text()
}

// fleschReadingEase computes the Flesch reading-ease score for a text.
// Higher is easier: 60-70 reads as plain English, below 30 as academic
// prose.
func fleschReadingEase(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	sentences := countSentences(text)
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))

	return 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
}

// readingLevel maps a Flesch score to its conventional label.
func readingLevel(score float64) string {
	switch {
	case score >= 70:
		return "easy"
	case score >= 50:
		return "standard"
	case score >= 30:
		return "difficult"
	default:
		return "very difficult"
	}
}

// countSentences counts sentence terminators in the text.
func countSentences(text string) int {
	count := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	return count
}

// countSyllables estimates the syllable count of a word by counting
// vowel groups, with the usual silent-e adjustment. An estimate is fine
// here: the Flesch formula averages over the whole text.
func countSyllables(word string) int {
	word = strings.ToLower(strings.Trim(word, ".,:;!?\"'()[]"))
	if word == "" {
		return 0
	}

	isVowel := func(r byte) bool {
		return strings.ContainsRune("aeiouy", rune(r))
	}

	count := 0
	prevVowel := false
	for i := 0; i < len(word); i++ {
		v := isVowel(word[i])
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	// Silent trailing e
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}

	if count == 0 {
		count = 1
	}
	return count
}

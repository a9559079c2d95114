package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tournx/webaudit/internal/model"
)

// defaultModel is the Gemini model used for recommendations.
const defaultModel = "gemini-2.5-flash"

// maxPromptFindings caps how many findings the prompt lists.
// The worst ones carry the signal; the full list only burns tokens.
const maxPromptFindings = 15

// ErrNoAPIKey is returned when constructing an Advisor without a key.
var ErrNoAPIKey = errors.New("no Gemini API key configured")

// ErrEmptyResponse is returned when the model answers without usable text.
var ErrEmptyResponse = errors.New("empty model response")

// Advisor generates recommendations with the Gemini API.
type Advisor struct {
	client *genai.Client
	model  string
}

// New creates an Advisor backed by the Gemini API.
func New(ctx context.Context, apiKey string) (*Advisor, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Advisor{client: client, model: defaultModel}, nil
}

// Close releases the underlying API client.
func (a *Advisor) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// Recommend asks the model for prioritized recommendations based on the
// audit report. Callers should fall back to RuleBased on error.
func (a *Advisor) Recommend(ctx context.Context, report *model.AuditReport) (*model.Recommendations, error) {
	gm := a.client.GenerativeModel(a.model)
	gm.SetTemperature(0.2)
	gm.ResponseMIMEType = "application/json"

	resp, err := gm.GenerateContent(ctx, genai.Text(buildPrompt(report)))
	if err != nil {
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	recs, err := parseResponse(text)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// buildPrompt summarizes the report for the model.
func buildPrompt(report *model.AuditReport) string {
	var b strings.Builder

	b.WriteString("You are a website audit expert. Based on the following audit data, provide specific, actionable recommendations.\n\n")
	fmt.Fprintf(&b, "SITE: %s\n\n", report.SiteURL)

	if s := report.Scores; s != nil {
		b.WriteString("SCORES (0-100, -1 means not measured):\n")
		fmt.Fprintf(&b, "- Overall: %d\n- SEO: %d\n- Security: %d\n- Content: %d\n- Crawl: %d\n- Performance: %d\n- Accessibility: %d\n\n",
			s.Overall, s.SEO, s.Security, s.Content, s.Crawl, s.Performance, s.Accessibility)
	}

	if ps := report.PageSpeed; ps != nil && len(ps.Vitals) > 0 {
		b.WriteString("CORE WEB VITALS:\n")
		for _, v := range ps.Vitals {
			fmt.Fprintf(&b, "- %s: %.2f (target %.2f, %s)\n", v.Metric, v.Value, v.Target, v.Status)
		}
		b.WriteString("\n")
	}

	if sr := report.SimpleReport; sr != nil && len(sr.Findings) > 0 {
		b.WriteString("TOP FINDINGS (worst first):\n")
		listed := 0
		severities := []model.Severity{
			model.SeverityCritical, model.SeverityHigh, model.SeverityMedium,
			model.SeverityLow, model.SeverityInfo,
		}
		for _, sev := range severities {
			for _, f := range sr.FindingsBySeverity(sev) {
				if listed >= maxPromptFindings {
					break
				}
				fmt.Fprintf(&b, "- [%s] %s", f.SeverityText, f.Title)
				if f.Value != "" {
					fmt.Fprintf(&b, ": %s", f.Value)
				}
				b.WriteString("\n")
				listed++
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(`Respond with JSON in this EXACT shape:
{
  "critical": [{"issue": "...", "impact": "High|Medium|Low", "effort": "High|Medium|Low", "description": "how to fix", "expected_improvement": "expected result"}],
  "high_priority": [...],
  "medium_priority": [...],
  "quick_wins": [...]
}
Include at most 3 items per category. Be specific and actionable.`)

	return b.String()
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", ErrEmptyResponse
	}

	return strings.Join(parts, ""), nil
}

// parseResponse decodes the model's JSON answer.
func parseResponse(text string) (*model.Recommendations, error) {
	var recs model.Recommendations
	if err := json.Unmarshal([]byte(cleanJSONBlock(text)), &recs); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	recs.Source = "ai"
	return &recs, nil
}

// cleanJSONBlock strips markdown code fences the model sometimes adds
// despite the JSON response type.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Package advisor turns audit results into prioritized remediation
// advice.
//
// Two generators share one output shape. The Gemini-backed generator
// sends a compact summary of the scores and worst findings to the model
// and parses its JSON answer. The rule-based generator derives advice
// directly from the findings and runs whenever no API key is configured
// or the API call fails, so every audit ends with recommendations.
package advisor

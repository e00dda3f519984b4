// Package insight turns a set of expense records into a short advisory tip
// from an external text-generation service.
package insight

import (
	"strings"

	"seta/internal/core"
)

// Fixed copy shown instead of a generated tip. Each outcome has its own
// text so a reader can tell "no data yet" from "service unavailable".
const (
	PlaceholderText = "Start adding expenses to get AI-powered financial advice!"
	FallbackText    = "Could not generate insights at the moment."
	UnavailableText = "AI Insights are unavailable right now."
)

const promptTemplate = `Act as a friendly financial advisor for a student.
Here is my recent expense history:
%s

Give me one short, encouraging, and specific tip (max 2 sentences) on how I can save money or what I'm doing well.
Don't use complex financial jargon. Use emojis.`

// BuildPrompt renders records as "- category: ₹amount" lines inside the
// advisor template, with amounts in their shortest form ("₹100", "₹45.5").
// Only category and amount are included. ok is false
// for an empty record set, in which case no request should be made.
func BuildPrompt(records []core.Record) (prompt string, ok bool) {
	if len(records) == 0 {
		return "", false
	}
	var lines strings.Builder
	for i, r := range records {
		if i > 0 {
			lines.WriteByte('\n')
		}
		lines.WriteString("- ")
		lines.WriteString(string(r.Category))
		lines.WriteString(": ₹")
		lines.WriteString(r.Amount.String())
	}
	return strings.Replace(promptTemplate, "%s", lines.String(), 1), true
}

// Normalize returns the trimmed generated text, or FallbackText when the
// call failed or produced nothing.
func Normalize(text string, err error) string {
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		return FallbackText
	}
	return text
}

package extraction

import (
	"fmt"
	"strings"
)

// SystemPrompt is the fixed instruction sent with every extraction request.
const SystemPrompt = "You convert natural language expense descriptions into strict JSON."

// DefaultTemperature keeps extraction replies close to deterministic.
const DefaultTemperature float32 = 0.2

// buildTaskPrompt lists the record fields, the date format, the null rule and the
// category vocabulary, followed by the transcript.
func buildTaskPrompt(transcript string, categories []string) string {
	var b strings.Builder
	b.WriteString("Extract an expense record from the user speech.\n")
	b.WriteString("Return JSON with keys:\n")
	b.WriteString("- \"amount\": number\n")
	b.WriteString("- \"currency\": string, ISO 4217 code\n")
	b.WriteString("- \"category\": string\n")
	b.WriteString("- \"merchant\": string or null\n")
	b.WriteString("- \"date\": string, format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"note\": string\n")
	b.WriteString("If unsure about a field, set it to null.\n")
	if len(categories) > 0 {
		fmt.Fprintf(&b, "Use one of these categories when one fits: %s.\n", strings.Join(categories, ", "))
	}
	b.WriteString("Speech: ")
	b.WriteString(transcript)
	return b.String()
}

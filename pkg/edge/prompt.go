package edge

import (
	"fmt"
	"strings"
)

const systemPreamble = `You are a helpful assistant running on a distributed fleet of local models. Answer clearly and concisely. If you are not sure about something, say so.`

const visionPreamble = systemPreamble + ` The user attached one or more images; describe and use them when they are relevant to the question.`

// buildPrompt assembles the final prompt forwarded to the coordinator:
// system preamble, optional retrieval context, recent chat turns, then
// the user's question.
func buildPrompt(prompt string, docs []ScoredDocument, history []Message, hasImages bool) string {
	var b strings.Builder
	if hasImages {
		b.WriteString(visionPreamble)
	} else {
		b.WriteString(systemPreamble)
	}
	b.WriteString("\n\n")

	if len(docs) > 0 {
		b.WriteString("Relevant context:\n")
		for _, d := range docs {
			fmt.Fprintf(&b, "[%s]\n%s\n\n", d.Title, d.Content)
		}
	}

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("User Question: ")
	b.WriteString(prompt)
	return b.String()
}

// Package services – context assembly
//
// The model gets a short rolling transcript rendered as plain text. An empty
// transcript must yield an empty string so the prompt can omit the context
// block entirely; a contextless header confuses the model.
package services

import (
	"strings"

	"github.com/raphiebot/go-discord-relay/internal/domain"
)

// contextHeader prefixes the rendered transcript block.
const contextHeader = "Recent conversation:"

// BuildContext renders transcript entries (oldest first) as one text block
// suitable for prompt injection. Returns "" when there are no entries.
func BuildContext(entries []domain.TranscriptEntry) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, contextHeader)
	for _, e := range entries {
		name := e.Username
		if e.IsBot {
			name = "Bot"
		}
		lines = append(lines, "["+name+"]: "+e.Content)
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt combines the optional context block and the current message
// into the user-role prompt. When contextBlock is empty, the context section
// is omitted rather than injected as an empty header.
func BuildPrompt(contextBlock, content string) string {
	if contextBlock == "" {
		return content
	}
	var b strings.Builder
	b.WriteString("CONVERSATION CONTEXT:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nCURRENT MESSAGE:\n")
	b.WriteString(content)
	return b.String()
}

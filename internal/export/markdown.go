package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/langlog/internal"
)

// MarkdownExporter exports logs in Markdown format
type MarkdownExporter struct{}

// Export exports a log to Markdown format
func (e *MarkdownExporter) Export(log *internal.Log, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# Log %s\n\n", log.Name)
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(log.Messages))
	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	// Messages
	for i, msg := range log.Messages {
		timestamp := ""
		if msg.Meta != nil && msg.Meta.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Meta.Timestamp)
		}

		content := escapeMarkdown(msg.Content)

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, content)

		for _, att := range msg.Attachments {
			_, _ = fmt.Fprintf(w, "*%s attachment: %s*\n\n", att.Kind, att.Ref)
		}

		// Add horizontal rule after each message (except the last one)
		if i < len(log.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters outside code fences
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}

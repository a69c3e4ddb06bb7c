package export

import (
	"fmt"
	"io"

	"github.com/iksnae/langlog/internal"
)

// TextExporter exports logs as a plain transcript
type TextExporter struct{}

// Export exports a log to plain text
func (e *TextExporter) Export(log *internal.Log, w io.Writer) error {
	for _, msg := range log.Messages {
		if _, err := fmt.Fprintf(w, "[%s]\n%s\n\n", msg.Role, msg.Content); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *TextExporter) Extension() string {
	return "txt"
}

// Package export renders read-only projections of a language log in
// various formats. Exporting never mutates the stored log.
package export

import (
	"fmt"
	"io"

	"github.com/iksnae/langlog/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(log *internal.Log, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "txt", "text":
		return &TextExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, jsonl, yaml, md, txt)", format)
	}
}

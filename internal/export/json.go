package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/langlog/internal"
)

// JSONExporter exports logs as a single indented JSON document
type JSONExporter struct{}

// Export exports a log to JSON format
func (e *JSONExporter) Export(log *internal.Log, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}

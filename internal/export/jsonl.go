package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/langlog/internal"
)

// JSONLExporter exports logs with one JSON message per line
type JSONLExporter struct{}

// Export exports a log to JSONL format
func (e *JSONLExporter) Export(log *internal.Log, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, msg := range log.Messages {
		if err := enc.Encode(msg); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

package export

import (
	"io"

	"github.com/iksnae/langlog/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports logs in YAML format
type YAMLExporter struct{}

// Export exports a log to YAML format
func (e *YAMLExporter) Export(log *internal.Log, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(log)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}

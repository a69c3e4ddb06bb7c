package export

import (
	"testing"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantExt string
		wantErr bool
	}{
		{name: "json", format: "json", wantExt: "json"},
		{name: "jsonl", format: "jsonl", wantExt: "jsonl"},
		{name: "yaml", format: "yaml", wantExt: "yaml"},
		{name: "md", format: "md", wantExt: "md"},
		{name: "markdown alias", format: "markdown", wantExt: "md"},
		{name: "txt", format: "txt", wantExt: "txt"},
		{name: "text alias", format: "text", wantExt: "txt"},
		{name: "unsupported", format: "csv", wantErr: true},
		{name: "empty", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
				return
			}
			if !tt.wantErr && exporter.Extension() != tt.wantExt {
				t.Errorf("NewExporter(%q).Extension() = %v, want %v", tt.format, exporter.Extension(), tt.wantExt)
			}
		})
	}
}

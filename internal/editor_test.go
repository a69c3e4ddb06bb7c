package internal

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/langlog/testutil"
)

func assistantWithCode(t *testing.T, code string) *Log {
	t.Helper()
	return CreateTestLogWithMessages("editor", []Message{
		{Role: RoleUser, Content: "write it"},
		{Role: RoleAssistant, Content: code},
	})
}

func TestEditor_ApplyWritesAndRecords(t *testing.T) {
	root := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "editor")
	ed := NewEditor(ws, FixedDecision(DecisionWrite), nil)

	log := assistantWithCode(t, "```python\n# factorial.py\ndef factorial(n):\n    return 1\n```")
	blocks, err := ExtractBlocks(log, -1)
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}

	got, applied, err := ed.Apply(context.Background(), log, blocks)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("applied %d blocks, want 1", len(applied))
	}

	target := filepath.Join(ws.Root(), "factorial.py")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("written file missing: %v", err)
	}
	if string(data) != "# factorial.py\ndef factorial(n):\n    return 1" {
		t.Errorf("written content = %q", data)
	}

	// The write leaves an auditable tool message behind.
	last, ok := got.Last()
	if !ok || last.Role != RoleTool {
		t.Fatalf("last message role = %q, want tool", last.Role)
	}
	var record Applied
	if err := json.Unmarshal([]byte(last.Content), &record); err != nil {
		t.Fatalf("tool message is not a write record: %v", err)
	}
	if record.Path != target || record.Decision != "write" {
		t.Errorf("record = %+v", record)
	}
	if record.Backup != "" {
		t.Errorf("first write recorded backup %q, want none", record.Backup)
	}
}

func TestEditor_ApplyBacksUpOverwrite(t *testing.T) {
	root := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "editor")
	ed := NewEditor(ws, FixedDecision(DecisionWrite), nil)

	first := assistantWithCode(t, "```python\n# factorial.py\noriginal = True\n```")
	blocks, err := ExtractBlocks(first, -1)
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}
	if _, _, err := ed.Apply(context.Background(), first, blocks); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}

	second := assistantWithCode(t, "```python\n# factorial.py\noriginal = False\n```")
	blocks, err = ExtractBlocks(second, -1)
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}
	_, applied, err := ed.Apply(context.Background(), second, blocks)
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	want := filepath.Join(ws.BackupDir(), "factorial.py.1")
	if applied[0].Backup != want {
		t.Errorf("backup path = %q, want %q", applied[0].Backup, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(data) != "# factorial.py\noriginal = True" {
		t.Errorf("backup content = %q, want the pre-overwrite version", data)
	}
}

func TestEditor_ApplyRejectsEscapeBeforeAnyWrite(t *testing.T) {
	root := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "editor")
	ed := NewEditor(ws, FixedDecision(DecisionWrite), nil)

	log := assistantWithCode(t, "```python\n# safe.py\nx = 1\n```\n```sh\n# ../../escape.sh\nrm -rf /\n```")
	blocks, err := ExtractBlocks(log, -1)
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}

	before := len(log.Messages)
	_, applied, err := ed.Apply(context.Background(), log, blocks)
	var secErr *PathSecurityError
	if !errors.As(err, &secErr) {
		t.Fatalf("Apply() error = %v, want PathSecurityError", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied %d blocks despite escape, want 0", len(applied))
	}
	if len(log.Messages) != before {
		t.Errorf("log grew to %d messages despite escape", len(log.Messages))
	}
	// Not even the safe block may be written.
	if _, err := os.Stat(filepath.Join(ws.Root(), "safe.py")); !os.IsNotExist(err) {
		t.Error("safe.py written despite a sibling escape attempt")
	}
}

func TestEditor_ApplySkip(t *testing.T) {
	root := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "editor")
	ed := NewEditor(ws, FixedDecision(DecisionSkip), nil)

	log := assistantWithCode(t, "```python\n# skipped.py\nx = 1\n```")
	blocks, err := ExtractBlocks(log, -1)
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}

	got, applied, err := ed.Apply(context.Background(), log, blocks)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied %d blocks, want 0", len(applied))
	}
	if last, ok := got.Last(); ok && last.Role == RoleTool {
		t.Error("skip appended a tool message")
	}
	if _, err := os.Stat(filepath.Join(ws.Root(), "skipped.py")); !os.IsNotExist(err) {
		t.Error("skipped block was written")
	}
}

func TestEditor_ApplyEditLaunches(t *testing.T) {
	root := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "editor")

	var launched []string
	launch := func(ctx context.Context, path string) error {
		launched = append(launched, path)
		return nil
	}
	ed := NewEditor(ws, FixedDecision(DecisionEdit), launch)

	log := assistantWithCode(t, "```python\n# tweak.py\nx = 1\n```")
	blocks, err := ExtractBlocks(log, -1)
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}
	if _, _, err := ed.Apply(context.Background(), log, blocks); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	want := filepath.Join(ws.Root(), "tweak.py")
	if len(launched) != 1 || launched[0] != want {
		t.Errorf("launched = %v, want [%s]", launched, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("edited file not written first: %v", err)
	}
}

func TestEditor_DerivedFilenameForAnonymousBlock(t *testing.T) {
	root := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "editor")
	ed := NewEditor(ws, FixedDecision(DecisionWrite), nil)

	log := assistantWithCode(t, "```python\nprint('anonymous')\n```")
	blocks, err := ExtractBlocks(log, -1)
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}

	_, applied, err := ed.Apply(context.Background(), log, blocks)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	base := filepath.Base(applied[0].Path)
	if filepath.Ext(base) != ".py" {
		t.Errorf("derived name = %q, want .py extension", base)
	}
	if _, err := os.Stat(applied[0].Path); err != nil {
		t.Errorf("derived target not written: %v", err)
	}
}

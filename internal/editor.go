package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/editor"
)

// Decision is the per-block choice when applying extracted code.
type Decision string

const (
	DecisionWrite Decision = "write"
	DecisionSkip  Decision = "skip"
	DecisionEdit  Decision = "edit"
)

// Applied records one filesystem side effect of the extractor. It is
// serialized into a tool-role message so the log carries an auditable trail
// of every write.
type Applied struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Decision string `json:"decision"`
	Backup   string `json:"backup_path,omitempty"`
}

// DecideFunc chooses what to do with one extracted block whose target
// resolved to path.
type DecideFunc func(block CodeBlock, path string) (Decision, error)

// LaunchFunc opens path in an external editing surface and blocks until
// the user is done.
type LaunchFunc func(ctx context.Context, path string) error

// Editor applies extracted code blocks to a workspace.
type Editor struct {
	ws     *Workspace
	decide DecideFunc
	launch LaunchFunc
}

// NewEditor creates an editor over a workspace. decide picks the per-block
// decision; launch opens the external editor (defaults to $EDITOR).
func NewEditor(ws *Workspace, decide DecideFunc, launch LaunchFunc) *Editor {
	if launch == nil {
		launch = launchExternal
	}
	return &Editor{ws: ws, decide: decide, launch: launch}
}

// FixedDecision returns a DecideFunc that applies the same decision to
// every block, for non-interactive runs.
func FixedDecision(d Decision) DecideFunc {
	return func(CodeBlock, string) (Decision, error) { return d, nil }
}

// PromptDecision returns a DecideFunc that asks on in/out per block:
// write (w), skip (s) or edit (e).
func PromptDecision(in io.Reader, out io.Writer) DecideFunc {
	reader := bufio.NewReader(in)
	return func(block CodeBlock, path string) (Decision, error) {
		fmt.Fprintf(out, "--- %s block -> %s\n%s\n", block.Language, path, block.Source)
		for {
			fmt.Fprint(out, "Write to file (w), skip (s), or edit (e)? ")
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return DecisionSkip, nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "w":
				return DecisionWrite, nil
			case "s", "":
				return DecisionSkip, nil
			case "e":
				return DecisionEdit, nil
			}
		}
	}
}

// Apply resolves each block to a workspace path, carries out the decision
// and appends one tool message per applied write. A PathSecurityError is
// fatal to the whole apply: no block is written once one target escapes.
func (e *Editor) Apply(ctx context.Context, log *Log, blocks []CodeBlock) (*Log, []Applied, error) {
	// Validate every target before touching the filesystem.
	paths := make([]string, len(blocks))
	for i, block := range blocks {
		name := block.Filename
		if name == "" {
			name = DeriveFilename(block.Language, block.Source)
		}
		path, err := e.ws.Resolve(name)
		if err != nil {
			return log, nil, err
		}
		paths[i] = path
	}

	if err := e.ws.Ensure(); err != nil {
		return log, nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	var applied []Applied
	for i, block := range blocks {
		decision, err := e.decide(block, paths[i])
		if err != nil {
			return log, applied, err
		}
		if decision == DecisionSkip {
			LogDebug("skipped block %d (%s)", i, block.Language)
			continue
		}

		record, err := e.applyWrite(ctx, block, paths[i], decision)
		if err != nil {
			return log, applied, err
		}
		applied = append(applied, record)

		content, err := json.Marshal(record)
		if err != nil {
			return log, applied, fmt.Errorf("failed to record write: %w", err)
		}
		log.Append(NewMessage(RoleTool, string(content)))
	}

	return log, applied, nil
}

// applyWrite backs up any existing target, writes the block's content, and
// for the edit decision re-opens the written file in the external editor.
func (e *Editor) applyWrite(ctx context.Context, block CodeBlock, path string, decision Decision) (Applied, error) {
	backup, err := e.ws.Backup(path)
	if err != nil {
		return Applied{}, err
	}

	if err := os.WriteFile(path, []byte(block.Source), 0644); err != nil {
		return Applied{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if decision == DecisionEdit {
		if err := e.launch(ctx, path); err != nil {
			return Applied{}, fmt.Errorf("editor failed on %s: %w", path, err)
		}
	}

	LogInfo("%s %s", decision, path)
	return Applied{
		Path:     path,
		Language: block.Language,
		Decision: string(decision),
		Backup:   backup,
	}, nil
}

// launchExternal opens path in the user's $EDITOR.
func launchExternal(ctx context.Context, path string) error {
	cmd, err := editor.Cmd("langlog", path)
	if err != nil {
		return err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

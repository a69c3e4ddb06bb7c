package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Env holds the collaborators the builtin plugins close over. One Env
// serves one session.
type Env struct {
	Store       *Store
	Provider    Provider
	In          io.Reader
	Out         io.Writer
	Interactive bool

	// ExportFunc renders a log in a named format. Injected by the caller
	// so this package stays independent of the export package.
	ExportFunc func(format string, log *Log, w io.Writer) error

	// Launch overrides the external editor, mainly for tests.
	Launch LaunchFunc

	// Execution bounds for the sandbox; zero values take defaults.
	Timeout   time.Duration
	OutputCap int
}

func (e *Env) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return os.Stdout
}

func (e *Env) in() io.Reader {
	if e.In != nil {
		return e.In
	}
	return os.Stdin
}

// workspace maps the current log to its execution directory.
func (e *Env) workspace(log *Log) *Workspace {
	return NewWorkspace(e.Store.Root(), log.Name)
}

// Builtins returns the descriptors of every builtin plugin. The caller
// passes them to NewRegistry once at startup.
func Builtins(env *Env) []Descriptor {
	return []Descriptor{
		{
			Flag: "load",
			Kind: KindTransformer,
			Help: "Replace the session with a log loaded from disk",
			Options: map[string]OptionSpec{
				"name": {Type: OptionString, Default: ""},
			},
			Run: env.loadPlugin,
		},
		{
			Flag: "write",
			Kind: KindTransformer,
			Help: "Persist the log to disk",
			Options: map[string]OptionSpec{
				"name": {Type: OptionString, Default: ""},
			},
			Run: env.writePlugin,
		},
		{
			Flag: "new",
			Kind: KindGenerator,
			Help: "Append a message",
			Options: map[string]OptionSpec{
				"content": {Type: OptionString, Default: ""},
				"role":    {Type: OptionString, Default: string(RoleUser)},
			},
			Run: env.newPlugin,
		},
		{
			Flag: "detach",
			Kind: KindTransformer,
			Help: "Remove the last message",
			Run:  env.detachPlugin,
		},
		{
			Flag: "remove",
			Kind: KindTransformer,
			Help: "Remove the message at the target index",
			Run:  env.removePlugin,
		},
		{
			Flag: "attach",
			Kind: KindTransformer,
			Help: "Append all messages from another log",
			Options: map[string]OptionSpec{
				"name": {Type: OptionString, Default: ""},
			},
			Run: env.attachPlugin,
		},
		{
			Flag: "fold",
			Kind: KindTransformer,
			Help: "Merge the trailing run of same-role messages into one",
			Run:  env.foldPlugin,
		},
		{
			Flag:    "view",
			Kind:    KindAnalyzer,
			Help:    "Print the log with role-colored formatting",
			Analyze: env.viewPlugin,
		},
		{
			Flag: "export",
			Kind: KindAnalyzer,
			Help: "Render a read-only projection of the log",
			Options: map[string]OptionSpec{
				"format": {Type: OptionString, Default: "text"},
				"out":    {Type: OptionString, Default: ""},
			},
			Analyze: env.exportPlugin,
		},
		{
			Flag: "complete",
			Kind: KindGenerator,
			Help: "Ask the completion backend for the next message",
			Options: map[string]OptionSpec{
				"model":       {Type: OptionString, Default: ""},
				"temperature": {Type: OptionFloat, Default: 0.7},
				"max_tokens":  {Type: OptionInt, Default: 1024},
			},
			Run: env.completePlugin,
		},
		{
			Flag: "extract",
			Kind: KindGenerator,
			Help: "Write fenced code blocks from the target message into the workspace",
			Options: map[string]OptionSpec{
				"decision": {Type: OptionString, Default: ""},
			},
			Run: env.extractPlugin,
		},
		{
			Flag: "execute",
			Kind: KindGenerator,
			Help: "Run a workspace file in the sandbox and record the result",
			Options: map[string]OptionSpec{
				"file":     {Type: OptionString, Default: ""},
				"language": {Type: OptionString, Default: ""},
				"command":  {Type: OptionString, Default: ""},
				"verify":   {Type: OptionString, Default: ""},
				"timeout":  {Type: OptionInt, Default: 0},
			},
			Run: env.executePlugin,
		},
	}
}

func (e *Env) loadPlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	name := opts.String("name")
	if name == "" {
		name = log.Name
	}
	loaded, err := e.Store.Load(name)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(e.out(), "Loaded %d messages from %q.\n", len(loaded.Messages), name)
	return loaded, nil
}

func (e *Env) writePlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	if name := opts.String("name"); name != "" {
		log.Name = name
	}
	if err := e.Store.Write(log); err != nil {
		return nil, err
	}
	fmt.Fprintf(e.out(), "Saved %d messages to %q.\n", len(log.Messages), log.Name)
	return log, nil
}

func (e *Env) newPlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	role := Role(opts.String("role"))
	if !ValidRole(role) {
		return nil, &ValidationError{Plugin: "new", Option: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}
	content := opts.String("content")
	if content == "" {
		return nil, &ValidationError{Plugin: "new", Option: "content", Reason: "content is required"}
	}
	log.Append(NewMessage(role, content))
	return log, nil
}

func (e *Env) detachPlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	removed, err := log.Detach()
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(e.out(), "Detached %s message (%d left).\n", removed.Role, len(log.Messages))
	return log, nil
}

func (e *Env) removePlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	i, err := log.ResolveIndex(index)
	if err != nil {
		return nil, err
	}
	log.Messages = append(log.Messages[:i], log.Messages[i+1:]...)
	fmt.Fprintf(e.out(), "Removed message at index %d.\n", i)
	return log, nil
}

func (e *Env) attachPlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	name := opts.String("name")
	if name == "" {
		return nil, &ValidationError{Plugin: "attach", Option: "name", Reason: "name is required"}
	}
	other, err := e.Store.Load(name)
	if err != nil {
		return nil, err
	}
	log.Messages = append(log.Messages, other.Messages...)
	fmt.Fprintf(e.out(), "Attached %d messages from %q.\n", len(other.Messages), name)
	return log, nil
}

func (e *Env) foldPlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	folded := 0
	for len(log.Messages) > 1 {
		last := log.Messages[len(log.Messages)-1]
		prev := &log.Messages[len(log.Messages)-2]
		if prev.Role != last.Role {
			break
		}
		prev.Content += "\n" + last.Content
		log.Messages = log.Messages[:len(log.Messages)-1]
		folded++
	}
	fmt.Fprintf(e.out(), "Folded %d message(s).\n", folded)
	return log, nil
}

func (e *Env) viewPlugin(ctx context.Context, log *Log, opts Options) (*Report, error) {
	RenderLog(e.out(), log)
	return &Report{Summary: fmt.Sprintf("%d messages", len(log.Messages))}, nil
}

func (e *Env) exportPlugin(ctx context.Context, log *Log, opts Options) (*Report, error) {
	if e.ExportFunc == nil {
		return nil, fmt.Errorf("no export backend configured")
	}
	format := opts.String("format")

	w := e.out()
	target := "stdout"
	if out := opts.String("out"); out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
		f, err := os.Create(out)
		if err != nil {
			return nil, fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
		target = out
	}

	if err := e.ExportFunc(format, log, w); err != nil {
		return nil, err
	}
	return &Report{Summary: fmt.Sprintf("exported %d messages as %s to %s", len(log.Messages), format, target)}, nil
}

func (e *Env) completePlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	if e.Provider == nil {
		return nil, &ProviderError{Transient: false, Err: fmt.Errorf("no provider configured")}
	}
	reply, err := e.Provider.Complete(ctx, log.Messages, CompletionOptions{
		Model:       opts.String("model"),
		Temperature: opts.Float("temperature"),
		MaxTokens:   opts.Int("max_tokens"),
	})
	if err != nil {
		return nil, err
	}
	log.Append(reply)
	return log, nil
}

func (e *Env) extractPlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	blocks, err := ExtractBlocks(log, index)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		fmt.Fprintln(e.out(), "No code blocks found.")
		return log, nil
	}

	var decide DecideFunc
	switch {
	case opts.String("decision") != "":
		d := Decision(opts.String("decision"))
		switch d {
		case DecisionWrite, DecisionSkip, DecisionEdit:
			decide = FixedDecision(d)
		default:
			return nil, &ValidationError{Plugin: "extract", Option: "decision", Reason: fmt.Sprintf("unknown decision %q", d)}
		}
	case e.Interactive:
		decide = PromptDecision(e.in(), e.out())
	default:
		decide = FixedDecision(DecisionWrite)
	}

	editor := NewEditor(e.workspace(log), decide, e.Launch)
	log, applied, err := editor.Apply(ctx, log, blocks)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(e.out(), "Applied %d of %d block(s).\n", len(applied), len(blocks))
	return log, nil
}

func (e *Env) executePlugin(ctx context.Context, log *Log, opts Options, index int) (*Log, error) {
	file := opts.String("file")
	if file == "" {
		return nil, &ValidationError{Plugin: "execute", Option: "file", Reason: "file is required"}
	}

	runner := NewRunner(e.workspace(log))
	if e.Timeout > 0 {
		runner.Timeout = e.Timeout
	}
	if timeout := opts.Int("timeout"); timeout > 0 {
		runner.Timeout = time.Duration(timeout) * time.Second
	}
	if e.OutputCap > 0 {
		runner.OutputCap = e.OutputCap
	}

	var command, verify []string
	if c := opts.String("command"); c != "" {
		command = strings.Fields(c)
	}
	if v := opts.String("verify"); v != "" {
		verify = strings.Fields(v)
	}

	result, err := runner.Run(ctx, file, opts.String("language"), command, verify)
	if err != nil {
		return nil, err
	}

	// Execution failure is data, not an abort: the result is appended and
	// the session goes on so the operator can iterate.
	log.Append(result.Message())
	if result.Ok() {
		fmt.Fprintf(e.out(), "Run %s ok in %dms.\n", result.RunID, result.DurationMS)
	} else {
		execErr := &ExecutionError{Path: file, ExitCode: result.ExitCode, TimedOut: result.TimedOut}
		fmt.Fprintf(e.out(), "Run %s failed: %v\n", result.RunID, execErr)
	}
	if result.Stdout != "" {
		fmt.Fprintln(e.out(), result.Stdout)
	}
	return log, nil
}

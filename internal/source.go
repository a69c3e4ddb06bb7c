package internal

import (
	"bufio"
	"fmt"
	"io"
)

// CommandSource yields the session's commands one at a time. The
// orchestrator's loop body is identical for every source; only the
// suspension behavior differs: interactive sources block on a human,
// script sources are finite and pre-materialized.
type CommandSource interface {
	Next() (string, bool)
}

// ScriptSource replays a fixed sequence of commands, then ends.
type ScriptSource struct {
	commands []string
	pos      int
}

// NewScriptSource builds a source over pre-computed commands.
func NewScriptSource(commands []string) *ScriptSource {
	return &ScriptSource{commands: commands}
}

// Next returns the next scripted command.
func (s *ScriptSource) Next() (string, bool) {
	if s.pos >= len(s.commands) {
		return "", false
	}
	cmd := s.commands[s.pos]
	s.pos++
	return cmd, true
}

// InteractiveSource reads commands line by line, printing a prompt first.
type InteractiveSource struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

// NewInteractiveSource builds a source reading from in and prompting on out.
func NewInteractiveSource(in io.Reader, out io.Writer) *InteractiveSource {
	return &InteractiveSource{
		scanner: bufio.NewScanner(in),
		out:     out,
		prompt:  "langlog> ",
	}
}

// Next blocks until the human enters a line. EOF ends the session.
func (s *InteractiveSource) Next() (string, bool) {
	fmt.Fprint(s.out, s.prompt)
	if !s.scanner.Scan() {
		return "", false
	}
	return s.scanner.Text(), true
}

// ChainSource drains each source in turn. It lets startup directives run
// before the interactive loop takes over.
type ChainSource struct {
	sources []CommandSource
}

// NewChainSource concatenates sources.
func NewChainSource(sources ...CommandSource) *ChainSource {
	return &ChainSource{sources: sources}
}

// Next returns the next command from the first non-exhausted source.
func (c *ChainSource) Next() (string, bool) {
	for len(c.sources) > 0 {
		if cmd, ok := c.sources[0].Next(); ok {
			return cmd, true
		}
		c.sources = c.sources[1:]
	}
	return "", false
}

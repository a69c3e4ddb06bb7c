package internal

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SessionState tracks where the orchestrator is in its loop.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingCommand
	StateDispatching
	StatePersisted
	StateStopped
)

// Orchestrator drives one session: it reads commands from a source,
// dispatches them over the current log and keeps the journal. One command
// is processed fully before the next is read; there are no overlapping
// dispatches within a session.
type Orchestrator struct {
	env        *Env
	registry   *Registry
	dispatcher *Dispatcher
	journal    *Journal
	log        *Log
	state      SessionState
}

// NewOrchestrator wires a session over an environment, registry and an
// optional journal.
func NewOrchestrator(env *Env, registry *Registry, journal *Journal, log *Log) *Orchestrator {
	return &Orchestrator{
		env:        env,
		registry:   registry,
		dispatcher: NewDispatcher(registry),
		journal:    journal,
		log:        log,
		state:      StateIdle,
	}
}

// Log returns the current in-memory log.
func (o *Orchestrator) Log() *Log {
	return o.log
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() SessionState {
	return o.state
}

// Run processes commands until the source ends or a quit command arrives.
// Interactive sessions print diagnostics and keep going; non-interactive
// sessions stop at the first unrecovered error so the process can exit
// nonzero.
func (o *Orchestrator) Run(ctx context.Context, src CommandSource) error {
	for {
		o.state = StateAwaitingCommand
		raw, ok := src.Next()
		if !ok {
			break
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		switch raw {
		case "quit", "exit":
			o.state = StateStopped
			return nil
		case "help":
			o.printHelp()
			continue
		}

		inv, isPlugin, err := o.parse(raw)
		if err != nil {
			if handled := o.report(err); handled {
				continue
			}
			o.state = StateStopped
			return err
		}

		if !isPlugin {
			// Anything that is not a registered plugin is treated as a
			// user message, the way a chat turn is entered.
			o.log.Append(NewMessage(Role(o.roleFor()), raw))
			continue
		}

		o.state = StateDispatching
		next, reports, err := o.dispatcher.Dispatch(ctx, o.log, []Invocation{inv})
		o.log = next
		o.record(inv, err)

		for _, r := range reports {
			if r.Summary != "" {
				fmt.Fprintf(o.env.out(), "[%s] %s\n", r.Plugin, r.Summary)
			}
		}

		if err != nil {
			if handled := o.report(err); handled {
				continue
			}
			o.state = StateStopped
			return err
		}

		if inv.Flag == "write" {
			o.state = StatePersisted
		}
	}

	o.state = StateStopped
	return nil
}

// report prints a diagnostic and tells the loop whether the session can
// continue (interactive) or must surface the error (non-interactive).
func (o *Orchestrator) report(err error) bool {
	if o.env.Interactive {
		fmt.Fprintf(o.env.out(), "Error: %v\n", err)
		return true
	}
	return false
}

// record writes one dispatch outcome to the journal, if there is one.
func (o *Orchestrator) record(inv Invocation, dispatchErr error) {
	if o.journal == nil {
		return
	}

	status, detail := "ok", ""
	if dispatchErr != nil {
		status, detail = "error", dispatchErr.Error()
	}

	keys := make([]string, 0, len(inv.Options))
	for k := range inv.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+inv.Options[k])
	}

	if err := o.journal.Record(o.log.Name, inv.Flag, strings.Join(parts, " "), status, detail); err != nil {
		LogWarn("journal: %v", err)
	}
}

func (o *Orchestrator) roleFor() string {
	return string(RoleUser)
}

func (o *Orchestrator) printHelp() {
	fmt.Fprintf(o.env.out(), "Available plugins: %s\n", strings.Join(o.registry.Flags(), ", "))
	fmt.Fprintln(o.env.out(), "Other commands: help, quit")
	fmt.Fprintln(o.env.out(), "Anything else is appended to the log as a user message.")
}

// parse turns one command line into an invocation. The grammar is
// "<flag> [opt=value ...] [@index]"; a first token that is not a
// registered flag means the line is a chat message, not a command.
func (o *Orchestrator) parse(raw string) (Invocation, bool, error) {
	tokens := strings.Fields(raw)
	flag := tokens[0]
	if !o.registry.Has(flag) {
		return Invocation{}, false, nil
	}

	inv := Invocation{Flag: flag, Options: make(map[string]string), Index: -1}
	for _, tok := range tokens[1:] {
		if strings.HasPrefix(tok, "@") {
			n, err := strconv.Atoi(tok[1:])
			if err != nil {
				return Invocation{}, true, &ValidationError{Plugin: flag, Reason: fmt.Sprintf("bad index %q", tok)}
			}
			inv.Index = n
			continue
		}
		if name, value, ok := strings.Cut(tok, "="); ok {
			inv.Options[name] = value
			continue
		}
		return Invocation{}, true, &ValidationError{Plugin: flag, Reason: fmt.Sprintf("unexpected argument %q", tok)}
	}

	return inv, true, nil
}

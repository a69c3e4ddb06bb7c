package internal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Invocation is one requested plugin call: a flag, raw textual options and
// a target message index (-1 means the last message).
type Invocation struct {
	Flag    string
	Options map[string]string
	Index   int
}

// Dispatcher resolves invocations against the registry, validates options
// and threads the log through each handler in order.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over a registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch runs a chain of invocations. The output log of invocation i is
// the input to invocation i+1. The chain is fail-fast: the first failure
// aborts the rest, and the returned log is exactly the state after the last
// successful invocation - a failing handler never leaves a partial
// mutation visible, because each handler works on its own clone.
func (d *Dispatcher) Dispatch(ctx context.Context, log *Log, invocations []Invocation) (*Log, []Report, error) {
	current := log
	var reports []Report

	for _, inv := range invocations {
		desc, err := d.registry.Lookup(inv.Flag)
		if err != nil {
			return current, reports, err
		}

		opts, err := coerceOptions(desc, inv.Options)
		if err != nil {
			return current, reports, err
		}

		LogDebug("dispatching %s (kind=%s, index=%d)", desc.Flag, desc.Kind, inv.Index)

		if desc.Kind == KindAnalyzer {
			report, err := desc.Analyze(ctx, current.Clone(), opts)
			if err != nil {
				return current, reports, fmt.Errorf("plugin %s: %w", desc.Flag, err)
			}
			if report != nil {
				report.Plugin = desc.Flag
				reports = append(reports, *report)
			}
			continue
		}

		next, err := desc.Run(ctx, current.Clone(), opts, inv.Index)
		if err != nil {
			return current, reports, fmt.Errorf("plugin %s: %w", desc.Flag, err)
		}
		if next == nil {
			return current, reports, fmt.Errorf("plugin %s returned no log", desc.Flag)
		}
		current = next
	}

	return current, reports, nil
}

// coerceOptions checks raw options against the plugin's declared schema.
// Unknown names and unparsable values are validation errors; missing
// options take their declared default.
func coerceOptions(desc Descriptor, raw map[string]string) (Options, error) {
	opts := make(Options, len(desc.Options))

	for name, spec := range desc.Options {
		opts[name] = spec.Default
	}

	for name, value := range raw {
		spec, ok := desc.Options[name]
		if !ok {
			return nil, &ValidationError{Plugin: desc.Flag, Option: name, Reason: "unknown option"}
		}

		coerced, err := coerceValue(spec.Type, value)
		if err != nil {
			return nil, &ValidationError{Plugin: desc.Flag, Option: name, Reason: err.Error()}
		}
		opts[name] = coerced
	}

	return opts, nil
}

func coerceValue(t OptionType, value string) (interface{}, error) {
	switch t {
	case OptionBool:
		switch strings.ToLower(value) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("cannot parse %q as bool", value)
	case OptionInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as int", value)
		}
		return n, nil
	case OptionFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as float", value)
		}
		return f, nil
	case OptionString:
		return value, nil
	}
	return nil, fmt.Errorf("unknown option type %q", t)
}

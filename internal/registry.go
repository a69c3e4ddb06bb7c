package internal

import (
	"context"
	"fmt"
	"sort"
)

// Kind classifies what a plugin does with the log.
type Kind string

const (
	// KindTransformer plugins rewrite the log in place (detach, fold...).
	KindTransformer Kind = "transformer"
	// KindAnalyzer plugins inspect the log and report without mutating it.
	KindAnalyzer Kind = "analyzer"
	// KindGenerator plugins add new messages (new, complete, execute...).
	KindGenerator Kind = "generator"
)

// OptionType is the declared type of a plugin option.
type OptionType string

const (
	OptionBool   OptionType = "bool"
	OptionInt    OptionType = "int"
	OptionFloat  OptionType = "float"
	OptionString OptionType = "string"
)

// OptionSpec declares one option of a plugin: its type and default. Options
// are validated against the spec at dispatch time, never inferred.
type OptionSpec struct {
	Type    OptionType
	Default interface{}
}

// Options holds validated, coerced option values.
type Options map[string]interface{}

// Bool returns a bool option by name.
func (o Options) Bool(name string) bool {
	v, _ := o[name].(bool)
	return v
}

// Int returns an int option by name.
func (o Options) Int(name string) int {
	v, _ := o[name].(int)
	return v
}

// Float returns a float option by name.
func (o Options) Float(name string) float64 {
	v, _ := o[name].(float64)
	return v
}

// String returns a string option by name.
func (o Options) String(name string) string {
	v, _ := o[name].(string)
	return v
}

// Handler is the contract for transformers and generators: it receives a
// private clone of the log plus validated options and a target message
// index, and returns the next log.
type Handler func(ctx context.Context, log *Log, opts Options, index int) (*Log, error)

// AnalyzeFunc is the contract for analyzers: same inputs, but the log is
// read-only and the result is a side-channel report.
type AnalyzeFunc func(ctx context.Context, log *Log, opts Options) (*Report, error)

// Report is the output of an analyzer.
type Report struct {
	Plugin  string
	Summary string
	Body    string
}

// Descriptor describes one registered plugin.
type Descriptor struct {
	Flag    string
	Kind    Kind
	Help    string
	Options map[string]OptionSpec
	Run     Handler
	Analyze AnalyzeFunc
}

func (d Descriptor) validate() error {
	if d.Flag == "" {
		return fmt.Errorf("plugin flag cannot be empty")
	}
	switch d.Kind {
	case KindTransformer, KindGenerator:
		if d.Run == nil {
			return fmt.Errorf("plugin %s: %s needs a Run handler", d.Flag, d.Kind)
		}
	case KindAnalyzer:
		if d.Analyze == nil {
			return fmt.Errorf("plugin %s: analyzer needs an Analyze handler", d.Flag)
		}
	default:
		return fmt.Errorf("plugin %s: unknown kind %q", d.Flag, d.Kind)
	}
	for name, spec := range d.Options {
		switch spec.Type {
		case OptionBool, OptionInt, OptionFloat, OptionString:
		default:
			return fmt.Errorf("plugin %s: option %s has unknown type %q", d.Flag, name, spec.Type)
		}
	}
	return nil
}

// Registry is the process-wide table of plugins. It is built once at
// startup and read-only afterwards; there is no late registration.
type Registry struct {
	plugins map[string]Descriptor
}

// NewRegistry builds a registry from descriptors. Duplicate flags fail.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{plugins: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, exists := r.plugins[d.Flag]; exists {
			return nil, fmt.Errorf("duplicate plugin flag: %s", d.Flag)
		}
		r.plugins[d.Flag] = d
	}
	return r, nil
}

// Lookup resolves a flag to its descriptor.
func (r *Registry) Lookup(flag string) (Descriptor, error) {
	d, ok := r.plugins[flag]
	if !ok {
		return Descriptor{}, &UnknownPluginError{Flag: flag}
	}
	return d, nil
}

// Has reports whether a flag is registered.
func (r *Registry) Has(flag string) bool {
	_, ok := r.plugins[flag]
	return ok
}

// Flags returns all registered flags in sorted order.
func (r *Registry) Flags() []string {
	flags := make([]string, 0, len(r.plugins))
	for flag := range r.plugins {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	return flags
}

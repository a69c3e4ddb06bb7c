package internal

import "fmt"

// NotFoundError indicates a log file that does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("log not found: %s", e.Name)
}

// ParseError indicates malformed on-disk log content.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EmptyLogError indicates an operation that needs at least one message.
type EmptyLogError struct {
	Name string
}

func (e *EmptyLogError) Error() string {
	return fmt.Sprintf("log %s has no messages", e.Name)
}

// ValidationError indicates a bad or unknown plugin option.
type ValidationError struct {
	Plugin string
	Option string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("validation error [%s]: %s", e.Plugin, e.Reason)
	}
	return fmt.Sprintf("validation error [%s] option %q: %s", e.Plugin, e.Option, e.Reason)
}

// UnknownPluginError indicates a dispatch against an unregistered flag.
type UnknownPluginError struct {
	Flag string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("unknown plugin: %s", e.Flag)
}

// PathSecurityError indicates a generated path escaping its workspace root.
type PathSecurityError struct {
	Root string
	Path string
}

func (e *PathSecurityError) Error() string {
	return fmt.Sprintf("path %q escapes workspace root %q", e.Path, e.Root)
}

// ExecutionError indicates a sandboxed run that exited nonzero or timed out.
// The run's result is still recorded in the log; this error only signals the
// outcome to the caller.
type ExecutionError struct {
	Path     string
	ExitCode int
	TimedOut bool
}

func (e *ExecutionError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("execution of %s timed out", e.Path)
	}
	return fmt.Sprintf("execution of %s exited with code %d", e.Path, e.ExitCode)
}

// LockError indicates a log already held by another session.
type LockError struct {
	Name string
	PID  int
}

func (e *LockError) Error() string {
	return fmt.Sprintf("log %s is locked by another session (pid %d)", e.Name, e.PID)
}

// ProviderError wraps a failure from the completion backend.
type ProviderError struct {
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider error (%s): %v", kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// validLogName restricts log names to path-safe identifiers. Anything with
// separators or dot-dot segments would let a log name wander out of the
// ll directory.
var validLogName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store persists language logs as JSON files under <root>/ll. The on-disk
// format is the array of messages; the log's name is its filename.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// LogDir returns the directory holding log files.
func (s *Store) LogDir() string {
	return filepath.Join(s.root, "ll")
}

// LogPath returns the on-disk path for a log name.
func (s *Store) LogPath(name string) (string, error) {
	if !validLogName.MatchString(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid log name: %q", name)
	}
	return filepath.Join(s.LogDir(), name), nil
}

// Load reads a log from disk.
func (s *Store) Load(name string) (*Log, error) {
	path, err := s.LogPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("failed to read log %s: %w", name, err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	for i, m := range messages {
		if !ValidRole(m.Role) {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("message %d has unknown role %q", i, m.Role)}
		}
	}

	LogDebug("loaded %d messages from %s", len(messages), path)
	return &Log{Name: name, Messages: messages}, nil
}

// Write persists a log atomically: the content goes to a temp file in the
// same directory which is then renamed over the target, so a crash mid-write
// never leaves a truncated log.
func (s *Store) Write(log *Log) error {
	path, err := s.LogPath(log.Name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	data, err := json.MarshalIndent(log.Messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal log %s: %w", log.Name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+log.Name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace log file: %w", err)
	}

	LogDebug("wrote %d messages to %s", len(log.Messages), path)
	return nil
}

// List returns the names of all stored logs, sorted by the filesystem.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.LogDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || strings.HasSuffix(entry.Name(), ".lock") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Acquire takes the advisory single-writer lock for a log name. Two
// sessions on the same log would race on one file, so the second one is
// refused rather than merged. The returned release function removes the
// lock.
func (s *Store) Acquire(name string) (func(), error) {
	path, err := s.LogPath(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lockPath := path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			pid := 0
			if data, readErr := os.ReadFile(lockPath); readErr == nil {
				pid, _ = strconv.Atoi(strings.TrimSpace(string(data)))
			}
			return nil, &LockError{Name: name, PID: pid}
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return func() {
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			LogWarn("failed to remove lock file %s: %v", lockPath, err)
		}
	}, nil
}

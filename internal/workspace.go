package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const backupDirName = ".backup"

// Workspace is the per-log directory holding generated artifacts and their
// backups. The mapping from log name to directory is pure; the directory
// itself is created lazily on first write.
type Workspace struct {
	root string
}

// NewWorkspace maps a log name to its workspace under <root>/exec/<name>.
func NewWorkspace(root, name string) *Workspace {
	return &Workspace{root: filepath.Join(root, "exec", name)}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// Ensure creates the workspace directory if needed. Creating an existing
// directory is a no-op.
func (w *Workspace) Ensure() error {
	return os.MkdirAll(w.root, 0755)
}

// BackupDir returns the directory holding numbered backups.
func (w *Workspace) BackupDir() string {
	return filepath.Join(w.root, backupDirName)
}

// Resolve canonicalizes a candidate filename and verifies it stays inside
// the workspace root. Relative names are joined to the root first. Symlinks
// in the existing part of the path are resolved before the containment
// check so a link cannot smuggle a write outside the root.
func (w *Workspace) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty filename")
	}

	candidate := name
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(w.root, candidate)
	}
	candidate = filepath.Clean(candidate)

	rootAbs, err := filepath.Abs(w.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(rootAbs); err == nil {
		rootAbs = resolved
	}

	candAbs, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	candAbs = resolveExistingPrefix(candAbs)

	rel, err := filepath.Rel(rootAbs, candAbs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathSecurityError{Root: w.root, Path: name}
	}

	return filepath.Join(rootAbs, rel), nil
}

// resolveExistingPrefix resolves symlinks in the deepest existing ancestor
// of path and rejoins the non-existing remainder.
func resolveExistingPrefix(path string) string {
	dir := path
	var rest []string
	for {
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		rest = append([]string{filepath.Base(dir)}, rest...)
		dir = parent
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return path
	}
	return filepath.Join(append([]string{resolved}, rest...)...)
}

var backupSuffix = regexp.MustCompile(`^\.(\d+)$`)

// BackupPath returns the next numbered backup slot for a file:
// <root>/.backup/<basename>.<N> where N is one plus the count of existing
// backups for that basename.
func (w *Workspace) BackupPath(path string) string {
	base := filepath.Base(path)
	n := 1

	entries, err := os.ReadDir(w.BackupDir())
	if err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, base) {
				continue
			}
			if backupSuffix.MatchString(name[len(base):]) {
				n++
			}
		}
	}

	return filepath.Join(w.BackupDir(), fmt.Sprintf("%s.%d", base, n))
}

// Backup snapshots the current content of path into the next backup slot.
// Returns the backup path, or "" if the file does not exist yet.
func (w *Workspace) Backup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open %s for backup: %w", path, err)
	}
	defer src.Close()

	if err := os.MkdirAll(w.BackupDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath := w.BackupPath(path)
	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy backup content: %w", err)
	}

	LogDebug("backed up %s to %s", path, backupPath)
	return backupPath, nil
}

package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/langlog/testutil"
)

func TestWorkspace_Mapping(t *testing.T) {
	root := testutil.CreateTempDir(t)

	a := NewWorkspace(root, "alpha")
	b := NewWorkspace(root, "beta")

	if a.Root() == b.Root() {
		t.Errorf("two log names share a workspace: %s", a.Root())
	}
	if want := filepath.Join(root, "exec", "alpha"); a.Root() != want {
		t.Errorf("Root() = %s, want %s", a.Root(), want)
	}

	// Lazy and idempotent creation.
	if _, err := os.Stat(a.Root()); !os.IsNotExist(err) {
		t.Error("workspace directory should not exist before Ensure")
	}
	if err := a.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := a.Ensure(); err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
}

func TestWorkspace_ResolveContainment(t *testing.T) {
	root := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "contain")
	if err := ws.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "plain file", path: "factorial.py"},
		{name: "nested file", path: "src/app/main.go"},
		{name: "dot segment", path: "./ok.txt"},
		{name: "parent escape", path: "../../etc/passwd", wantErr: true},
		{name: "sneaky escape", path: "src/../../../etc/passwd", wantErr: true},
		{name: "absolute outside", path: "/etc/passwd", wantErr: true},
		{name: "bare parent", path: "..", wantErr: true},
		{name: "empty", path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ws.Resolve(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Resolve(%q) = %q, want error", tt.path, got)
				}
				if tt.path != "" {
					var secErr *PathSecurityError
					if !errors.As(err, &secErr) {
						t.Errorf("Resolve(%q) error = %v, want PathSecurityError", tt.path, err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.path, err)
			}
			if !strings.HasPrefix(got, ws.Root()) && !strings.HasPrefix(got, mustEval(t, ws.Root())) {
				t.Errorf("Resolve(%q) = %q, outside root %q", tt.path, got, ws.Root())
			}
		})
	}
}

func mustEval(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("EvalSymlinks(%q) error = %v", path, err)
	}
	return resolved
}

func TestWorkspace_ResolveSymlinkEscape(t *testing.T) {
	root := testutil.CreateTempDir(t)
	outside := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "symlink")
	if err := ws.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	link := filepath.Join(ws.Root(), "sneaky")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	_, err := ws.Resolve("sneaky/payload.sh")
	var secErr *PathSecurityError
	if !errors.As(err, &secErr) {
		t.Errorf("Resolve through symlink error = %v, want PathSecurityError", err)
	}
}

func TestWorkspace_BackupNumbering(t *testing.T) {
	root := testutil.CreateTempDir(t)
	ws := NewWorkspace(root, "backup")
	if err := ws.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	target := filepath.Join(ws.Root(), "factorial.py")

	// No backup for a file that does not exist yet.
	backup, err := ws.Backup(target)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if backup != "" {
		t.Errorf("Backup() of missing file = %q, want empty", backup)
	}

	const overwrites = 3
	for n := 0; n <= overwrites; n++ {
		if n > 0 {
			if _, err := ws.Backup(target); err != nil {
				t.Fatalf("Backup() #%d error = %v", n, err)
			}
		}
		content := fmt.Sprintf("version %d\n", n)
		if err := os.WriteFile(target, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	// After N overwrites exactly N backups exist, numbered 1..N in write
	// order, and backup 1 holds the pre-first-overwrite content.
	entries, err := os.ReadDir(ws.BackupDir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != overwrites {
		t.Fatalf("found %d backups, want %d", len(entries), overwrites)
	}
	for n := 1; n <= overwrites; n++ {
		path := filepath.Join(ws.BackupDir(), fmt.Sprintf("factorial.py.%d", n))
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("backup %d missing: %v", n, err)
		}
		want := fmt.Sprintf("version %d\n", n-1)
		if string(data) != want {
			t.Errorf("backup %d content = %q, want %q", n, data, want)
		}
	}
}

package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/iksnae/langlog/testutil"
)

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(testutil.CreateTempDir(t))
	log := CreateTestLogWithMessages("roundtrip", []Message{
		{
			Role:    RoleUser,
			Content: "Hello",
			Meta:    &Meta{Timestamp: "2024-01-01T00:00:00Z"},
		},
		{
			Role:        RoleAssistant,
			Content:     "Hi there\nwith multiple lines\nand ```code```",
			Attachments: []Attachment{{Kind: AttachmentImage, Ref: "shot.png"}},
			Meta:        &Meta{Timestamp: "2024-01-01T00:00:05Z", Usage: &Usage{InputTokens: 10, OutputTokens: 20}},
		},
		{
			Role:    RoleTool,
			Content: `{"path":"main.py","decision":"write"}`,
		},
	})

	if err := store.Write(log); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	loaded, err := store.Load("roundtrip")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if diff := cmp.Diff(log, loaded); diff != "" {
		t.Errorf("Load(Write(L)) != L (-want +got):\n%s", diff)
	}
}

func TestStore_LoadNotFound(t *testing.T) {
	store := NewStore(testutil.CreateTempDir(t))

	_, err := store.Load("missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Load() error = %v, want NotFoundError", err)
	}
}

func TestStore_LoadMalformed(t *testing.T) {
	root := testutil.CreateTempDir(t)
	store := NewStore(root)

	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "{not json"},
		{name: "wrongshape", content: `{"role":"user"}`},
		{name: "badrole", content: `[{"role":"wizard","content":"hi"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.WriteFile(t, filepath.Join(root, "ll", tt.name), []byte(tt.content))

			_, err := store.Load(tt.name)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Load() error = %v, want ParseError", err)
			}
		})
	}
}

func TestStore_InvalidName(t *testing.T) {
	store := NewStore(testutil.CreateTempDir(t))

	for _, name := range []string{"", "../escape", "a/b", ".hidden", "two..dots"} {
		if _, err := store.LogPath(name); err == nil {
			t.Errorf("LogPath(%q) should fail", name)
		}
	}
}

func TestStore_WriteReplacesAtomically(t *testing.T) {
	root := testutil.CreateTempDir(t)
	store := NewStore(root)

	log := CreateTestLog("atomic")
	if err := store.Write(log); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}
	log.Append(NewMessage(RoleUser, "second version"))
	if err := store.Write(log); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	loaded, err := store.Load("atomic")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Messages) != 3 {
		t.Errorf("loaded %d messages, want 3", len(loaded.Messages))
	}

	// No temp files may survive a successful write.
	entries, err := os.ReadDir(filepath.Join(root, "ll"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != "atomic" {
			t.Errorf("unexpected leftover file %q", entry.Name())
		}
	}
}

func TestStore_List(t *testing.T) {
	store := NewStore(testutil.CreateTempDir(t))

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() on empty root error = %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("List() on empty root = %v", names)
	}

	for _, name := range []string{"alpha", "beta"} {
		if err := store.Write(CreateTestLog(name)); err != nil {
			t.Fatalf("Write(%s) error = %v", name, err)
		}
	}
	// Lock files must not show up as logs.
	release, err := store.Acquire("alpha")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer release()

	names, err = store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff([]string{"alpha", "beta"}, names); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_AcquireRefusesSecondWriter(t *testing.T) {
	store := NewStore(testutil.CreateTempDir(t))

	release, err := store.Acquire("shared")
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}

	_, err = store.Acquire("shared")
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("second Acquire() error = %v, want LockError", err)
	}
	if lockErr.PID != os.Getpid() {
		t.Errorf("lock pid = %d, want %d", lockErr.PID, os.Getpid())
	}

	release()
	release2, err := store.Acquire("shared")
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	release2()
}

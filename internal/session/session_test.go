package session

import (
	"path/filepath"
	"testing"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_GetAbsent(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			sess, err := s.Get("telegram:1")
			if err != nil {
				t.Fatalf("Get error: %v", err)
			}
			if sess != nil {
				t.Errorf("expected nil for absent session, got %+v", sess)
			}
		})
	}
}

func TestStore_PutGetClear(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			in := Session{
				Stage:         StageAwaitingCode,
				FileID:        "file-1",
				FileKind:      "video",
				SuggestedCode: "3",
				SuggestedName: "Sample",
			}
			if err := s.Put("telegram:1", in); err != nil {
				t.Fatalf("Put error: %v", err)
			}

			got, err := s.Get("telegram:1")
			if err != nil {
				t.Fatalf("Get error: %v", err)
			}
			if got == nil {
				t.Fatal("expected session, got nil")
			}
			if *got != in {
				t.Errorf("session = %+v, want %+v", *got, in)
			}

			if err := s.Clear("telegram:1"); err != nil {
				t.Fatalf("Clear error: %v", err)
			}
			if got, _ := s.Get("telegram:1"); got != nil {
				t.Error("session should be gone after Clear")
			}
		})
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Put("k", Session{Stage: StageAwaitingFile})
			_ = s.Put("k", Session{Stage: StageAwaitingName, PendingCode: "7"})

			got, err := s.Get("k")
			if err != nil {
				t.Fatalf("Get error: %v", err)
			}
			if got.Stage != StageAwaitingName || got.PendingCode != "7" {
				t.Errorf("session = %+v, want updated stage and code", got)
			}
		})
	}
}

func TestStore_IsolatedKeys(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Put("telegram:1", Session{Stage: StageAwaitingFile})
			_ = s.Put("telegram:2", Session{Stage: StageAwaitingDeleteCode})

			_ = s.Clear("telegram:1")

			got, _ := s.Get("telegram:2")
			if got == nil || got.Stage != StageAwaitingDeleteCode {
				t.Errorf("other conversation's session must be untouched, got %+v", got)
			}
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s1.Put("k", Session{Stage: StageAwaitingCode, FileID: "f"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = s1.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get("k")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got == nil || got.FileID != "f" {
		t.Errorf("session after reopen = %+v, want file-id f", got)
	}
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadReturnsRawContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	content := `{"categories": ["food", "transport"]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := New(path).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != content {
		t.Errorf("Read() = %q, want %q", got, content)
	}
}

func TestReadIsFreshPerCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	if err := os.WriteFile(path, []byte(`["food"]`), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r := New(path)
	if _, err := r.Read(); err != nil {
		t.Fatalf("first Read: %v", err)
	}

	// Edit the file between calls; the next read must observe the change.
	if err := os.WriteFile(path, []byte(`["food", "books"]`), 0644); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}

	got, err := r.Read()
	if err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if string(got) != `["food", "books"]` {
		t.Errorf("Read() = %q, want the edited content", got)
	}
}

func TestReadMissingFileFails(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := r.Read(); err == nil {
		t.Error("expected error for missing catalog file")
	}
}

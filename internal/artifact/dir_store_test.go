package artifact

import (
	"context"
	"errors"
	"testing"
)

func TestDirStore_PutGetList(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "p1", "export.md", "text/markdown", []byte("# Enhanced Prompt")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "p1", "export.json", "application/json", []byte("{}")); err != nil {
		t.Fatal(err)
	}

	b, err := s.Get(ctx, "p1", "export.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "# Enhanced Prompt" {
		t.Fatalf("body = %q", b)
	}

	names, err := s.List(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "export.json" || names[1] != "export.md" {
		t.Fatalf("names = %v", names)
	}
}

func TestDirStore_GetMissingIsNotFound(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Get(context.Background(), "p1", "nope.md")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDirStore_RejectsEmptyKeys(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), "", "x", "", nil); err == nil {
		t.Fatal("want error for empty prompt id")
	}
	if err := s.Put(context.Background(), "p1", "", "", nil); err == nil {
		t.Fatal("want error for empty name")
	}
}

func TestDirStore_ListUnknownPromptIsEmpty(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	names, err := s.List(context.Background(), "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Fatalf("names = %v", names)
	}
}

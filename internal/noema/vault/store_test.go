package vault

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Write("A", FrontMatter{Title: "Alpha"}, "See [[B]]")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n.Body != "See [[B]]" {
		t.Fatalf("body mismatch: %q", n.Body)
	}

	got, err := s.Read("a")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Body != "See [[B]]" {
		t.Fatalf("round-trip body mismatch: got %q", got.Body)
	}
	if len(got.Links) != 1 || got.Links[0].Target != "b" {
		t.Fatalf("expected link to b, got %+v", got.Links)
	}
}

func TestWritePreservesCreatedOnUpdate(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Write("a", FrontMatter{}, "v1")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	firstCreated := first.Created

	second, err := s.Write("a", FrontMatter{}, "v2")
	if err != nil {
		t.Fatalf("Write update: %v", err)
	}
	if !second.Created.Equal(firstCreated) {
		t.Fatalf("created timestamp changed on update: %v vs %v", firstCreated, second.Created)
	}
	if second.Body != "v2" {
		t.Fatalf("expected updated body, got %q", second.Body)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.resolve("../../etc/passwd"); err == nil {
		t.Fatal("expected path escape error")
	}
}

func TestReadNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Read("missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestDeleteRemovesNote(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Write("a", FrontMatter{}, "hello"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("a"); err == nil {
		t.Fatal("expected not-found after delete")
	}
}

func TestListSortedBySlug(t *testing.T) {
	s := newTestStore(t)
	for _, slug := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.Write(slug, FrontMatter{}, "x"); err != nil {
			t.Fatalf("Write %s: %v", slug, err)
		}
	}
	notes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if notes[i].Slug != want {
			t.Fatalf("expected slug %q at position %d, got %q", want, i, notes[i].Slug)
		}
	}
}

func TestSlugForPathCanonicalizes(t *testing.T) {
	got := SlugForPath(filepath.Join("sub", "Markov Chain.md"))
	if got != "markov_chain" {
		t.Fatalf("expected markov_chain, got %q", got)
	}
}

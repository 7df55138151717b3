package linkgraph

import (
	"reflect"
	"testing"
	"time"

	"github.com/corvid-labs/noema/internal/noema/vault"
)

func noteWithLinks(slug string, targets ...string) *vault.Note {
	n := &vault.Note{Slug: slug, Body: "body", Created: time.Now()}
	for _, t := range targets {
		n.Links = append(n.Links, vault.Link{Target: t, Display: t})
	}
	return n
}

func TestTwoNoteRoundTrip(t *testing.T) {
	a := noteWithLinks("a", "b")
	b := noteWithLinks("b", "a")

	e := New(10)
	e.Rebuild([]*vault.Note{a, b})

	if got := e.Outgoing("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("outgoing(a) = %v", got)
	}
	if got := e.Incoming("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("incoming(a) = %v", got)
	}
	if got := e.Outgoing("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("outgoing(b) = %v", got)
	}
	if got := e.Incoming("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("incoming(b) = %v", got)
	}

	path := e.ShortestPath("a", "b", 10)
	if !reflect.DeepEqual(path, []string{"a", "b"}) {
		t.Fatalf("shortest_path(a,b) = %v", path)
	}

	if d := e.Density("a"); d != 0.2 {
		t.Fatalf("density(a) = %v, want 0.2", d)
	}
	if d := e.Density("b"); d != 0.2 {
		t.Fatalf("density(b) = %v, want 0.2", d)
	}
}

func TestDanglingLinkDiagnostic(t *testing.T) {
	a := noteWithLinks("a", "ghost")

	e := New(10)
	e.Rebuild([]*vault.Note{a})

	dangling := e.Dangling()
	if got := dangling["ghost"]; !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("dangling[ghost] = %v", got)
	}
	if got := e.Outgoing("a"); len(got) != 0 {
		t.Fatalf("expected no real outgoing edges, got %v", got)
	}
}

func TestIncrementalMatchesFullRebuild(t *testing.T) {
	a := noteWithLinks("a", "b")
	b := noteWithLinks("b")
	c := noteWithLinks("c", "a")

	full := New(10)
	full.Rebuild([]*vault.Note{a, b, c})

	incremental := New(10)
	incremental.Rebuild([]*vault.Note{a, b})
	exists := func(slug string) bool { return slug == "a" || slug == "b" || slug == "c" }
	incremental.Update("c", nil, []string{"a"}, nil, nil, "c", 1, exists)

	if !reflect.DeepEqual(full.Outgoing("a"), incremental.Outgoing("a")) {
		t.Fatalf("outgoing(a) mismatch: full=%v incremental=%v", full.Outgoing("a"), incremental.Outgoing("a"))
	}
	if !reflect.DeepEqual(full.Incoming("a"), incremental.Incoming("a")) {
		t.Fatalf("incoming(a) mismatch: full=%v incremental=%v", full.Incoming("a"), incremental.Incoming("a"))
	}
	if !reflect.DeepEqual(full.Outgoing("c"), incremental.Outgoing("c")) {
		t.Fatalf("outgoing(c) mismatch: full=%v incremental=%v", full.Outgoing("c"), incremental.Outgoing("c"))
	}
}

func TestUpdatePromotesDanglingLinkWhenTargetNoteIsCreated(t *testing.T) {
	a := noteWithLinks("a", "b")

	e := New(10)
	e.Rebuild([]*vault.Note{a})

	if got := e.Dangling()["b"]; !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("dangling[b] before creation = %v", got)
	}

	exists := func(slug string) bool { return slug == "a" || slug == "b" }
	e.Update("b", nil, nil, nil, nil, "b", 1, exists)

	if got := e.Outgoing("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("outgoing(a) after promotion = %v, want [b]", got)
	}
	if got := e.Incoming("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("incoming(b) after promotion = %v, want [a]", got)
	}
	if _, stillDangling := e.Dangling()["b"]; stillDangling {
		t.Fatalf("expected dangling[b] cleared after promotion")
	}

	full := New(10)
	b := noteWithLinks("b")
	full.Rebuild([]*vault.Note{a, b})
	if !reflect.DeepEqual(full.Outgoing("a"), e.Outgoing("a")) {
		t.Fatalf("outgoing(a) mismatch vs rebuild: full=%v incremental=%v", full.Outgoing("a"), e.Outgoing("a"))
	}
	if !reflect.DeepEqual(full.Incoming("b"), e.Incoming("b")) {
		t.Fatalf("incoming(b) mismatch vs rebuild: full=%v incremental=%v", full.Incoming("b"), e.Incoming("b"))
	}
}

func TestDensityBoundaries(t *testing.T) {
	e := New(4)
	a := noteWithLinks("a", "b", "c", "d", "e")
	notes := []*vault.Note{a, noteWithLinks("b"), noteWithLinks("c"), noteWithLinks("d"), noteWithLinks("e")}
	e.Rebuild(notes)
	if d := e.Density("a"); d != 1.0 {
		t.Fatalf("density(a) = %v, want 1.0 when out+in >= K", d)
	}

	e2 := New(10)
	e2.Rebuild([]*vault.Note{noteWithLinks("isolated")})
	if d := e2.Density("isolated"); d != 0.0 {
		t.Fatalf("density(isolated) = %v, want 0.0", d)
	}
}

func TestShortestPathSymmetric(t *testing.T) {
	a := noteWithLinks("a", "b")
	b := noteWithLinks("b", "c")
	c := noteWithLinks("c")

	e := New(10)
	e.Rebuild([]*vault.Note{a, b, c})

	forward := e.ShortestPath("a", "c", 10)
	backward := e.ShortestPath("c", "a", 10)

	if len(forward) != len(backward) {
		t.Fatalf("path length mismatch: forward=%v backward=%v", forward, backward)
	}
	for i, slug := range forward {
		if backward[len(backward)-1-i] != slug {
			t.Fatalf("paths not reverse-symmetric: forward=%v backward=%v", forward, backward)
		}
	}
}

func TestNeighborsGroupedByDistance(t *testing.T) {
	a := noteWithLinks("a", "b")
	b := noteWithLinks("b", "c")
	c := noteWithLinks("c")

	e := New(10)
	e.Rebuild([]*vault.Note{a, b, c})

	got := e.Neighbors("a", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 neighbors within radius 2, got %+v", got)
	}
	if got[0].Slug != "b" || got[0].Distance != 1 {
		t.Fatalf("expected b at distance 1, got %+v", got[0])
	}
	if got[1].Slug != "c" || got[1].Distance != 2 {
		t.Fatalf("expected c at distance 2, got %+v", got[1])
	}
}

func TestMultiShortestPathsFindsIntersection(t *testing.T) {
	a := noteWithLinks("a", "hub")
	hub := noteWithLinks("hub", "b", "c")
	b := noteWithLinks("b")
	c := noteWithLinks("c")

	e := New(10)
	e.Rebuild([]*vault.Note{a, hub, b, c})

	backbone := e.MultiShortestPaths([]string{"a", "b", "c"}, 10)
	// Each endpoint lies on two of the three pairwise paths and hub on all three.
	if !reflect.DeepEqual(backbone.Intersections, []string{"a", "b", "c", "hub"}) {
		t.Fatalf("expected intersections [a b c hub], got %+v", backbone.Intersections)
	}
	found := make(map[string]bool)
	for _, s := range backbone.Slugs {
		found[s] = true
	}
	for _, want := range []string{"a", "b", "c", "hub"} {
		if !found[want] {
			t.Fatalf("expected %q in backbone, got %v", want, backbone.Slugs)
		}
	}
}

func TestKeywordMatchRanksByTagAndTitle(t *testing.T) {
	e := New(10)
	n1 := &vault.Note{Slug: "bayes", Front: vault.FrontMatter{Title: "Bayes Theorem", Tags: []string{"probability"}}, Body: "short"}
	n2 := &vault.Note{Slug: "unrelated", Front: vault.FrontMatter{Title: "Cooking"}, Body: "long body text about recipes and food preparation techniques"}
	e.Rebuild([]*vault.Note{n1, n2})

	matches := e.KeywordMatch("probability bayes", 5)
	if len(matches) != 1 || matches[0].Slug != "bayes" {
		t.Fatalf("expected bayes as sole match, got %+v", matches)
	}
}

// Package linkgraph implements the Bidirectional Link Engine (C3): in-memory
// forward/backward link indexes, a tag index, link density, and the
// path/neighborhood queries used to build agent context.
package linkgraph

import (
	"sort"
	"sync"

	"github.com/corvid-labs/noema/internal/noema/vault"
)

// noteMeta is the slice of a Note's data the engine needs for keyword
// ranking, kept alongside the link/tag indexes so queries never need to
// round-trip through the Note Store.
type noteMeta struct {
	title      string
	tags       []string
	bodyTokens int
}

// Engine is the single owner of the process-wide link indexes. All mutation
// goes through Rebuild/Update; all queries take the read lock. This is the
// "single owner with explicit reader/writer access" design note in §9.
type Engine struct {
	mu sync.RWMutex

	densityK int

	outgoing map[string][]string // slug -> ordered unique outgoing slugs
	incoming map[string][]string // slug -> ordered unique incoming slugs
	tags     map[string]map[string]struct{}
	dangling map[string]map[string]struct{} // target slug with no note -> referencing source slugs

	meta map[string]noteMeta
}

// New creates an empty Engine. densityK is the K constant in the density
// formula (§4.3); callers typically call Rebuild immediately after.
func New(densityK int) *Engine {
	if densityK <= 0 {
		densityK = 10
	}
	return &Engine{
		densityK: densityK,
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		tags:     make(map[string]map[string]struct{}),
		dangling: make(map[string]map[string]struct{}),
		meta:     make(map[string]noteMeta),
	}
}

// Rebuild clears all state and reconstructs it from the given notes. The
// result is required to be identical to incrementally updating from the
// same starting point (§8).
func (e *Engine) Rebuild(notes []*vault.Note) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.outgoing = make(map[string][]string)
	e.incoming = make(map[string][]string)
	e.tags = make(map[string]map[string]struct{})
	e.dangling = make(map[string]map[string]struct{})
	e.meta = make(map[string]noteMeta)

	existing := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		existing[n.Slug] = struct{}{}
	}

	for _, n := range notes {
		e.meta[n.Slug] = noteMeta{
			title:      n.Title(),
			tags:       append([]string(nil), n.Front.Tags...),
			bodyTokens: countTokens(n.Body),
		}
		for _, tag := range n.Front.Tags {
			e.addTagLocked(n.Slug, tag)
		}
		for _, target := range n.OutgoingTargets() {
			if _, ok := existing[target]; ok {
				e.addEdgeLocked(n.Slug, target)
			} else {
				e.addDanglingLocked(n.Slug, target)
			}
		}
	}
}

// Update performs an incremental diff-and-apply for a single slug whose
// body/tags just changed (or was newly created). oldTargets/oldTags describe
// the prior state (empty slices for a brand-new note); newTargets/newTags the
// state after the write. O(|Δ|).
func (e *Engine) Update(slug string, oldTargets, newTargets, oldTags, newTags []string, title string, bodyTokens int, targetExists func(string) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.meta[slug] = noteMeta{title: title, tags: append([]string(nil), newTags...), bodyTokens: bodyTokens}
	e.promoteDanglingLocked(slug)

	oldSet := toSet(oldTargets)
	newSet := toSet(newTargets)

	for target := range oldSet {
		if _, keep := newSet[target]; keep {
			continue
		}
		if targetExists(target) {
			e.removeEdgeLocked(slug, target)
		} else {
			e.removeDanglingLocked(slug, target)
		}
	}
	for target := range newSet {
		if _, had := oldSet[target]; had {
			continue
		}
		if targetExists(target) {
			e.addEdgeLocked(slug, target)
		} else {
			e.addDanglingLocked(slug, target)
		}
	}

	oldTagSet := toSet(oldTags)
	newTagSet := toSet(newTags)
	for tag := range oldTagSet {
		if _, keep := newTagSet[tag]; !keep {
			e.removeTagLocked(slug, tag)
		}
	}
	for tag := range newTagSet {
		if _, had := oldTagSet[tag]; !had {
			e.addTagLocked(slug, tag)
		}
	}
}

// RemoveNote removes a deleted note's outgoing/incoming/tag contributions.
func (e *Engine) RemoveNote(slug string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, target := range e.outgoing[slug] {
		e.removeEdgeLocked(slug, target)
	}
	for _, source := range append([]string(nil), e.incoming[slug]...) {
		e.removeEdgeLocked(source, slug)
	}
	for tag := range e.tags {
		e.removeTagLocked(slug, tag)
	}
	delete(e.meta, slug)
	delete(e.outgoing, slug)
	delete(e.incoming, slug)
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (e *Engine) addEdgeLocked(from, to string) {
	e.outgoing[from] = insertUnique(e.outgoing[from], to)
	e.incoming[to] = insertUnique(e.incoming[to], from)
}

func (e *Engine) removeEdgeLocked(from, to string) {
	e.outgoing[from] = removeItem(e.outgoing[from], to)
	e.incoming[to] = removeItem(e.incoming[to], from)
}

// promoteDanglingLocked turns every dangling reference to slug into a real
// bidirectional edge, for the case where slug's note didn't exist when
// sources referencing it were indexed. Keeps incremental Update in sync
// with what a from-scratch Rebuild would produce (§8).
func (e *Engine) promoteDanglingLocked(slug string) {
	sources, ok := e.dangling[slug]
	if !ok {
		return
	}
	for source := range sources {
		e.addEdgeLocked(source, slug)
	}
	delete(e.dangling, slug)
}

func (e *Engine) addDanglingLocked(from, target string) {
	if e.dangling[target] == nil {
		e.dangling[target] = make(map[string]struct{})
	}
	e.dangling[target][from] = struct{}{}
}

func (e *Engine) removeDanglingLocked(from, target string) {
	if set, ok := e.dangling[target]; ok {
		delete(set, from)
		if len(set) == 0 {
			delete(e.dangling, target)
		}
	}
}

func (e *Engine) addTagLocked(slug, tag string) {
	if e.tags[tag] == nil {
		e.tags[tag] = make(map[string]struct{})
	}
	e.tags[tag][slug] = struct{}{}
}

func (e *Engine) removeTagLocked(slug, tag string) {
	if set, ok := e.tags[tag]; ok {
		delete(set, slug)
		if len(set) == 0 {
			delete(e.tags, tag)
		}
	}
}

func insertUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func removeItem(list []string, item string) []string {
	out := list[:0:0]
	for _, existing := range list {
		if existing != item {
			out = append(out, existing)
		}
	}
	return out
}

// Outgoing returns a copy of slug's outgoing edge list.
func (e *Engine) Outgoing(slug string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.outgoing[slug]...)
}

// Incoming returns a copy of slug's incoming edge list.
func (e *Engine) Incoming(slug string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.incoming[slug]...)
}

// TagMembers returns the sorted slug list for a tag.
func (e *Engine) TagMembers(tag string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	set := e.tags[tag]
	out := make([]string, 0, len(set))
	for slug := range set {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// Dangling returns, for every target with no backing note, the sorted list
// of slugs that reference it. This is the dangling-link diagnostic (§4.3).
func (e *Engine) Dangling() map[string][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string][]string, len(e.dangling))
	for target, sources := range e.dangling {
		list := make([]string, 0, len(sources))
		for s := range sources {
			list = append(list, s)
		}
		sort.Strings(list)
		out[target] = list
	}
	return out
}

// Density computes (|outgoing|+|incoming|)/K clamped to [0,1] (§4.3).
func (e *Engine) Density(slug string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	total := len(e.outgoing[slug]) + len(e.incoming[slug])
	d := float64(total) / float64(e.densityK)
	if d > 1 {
		return 1
	}
	if d < 0 {
		return 0
	}
	return d
}

func countTokens(body string) int {
	n := 0
	inWord := false
	for _, r := range body {
		isWord := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if isWord && !inWord {
			n++
		}
		inWord = isWord
	}
	return n
}

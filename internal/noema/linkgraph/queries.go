package linkgraph

import "sort"

// unionNeighborsLocked returns the sorted, deduplicated union of slug's
// outgoing and incoming edges. Callers must hold at least e.mu.RLock().
func (e *Engine) unionNeighborsLocked(slug string) []string {
	set := make(map[string]struct{})
	for _, s := range e.outgoing[slug] {
		set[s] = struct{}{}
	}
	for _, s := range e.incoming[slug] {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Distance pairs a slug with its BFS hop distance from a query origin.
type Distance struct {
	Slug     string
	Distance int
}

// Neighbors performs an undirected breadth-first expansion over the union
// graph up to depth radius, returning every discovered slug grouped by
// distance (excluding the origin itself).
func (e *Engine) Neighbors(slug string, radius int) []Distance {
	e.mu.RLock()
	defer e.mu.RUnlock()

	visited := map[string]int{slug: 0}
	frontier := []string{slug}
	var result []Distance

	for d := 1; d <= radius && len(frontier) > 0; d++ {
		var next []string
		for _, node := range frontier {
			for _, nb := range e.unionNeighborsLocked(node) {
				if _, seen := visited[nb]; seen {
					continue
				}
				visited[nb] = d
				next = append(next, nb)
			}
		}
		sort.Strings(next)
		for _, nb := range next {
			result = append(result, Distance{Slug: nb, Distance: d})
		}
		frontier = next
	}
	return result
}

// ShortestPath runs a deterministic bidirectional BFS over the union graph,
// returning the path from a to b (inclusive) or nil if none exists within
// maxDepth edges. Ties among equal-length candidate paths are broken by
// lexicographic order of the next hop.
func (e *Engine) ShortestPath(a, b string, maxDepth int) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if a == b {
		return []string{a}
	}
	if maxDepth <= 0 {
		return nil
	}

	leftParent := map[string]string{a: ""}
	rightParent := map[string]string{b: ""}
	leftFrontier := []string{a}
	rightFrontier := []string{b}

	meet := ""
	expandLeft := true

	for depth := 0; depth < maxDepth; depth++ {
		var frontier *[]string
		var parents, other map[string]string
		if expandLeft {
			frontier, parents, other = &leftFrontier, leftParent, rightParent
		} else {
			frontier, parents, other = &rightFrontier, rightParent, leftParent
		}

		candidates := make(map[string][]string)
		for _, node := range *frontier {
			for _, nb := range e.unionNeighborsLocked(node) {
				if _, seen := parents[nb]; seen {
					continue
				}
				candidates[nb] = append(candidates[nb], node)
			}
		}
		keys := make([]string, 0, len(candidates))
		for k := range candidates {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var next []string
		for _, nb := range keys {
			ps := candidates[nb]
			sort.Strings(ps)
			parents[nb] = ps[0]
			next = append(next, nb)
			if _, ok := other[nb]; ok {
				meet = nb
			}
		}
		*frontier = next

		if meet != "" {
			return reconstructPath(leftParent, rightParent, meet)
		}
		expandLeft = !expandLeft
	}
	return nil
}

func reconstructPath(leftParent, rightParent map[string]string, meet string) []string {
	var left []string
	for n := meet; n != ""; n = leftParent[n] {
		left = append([]string{n}, left...)
		if _, ok := leftParent[n]; !ok {
			break
		}
		if leftParent[n] == "" {
			break
		}
	}
	var right []string
	for n := rightParent[meet]; n != ""; n = rightParent[n] {
		right = append(right, n)
	}
	return append(left, right...)
}

// Backbone is the result of multi_shortest_paths: the union of all pairwise
// shortest paths plus a one-radius expansion around intersection nodes.
type Backbone struct {
	Slugs         []string
	Intersections []string
}

// MultiShortestPaths computes shortest_path(a,b) for every pair a<b in S,
// unions the path nodes into a context backbone, identifies intersection
// nodes (slugs on >=2 distinct pairwise paths), and expands one radius
// around each intersection into the backbone.
func (e *Engine) MultiShortestPaths(set []string, maxDepth int) Backbone {
	unique := make([]string, 0, len(set))
	seen := make(map[string]struct{})
	for _, s := range set {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}
	sort.Strings(unique)

	backboneSet := make(map[string]struct{})
	pathCount := make(map[string]int)

	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			path := e.ShortestPath(unique[i], unique[j], maxDepth)
			for _, slug := range path {
				backboneSet[slug] = struct{}{}
				pathCount[slug]++
			}
		}
	}

	var intersections []string
	for slug, count := range pathCount {
		if count >= 2 {
			intersections = append(intersections, slug)
		}
	}
	sort.Strings(intersections)

	for _, slug := range intersections {
		for _, d := range e.Neighbors(slug, 1) {
			backboneSet[d.Slug] = struct{}{}
		}
	}

	out := make([]string, 0, len(backboneSet))
	for slug := range backboneSet {
		out = append(out, slug)
	}
	sort.Strings(out)

	return Backbone{Slugs: out, Intersections: intersections}
}

// Match is a single keyword_match result.
type Match struct {
	Slug  string
	Score float64
}

// KeywordMatch ranks notes by tag overlap, title token overlap, and body
// token count, returning the top limit matches in descending score order
// (ties broken by slug for determinism).
func (e *Engine) KeywordMatch(query string, limit int) []Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	var matches []Match
	for slug, m := range e.meta {
		tagOverlap := 0
		for _, tag := range m.tags {
			if _, ok := tokenSet[tag]; ok {
				tagOverlap++
			}
		}
		titleOverlap := 0
		for _, t := range tokenize(m.title) {
			if _, ok := tokenSet[t]; ok {
				titleOverlap++
			}
		}
		if tagOverlap == 0 && titleOverlap == 0 {
			continue
		}
		score := float64(tagOverlap)*3 + float64(titleOverlap)*2 + scaledBodyScore(m.bodyTokens)
		matches = append(matches, Match{Slug: slug, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Slug < matches[j].Slug
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func scaledBodyScore(tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	// Diminishing-returns contribution so a long note doesn't dominate
	// purely on length; tag/title overlap still dominates the ranking.
	score := 0.0
	for n := tokens; n > 1; n /= 2 {
		score += 0.01
	}
	return score
}

func tokenize(s string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			cur = append(cur, r)
		case r >= 'A' && r <= 'Z':
			cur = append(cur, r+32)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

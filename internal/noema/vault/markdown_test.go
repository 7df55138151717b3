package vault

import "testing"

func TestExtractLinksBasic(t *testing.T) {
	links := ExtractLinks("See [[Probability]] and [[Random Variable|RV]].")
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d: %+v", len(links), links)
	}
	if links[0].Target != "probability" || links[0].Display != "Probability" {
		t.Fatalf("unexpected first link: %+v", links[0])
	}
	if links[1].Target != "random_variable" || links[1].Alias != "RV" {
		t.Fatalf("unexpected second link: %+v", links[1])
	}
}

func TestExtractLinksIgnoresCode(t *testing.T) {
	body := "prose [[A]]\n```\n[[Ignored]]\n```\n    [[AlsoIgnored]]\ninline `[[Skip]]` end [[B]]"
	links := ExtractLinks(body)
	targets := make([]string, len(links))
	for i, l := range links {
		targets[i] = l.Target
	}
	if len(targets) != 2 || targets[0] != "a" || targets[1] != "b" {
		t.Fatalf("expected [a b], got %v", targets)
	}
}

func TestSplitFrontMatter(t *testing.T) {
	raw := "---\ntitle: Hello\ntags: [a, b]\n---\nbody text"
	fm, body := splitFrontMatter(raw)
	if body != "body text" {
		t.Fatalf("unexpected body: %q", body)
	}
	front, err := ParseFrontMatter(fm)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if front.Title != "Hello" || len(front.Tags) != 2 {
		t.Fatalf("unexpected front-matter: %+v", front)
	}
}

func TestSplitFrontMatterAbsent(t *testing.T) {
	fm, body := splitFrontMatter("just a body, no fences")
	if fm != "" || body != "just a body, no fences" {
		t.Fatalf("expected passthrough, got fm=%q body=%q", fm, body)
	}
}

package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/corvid-labs/noema/internal/noema/vault/errno"
	"github.com/corvid-labs/noema/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Store is the Note Store (C1): path-safe, atomic read/write/delete of
// markdown notes under a fixed root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root. root is created if missing.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("vault: create root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the vault's absolute root directory.
func (s *Store) Root() string { return s.root }

// resolve maps a slug (or relative path) to an absolute path under root,
// rejecting any resolution that would escape it.
func (s *Store) resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", errno.ErrEmptySlug
	}
	absClean := filepath.Join(s.root, relPath) // Join cleans, resolving any ".."
	if absClean != s.root && !strings.HasPrefix(absClean, s.root+string(filepath.Separator)) {
		return "", errno.ErrPathEscape
	}
	return absClean, nil
}

func hashBody(body string) string {
	h := sha256.Sum256([]byte(body))
	return hex.EncodeToString(h[:])
}

// List returns every note currently on disk, parsed. Parse errors (§7) on
// individual files are logged and recovered into a best-effort note rather
// than aborting the listing.
func (s *Store) List() ([]*Note, error) {
	paths, err := listMarkdownFiles(s.root)
	if err != nil {
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	sort.Strings(paths)

	notes := make([]*Note, 0, len(paths))
	for _, abs := range paths {
		rel, err := filepath.Rel(s.root, abs)
		if err != nil {
			continue
		}
		rel = normalizeRelPath(strings.ReplaceAll(rel, "\\", "/"))
		note, err := s.readAbs(abs, rel)
		if err != nil {
			logger.WarnX("skipping unreadable note", "path", rel, "error", err)
			continue
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// Read loads and parses a single note by slug, matched against the slug
// derived from each file's name. Returns errno.ErrNotFound if no file matches.
func (s *Store) Read(slug string) (*Note, error) {
	slug = canonicalize(slug)
	paths, err := listMarkdownFiles(s.root)
	if err != nil {
		return nil, fmt.Errorf("vault: read %q: %w", slug, err)
	}
	for _, abs := range paths {
		rel, err := filepath.Rel(s.root, abs)
		if err != nil {
			continue
		}
		rel = normalizeRelPath(strings.ReplaceAll(rel, "\\", "/"))
		if SlugForPath(rel) != slug {
			continue
		}
		return s.readAbs(abs, rel)
	}
	return nil, errno.ErrNotFound
}

func (s *Store) readAbs(abs, rel string) (*Note, error) {
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	fmBlock, body := splitFrontMatter(string(raw))
	front, err := ParseFrontMatter(fmBlock)
	if err != nil {
		logger.WarnX("malformed front-matter, treating as absent", "path", rel, "error", err)
		front = FrontMatter{}
	}

	note := &Note{
		Slug:     SlugForPath(rel),
		Path:     rel,
		Front:    front,
		Body:     body,
		Links:    ExtractLinks(body),
		Hash:     hashBody(body),
		Modified: info.ModTime(),
	}
	if front.Created != nil {
		note.Created = *front.Created
	} else {
		note.Created = info.ModTime()
	}
	return note, nil
}

// Write creates or updates a note. Front-matter keys are serialized in a
// stable order; the modification timestamp is set to the wall clock, while
// the creation timestamp is preserved from the existing note if present.
// Writes are atomic: a temp file in the same directory is written first,
// then renamed over the target.
func (s *Store) Write(slug string, front FrontMatter, body string) (*Note, error) {
	slug = canonicalize(slug)
	if slug == "" {
		return nil, errno.ErrEmptySlug
	}

	existing, err := s.Read(slug)
	now := time.Now().UTC()
	if err == nil {
		front.Created = &existing.Created
	} else {
		front.Created = &now
	}
	front.Modified = &now

	relPath := existing.relPathOr(slug + ".md")
	abs, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	content, err := renderNote(front, body)
	if err != nil {
		return nil, fmt.Errorf("vault: render %q: %w", slug, err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("vault: mkdir: %w", err)
	}
	if err := atomicWrite(abs, content); err != nil {
		return nil, fmt.Errorf("vault: write %q: %w", slug, err)
	}

	return s.readAbs(abs, relPath)
}

// relPathOr returns the existing note's relative path, or fallback if n is nil.
func (n *Note) relPathOr(fallback string) string {
	if n == nil {
		return fallback
	}
	return n.Path
}

// Delete removes a note's backing file. Returns errno.ErrNotFound if absent.
func (s *Store) Delete(slug string) error {
	existing, err := s.Read(slug)
	if err != nil {
		return err
	}
	abs, err := s.resolve(existing.Path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return errno.ErrNotFound
		}
		return fmt.Errorf("vault: delete %q: %w", slug, err)
	}
	return nil
}

func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*.md")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// renderNote serializes front-matter (stable key order) followed by the
// body, reproducing the --- fence format.
func renderNote(front FrontMatter, body string) (string, error) {
	var sb strings.Builder
	if !front.isEmpty() {
		sb.WriteString("---\n")
		enc, err := marshalFrontMatterOrdered(front)
		if err != nil {
			return "", err
		}
		sb.WriteString(enc)
		sb.WriteString("---\n")
	}
	sb.WriteString(body)
	return sb.String(), nil
}

func (f FrontMatter) isEmpty() bool {
	return f.Title == "" && len(f.Tags) == 0 && f.Created == nil && f.Modified == nil &&
		f.Complexity == 0 && f.MasteryLevel == 0 && f.Summary == "" && len(f.Extra) == 0
}

// marshalFrontMatterOrdered emits a fixed key order (title, tags, created,
// modified, complexity, mastery_level, summary, then sorted extra keys) so
// serialization is byte-stable given the same values.
func marshalFrontMatterOrdered(f FrontMatter) (string, error) {
	node := yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	add := func(key string, val interface{}) error {
		k := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		v := &yaml.Node{}
		if err := v.Encode(val); err != nil {
			return err
		}
		node.Content = append(node.Content, k, v)
		return nil
	}

	if f.Title != "" {
		if err := add("title", f.Title); err != nil {
			return "", err
		}
	}
	if len(f.Tags) > 0 {
		if err := add("tags", f.Tags); err != nil {
			return "", err
		}
	}
	if f.Created != nil {
		if err := add("created", f.Created.Format(time.RFC3339)); err != nil {
			return "", err
		}
	}
	if f.Modified != nil {
		if err := add("modified", f.Modified.Format(time.RFC3339)); err != nil {
			return "", err
		}
	}
	if f.Complexity != 0 {
		if err := add("complexity", f.Complexity); err != nil {
			return "", err
		}
	}
	if f.MasteryLevel != 0 {
		if err := add("mastery_level", f.MasteryLevel); err != nil {
			return "", err
		}
	}
	if f.Summary != "" {
		if err := add("summary", f.Summary); err != nil {
			return "", err
		}
	}
	if len(f.Extra) > 0 {
		keys := make([]string, 0, len(f.Extra))
		for k := range f.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := add(k, f.Extra[k]); err != nil {
				return "", err
			}
		}
	}

	out, err := yaml.Marshal(&node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Package datasource supplies images to annotate.
package datasource

import (
	"fmt"
	"io/fs"
	"mime"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

func init() {
	_ = mime.AddExtensionType(".webp", "image/webp")
}

// Item is one image to annotate.
type Item struct {
	ID         string
	Path       string
	Annotation *string
}

// Source yields items one at a time. Next reports ok=false once exhausted.
type Source interface {
	Next() (item Item, ok bool, err error)
}

// Resolver finds an item by id regardless of what Next has yielded. It is
// used to restore samples listed in a saved position state.
type Resolver interface {
	Resolve(id string) (item Item, ok bool, err error)
}

// ContainsFunc reports ids that should be skipped, typically ids already
// present in the repository.
type ContainsFunc func(id string) bool

var nonWord = regexp.MustCompile(`[\W_]+`)

// tokenize collapses runs of non-word characters to a single underscore.
func tokenize(s string) string {
	return strings.Trim(nonWord.ReplaceAllString(s, "_"), "_")
}

// Local walks a directory for image files. Files are visited in lexical
// path order; the walk happens once, on the first call to Next.
type Local struct {
	dir      string
	sourceID string
	contains ContainsFunc

	mu     sync.Mutex
	paths  []string
	next   int
	walked bool
}

// NewLocal returns a source over dir. sourceID defaults to a token derived
// from the absolute directory path. contains may be nil.
func NewLocal(dir, sourceID string, contains ContainsFunc) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("datasource: resolve %q: %w", dir, err)
	}
	if sourceID == "" {
		sourceID = tokenize(abs)
	}
	if contains == nil {
		contains = func(string) bool { return false }
	}
	return &Local{dir: abs, sourceID: sourceID, contains: contains}, nil
}

// SourceID returns the id used to prefix item ids.
func (l *Local) SourceID() string { return l.sourceID }

// ItemID returns the id for a file at path under the source directory.
func (l *Local) ItemID(path string) string {
	rel, err := filepath.Rel(l.dir, path)
	if err != nil {
		rel = path
	}
	return fmt.Sprintf("localdir__%s__%s", l.sourceID, tokenize(filepath.ToSlash(rel)))
}

// Next implements Source.
func (l *Local) Next() (Item, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.walked {
		if err := l.walk(); err != nil {
			return Item{}, false, err
		}
		l.walked = true
	}

	for l.next < len(l.paths) {
		path := l.paths[l.next]
		l.next++
		id := l.ItemID(path)
		if l.contains(id) {
			continue
		}
		return Item{ID: id, Path: path}, true, nil
	}
	return Item{}, false, nil
}

// Resolve implements Resolver. Skipped ids resolve too.
func (l *Local) Resolve(id string) (Item, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.walked {
		if err := l.walk(); err != nil {
			return Item{}, false, err
		}
		l.walked = true
	}
	for _, path := range l.paths {
		if l.ItemID(path) == id {
			return Item{ID: id, Path: path}, true, nil
		}
	}
	return Item{}, false, nil
}

func (l *Local) walk() error {
	var paths []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsImage(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("datasource: walk %q: %w", l.dir, err)
	}
	sort.Strings(paths)
	l.paths = paths
	return nil
}

// IsImage reports whether path has an image MIME type by extension.
func IsImage(path string) bool {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return strings.HasPrefix(t, "image/")
}

// Package repository manages a local annotation dataset directory:
//
//	meta.json                      task metadata
//	data.jsonl                     squashed records
//	images/<date>/<token>.tar      image archives, one per saved session
//	unarchived/<token>.jsonl       records not yet squashed
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/session"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/store"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/task"
)

const (
	metaFileName   = "meta.json"
	dataFileName   = "data.jsonl"
	imagesDirName  = "images"
	pendingDirName = "unarchived"
)

// ErrExists is returned by Init when the directory already holds a repository.
var ErrExists = errors.New("repository: already initialized")

// Local is a dataset repository on the local filesystem.
type Local struct {
	dir string
	log *zap.Logger

	mu      sync.Mutex
	meta    task.Meta
	checker task.Checker
	ids     map[string]bool
}

// Init creates a classification repository in dir.
func Init(dir, name string, labels []string) (*Local, error) {
	meta := task.Meta{Task: task.Classification, Name: name, Labels: labels}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("repository: mkdir %q: %w", dir, err)
	}
	path := filepath.Join(dir, metaFileName)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, path)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("repository: marshal meta: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("repository: write %s: %w", path, err)
	}
	return Open(dir, nil)
}

// Open loads the repository in dir. log may be nil.
func Open(dir string, log *zap.Logger) (*Local, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Local{dir: dir, log: log}
	if err := r.Sync(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the repository root.
func (r *Local) Dir() string { return r.dir }

// Meta returns the task metadata.
func (r *Local) Meta() task.Meta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta
}

// Sync reloads metadata and the set of squashed ids from disk.
func (r *Local) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sync()
}

func (r *Local) sync() error {
	path := filepath.Join(r.dir, metaFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("repository: read %s: %w", path, err)
	}
	var meta task.Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("repository: parse %s: %w", path, err)
	}
	checker, err := task.CheckerFor(meta)
	if err != nil {
		return fmt.Errorf("repository: %w", err)
	}

	recs, skipped, err := store.ReadFile(filepath.Join(r.dir, dataFileName))
	if err != nil {
		return err
	}
	if skipped > 0 {
		r.log.Warn("skipped malformed records", zap.String("file", dataFileName), zap.Int("count", skipped))
	}
	ids := make(map[string]bool, len(recs))
	for _, rec := range recs {
		ids[rec.ID] = true
	}

	r.meta = meta
	r.checker = checker
	r.ids = ids
	return nil
}

// ContainsID reports whether id is already part of the squashed dataset.
func (r *Local) ContainsID(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ids[id]
}

// Write starts a new annotation session whose saves land in this repository.
func (r *Local) Write(author string) (*session.Session, error) {
	r.mu.Lock()
	checker := r.checker
	r.mu.Unlock()
	return session.New(session.Options{
		Author:  author,
		Checker: checker,
		Save:    r.write,
	})
}

// write stores a session save: the archive goes under images/<date>/ and
// the records, tagged with their archive path, under unarchived/.
func (r *Local) write(archivePath, recordsPath, token string) error {
	if len(token) < 8 {
		return fmt.Errorf("repository: malformed session token %q", token)
	}
	date := token[:8]

	r.mu.Lock()
	defer r.mu.Unlock()

	dstArchive := filepath.Join(r.dir, imagesDirName, date, token+".tar")
	if err := os.MkdirAll(filepath.Dir(dstArchive), 0755); err != nil {
		return fmt.Errorf("repository: mkdir: %w", err)
	}
	if err := copyFile(archivePath, dstArchive); err != nil {
		return fmt.Errorf("repository: copy archive: %w", err)
	}

	recs, _, err := store.ReadFile(recordsPath)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(r.dir, dstArchive)
	if err != nil {
		return fmt.Errorf("repository: archive path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	for i := range recs {
		recs[i].ArchiveFile = rel
	}

	dst := filepath.Join(r.dir, pendingDirName, token+".jsonl")
	if err := store.WriteFile(dst, recs); err != nil {
		return err
	}
	r.log.Info("session saved",
		zap.String("token", token),
		zap.Int("records", len(recs)),
		zap.String("archive", rel))
	return nil
}

// Pending returns the unsquashed record files, oldest token first.
func (r *Local) Pending() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending()
}

func (r *Local) pending() ([]string, error) {
	dir := filepath.Join(r.dir, pendingDirName)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: read dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files) // timestamp-prefixed tokens sort chronologically
	return files, nil
}

// Squash merges every pending record file into data.jsonl, keeping the
// latest update per id, then removes the merged files. It returns the total
// number of records in the squashed dataset.
func (r *Local) Squash() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.sync(); err != nil {
		return 0, err
	}

	dataPath := filepath.Join(r.dir, dataFileName)
	existing, _, err := store.ReadFile(dataPath)
	if err != nil {
		return 0, err
	}

	files, err := r.pending()
	if err != nil {
		return 0, err
	}
	sets := [][]store.Record{existing}
	for _, f := range files {
		recs, skipped, err := store.ReadFile(f)
		if err != nil {
			return 0, err
		}
		if skipped > 0 {
			r.log.Warn("skipped malformed records", zap.String("file", filepath.Base(f)), zap.Int("count", skipped))
		}
		sets = append(sets, recs)
	}

	merged := store.Merge(sets...)
	if len(merged) == 0 {
		r.log.Warn("no samples in total, squash cancelled")
		return 0, nil
	}
	if err := store.WriteFile(dataPath, merged); err != nil {
		return 0, err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("repository: remove %q: %w", f, err)
		}
	}

	if err := r.sync(); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// Records returns the squashed dataset.
func (r *Local) Records() ([]store.Record, error) {
	recs, _, err := store.ReadFile(filepath.Join(r.dir, dataFileName))
	return recs, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

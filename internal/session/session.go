// Package session stages the samples an annotator works on and packs the
// annotated ones for the repository when saved.
package session

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/store"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/task"
)

// ErrNotFound is returned for ids that were never added to the session.
var ErrNotFound = errors.New("session: sample not found")

// SaveFunc receives the packed archive, the record file and the session
// token. The files are removed once SaveFunc returns.
type SaveFunc func(archivePath, recordsPath, token string) error

// Session holds the samples of one annotation run. It is safe for
// concurrent use.
type Session struct {
	author  string
	token   string
	checker task.Checker
	save    SaveFunc
	now     func() time.Time

	mu      sync.Mutex
	staging string
	records map[string]store.Record
	closed  bool
}

// Options configures New.
type Options struct {
	Author  string
	Checker task.Checker
	Save    SaveFunc
	Now     func() time.Time // defaults to time.Now
}

// New creates a session with a fresh staging directory.
func New(opts Options) (*Session, error) {
	if opts.Checker == nil {
		return nil, fmt.Errorf("session: checker is required")
	}
	if opts.Save == nil {
		return nil, fmt.Errorf("session: save func is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	staging, err := os.MkdirTemp("", "whisker-session-*")
	if err != nil {
		return nil, fmt.Errorf("session: create staging dir: %w", err)
	}

	return &Session{
		author:  opts.Author,
		token:   newToken(now(), opts.Author),
		checker: opts.Checker,
		save:    opts.Save,
		now:     now,
		staging: staging,
		records: make(map[string]store.Record),
	}, nil
}

// newToken returns "<yyyymmddHHMMSS>-<uuid>", suffixed with "__<author>"
// when an author is set. The first 8 characters are the UTC date.
func newToken(t time.Time, author string) string {
	tok := t.UTC().Format("20060102150405") + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if author != "" {
		tok += "__" + author
	}
	return tok
}

// Token identifies the session in the repository.
func (s *Session) Token() string { return s.token }

// Author returns the configured author, possibly empty.
func (s *Session) Author() string { return s.author }

// Add copies imagePath into the staging directory and registers the sample.
// A non-nil annotation is validated first.
func (s *Session) Add(id, imagePath string, annotation *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session: closed")
	}
	if annotation != nil {
		if err := s.checker.Check(*annotation); err != nil {
			return err
		}
	}

	filename := id + strings.ToLower(filepath.Ext(imagePath))
	if err := copyFile(imagePath, filepath.Join(s.staging, filename)); err != nil {
		return fmt.Errorf("session: stage %q: %w", id, err)
	}
	s.records[id] = store.Record{
		ID:         id,
		Filename:   filename,
		Annotation: annotation,
		UpdatedAt:  s.now(),
		Author:     s.author,
	}
	return nil
}

// Get returns the annotation for id (nil when unannotated).
func (s *Session) Get(id string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return r.Annotation, nil
}

// Set replaces the annotation for id. Passing nil clears it.
func (s *Session) Set(id string, annotation *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if annotation != nil {
		if err := s.checker.Check(*annotation); err != nil {
			return err
		}
	}
	r.Annotation = annotation
	r.UpdatedAt = s.now()
	s.records[id] = r
	return nil
}

// Delete drops id and its staged image.
func (s *Session) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.records, id)
	if err := os.Remove(filepath.Join(s.staging, r.Filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: remove %q: %w", id, err)
	}
	return nil
}

// Contains reports whether id was added.
func (s *Session) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

// Len returns the number of samples.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// AnnotatedCount returns the number of samples carrying an annotation.
func (s *Session) AnnotatedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.Annotated() {
			n++
		}
	}
	return n
}

// ImagePath returns the staged image for id.
func (s *Session) ImagePath(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return filepath.Join(s.staging, r.Filename), nil
}

// Save packs every annotated sample into a tar archive plus a JSONL record
// file and hands both to the SaveFunc. It returns the number of samples saved.
func (s *Session) Save() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("session: closed")
	}

	work, err := os.MkdirTemp("", "whisker-save-*")
	if err != nil {
		return 0, fmt.Errorf("session: create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	ids := make([]string, 0, len(s.records))
	for id, r := range s.records {
		if r.Annotated() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	archivePath := filepath.Join(work, "data.tar")
	if err := s.packArchive(archivePath, ids); err != nil {
		return 0, err
	}

	recordsPath := filepath.Join(work, "data.jsonl")
	out, err := store.Create(recordsPath)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := out.Append(s.records[id]); err != nil {
			_ = out.Close()
			return 0, err
		}
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("session: close records: %w", err)
	}

	if err := s.save(archivePath, recordsPath, s.token); err != nil {
		return 0, fmt.Errorf("session: save: %w", err)
	}
	return len(ids), nil
}

func (s *Session) packArchive(path string, ids []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("session: create archive: %w", err)
	}
	tw := tar.NewWriter(f)
	for _, id := range ids {
		if err := addToTar(tw, filepath.Join(s.staging, s.records[id].Filename), s.records[id].Filename); err != nil {
			tw.Close()
			f.Close()
			return fmt.Errorf("session: pack %q: %w", id, err)
		}
	}
	if err := tw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("session: finish archive: %w", err)
	}
	return f.Close()
}

// Close removes the staging directory. Further Add and Save calls fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return os.RemoveAll(s.staging)
}

func addToTar(tw *tar.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
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

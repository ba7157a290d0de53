// Package store persists annotation records as JSONL. Session saves append
// records to per-session files; a repository squash merges them into a single
// data file.
package store

import (
	"sort"
	"time"
)

// Record is one annotated sample.
type Record struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Annotation  *string   `json:"annotation"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      string    `json:"author,omitempty"`
	ArchiveFile string    `json:"archive_file,omitempty"`
}

// Annotated reports whether the record carries an annotation.
func (r Record) Annotated() bool {
	return r.Annotation != nil
}

// Writer persists records to durable storage.
type Writer interface {
	Append(rec Record) error
	Close() error
}

// Merge combines record sets, keeping the most recently updated record per
// id. The result is ordered by UpdatedAt descending, then ID ascending.
func Merge(sets ...[]Record) []Record {
	byID := make(map[string]Record)
	for _, set := range sets {
		for _, r := range set {
			if prev, ok := byID[r.ID]; ok && prev.UpdatedAt.After(r.UpdatedAt) {
				continue
			}
			byID[r.ID] = r
		}
	}

	out := make([]Record, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

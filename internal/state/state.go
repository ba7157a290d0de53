// Package state persists the annotator's position so a restarted session
// resumes where it stopped.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is the navigation state, persisted as JSON.
type State struct {
	PositionID int      `json:"position_id"`
	MaxLength  *int     `json:"max_length"` // nil until the data source is exhausted
	IDList     []string `json:"id_list"`
}

// Initial returns the state of a session that has not loaded any sample.
func Initial() State {
	return State{PositionID: -1, IDList: []string{}}
}

// Load reads the state file at path. Returns Initial() (not an error) if the
// file does not exist.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Initial(), nil
		}
		return State{}, fmt.Errorf("state: read: %w", err)
	}

	var s State
	if jsonErr := json.Unmarshal(data, &s); jsonErr != nil {
		return State{}, fmt.Errorf("state: parse: %w", jsonErr)
	}
	if s.IDList == nil {
		s.IDList = []string{}
	}
	return s, nil
}

// Save writes s to path, creating the parent directory if needed. Uses a
// write-then-rename pattern so readers never observe a partial file.
func Save(path string, s State) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("state: create dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".whisker-state-*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp: %w", err)
	}
	if _, writeErr := tmp.Write(data); writeErr != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("state: write: %w", writeErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("state: close: %w", closeErr)
	}
	if renameErr := os.Rename(tmp.Name(), path); renameErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("state: finalize: %w", renameErr)
	}
	return nil
}

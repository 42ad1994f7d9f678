// Package state persists the agent's durable state as a single JSON
// snapshot: the action history, the posts still pending a reaction, and the
// high-water timestamp of the ingestion stream. Every mutation is followed by
// a full-file rewrite, so the last successful snapshot is always the complete
// source of truth after a crash.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HistoryItem records one executed decision and its outcome.
type HistoryItem struct {
	ModelAction  string `json:"model_action"`
	ActionResult string `json:"action_result"`
}

// PendingPost is a streamed post queued for reaction but not yet consumed.
type PendingPost struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentState is the full durable state of one agent.
type AgentState struct {
	History []HistoryItem `json:"history"`
	// PendingPosts holds streamed posts awaiting a reaction, oldest first.
	PendingPosts []PendingPost `json:"streamed_posts"`
	// StreamedUntil is the creation time of the newest post already
	// considered for ingestion. Monotonically non-decreasing.
	StreamedUntil time.Time `json:"streamed_posts_until_timestamp"`
}

// AppendHistory pushes an entry and evicts from the front once the history
// exceeds max entries.
func (s *AgentState) AppendHistory(item HistoryItem, max int) {
	s.History = append(s.History, item)
	if max > 0 && len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
}

// HasPending reports whether a post with the given id is already queued.
func (s *AgentState) HasPending(id string) bool {
	for _, p := range s.PendingPosts {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Store loads and saves AgentState at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store bound to path. Nothing is read until Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store reads and writes.
func (st *Store) Path() string { return st.path }

// Load deserializes the state file. A missing file yields an empty state
// with an epoch high-water timestamp, which is the first-run case.
func (st *Store) Load() (*AgentState, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return &AgentState{
			History:       []HistoryItem{},
			PendingPosts:  []PendingPost{},
			StreamedUntil: time.Unix(0, 0).UTC(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", st.path, err)
	}
	var s AgentState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", st.path, err)
	}
	if s.History == nil {
		s.History = []HistoryItem{}
	}
	if s.PendingPosts == nil {
		s.PendingPosts = []PendingPost{}
	}
	return &s, nil
}

// Save writes the full state snapshot atomically: serialize to a temp file
// in the same directory, then rename over the target.
func (st *Store) Save(s *AgentState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	dir := filepath.Dir(st.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file %s: %w", st.path, err)
	}
	return nil
}

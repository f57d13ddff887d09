package state

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot holds the last-observed values of the tracked fields for one
// identifier, keyed by column name, plus the capture timestamp.
//
// Persisted form is flat: the tracked values and a "timestamp" key live in
// the same JSON object. All tracked fields are always replaced together.
type Snapshot struct {
	Values    map[string]string
	Timestamp time.Time
}

const snapshotTimestampKey = "timestamp"

func (s Snapshot) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(s.Values)+1)
	for k, v := range s.Values {
		if k == snapshotTimestampKey {
			continue
		}
		m[k] = v
	}
	m[snapshotTimestampKey] = s.Timestamp.UTC().Format(time.RFC3339)
	return json.Marshal(m)
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if raw, ok := m[snapshotTimestampKey]; ok {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("snapshot timestamp: %w", err)
		}
		s.Timestamp = ts
		delete(m, snapshotTimestampKey)
	}
	s.Values = m
	return nil
}

// State is the whole persisted blob: one file (or table set) per process.
type State struct {
	LastCheck   *time.Time          `json:"lastCheck"`
	LastValues  map[string]Snapshot `json:"lastValues"`
	LastAllGood int64               `json:"lastAllGood"` // unix milli; 0 means never
}

func NewState() State {
	return State{LastValues: map[string]Snapshot{}}
}

// Config configures the state store.
//
// Driver values:
//   - "file" (or empty): single JSON file, written atomically
//   - "sqlite": SQLite database file
type Config struct {
	Driver string
	Path   string
}

package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	logx "regwatch/pkg/logx"
)

// fileStore keeps the whole state in one JSON file.
//
// Writes go through a temp file + rename so a crash mid-write never leaves a
// truncated state file behind. There is no locking: the process assumes
// single-instance, non-overlapping execution.
type fileStore struct {
	path string
	log  logx.Logger
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &fileStore{path: cfg.Path, log: log}, nil
}

func (s *fileStore) Load(ctx context.Context) (State, error) {
	_ = ctx
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return NewState(), err
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		// Unparsable state is not fatal: start over from empty.
		s.log.Warn("state file unparsable, starting from empty state",
			logx.String("path", s.path), logx.Err(err))
		return NewState(), nil
	}
	if st.LastValues == nil {
		st.LastValues = map[string]Snapshot{}
	}
	return st, nil
}

func (s *fileStore) Save(ctx context.Context, st State) error {
	_ = ctx
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Close() error { return nil }

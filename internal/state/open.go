package state

import (
	"context"
	"errors"
	"strings"

	logx "regwatch/pkg/logx"
)

// Store persists the last-known monitoring state between runs.
//
// Error contract (deliberate, not an oversight): callers log Load/Save
// failures and continue; state I/O never aborts a run. Load implementations
// return a default empty state for a missing or unparsable backing file.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("state path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown state driver: " + driver)
	}
}

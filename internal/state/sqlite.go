package state

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	logx "regwatch/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const (
	metaLastCheck   = "last_check"
	metaLastAllGood = "last_all_good"
)

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (State, error) {
	st := NewState()

	rows, err := s.db.QueryContext(ctx, `SELECT identifier, fields, captured_at FROM snapshots`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, fieldsJSON, capturedAt string
		if err := rows.Scan(&id, &fieldsJSON, &capturedAt); err != nil {
			return st, err
		}
		snap := Snapshot{Values: map[string]string{}}
		if err := json.Unmarshal([]byte(fieldsJSON), &snap.Values); err != nil {
			// A corrupt row is skipped, not fatal; the next run rewrites it.
			s.log.Warn("skipping unparsable snapshot row", logx.String("identifier", id), logx.Err(err))
			continue
		}
		if ts, err := time.Parse(time.RFC3339, capturedAt); err == nil {
			snap.Timestamp = ts
		}
		st.LastValues[id] = snap
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	if v, ok, err := s.getMeta(ctx, metaLastCheck); err != nil {
		return st, err
	} else if ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			st.LastCheck = &ts
		}
	}
	if v, ok, err := s.getMeta(ctx, metaLastAllGood); err != nil {
		return st, err
	} else if ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			st.LastAllGood = ms
		}
	}
	return st, nil
}

func (s *sqliteStore) Save(ctx context.Context, st State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for id, snap := range st.LastValues {
		fieldsJSON, err := json.Marshal(snap.Values)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshots(identifier, fields, captured_at) VALUES(?,?,?)
			 ON CONFLICT(identifier) DO UPDATE SET fields=excluded.fields, captured_at=excluded.captured_at`,
			id, string(fieldsJSON), snap.Timestamp.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}

	if st.LastCheck != nil {
		if err := putMeta(ctx, tx, metaLastCheck, st.LastCheck.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if err := putMeta(ctx, tx, metaLastAllGood, strconv.FormatInt(st.LastAllGood, 10)); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqliteStore) getMeta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func putMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES(?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskboard-cli/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "taskboard.sqlite"

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyLastUsername = "last_username"
)

// Store is the client-local key/value storage (access token, last username).
// Each call opens and closes the database, so several processes (TUI + CLI)
// can share a data dir.
type Store struct {
	Dir string
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: empty data dir")
	}
	return os.MkdirAll(s.Dir, 0o700)
}

func (s Store) sqlitePath() string {
	return filepath.Join(filepath.Clean(s.Dir), sqliteFileName)
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL + busy_timeout: the TUI and CLI commands may hold the file at the same time.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Get returns "" for missing keys.
func (s Store) Get(ctx context.Context, key string) (string, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var v string
	err = db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set writes all pairs in one transaction. An empty value deletes the key.
func (s Store) Set(ctx context.Context, pairs map[string]string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	for k, v := range pairs {
		if v == "" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, k); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO kv(k, v, updated_at_unixms) VALUES(?, ?, ?)`, k, v, nowMs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AccessToken implements api.TokenSource.
func (s Store) AccessToken(ctx context.Context) (string, error) {
	return s.Get(ctx, keyAccessToken)
}

func (s Store) SaveTokens(ctx context.Context, tp model.TokenPair) error {
	if strings.TrimSpace(tp.Access) == "" {
		return errors.New("store: empty access token")
	}
	return s.Set(ctx, map[string]string{
		keyAccessToken:  tp.Access,
		keyRefreshToken: tp.Refresh,
	})
}

// ClearTokens is logout. Other keys (last username) survive.
func (s Store) ClearTokens(ctx context.Context) error {
	return s.Set(ctx, map[string]string{
		keyAccessToken:  "",
		keyRefreshToken: "",
	})
}

func (s Store) LastUsername(ctx context.Context) (string, error) {
	return s.Get(ctx, keyLastUsername)
}

func (s Store) SaveLastUsername(ctx context.Context, name string) error {
	return s.Set(ctx, map[string]string{keyLastUsername: strings.TrimSpace(name)})
}

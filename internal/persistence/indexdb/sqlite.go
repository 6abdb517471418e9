package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"claimguard.ai/internal/protect/bans"
	"claimguard.ai/internal/protect/materials"
)

var ErrNotFound = errors.New("indexdb: not found")

type SQLiteIndex struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		// expires_at is unix millis; 0 means permanent.
		`CREATE TABLE IF NOT EXISTS bans (
			id TEXT PRIMARY KEY,
			ip TEXT NOT NULL,
			reason TEXT NOT NULL,
			banned_by TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bans_ip ON bans(ip, created_at);`,
		`CREATE TABLE IF NOT EXISTS material_lists (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			entries INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT INTO meta(key,value) VALUES('schema_version','1')
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`)
	return err
}

func (s *SQLiteIndex) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteIndex) AddBan(ctx context.Context, r bans.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bans(id,ip,reason,banned_by,created_at,expires_at) VALUES(?,?,?,?,?,?)`,
		r.ID, r.IP, r.Reason, r.BannedBy, r.CreatedAt.UnixMilli(), toMillis(r.ExpiresAt))
	if err != nil {
		return fmt.Errorf("add ban %s: %w", r.IP, err)
	}
	return nil
}

// RemoveBan deletes every ban on ip and reports how many were removed.
func (s *SQLiteIndex) RemoveBan(ctx context.Context, ip string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bans WHERE ip=?`, ip)
	if err != nil {
		return 0, fmt.Errorf("remove ban %s: %w", ip, err)
	}
	return res.RowsAffected()
}

// ActiveBan returns the newest ban on ip still in force at now.
func (s *SQLiteIndex) ActiveBan(ctx context.Context, ip string, now time.Time) (bans.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,ip,reason,banned_by,created_at,expires_at FROM bans
		 WHERE ip=? AND (expires_at=0 OR expires_at>?)
		 ORDER BY created_at DESC LIMIT 1`, ip, now.UnixMilli())
	r, err := scanBan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return bans.Record{}, ErrNotFound
	}
	return r, err
}

func (s *SQLiteIndex) ListBans(ctx context.Context) ([]bans.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,ip,reason,banned_by,created_at,expires_at FROM bans ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []bans.Record
	for rows.Next() {
		r, err := scanBan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBan(sc rowScanner) (bans.Record, error) {
	var (
		r         bans.Record
		createdMs int64
		expiresMs int64
	)
	if err := sc.Scan(&r.ID, &r.IP, &r.Reason, &r.BannedBy, &createdMs, &expiresMs); err != nil {
		return bans.Record{}, err
	}
	r.CreatedAt = time.UnixMilli(createdMs).UTC()
	if expiresMs != 0 {
		r.ExpiresAt = time.UnixMilli(expiresMs).UTC()
	}
	return r, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func (s *SQLiteIndex) SaveMaterialList(ctx context.Context, name string, c *materials.Collection) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO material_lists(name,value,entries,updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(name) DO UPDATE SET value=excluded.value, entries=excluded.entries, updated_at=excluded.updated_at`,
		name, c.String(), c.Len(), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save material list %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteIndex) LoadMaterialList(ctx context.Context, name string) (*materials.Collection, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM material_lists WHERE name=?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return materials.ParseCollection(value), nil
}

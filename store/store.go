// Package store persists a catalog of compiled methods in SQLite.
//
// The catalog is keyed by (class, selector, side) and carries a
// content digest of each method's source, so a rebuild that compiles
// identical code leaves the catalog untouched.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested method is not in the catalog.
var ErrNotFound = errors.New("method not found")

// Catalog is a SQLite-backed record of every compiled method.
type Catalog struct {
	db *sql.DB
	mu sync.Mutex
}

// MethodRecord is one catalog row.
type MethodRecord struct {
	Digest     string
	ClassName  string
	Selector   string
	ClassSide  bool
	Source     string
	CompiledAt time.Time
}

// Stats summarizes catalog contents.
type Stats struct {
	Methods int
	Classes int
}

const schema = `
CREATE TABLE IF NOT EXISTS methods (
	class_name  TEXT NOT NULL,
	selector    TEXT NOT NULL,
	class_side  INTEGER NOT NULL DEFAULT 0,
	digest      TEXT NOT NULL,
	source      TEXT NOT NULL,
	compiled_at TEXT NOT NULL,
	PRIMARY KEY (class_name, selector, class_side)
);
CREATE INDEX IF NOT EXISTS idx_methods_digest ON methods(digest);
`

// Open opens the catalog at path, creating the schema if needed.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Digest returns the hex SHA-256 identifying one version of a method.
// Fields are length-prefixed so adjacent values cannot collide.
func Digest(className, selector string, classSide bool, source string) string {
	var buf []byte
	writeString := func(s string) {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, s...)
	}

	buf = append(buf, 0x01) // digest format tag
	writeString(className)
	writeString(selector)
	if classSide {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	writeString(source)

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// PutMethod upserts a record. Re-putting a method whose source is
// unchanged is a no-op that keeps the original compile time; the
// returned bool reports whether the catalog actually changed. A zero
// CompiledAt means now.
func (c *Catalog) PutMethod(rec MethodRecord) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec.Digest == "" {
		rec.Digest = Digest(rec.ClassName, rec.Selector, rec.ClassSide, rec.Source)
	}
	if rec.CompiledAt.IsZero() {
		rec.CompiledAt = time.Now().UTC()
	}

	res, err := c.db.Exec(`
		INSERT INTO methods (class_name, selector, class_side, digest, source, compiled_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(class_name, selector, class_side) DO UPDATE SET
			digest = excluded.digest,
			source = excluded.source,
			compiled_at = excluded.compiled_at
		WHERE excluded.digest <> methods.digest`,
		rec.ClassName, rec.Selector, boolToInt(rec.ClassSide), rec.Digest,
		rec.Source, rec.CompiledAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("upserting %s>>%s: %w", rec.ClassName, rec.Selector, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetMethod returns the record for a method, or ErrNotFound.
func (c *Catalog) GetMethod(className, selector string, classSide bool) (*MethodRecord, error) {
	row := c.db.QueryRow(`
		SELECT class_name, selector, class_side, digest, source, compiled_at
		FROM methods
		WHERE class_name = ? AND selector = ? AND class_side = ?`,
		className, selector, boolToInt(classSide),
	)

	rec, err := scanMethod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying %s>>%s: %w", className, selector, err)
	}
	return rec, nil
}

// MethodsOf returns every cataloged method of a class, instance side
// first, ordered by selector.
func (c *Catalog) MethodsOf(className string) ([]MethodRecord, error) {
	rows, err := c.db.Query(`
		SELECT class_name, selector, class_side, digest, source, compiled_at
		FROM methods
		WHERE class_name = ?
		ORDER BY class_side, selector`,
		className,
	)
	if err != nil {
		return nil, fmt.Errorf("querying methods of %s: %w", className, err)
	}
	defer rows.Close()

	var recs []MethodRecord
	for rows.Next() {
		rec, err := scanMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning method row: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// Stats returns catalog-wide counts.
func (c *Catalog) Stats() (Stats, error) {
	var s Stats
	err := c.db.QueryRow(
		"SELECT COUNT(*), COUNT(DISTINCT class_name) FROM methods",
	).Scan(&s.Methods, &s.Classes)
	if err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return s, nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMethod(s scanner) (*MethodRecord, error) {
	var rec MethodRecord
	var side int
	var compiledAt string
	if err := s.Scan(&rec.ClassName, &rec.Selector, &side, &rec.Digest, &rec.Source, &compiledAt); err != nil {
		return nil, err
	}
	rec.ClassSide = side != 0

	t, err := time.Parse(time.RFC3339Nano, compiledAt)
	if err != nil {
		return nil, fmt.Errorf("bad compiled_at %q: %w", compiledAt, err)
	}
	rec.CompiledAt = t
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

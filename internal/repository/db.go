// Package repository provides typed access to the SQLite database.
//
// Queries follow a params-in, row-out convention so the service layer never
// touches SQL. All timestamps are stored as RFC 3339 UTC strings.
package repository

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Open opens (and creates if needed) the SQLite database at path.
//
// foreign_keys and busy_timeout are per-connection settings, so the pragmas
// go in the DSN where the driver replays them on every pooled connection.
// Applying them once with Exec would arm a single connection and leave the
// rest of the pool without cascade enforcement.
//
// The passphrase, when non-empty, is applied with PRAGMA key before any
// other statement. Plain SQLite builds ignore the pragma, encryption-capable
// builds use it to unlock the file.
func Open(path, passphrase string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	pragmas := []string{
		"journal_mode(WAL)",
		"busy_timeout(10000)",
		"foreign_keys(1)",
	}
	if passphrase != "" {
		quoted := fmt.Sprintf("key('%s')", strings.ReplaceAll(passphrase, "'", "''"))
		pragmas = append([]string{quoted}, pragmas...)
	}

	var dsn strings.Builder
	dsn.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, pragma := range pragmas {
		dsn.WriteString(sep)
		dsn.WriteString("_pragma=")
		dsn.WriteString(url.QueryEscape(pragma))
		sep = "&"
	}

	db, err := sql.Open("sqlite", dsn.String())
	if err != nil {
		return nil, err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// sql.Open is lazy, force a connection so a bad path or passphrase
	// surfaces here instead of on the first query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return db, nil
}

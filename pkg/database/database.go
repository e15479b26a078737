package database

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"text/template"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SchemaParams are substituted into the migration templates.
type SchemaParams struct {
	MessageMaxLength int
}

// Open opens (creating if needed) the SQLite database at path. Foreign keys
// are enforced on every pooled connection and write transactions start with
// BEGIN IMMEDIATE so concurrent writers queue on busy_timeout instead of
// failing on lock upgrade.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "30000")
	params.Set("_txlock", "immediate")

	db, err := sql.Open("sqlite3", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// Migrate creates the person and message tables. Every script is written with
// IF NOT EXISTS, so running it against an initialised database is a no-op.
func Migrate(ctx context.Context, db *sql.DB, params SchemaParams, log *logrus.Logger) error {
	if params.MessageMaxLength <= 0 {
		return fmt.Errorf("message max length must be positive, got %d", params.MessageMaxLength)
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		script, err := renderScript(file, params)
		if err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx, script); err != nil {
			return fmt.Errorf("execute %s: %w", filepath.Base(file), err)
		}

		log.WithField("script", filepath.Base(file)).Debug("Executed SQL script")
	}

	log.WithField("scripts", len(files)).Info("Database schema ready")
	return nil
}

// Init opens the database and applies the schema.
func Init(ctx context.Context, path string, params SchemaParams, log *logrus.Logger) (*sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, params, log); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func renderScript(name string, params SchemaParams) (string, error) {
	raw, err := migrationFS.ReadFile(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(filepath.Base(name)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filepath.Base(name), err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render %s: %w", filepath.Base(name), err)
	}
	return buf.String(), nil
}

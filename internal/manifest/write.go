package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	_ "modernc.org/sqlite"

	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/fileutil"
)

type Format string

const (
	FormatJSON   Format = "json"
	FormatTOML   Format = "toml"
	FormatSQLite Format = "sqlite"
)

func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", faults.Errorf(
			faults.ErrConfig,
			"manifest format",
			"unsupported manifest format %q: use json, toml, or sqlite",
			name,
		)
	}
}

// Extension is the conventional file suffix for the format.
func (f Format) Extension() string {
	switch f {
	case FormatTOML:
		return ".toml"
	case FormatSQLite:
		return ".db"
	default:
		return ".json"
	}
}

// Write persists a finalized manifest. The file appears complete or not at all.
func (m *Manifest) Write(ctx context.Context, path string, format Format) error {
	doc, err := m.document()
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		return wrapSink(path, fileutil.WriteFileAtomic(path, append(data, '\n'), 0644))
	case FormatTOML:
		data, err := toml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		return wrapSink(path, fileutil.WriteFileAtomic(path, data, 0644))
	case FormatSQLite:
		return wrapSink(path, writeSQLite(ctx, path, doc))
	default:
		return faults.Errorf(faults.ErrConfig, "write manifest", "unsupported format %q", format)
	}
}

func wrapSink(path string, err error) error {
	if err == nil {
		return nil
	}
	return faults.Wrap(faults.ErrSinkWrite, "write manifest", path, err)
}

const schema = `
CREATE TABLE runs (
    run_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    subtitle_source TEXT,
    target_seconds REAL NOT NULL,
    language TEXT,
    created_at TEXT NOT NULL
);
CREATE TABLE segments (
    run_id TEXT NOT NULL REFERENCES runs(run_id),
    segment_index INTEGER NOT NULL,
    media TEXT NOT NULL,
    subtitles TEXT,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    duration_seconds REAL NOT NULL,
    PRIMARY KEY (run_id, segment_index)
);`

// builds the database beside path and renames it into place once closed
func writeSQLite(ctx context.Context, path string, doc document) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
			_ = os.Remove(tmpPath + "-journal")
		}
	}()

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	if err := populate(ctx, db, doc); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	return fileutil.Commit(tmpPath, path)
}

func populate(ctx context.Context, db *sql.DB, doc document) error {
	pragmas := []string{
		"PRAGMA journal_mode=DELETE",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, subtitle_source, target_seconds, language, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		doc.RunID,
		doc.Source,
		nullable(doc.SubtitleSource),
		doc.TargetSeconds,
		nullable(doc.Language),
		doc.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO segments (run_id, segment_index, media, subtitles, start_time, end_time, duration_seconds)
         VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare segment insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range doc.Segments {
		if _, err := stmt.ExecContext(ctx,
			doc.RunID,
			e.SegmentIndex,
			e.Media,
			nullable(e.Subtitles),
			e.Start.String(),
			e.End.String(),
			e.DurationSeconds,
		); err != nil {
			return fmt.Errorf("insert segment %d: %w", e.SegmentIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

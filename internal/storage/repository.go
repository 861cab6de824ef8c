package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"backoffice/internal/core"
	ports "backoffice/internal/sheets"

	_ "modernc.org/sqlite"
)

const asOfLayout = "2006-01-02"

var _ ports.FigureStore = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database still answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListFigures implements sheets.FigureReader.
func (r *SQLiteRepository) ListFigures(ctx context.Context, section core.Section) ([]core.Figure, error) {
	if !section.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSection, section)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, label, kind, value, previous, as_of FROM figures WHERE section = ? ORDER BY key`,
		string(section))
	if err != nil {
		return nil, fmt.Errorf("query figures: %w", err)
	}
	defer rows.Close()

	var out []core.Figure
	for rows.Next() {
		var (
			key, label, kind, value, asOf string
			previous                      sql.NullString
		)
		if err := rows.Scan(&key, &label, &kind, &value, &previous, &asOf); err != nil {
			return nil, fmt.Errorf("scan figure: %w", err)
		}
		f, err := toFigure(section, key, label, kind, value, previous, asOf)
		if err != nil {
			return nil, fmt.Errorf("figure %s/%s: %w", section, key, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate figures: %w", err)
	}
	return out, nil
}

func toFigure(section core.Section, key, label, kind, value string, previous sql.NullString, asOf string) (core.Figure, error) {
	k, err := core.ParseKind(kind)
	if err != nil {
		return core.Figure{}, err
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return core.Figure{}, fmt.Errorf("value: %w", err)
	}
	f := core.Figure{Section: section, Key: key, Label: label, Kind: k, Value: v}
	if previous.Valid {
		p, err := decimal.NewFromString(previous.String)
		if err != nil {
			return core.Figure{}, fmt.Errorf("previous: %w", err)
		}
		f.Previous = &p
	}
	if asOf != "" {
		t, err := time.Parse(asOfLayout, asOf)
		if err != nil {
			return core.Figure{}, fmt.Errorf("as_of: %w", err)
		}
		f.AsOf = t
	}
	return f, nil
}

// UpsertFigures implements sheets.FigureWriter. The batch is applied in one
// transaction; any invalid figure rejects the whole batch.
func (r *SQLiteRepository) UpsertFigures(ctx context.Context, figs []core.Figure) error {
	for _, f := range figs {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("figure %q: %w", f.Key, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeFigures(ctx, tx, figs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Figures saved to SQLite", "count", len(figs))
	return nil
}

// ReplaceSections implements sheets.SectionReplacer. Deleting the old rows
// and writing the batch share one transaction, so readers see either the
// previous or the new contents of a section.
func (r *SQLiteRepository) ReplaceSections(ctx context.Context, sections []core.Section, figs []core.Figure) error {
	if err := ports.CheckReplaceBatch(sections, figs); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var removed int64
	for _, s := range sections {
		res, err := tx.ExecContext(ctx, `DELETE FROM figures WHERE section = ?`, string(s))
		if err != nil {
			return fmt.Errorf("clear section %s: %w", s, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += n
		}
	}
	if err := writeFigures(ctx, tx, figs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Sections replaced in SQLite",
		"sections", len(sections), "count", len(figs), "previous_rows", removed)
	return nil
}

func writeFigures(ctx context.Context, tx *sql.Tx, figs []core.Figure) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO figures (section, key, label, kind, value, previous, as_of, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (section, key) DO UPDATE SET
			label = excluded.label,
			kind = excluded.kind,
			value = excluded.value,
			previous = excluded.previous,
			as_of = excluded.as_of,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, f := range figs {
		var previous sql.NullString
		if f.Previous != nil {
			previous = sql.NullString{String: f.Previous.String(), Valid: true}
		}
		var asOf string
		if !f.AsOf.IsZero() {
			asOf = f.AsOf.Format(asOfLayout)
		}
		if _, err := stmt.ExecContext(ctx,
			string(f.Section), f.Key, f.Label, string(f.Kind), f.Value.String(), previous, asOf, now); err != nil {
			return fmt.Errorf("upsert figure %s/%s: %w", f.Section, f.Key, err)
		}
	}
	return nil
}

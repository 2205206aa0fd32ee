package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"mars_poster/internal/domain"
)

func valTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// Open connects to dsn with the options the repo relies on: parsed
// DATETIME columns in UTC.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse MYSQL_DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(8)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Repo is the export history log.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Migrate creates the export table when it does not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createExportsSQL)
	return err
}

func (r *Repo) RecordExport(ctx context.Context, e domain.ExportRecord) error {
	_, err := r.db.ExecContext(ctx, insertExportSQL,
		e.SessionID,
		int(e.LayoutID),
		e.FileName,
		e.Scale,
		e.Bytes,
		e.Rasterizer,
		e.CacheHit,
		valTime(e.CreatedAt),
	)
	return err
}

func (r *Repo) ListExports(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	rows, err := r.db.QueryContext(ctx, listExportsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ExportRecord, 0, limit)
	for rows.Next() {
		var (
			e      domain.ExportRecord
			layout int
		)
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&layout,
			&e.FileName,
			&e.Scale,
			&e.Bytes,
			&e.Rasterizer,
			&e.CacheHit,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.LayoutID = domain.LayoutID(layout)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

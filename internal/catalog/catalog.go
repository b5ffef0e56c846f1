// Package catalog records every snapshot build in PostgreSQL: one row per
// snapshot and one row per document it contains. The searcher never reads
// it; it exists for operators and downstream reporting.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	version    TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	documents  INTEGER NOT NULL,
	terms      INTEGER NOT NULL,
	dimension  INTEGER NOT NULL,
	built_at   TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS documents (
	doc_id           TEXT NOT NULL,
	snapshot_version TEXT NOT NULL REFERENCES snapshots(version) ON DELETE CASCADE,
	title            TEXT NOT NULL,
	tokens           INTEGER NOT NULL,
	PRIMARY KEY (snapshot_version, doc_id)
);`

// SnapshotRecord is one row of the snapshots table.
type SnapshotRecord struct {
	Version   string
	Path      string
	Documents int
	Terms     int
	Dimension int
	BuiltAt   time.Time
}

// DocumentRecord is one row of the documents table.
type DocumentRecord struct {
	DocID  string
	Title  string
	Tokens int
}

type Catalog struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB) *Catalog {
	return &Catalog{
		db:     db,
		logger: slog.Default().With("component", "catalog"),
	}
}

// EnsureSchema creates the tables if they do not exist.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// Records derives the rows describing snap as written to path. Documents
// follow enumeration order; tokens is the post-normalization length summed
// over fields.
func Records(snap *index.Snapshot, path string) (SnapshotRecord, []DocumentRecord) {
	rec := SnapshotRecord{
		Version:   snap.Version,
		Path:      path,
		Documents: snap.DocCount(),
		Terms:     snap.Terms(),
		Dimension: snap.Dimension(),
		BuiltAt:   snap.BuiltAt,
	}
	docs := make([]DocumentRecord, 0, len(snap.DocIDs))
	for _, id := range snap.DocIDs {
		tokens := 0
		for _, n := range snap.Inverted.Stats.DocLengths[id] {
			tokens += n
		}
		docs = append(docs, DocumentRecord{DocID: id, Title: corpus.Title(id), Tokens: tokens})
	}
	return rec, docs
}

// Record writes the snapshot row and all of its document rows in one
// transaction. Re-recording a version replaces its rows.
func (c *Catalog) Record(ctx context.Context, snap *index.Snapshot, path string) error {
	rec, docs := Records(snap, path)
	err := postgres.InTx(ctx, c.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE version = $1`, rec.Version); err != nil {
			return fmt.Errorf("deleting previous snapshot row: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (version, path, documents, terms, dimension, built_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.Version, rec.Path, rec.Documents, rec.Terms, rec.Dimension, rec.BuiltAt,
		); err != nil {
			return fmt.Errorf("inserting snapshot %s: %w", rec.Version, err)
		}
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("documents", "doc_id", "snapshot_version", "title", "tokens"))
		if err != nil {
			return fmt.Errorf("preparing document copy: %w", err)
		}
		defer stmt.Close()
		for _, d := range docs {
			if _, err := stmt.ExecContext(ctx, d.DocID, rec.Version, d.Title, d.Tokens); err != nil {
				return fmt.Errorf("copying document %s: %w", d.DocID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("flushing document copy: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Info("snapshot cataloged", "version", rec.Version, "documents", len(docs))
	return nil
}

// Latest returns the most recently built snapshot row.
func (c *Catalog) Latest(ctx context.Context) (SnapshotRecord, error) {
	var rec SnapshotRecord
	err := c.db.QueryRowContext(ctx,
		`SELECT version, path, documents, terms, dimension, built_at
		 FROM snapshots ORDER BY built_at DESC, version DESC LIMIT 1`,
	).Scan(&rec.Version, &rec.Path, &rec.Documents, &rec.Terms, &rec.Dimension, &rec.BuiltAt)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("querying latest snapshot: %w", err)
	}
	return rec, nil
}

// Documents returns the document rows of version ordered by doc id.
func (c *Catalog) Documents(ctx context.Context, version string) ([]DocumentRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT doc_id, title, tokens FROM documents WHERE snapshot_version = $1`, version)
	if err != nil {
		return nil, fmt.Errorf("querying documents of %s: %w", version, err)
	}
	defer rows.Close()
	var docs []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		if err := rows.Scan(&d.DocID, &d.Title, &d.Tokens); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })
	return docs, nil
}

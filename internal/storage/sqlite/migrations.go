package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrate runs database migrations
func (s *SQLiteDB) migrate() error {
	ctx := context.Background()

	if err := s.createMigrationsTable(ctx); err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: migrateV1},
		{version: 2, name: "node_indexes", up: migrateV2},
	}

	for _, m := range migrations {
		if err := s.runMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}

	return nil
}

type migration struct {
	version int
	name    string
	up      func(context.Context, *sql.Tx) error
}

func (s *SQLiteDB) createMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLiteDB) runMigration(ctx context.Context, m migration) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.version).Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		return nil // Already applied
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.up(ctx, tx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, strftime('%s', 'now'))",
		m.version, m.name)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// migrateV1 creates the initial schema
func migrateV1(ctx context.Context, tx *sql.Tx) error {
	queries := []string{
		// Ingestion lifecycle tracking
		`CREATE TABLE IF NOT EXISTS ingestion_requests (
			ingestion_id TEXT PRIMARY KEY,
			source_type TEXT NOT NULL,
			status TEXT NOT NULL,
			metadata TEXT,
			created_at INTEGER NOT NULL,
			started_at INTEGER,
			finished_at INTEGER
		)`,

		// Document nodes; (repo_id, canonical_id) is the canonical identity,
		// document_id is the internal surrogate
		`CREATE TABLE IF NOT EXISTS document_nodes (
			document_id TEXT PRIMARY KEY,
			repo_id TEXT NOT NULL,
			canonical_id TEXT NOT NULL,
			relative_path TEXT NOT NULL DEFAULT '',
			symbol_path TEXT NOT NULL DEFAULT '',
			doc_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			ingestion_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE(repo_id, canonical_id)
		)`,

		// Typed edges between nodes; cascade on either endpoint
		`CREATE TABLE IF NOT EXISTS document_relationships (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_document_id TEXT NOT NULL REFERENCES document_nodes(document_id) ON DELETE CASCADE,
			to_document_id TEXT NOT NULL REFERENCES document_nodes(document_id) ON DELETE CASCADE,
			relation_type TEXT NOT NULL,
			metadata TEXT,
			created_at INTEGER NOT NULL,
			UNIQUE(from_document_id, to_document_id, relation_type)
		)`,

		// Embedded chunks bound to a node; cascade with the node
		`CREATE TABLE IF NOT EXISTS vector_chunks (
			chunk_id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES document_nodes(document_id) ON DELETE CASCADE,
			ingestion_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_strategy TEXT NOT NULL DEFAULT '',
			chunk_text TEXT NOT NULL,
			vector TEXT NOT NULL,
			source_metadata TEXT,
			provider TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,

		// Legacy dual-write table: every embedded chunk lands here too, with
		// no node binding, so older consumers keep working
		`CREATE TABLE IF NOT EXISTS vectors (
			chunk_id TEXT PRIMARY KEY,
			ingestion_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_strategy TEXT NOT NULL DEFAULT '',
			chunk_text TEXT NOT NULL,
			vector TEXT NOT NULL,
			source_metadata TEXT,
			provider TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

// migrateV2 adds lookup indexes
func migrateV2(ctx context.Context, tx *sql.Tx) error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_nodes_repo ON document_nodes(repo_id)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_source ON document_nodes(source)`,
		`CREATE INDEX IF NOT EXISTS idx_rels_from ON document_relationships(from_document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rels_to ON document_relationships(to_document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON vector_chunks(document_id, chunk_index)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_ingestion ON vector_chunks(ingestion_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vectors_ingestion ON vectors(ingestion_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_status ON ingestion_requests(status, created_at)`,
	}

	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

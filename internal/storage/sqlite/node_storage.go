package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// NodeStorage implements interfaces.NodeStorage over the document_nodes and
// document_relationships tables.
type NodeStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

var _ interfaces.NodeStorage = (*NodeStorage)(nil)

// NewNodeStorage creates a new node storage instance
func NewNodeStorage(db *SQLiteDB, logger arbor.ILogger) *NodeStorage {
	return &NodeStorage{
		db:     db,
		logger: logger,
	}
}

const nodeColumns = `document_id, repo_id, canonical_id, relative_path, symbol_path,
	doc_type, title, summary, source, text, ingestion_id, created_at, updated_at`

const upsertNodeSQL = `
	INSERT INTO document_nodes (` + nodeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(repo_id, canonical_id) DO UPDATE SET
		relative_path = excluded.relative_path,
		symbol_path = excluded.symbol_path,
		doc_type = excluded.doc_type,
		title = excluded.title,
		summary = excluded.summary,
		source = excluded.source,
		text = excluded.text,
		ingestion_id = excluded.ingestion_id,
		updated_at = excluded.updated_at`

// UpsertNode inserts or updates a single node by its canonical identity
func (n *NodeStorage) UpsertNode(ctx context.Context, node *models.DocumentNode) error {
	now := time.Now()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now

	_, err := n.db.db.ExecContext(ctx, upsertNodeSQL,
		node.DocumentID, node.RepoID, node.CanonicalID, node.RelativePath, node.SymbolPath,
		node.DocType, node.Title, node.Summary, node.Source, node.Text, node.IngestionID,
		node.CreatedAt.Unix(), node.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert node %s: %w", node.CanonicalID, err)
	}
	return nil
}

// UpsertNodes inserts or updates a batch of nodes in one transaction
func (n *NodeStorage) UpsertNodes(ctx context.Context, nodes []*models.DocumentNode) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := n.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertNodeSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, node := range nodes {
		if node.CreatedAt.IsZero() {
			node.CreatedAt = now
		}
		node.UpdatedAt = now

		_, err = stmt.ExecContext(ctx,
			node.DocumentID, node.RepoID, node.CanonicalID, node.RelativePath, node.SymbolPath,
			node.DocType, node.Title, node.Summary, node.Source, node.Text, node.IngestionID,
			node.CreatedAt.Unix(), node.UpdatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert node %s: %w", node.CanonicalID, err)
		}
	}

	return tx.Commit()
}

// GetNode retrieves a node by document id
func (n *NodeStorage) GetNode(ctx context.Context, documentID string) (*models.DocumentNode, error) {
	row := n.db.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM document_nodes WHERE document_id = ?`, documentID)
	return scanNode(row)
}

// GetNodeByCanonicalID retrieves a node by its canonical identity
func (n *NodeStorage) GetNodeByCanonicalID(ctx context.Context, repoID, canonicalID string) (*models.DocumentNode, error) {
	row := n.db.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM document_nodes WHERE repo_id = ? AND canonical_id = ?`,
		repoID, canonicalID)
	return scanNode(row)
}

// GetNodesByCanonicalIDs retrieves nodes for a batch of canonical ids within
// one repo. Missing ids are simply absent from the result.
func (n *NodeStorage) GetNodesByCanonicalIDs(ctx context.Context, repoID string, canonicalIDs []string) ([]*models.DocumentNode, error) {
	if len(canonicalIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(canonicalIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(canonicalIDs)+1)
	args = append(args, repoID)
	for _, cid := range canonicalIDs {
		args = append(args, cid)
	}

	rows, err := n.db.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM document_nodes
		 WHERE repo_id = ? AND canonical_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// GetNodeByIngestionSource retrieves the node created for a non-repo
// ingestion by its source tag (e.g. file_document_<ingestion_id>).
func (n *NodeStorage) GetNodeByIngestionSource(ctx context.Context, source string) (*models.DocumentNode, error) {
	row := n.db.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM document_nodes WHERE source = ? LIMIT 1`, source)
	return scanNode(row)
}

// UpdateNodeSummary sets the generated summary on a node
func (n *NodeStorage) UpdateNodeSummary(ctx context.Context, documentID string, summary string) error {
	result, err := n.db.db.ExecContext(ctx,
		`UPDATE document_nodes SET summary = ?, updated_at = ? WHERE document_id = ?`,
		summary, time.Now().Unix(), documentID)
	if err != nil {
		return fmt.Errorf("failed to update summary for %s: %w", documentID, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("node not found: %s", documentID)
	}
	return nil
}

// DeleteNodesByRepoID removes all nodes for a repo; relationships and chunks
// go with them via FK cascade.
func (n *NodeStorage) DeleteNodesByRepoID(ctx context.Context, repoID string) error {
	result, err := n.db.db.ExecContext(ctx,
		`DELETE FROM document_nodes WHERE repo_id = ?`, repoID)
	if err != nil {
		return fmt.Errorf("failed to delete nodes for repo %s: %w", repoID, err)
	}
	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		n.logger.Info().Str("repo_id", repoID).Int64("deleted", deleted).Msg("Deleted repo document nodes")
	}
	return nil
}

// CountNodesByRepoID returns the number of nodes stored for a repo
func (n *NodeStorage) CountNodesByRepoID(ctx context.Context, repoID string) (int, error) {
	var count int
	err := n.db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_nodes WHERE repo_id = ?`, repoID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes for repo %s: %w", repoID, err)
	}
	return count, nil
}

const insertRelationshipSQL = `
	INSERT INTO document_relationships (from_document_id, to_document_id, relation_type, metadata, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(from_document_id, to_document_id, relation_type) DO NOTHING`

// InsertRelationships inserts a batch of edges, ignoring duplicates of the
// (from, to, type) triple.
func (n *NodeStorage) InsertRelationships(ctx context.Context, rels []*models.DocumentRelationship) error {
	if len(rels) == 0 {
		return nil
	}

	tx, err := n.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRelationshipsTx(ctx, tx, rels); err != nil {
		return err
	}

	return tx.Commit()
}

func insertRelationshipsTx(ctx context.Context, tx *sql.Tx, rels []*models.DocumentRelationship) error {
	stmt, err := tx.PrepareContext(ctx, insertRelationshipSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, rel := range rels {
		metadataJSON, err := json.Marshal(rel.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal relationship metadata: %w", err)
		}
		if rel.CreatedAt.IsZero() {
			rel.CreatedAt = now
		}
		_, err = stmt.ExecContext(ctx,
			rel.FromDocumentID, rel.ToDocumentID, string(rel.RelationType),
			string(metadataJSON), rel.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert relationship %s -> %s: %w",
				rel.FromDocumentID, rel.ToDocumentID, err)
		}
	}
	return nil
}

// ReplaceRepoGraph atomically swaps a repo's stored graph: the delete of the
// previous nodes and the insert of the new nodes and relationships share one
// transaction, so a failed re-ingestion leaves the old graph intact.
func (n *NodeStorage) ReplaceRepoGraph(ctx context.Context, repoID string, nodes []*models.DocumentNode, rels []*models.DocumentRelationship) error {
	tx, err := n.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM document_nodes WHERE repo_id = ?`, repoID)
	if err != nil {
		return fmt.Errorf("failed to delete previous nodes for repo %s: %w", repoID, err)
	}
	deleted, _ := result.RowsAffected()

	stmt, err := tx.PrepareContext(ctx, upsertNodeSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, node := range nodes {
		if node.CreatedAt.IsZero() {
			node.CreatedAt = now
		}
		node.UpdatedAt = now
		_, err = stmt.ExecContext(ctx,
			node.DocumentID, node.RepoID, node.CanonicalID, node.RelativePath, node.SymbolPath,
			node.DocType, node.Title, node.Summary, node.Source, node.Text, node.IngestionID,
			node.CreatedAt.Unix(), node.UpdatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert node %s: %w", node.CanonicalID, err)
		}
	}

	if err := insertRelationshipsTx(ctx, tx, rels); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit graph replacement for repo %s: %w", repoID, err)
	}

	n.logger.Info().
		Str("repo_id", repoID).
		Int64("deleted", deleted).
		Int("nodes", len(nodes)).
		Int("relationships", len(rels)).
		Msg("Replaced repo graph")
	return nil
}

// GetRelationshipsFrom returns all outgoing edges of a node
func (n *NodeStorage) GetRelationshipsFrom(ctx context.Context, documentID string) ([]*models.DocumentRelationship, error) {
	rows, err := n.db.db.QueryContext(ctx, `
		SELECT id, from_document_id, to_document_id, relation_type, metadata, created_at
		FROM document_relationships WHERE from_document_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var rels []*models.DocumentRelationship
	for rows.Next() {
		var rel models.DocumentRelationship
		var relType, metadataJSON string
		var createdAt int64
		if err := rows.Scan(&rel.ID, &rel.FromDocumentID, &rel.ToDocumentID,
			&relType, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rel.RelationType = models.RelationType(relType)
		rel.CreatedAt = time.Unix(createdAt, 0)
		if metadataJSON != "" {
			json.Unmarshal([]byte(metadataJSON), &rel.Metadata)
		}
		rels = append(rels, &rel)
	}
	return rels, rows.Err()
}

// ExportGraph loads the full adjacency for one repo: node summaries plus
// outgoing edges keyed by the from-node's canonical id.
func (n *NodeStorage) ExportGraph(ctx context.Context, repoID string) (*models.GraphExport, error) {
	rows, err := n.db.db.QueryContext(ctx, `
		SELECT document_id, canonical_id, relative_path, title, doc_type
		FROM document_nodes WHERE repo_id = ? ORDER BY canonical_id`, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes for export: %w", err)
	}
	defer rows.Close()

	export := &models.GraphExport{
		Relationships: make(map[string][]models.GraphEdgeSummary),
	}
	canonicalByDoc := make(map[string]string)

	for rows.Next() {
		var node models.GraphNodeSummary
		if err := rows.Scan(&node.DocumentID, &node.CanonicalID, &node.RelativePath,
			&node.Title, &node.DocType); err != nil {
			return nil, fmt.Errorf("failed to scan node summary: %w", err)
		}
		export.Nodes = append(export.Nodes, node)
		canonicalByDoc[node.DocumentID] = node.CanonicalID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	export.TotalNodes = len(export.Nodes)

	edgeRows, err := n.db.db.QueryContext(ctx, `
		SELECT r.from_document_id, r.to_document_id, r.relation_type
		FROM document_relationships r
		JOIN document_nodes f ON f.document_id = r.from_document_id
		WHERE f.repo_id = ?`, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships for export: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var fromDoc, toDoc, relType string
		if err := edgeRows.Scan(&fromDoc, &toDoc, &relType); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		fromCanonical := canonicalByDoc[fromDoc]
		toCanonical := canonicalByDoc[toDoc]
		if fromCanonical == "" || toCanonical == "" {
			continue
		}
		export.Relationships[fromCanonical] = append(export.Relationships[fromCanonical],
			models.GraphEdgeSummary{
				ToCanonicalID: toCanonical,
				RelationType:  models.RelationType(relType),
			})
	}
	return export, edgeRows.Err()
}

// ListRepos summarizes each ingested repo from its stored nodes. The repo
// name lives in the ingestion request metadata, so the latest ingestion row
// is joined in; repos whose request is gone fall back to the repo id.
func (n *NodeStorage) ListRepos(ctx context.Context) ([]*models.RepoInfo, error) {
	rows, err := n.db.db.QueryContext(ctx, `
		SELECT r.repo_id, r.ingestion_id, r.node_count, r.file_count, r.ingested_at, ir.metadata
		FROM (
			SELECT repo_id,
			       MAX(ingestion_id) AS ingestion_id,
			       COUNT(*) AS node_count,
			       COUNT(DISTINCT relative_path) AS file_count,
			       MAX(updated_at) AS ingested_at
			FROM document_nodes
			WHERE repo_id != ''
			GROUP BY repo_id
		) r
		LEFT JOIN ingestion_requests ir ON ir.ingestion_id = r.ingestion_id
		ORDER BY r.ingested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list repos: %w", err)
	}
	defer rows.Close()

	var repos []*models.RepoInfo
	for rows.Next() {
		var info models.RepoInfo
		var ingestedAt int64
		var metadataJSON sql.NullString
		if err := rows.Scan(&info.ID, &info.IngestionID, &info.NodeCount,
			&info.FileCount, &ingestedAt, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan repo info: %w", err)
		}
		info.IngestedAt = time.Unix(ingestedAt, 0)
		info.Status = "ready"
		info.Name = repoNameFromIngestionMetadata(metadataJSON.String)
		if info.Name == "" {
			info.Name = info.ID
		}
		info.DisplayName = info.Name
		repos = append(repos, &info)
	}
	return repos, rows.Err()
}

func repoNameFromIngestionMetadata(metadataJSON string) string {
	if metadataJSON == "" {
		return ""
	}
	var meta map[string]interface{}
	if err := json.Unmarshal([]byte(metadataJSON), &meta); err != nil {
		return ""
	}
	name, _ := meta["repo_name"].(string)
	return name
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row rowScanner) (*models.DocumentNode, error) {
	var node models.DocumentNode
	var createdAt, updatedAt int64
	err := row.Scan(&node.DocumentID, &node.RepoID, &node.CanonicalID, &node.RelativePath,
		&node.SymbolPath, &node.DocType, &node.Title, &node.Summary, &node.Source,
		&node.Text, &node.IngestionID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan node: %w", err)
	}
	node.CreatedAt = time.Unix(createdAt, 0)
	node.UpdatedAt = time.Unix(updatedAt, 0)
	return &node, nil
}

func scanNodes(rows *sql.Rows) ([]*models.DocumentNode, error) {
	var nodes []*models.DocumentNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

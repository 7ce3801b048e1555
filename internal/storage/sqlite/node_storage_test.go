package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/models"
)

func testNode(documentID, repoID, canonicalID string) *models.DocumentNode {
	return &models.DocumentNode{
		DocumentID:   documentID,
		RepoID:       repoID,
		CanonicalID:  canonicalID,
		RelativePath: "app.py",
		DocType:      "code",
		Title:        canonicalID,
		IngestionID:  "ing_test",
	}
}

func TestNodeStorageRoundTrip(t *testing.T) {
	store := NewNodeStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	node := testNode("doc_1", "repo_a", "app.py#main")
	node.Text = "def main(): ..."
	require.NoError(t, store.UpsertNode(ctx, node))

	byDoc, err := store.GetNode(ctx, "doc_1")
	require.NoError(t, err)
	require.NotNil(t, byDoc)
	assert.Equal(t, "app.py#main", byDoc.CanonicalID)
	assert.Equal(t, "def main(): ...", byDoc.Text)

	byCanonical, err := store.GetNodeByCanonicalID(ctx, "repo_a", "app.py#main")
	require.NoError(t, err)
	require.NotNil(t, byCanonical)
	assert.Equal(t, "doc_1", byCanonical.DocumentID)

	missing, err := store.GetNode(ctx, "doc_nope")
	require.NoError(t, err)
	assert.Nil(t, missing, "missing nodes are nil, not an error")
}

func TestNodeStorageUpsertUpdatesExisting(t *testing.T) {
	store := NewNodeStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertNode(ctx, testNode("doc_1", "repo_a", "app.py#main")))

	updated := testNode("doc_1", "repo_a", "app.py#main")
	updated.Summary = "entry point"
	require.NoError(t, store.UpsertNode(ctx, updated))

	count, err := store.CountNodesByRepoID(ctx, "repo_a")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same (repo_id, canonical_id) must not duplicate")

	got, err := store.GetNode(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, "entry point", got.Summary)
}

func TestNodeStorageRelationships(t *testing.T) {
	store := NewNodeStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertNodes(ctx, []*models.DocumentNode{
		testNode("doc_1", "repo_a", "app.py"),
		testNode("doc_2", "repo_a", "app.py#main"),
	}))

	rels := []*models.DocumentRelationship{
		{FromDocumentID: "doc_1", ToDocumentID: "doc_2", RelationType: models.RelationDefines},
		{FromDocumentID: "doc_1", ToDocumentID: "doc_2", RelationType: models.RelationDefines},
	}
	require.NoError(t, store.InsertRelationships(ctx, rels))

	outgoing, err := store.GetRelationshipsFrom(ctx, "doc_1")
	require.NoError(t, err)
	require.Len(t, outgoing, 1, "duplicate (from, to, type) triples are ignored")
	assert.Equal(t, "doc_2", outgoing[0].ToDocumentID)
	assert.Equal(t, models.RelationDefines, outgoing[0].RelationType)
}

func TestNodeStorageExportGraph(t *testing.T) {
	store := NewNodeStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertNodes(ctx, []*models.DocumentNode{
		testNode("doc_1", "repo_a", "app.py"),
		testNode("doc_2", "repo_a", "app.py#main"),
		testNode("doc_3", "repo_b", "other.py"),
	}))
	require.NoError(t, store.InsertRelationships(ctx, []*models.DocumentRelationship{
		{FromDocumentID: "doc_1", ToDocumentID: "doc_2", RelationType: models.RelationDefines},
	}))

	export, err := store.ExportGraph(ctx, "repo_a")
	require.NoError(t, err)
	assert.Equal(t, 2, export.TotalNodes, "other repos excluded")

	edges := export.Relationships["app.py"]
	require.Len(t, edges, 1)
	assert.Equal(t, "app.py#main", edges[0].ToCanonicalID)
	assert.Equal(t, models.RelationDefines, edges[0].RelationType)

	empty, err := store.ExportGraph(ctx, "repo_unknown")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalNodes)
}

func TestNodeStorageDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	store := NewNodeStorage(db, common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertNodes(ctx, []*models.DocumentNode{
		testNode("doc_1", "repo_a", "app.py"),
		testNode("doc_2", "repo_a", "app.py#main"),
	}))
	require.NoError(t, store.InsertRelationships(ctx, []*models.DocumentRelationship{
		{FromDocumentID: "doc_1", ToDocumentID: "doc_2", RelationType: models.RelationDefines},
	}))

	require.NoError(t, store.DeleteNodesByRepoID(ctx, "repo_a"))

	count, err := store.CountNodesByRepoID(ctx, "repo_a")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	rels, err := store.GetRelationshipsFrom(ctx, "doc_1")
	require.NoError(t, err)
	assert.Empty(t, rels, "relationships cascade with their nodes")
}

func TestNodeStorageUpdateNodeSummary(t *testing.T) {
	store := NewNodeStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertNode(ctx, testNode("doc_1", "repo_a", "app.py")))
	require.NoError(t, store.UpdateNodeSummary(ctx, "doc_1", "module entry point"))

	got, err := store.GetNode(ctx, "doc_1")
	require.NoError(t, err)
	assert.Equal(t, "module entry point", got.Summary)

	err = store.UpdateNodeSummary(ctx, "doc_nope", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node not found")
}

func TestNodeStorageListRepos(t *testing.T) {
	store := NewNodeStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertNodes(ctx, []*models.DocumentNode{
		testNode("doc_1", "repo_a", "app.py"),
		testNode("doc_2", "repo_a", "app.py#main"),
	}))

	repos, err := store.ListRepos(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "repo_a", repos[0].ID)
	assert.Equal(t, 2, repos[0].NodeCount)
	assert.Equal(t, 1, repos[0].FileCount, "distinct relative paths")
	assert.Equal(t, "ready", repos[0].Status)
}

func TestNodeStorageListReposNames(t *testing.T) {
	db := newTestDB(t)
	store := NewNodeStorage(db, common.GetLogger())
	ingestions := NewIngestionStorage(db, common.GetLogger())
	ctx := context.Background()

	require.NoError(t, ingestions.Create(ctx, &models.IngestionRequest{
		IngestionID: "ing_test",
		SourceType:  models.SourceTypeCode,
		Status:      models.IngestionCompleted,
		Metadata:    map[string]interface{}{"repo_id": "repo_a", "repo_name": "widgets"},
	}))
	require.NoError(t, store.UpsertNodes(ctx, []*models.DocumentNode{
		testNode("doc_1", "repo_a", "app.py"),
		testNode("doc_2", "repo_a", "app.py#main"),
	}))

	orphan := testNode("doc_3", "repo_b", "other.py")
	orphan.IngestionID = "ing_gone"
	require.NoError(t, store.UpsertNode(ctx, orphan))

	repos, err := store.ListRepos(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 2)

	byID := map[string]*models.RepoInfo{}
	for _, repo := range repos {
		byID[repo.ID] = repo
	}

	require.Contains(t, byID, "repo_a")
	assert.Equal(t, "widgets", byID["repo_a"].Name)
	assert.Equal(t, "widgets", byID["repo_a"].DisplayName)

	require.Contains(t, byID, "repo_b")
	assert.Equal(t, "repo_b", byID["repo_b"].Name, "missing ingestion metadata falls back to the repo id")
	assert.Equal(t, "repo_b", byID["repo_b"].DisplayName)
}

func TestNodeStorageReplaceRepoGraph(t *testing.T) {
	store := NewNodeStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertNodes(ctx, []*models.DocumentNode{
		testNode("doc_old_1", "repo_a", "app.py"),
		testNode("doc_old_2", "repo_a", "app.py#main"),
	}))
	require.NoError(t, store.InsertRelationships(ctx, []*models.DocumentRelationship{
		{FromDocumentID: "doc_old_1", ToDocumentID: "doc_old_2", RelationType: models.RelationDefines},
	}))

	newNodes := []*models.DocumentNode{
		testNode("doc_new_1", "repo_a", "app.py"),
		testNode("doc_new_2", "repo_a", "app.py#run"),
	}
	newRels := []*models.DocumentRelationship{
		{FromDocumentID: "doc_new_1", ToDocumentID: "doc_new_2", RelationType: models.RelationDefines},
	}
	require.NoError(t, store.ReplaceRepoGraph(ctx, "repo_a", newNodes, newRels))

	old, err := store.GetNode(ctx, "doc_old_1")
	require.NoError(t, err)
	assert.Nil(t, old, "previous graph is fully replaced")

	replacement, err := store.GetNode(ctx, "doc_new_2")
	require.NoError(t, err)
	require.NotNil(t, replacement)
	assert.Equal(t, "app.py#run", replacement.CanonicalID)

	outgoing, err := store.GetRelationshipsFrom(ctx, "doc_new_1")
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "doc_new_2", outgoing[0].ToDocumentID)
}

func TestNodeStorageReplaceRepoGraphRollsBackOnFailure(t *testing.T) {
	store := NewNodeStorage(newTestDB(t), common.GetLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertNodes(ctx, []*models.DocumentNode{
		testNode("doc_old_1", "repo_a", "app.py"),
	}))

	// A relationship endpoint that was never inserted violates the FK and
	// must abort the whole replacement.
	err := store.ReplaceRepoGraph(ctx, "repo_a",
		[]*models.DocumentNode{testNode("doc_new_1", "repo_a", "app.py")},
		[]*models.DocumentRelationship{
			{FromDocumentID: "doc_new_1", ToDocumentID: "doc_missing", RelationType: models.RelationCall},
		})
	require.Error(t, err)

	kept, err := store.GetNode(ctx, "doc_old_1")
	require.NoError(t, err)
	require.NotNil(t, kept, "failed replacement leaves the previous graph intact")

	count, err := store.CountNodesByRepoID(ctx, "repo_a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

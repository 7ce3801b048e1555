package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/contexo/internal/models"
)

// formatRAGResponse formats an answer plus its provenance as markdown
func formatRAGResponse(query string, resp *models.RAGResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Answer for \"%s\"\n\n", query))
	sb.WriteString(resp.Answer)
	sb.WriteString("\n\n")

	if len(resp.Sources) > 0 {
		sb.WriteString("### Sources\n")
		for _, src := range resp.Sources {
			sb.WriteString(fmt.Sprintf("- %s\n", src))
		}
		sb.WriteString("\n")
	}

	if plan := resp.RetrievalPlan; plan != nil {
		sb.WriteString("### Retrieval\n")
		sb.WriteString(fmt.Sprintf("**Repo:** %s\n", resp.RepoID))
		sb.WriteString(fmt.Sprintf("**Documents:** %d seed, %d expanded, %d total\n",
			plan.SeedDocs, plan.ExpandedDocs, plan.TotalDocs))
		if len(plan.SeedCanonicalIDs) > 0 {
			sb.WriteString(fmt.Sprintf("**Seed symbols:** %s\n", strings.Join(plan.SeedCanonicalIDs, ", ")))
		}
		if len(plan.ExpandedCanonicalIDs) > 0 {
			sb.WriteString(fmt.Sprintf("**Expanded symbols:** %s\n", strings.Join(plan.ExpandedCanonicalIDs, ", ")))
		}
	}

	return sb.String()
}

// formatRepoList formats repository listings as markdown
func formatRepoList(repos []*models.RepoInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Ingested Repositories (%d)\n\n", len(repos)))

	if len(repos) == 0 {
		sb.WriteString("No repositories ingested.\n")
		return sb.String()
	}

	for i, repo := range repos {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, repo.DisplayName))
		sb.WriteString(fmt.Sprintf("**ID:** %s\n", repo.ID))
		sb.WriteString(fmt.Sprintf("**Status:** %s\n", repo.Status))
		sb.WriteString(fmt.Sprintf("**Ingested:** %s\n", repo.IngestedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("**Files:** %d, **Nodes:** %d\n\n", repo.FileCount, repo.NodeCount))
	}

	return sb.String()
}

// formatGraphExport formats a graph export as markdown, one node per line
func formatGraphExport(repoID string, export *models.GraphExport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Graph for %s (%d nodes)\n\n", repoID, export.TotalNodes))

	if export.TotalNodes == 0 {
		sb.WriteString("Repository has no graph nodes.\n")
		return sb.String()
	}

	for _, node := range export.Nodes {
		sb.WriteString(fmt.Sprintf("- `%s` (%s) %s\n", node.CanonicalID, node.DocType, node.Title))
		for _, edge := range export.Relationships[node.CanonicalID] {
			sb.WriteString(fmt.Sprintf("  - %s -> `%s`\n", edge.RelationType, edge.ToCanonicalID))
		}
	}

	return sb.String()
}

package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/models"
)

// handleRAGQuery implements the rag_query tool
func handleRAGQuery(ragService interfaces.RAGService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		topK := request.GetInt("top_k", 20)
		if topK > 100 {
			topK = 100
		}

		resp, err := ragService.Answer(ctx, &models.RAGRequest{
			Query:  query,
			RepoID: request.GetString("repo_id", ""),
			TopK:   topK,
		})
		if err != nil {
			logger.Error().Err(err).Msg("RAG query failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Query error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatRAGResponse(query, resp)),
			},
		}, nil
	}
}

// handleSimpleQuery implements the rag_query_simple tool
func handleSimpleQuery(simpleService interfaces.SimpleRAGService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		topK := request.GetInt("top_k", 20)
		if topK > 100 {
			topK = 100
		}

		resp, err := simpleService.Answer(ctx, &models.RAGRequest{
			Query: query,
			TopK:  topK,
		})
		if err != nil {
			logger.Error().Err(err).Msg("Simple RAG query failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Query error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatRAGResponse(query, resp)),
			},
		}, nil
	}
}

// handleListRepos implements the list_repos tool
func handleListRepos(nodes interfaces.NodeStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repos, err := nodes.ListRepos(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Repo listing failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Listing error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatRepoList(repos)),
			},
		}, nil
	}
}

// handleRepoGraph implements the repo_graph tool
func handleRepoGraph(nodes interfaces.NodeStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repoID, err := request.RequireString("repo_id")
		if err != nil || repoID == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: repo_id parameter is required"),
				},
			}, nil
		}

		export, err := nodes.ExportGraph(ctx, repoID)
		if err != nil {
			logger.Error().Err(err).Str("repo_id", repoID).Msg("Graph export failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Export error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatGraphExport(repoID, export)),
			},
		}, nil
	}
}

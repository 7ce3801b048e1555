package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createRAGQueryTool returns the rag_query tool definition
func createRAGQueryTool() mcp.Tool {
	return mcp.NewTool("rag_query",
		mcp.WithDescription("Answer a question about an ingested codebase using hybrid vector + graph retrieval"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language question about the code"),
		),
		mcp.WithString("repo_id",
			mcp.Description("Repository ID (defaults to the most recently ingested repo)"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Vector hits to seed retrieval with (default: 20, max: 100)"),
		),
	)
}

// createSimpleQueryTool returns the rag_query_simple tool definition
func createSimpleQueryTool() mcp.Tool {
	return mcp.NewTool("rag_query_simple",
		mcp.WithDescription("Answer a question over uploaded documents only, excluding code chunks"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language question about uploaded documents"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Vector hits to seed retrieval with (default: 20, max: 100)"),
		),
	)
}

// createListReposTool returns the list_repos tool definition
func createListReposTool() mcp.Tool {
	return mcp.NewTool("list_repos",
		mcp.WithDescription("List completely ingested repositories, newest first"),
	)
}

// createRepoGraphTool returns the repo_graph tool definition
func createRepoGraphTool() mcp.Tool {
	return mcp.NewTool("repo_graph",
		mcp.WithDescription("Export the document graph of one repository: nodes plus outgoing relationships"),
		mcp.WithString("repo_id",
			mcp.Required(),
			mcp.Description("Repository ID (see list_repos)"),
		),
	)
}

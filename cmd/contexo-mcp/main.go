package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/graph"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/retrieval"
	"github.com/ternarybob/contexo/internal/services/embeddings"
	"github.com/ternarybob/contexo/internal/services/llm"
	"github.com/ternarybob/contexo/internal/storage"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONTEXO_CONFIG")
	if configPath == "" {
		configPath = "contexo.toml"
	}

	// MCP server doesn't use KV replacement, so nil is appropriate here
	config, err := common.LoadFromFile(nil, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	// Initialize storage
	storageManager, err := storage.NewManager(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	nodes := storageManager.NodeStorage()
	vectors := storageManager.VectorStorage()

	// Initialize model services
	llmService, err := llm.NewLLMService(config, storageManager.KeyValueStorage(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize LLM service")
	}
	defer llmService.Close()
	embedder := embeddings.NewService(llmService, &config.Embedding, logger)

	// Per-request provider overrides are not supported over MCP
	resolveLLM := func(provider string) (interfaces.LLMService, error) {
		return llmService, nil
	}

	// Initialize retrieval services
	graphCache := graph.NewCache(nodes, logger)
	ragService := retrieval.NewService(embedder, vectors, nodes, graphCache, resolveLLM, &config.Retrieval, logger)
	simpleService := retrieval.NewSimpleService(embedder, vectors, nodes, resolveLLM, &config.Retrieval, logger)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"contexo",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register retrieval tools
	mcpServer.AddTool(createRAGQueryTool(), handleRAGQuery(ragService, logger))
	mcpServer.AddTool(createSimpleQueryTool(), handleSimpleQuery(simpleService, logger))

	// Register graph tools
	mcpServer.AddTool(createListReposTool(), handleListRepos(nodes, logger))
	mcpServer.AddTool(createRepoGraphTool(), handleRepoGraph(nodes, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}

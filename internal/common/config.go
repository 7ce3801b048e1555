package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Ingest      IngestConfig    `toml:"ingest"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	GitHub      GitHubConfig    `toml:"github"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Embedding   EmbeddingConfig `toml:"embedding"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
	Badger BadgerConfig `toml:"badger"`
}

// SQLiteConfig represents the relational store configuration
type SQLiteConfig struct {
	Path string `toml:"path"` // Database file path
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// IngestConfig contains configuration for the ingestion pipeline
type IngestConfig struct {
	WorkDir         string `toml:"work_dir"`          // Scratch directory for repo checkouts and uploads
	MaxUploadBytes  int64  `toml:"max_upload_bytes"`  // Maximum accepted upload size
	SummarizeOnDone bool   `toml:"summarize_on_done"` // Trigger summary generation after successful ingest
}

// RetrievalConfig contains configuration for hybrid retrieval behavior
type RetrievalConfig struct {
	SeedLimit          int `toml:"seed_limit"`           // Vector hits used as plan seeds
	MaxDepth           int `toml:"max_depth"`            // Graph expansion depth bound
	ChunksPerDocument  int `toml:"chunks_per_document"`  // Chunk cap per document during plan execution
	MaxContextChunks   int `toml:"max_context_chunks"`   // Total chunk cap handed to the LLM
	ContextWordBudget  int `toml:"context_word_budget"`  // Approximate token budget, counted in words
	FallbackUnfiltered bool `toml:"fallback_unfiltered"` // Retry vector search without doc_type filter on empty results
}

// SchedulerConfig contains configuration for the ingestion supervisor
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`
	Schedule      string `toml:"schedule"`        // Cron schedule for the stuck-ingestion sweep
	StuckDuration string `toml:"stuck_duration"`  // Age after which a running ingestion is marked failed
}

// GitHubConfig contains configuration for repository fetching
type GitHubConfig struct {
	Token          string `toml:"token"`           // GitHub API token (optional for public repos)
	RequestTimeout string `toml:"request_timeout"` // HTTP request timeout as duration string
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for completions (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for completions (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderMock returns deterministic output without network calls
	LLMProviderMock LLMProvider = "mock"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini", "claude", or "mock" (default: "gemini")
}

// EmbeddingConfig contains configuration for the embedding service
type EmbeddingConfig struct {
	Provider  string `toml:"provider"`  // "gemini" or "mock" (default: "gemini")
	Model     string `toml:"model"`     // Embedding model (default: "gemini-embedding-001")
	Dimension int    `toml:"dimension"` // Embedding vector dimension (default: 768)
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in contexo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path: "./data/contexo.db",
			},
			Badger: BadgerConfig{
				Path: "./data/kv",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Ingest: IngestConfig{
			WorkDir:         "./data/work",
			MaxUploadBytes:  20 * 1024 * 1024, // 20MB
			SummarizeOnDone: true,
		},
		Retrieval: RetrievalConfig{
			SeedLimit:          5,
			MaxDepth:           1,
			ChunksPerDocument:  3,
			MaxContextChunks:   20,
			ContextWordBudget:  3000,
			FallbackUnfiltered: true,
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			Schedule:      "0 */5 * * * *", // Every 5 minutes (cron with seconds)
			StuckDuration: "30m",
		},
		GitHub: GitHubConfig{
			Token:          "",
			RequestTimeout: "60s",
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Embedding: EmbeddingConfig{
			Provider:  "gemini",
			Model:     "gemini-embedding-001",
			Dimension: 768,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// kvStorage can be nil (replacement will be skipped)
func LoadFromFile(kvStorage interfaces.KeyValueStorage, path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles(kvStorage)
	}
	return LoadFromFiles(kvStorage, path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override earlier files.
// kvStorage can be nil (replacement will be skipped)
func LoadFromFiles(kvStorage interfaces.KeyValueStorage, paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Perform {key-name} replacement if KV storage is available
	if kvStorage != nil {
		ctx := context.Background()
		kvMap, err := kvStorage.GetAll(ctx)
		if err != nil {
			logger := arbor.NewLogger()
			logger.Warn().Err(err).Msg("Failed to fetch KV map for config replacement, skipping replacement")
		} else {
			logger := arbor.NewLogger()
			if err := ReplaceInStruct(config, kvMap, logger); err != nil {
				logger.Warn().Err(err).Msg("Failed to replace key references in config")
			} else {
				logger.Info().Int("keys", len(kvMap)).Msg("Applied key/value replacements to config")
			}
		}
	}

	// Environment variables override all file configs and replacements
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CONTEXO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("CONTEXO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CONTEXO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if sqlitePath := os.Getenv("CONTEXO_SQLITE_PATH"); sqlitePath != "" {
		config.Storage.SQLite.Path = sqlitePath
	}
	if badgerPath := os.Getenv("CONTEXO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("CONTEXO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("CONTEXO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("CONTEXO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Ingest configuration
	if workDir := os.Getenv("CONTEXO_INGEST_WORK_DIR"); workDir != "" {
		config.Ingest.WorkDir = workDir
	}
	if maxUpload := os.Getenv("CONTEXO_INGEST_MAX_UPLOAD_BYTES"); maxUpload != "" {
		if mb, err := strconv.ParseInt(maxUpload, 10, 64); err == nil {
			config.Ingest.MaxUploadBytes = mb
		}
	}
	if summarize := os.Getenv("CONTEXO_INGEST_SUMMARIZE_ON_DONE"); summarize != "" {
		if s, err := strconv.ParseBool(summarize); err == nil {
			config.Ingest.SummarizeOnDone = s
		}
	}

	// Retrieval configuration
	if seedLimit := os.Getenv("CONTEXO_RETRIEVAL_SEED_LIMIT"); seedLimit != "" {
		if sl, err := strconv.Atoi(seedLimit); err == nil {
			config.Retrieval.SeedLimit = sl
		}
	}
	if maxDepth := os.Getenv("CONTEXO_RETRIEVAL_MAX_DEPTH"); maxDepth != "" {
		if md, err := strconv.Atoi(maxDepth); err == nil {
			config.Retrieval.MaxDepth = md
		}
	}
	if perDoc := os.Getenv("CONTEXO_RETRIEVAL_CHUNKS_PER_DOCUMENT"); perDoc != "" {
		if pd, err := strconv.Atoi(perDoc); err == nil {
			config.Retrieval.ChunksPerDocument = pd
		}
	}
	if maxChunks := os.Getenv("CONTEXO_RETRIEVAL_MAX_CONTEXT_CHUNKS"); maxChunks != "" {
		if mc, err := strconv.Atoi(maxChunks); err == nil {
			config.Retrieval.MaxContextChunks = mc
		}
	}
	if budget := os.Getenv("CONTEXO_RETRIEVAL_CONTEXT_WORD_BUDGET"); budget != "" {
		if wb, err := strconv.Atoi(budget); err == nil {
			config.Retrieval.ContextWordBudget = wb
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("CONTEXO_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("CONTEXO_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
	if stuck := os.Getenv("CONTEXO_SCHEDULER_STUCK_DURATION"); stuck != "" {
		if _, err := time.ParseDuration(stuck); err == nil {
			config.Scheduler.StuckDuration = stuck
		}
	}

	// GitHub configuration
	if token := os.Getenv("CONTEXO_GITHUB_TOKEN"); token != "" {
		config.GitHub.Token = token
	} else if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		config.GitHub.Token = token
	}

	// Gemini configuration
	if apiKey := os.Getenv("CONTEXO_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("CONTEXO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("CONTEXO_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("CONTEXO_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("CONTEXO_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("CONTEXO_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // CONTEXO_ prefix takes priority
	}
	if model := os.Getenv("CONTEXO_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("CONTEXO_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("CONTEXO_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("CONTEXO_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("CONTEXO_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("CONTEXO_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Embedding configuration
	if provider := os.Getenv("CONTEXO_EMBEDDING_PROVIDER"); provider != "" {
		config.Embedding.Provider = provider
	}
	if model := os.Getenv("CONTEXO_EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if dimension := os.Getenv("CONTEXO_EMBEDDING_DIMENSION"); dimension != "" {
		if d, err := strconv.Atoi(dimension); err == nil {
			config.Embedding.Dimension = d
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> KV store -> config fallback -> error
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"CONTEXO_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"CONTEXO_CLAUDE_API_KEY"},
		"claude_api_key":    {"CONTEXO_CLAUDE_API_KEY"},
		"github_token":      {"CONTEXO_GITHUB_TOKEN", "GITHUB_TOKEN"},
	}

	// For Claude, also check the standard ANTHROPIC_API_KEY env var
	if name == "anthropic_api_key" || name == "claude_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// StuckAge parses the scheduler stuck duration, falling back to 30 minutes
func (c *Config) StuckAge() time.Duration {
	d, err := time.ParseDuration(c.Scheduler.StuckDuration)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// DeepCloneConfig creates a deep copy of the Config struct
func DeepCloneConfig(c *Config) *Config {
	if c == nil {
		return nil
	}

	clone := *c

	if len(c.Logging.Output) > 0 {
		clone.Logging.Output = make([]string, len(c.Logging.Output))
		copy(clone.Logging.Output, c.Logging.Output)
	}

	return &clone
}

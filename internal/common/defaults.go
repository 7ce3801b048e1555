// Package common provides shared utilities and default configuration.
package common

// DefaultKVValue represents a default key/value pair that is seeded on startup.
type DefaultKVValue struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// GetDefaultKVValues returns the list of default KV values seeded on startup.
// This is the single source of truth for default values.
func GetDefaultKVValues() []DefaultKVValue {
	return []DefaultKVValue{
		{
			Key:         "embedding_model",
			Value:       "gemini-embedding-001",
			Description: "Default embedding model name",
		},
		{
			Key:         "github_api_base_url",
			Value:       "https://api.github.com",
			Description: "GitHub API base URL",
		},
	}
}

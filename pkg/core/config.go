// Package core provides the main retention engine and its configuration.
package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for a retention engine.
//
// It includes settings for:
//   - OpenAI (embeddings and LLM coaching)
//   - Content catalog vector store
//   - Trained model artifacts (clustering and churn)
//   - Plan history persistence
//   - HTTP server address
//
// Example:
//
//	config := &core.Config{
//	    OpenAI: core.OpenAIConfig{
//	        APIKey:         "sk-...",
//	        EmbeddingModel: "text-embedding-3-small",
//	        EmbeddingDims:  1536,
//	        LLMModel:       "gpt-4o-mini",
//	    },
//	    Catalog: core.CatalogConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./welli.db",
//	        },
//	    },
//	    ModelsDir: "./ml_models",
//	}
type Config struct {
	// OpenAI contains OpenAI API configuration.
	OpenAI OpenAIConfig `json:"openai"`

	// Catalog contains content catalog store configuration.
	Catalog CatalogConfig `json:"catalog"`

	// ModelsDir is the directory trained model artifacts are loaded from.
	ModelsDir string `json:"models_dir"`

	// PlansDBPath is the SQLite file plan history is stored in.
	PlansDBPath string `json:"plans_db_path"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server"`
}

// OpenAIConfig contains configuration for the OpenAI API.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Required.
	APIKey string `json:"api_key"`

	// BaseURL is the base URL for the API (optional, uses the OpenAI
	// default if empty).
	BaseURL string `json:"base_url,omitempty"`

	// EmbeddingModel is the embedding model name
	// (e.g., "text-embedding-3-small").
	EmbeddingModel string `json:"embedding_model"`

	// EmbeddingDims is the dimension of the embedding vectors.
	EmbeddingDims int `json:"embedding_dims,omitempty"`

	// LLMModel is the chat model used for coaching (e.g., "gpt-4o-mini").
	LLMModel string `json:"llm_model"`
}

// CatalogConfig contains configuration for the content catalog store.
//
// Supported providers: sqlite, postgres, mysql
//
// Example:
//
//	catalogConfig := core.CatalogConfig{
//	    Provider: "sqlite",
//	    Config: map[string]interface{}{
//	        "db_path":    "./welli.db",
//	        "table_name": "content_items",
//	    },
//	}
type CatalogConfig struct {
	// Provider is the catalog store provider name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path, table_name, embedding_model_dims
	// For PostgreSQL: host, port, user, password, db_name, table_name, embedding_model_dims, ssl_mode
	// For MySQL: host, port, user, password, db_name, table_name, embedding_model_dims
	Config map[string]interface{} `json:"config"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the listen address.
	Host string `json:"host"`

	// Port is the listen port.
	Port int `json:"port"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - OPENAI_API_KEY, OPENAI_BASE_URL
//   - EMBEDDING_MODEL, EMBEDDING_MODEL_DIMS, LLM_MODEL
//   - CATALOG_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH, SQLITE_TABLE
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, etc.
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, etc.
//   - MODELS_DIR, PLANS_DB_PATH
//   - WELLI_HOST, WELLI_PORT
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("CATALOG_PROVIDER", "sqlite")
	dims, _ := strconv.Atoi(getEnvOrDefault("EMBEDDING_MODEL_DIMS", "1536"))

	catalogConfig := make(map[string]interface{})
	switch provider {
	case "sqlite":
		catalogConfig = map[string]interface{}{
			"db_path":              getEnvOrDefault("SQLITE_PATH", "./welli.db"),
			"table_name":           getEnvOrDefault("SQLITE_TABLE", "content_items"),
			"embedding_model_dims": dims,
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))

		catalogConfig = map[string]interface{}{
			"host":                 getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":                 port,
			"user":                 getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password":             os.Getenv("POSTGRES_PASSWORD"),
			"db_name":              getEnvOrDefault("POSTGRES_DATABASE", "welli"),
			"table_name":           getEnvOrDefault("POSTGRES_TABLE", "content_items"),
			"embedding_model_dims": dims,
			"ssl_mode":             getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))

		catalogConfig = map[string]interface{}{
			"host":                 getEnvOrDefault("MYSQL_HOST", "localhost"),
			"port":                 port,
			"user":                 getEnvOrDefault("MYSQL_USER", "root"),
			"password":             os.Getenv("MYSQL_PASSWORD"),
			"db_name":              getEnvOrDefault("MYSQL_DATABASE", "welli"),
			"table_name":           getEnvOrDefault("MYSQL_TABLE", "content_items"),
			"embedding_model_dims": dims,
		}
	}

	serverPort, _ := strconv.Atoi(getEnvOrDefault("WELLI_PORT", "8000"))

	config := &Config{
		OpenAI: OpenAIConfig{
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			BaseURL:        os.Getenv("OPENAI_BASE_URL"),
			EmbeddingModel: getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDims:  dims,
			LLMModel:       getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		},
		Catalog: CatalogConfig{
			Provider: provider,
			Config:   catalogConfig,
		},
		ModelsDir:   getEnvOrDefault("MODELS_DIR", "./ml_models"),
		PlansDBPath: getEnvOrDefault("PLANS_DB_PATH", "./welli_plans.db"),
		Server: ServerConfig{
			Host: getEnvOrDefault("WELLI_HOST", "0.0.0.0"),
			Port: serverPort,
		},
	}

	return config, nil
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewEngineError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewEngineError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Checks that all required fields are set:
//   - OpenAI API key must be specified
//   - Catalog provider must be specified
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return NewEngineError("Validate", ErrInvalidConfig)
	}
	if c.Catalog.Provider == "" {
		return NewEngineError("Validate", ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

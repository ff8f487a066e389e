package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welli-app/retention-go/pkg/core"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("CATALOG_PROVIDER", "sqlite")

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", config.OpenAI.APIKey)
	assert.Equal(t, "text-embedding-3-small", config.OpenAI.EmbeddingModel)
	assert.Equal(t, 1536, config.OpenAI.EmbeddingDims)
	assert.Equal(t, "gpt-4o-mini", config.OpenAI.LLMModel)
	assert.Equal(t, "sqlite", config.Catalog.Provider)
	assert.Equal(t, "./ml_models", config.ModelsDir)
	assert.Equal(t, "./welli_plans.db", config.PlansDBPath)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8000, config.Server.Port)
}

func TestLoadConfigFromEnv_SQLiteCatalog(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("CATALOG_PROVIDER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/custom.db")
	t.Setenv("SQLITE_TABLE", "catalog")
	t.Setenv("EMBEDDING_MODEL_DIMS", "768")

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", config.Catalog.Config["db_path"])
	assert.Equal(t, "catalog", config.Catalog.Config["table_name"])
	assert.Equal(t, 768, config.Catalog.Config["embedding_model_dims"])
	assert.Equal(t, 768, config.OpenAI.EmbeddingDims)
}

func TestLoadConfigFromEnv_PostgresCatalog(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("CATALOG_PROVIDER", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "welli")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres", config.Catalog.Provider)
	assert.Equal(t, "db.internal", config.Catalog.Config["host"])
	assert.Equal(t, 5433, config.Catalog.Config["port"])
	assert.Equal(t, "welli", config.Catalog.Config["user"])
	assert.Equal(t, "secret", config.Catalog.Config["password"])
	assert.Equal(t, "disable", config.Catalog.Config["ssl_mode"])
}

func TestLoadConfigFromEnv_ServerOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("WELLI_HOST", "127.0.0.1")
	t.Setenv("WELLI_PORT", "9000")

	config, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "127.0.0.1:9000", config.Server.Addr())
}

func TestLoadConfigFromJSON(t *testing.T) {
	configJSON := `{
		"openai": {
			"api_key": "test-key",
			"embedding_model": "text-embedding-3-small",
			"embedding_dims": 1536,
			"llm_model": "gpt-4o-mini"
		},
		"catalog": {
			"provider": "sqlite",
			"config": {"db_path": "./welli.db"}
		},
		"models_dir": "./artifacts",
		"server": {"host": "localhost", "port": 8080}
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(configJSON), 0o644))

	config, err := core.LoadConfigFromJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "test-key", config.OpenAI.APIKey)
	assert.Equal(t, "sqlite", config.Catalog.Provider)
	assert.Equal(t, "./welli.db", config.Catalog.Config["db_path"])
	assert.Equal(t, "./artifacts", config.ModelsDir)
	assert.Equal(t, "localhost:8080", config.Server.Addr())
}

func TestLoadConfigFromJSON_MissingFile(t *testing.T) {
	_, err := core.LoadConfigFromJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	config := &core.Config{
		OpenAI:  core.OpenAIConfig{APIKey: "test-key"},
		Catalog: core.CatalogConfig{Provider: "sqlite"},
	}
	assert.NoError(t, config.Validate())
}

func TestConfig_ValidateMissingAPIKey(t *testing.T) {
	config := &core.Config{
		Catalog: core.CatalogConfig{Provider: "sqlite"},
	}

	err := config.Validate()
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestConfig_ValidateMissingProvider(t *testing.T) {
	config := &core.Config{
		OpenAI: core.OpenAIConfig{APIKey: "test-key"},
	}

	err := config.Validate()
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.GenerationHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.GenerationModel)
	assert.Equal(t, 384, cfg.EmbeddingDimensions)
	assert.Equal(t, 2.0, cfg.RequestsPerSecond)
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("no options returns defaults", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), NewConfig())
	})

	t.Run("options override defaults", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://models.internal:8080/v1"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithGenerationModel("gpt-4o-mini"),
			WithEmbeddingDimensions(1536),
			WithRequestsPerSecond(10),
			WithProbeTimeout(time.Second),
			WithRequestTimeout(10*time.Second),
		)

		assert.Equal(t, "http://models.internal:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://models.internal:8080/v1", cfg.GenerationHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.GenerationModel)
		assert.Equal(t, 1536, cfg.EmbeddingDimensions)
		assert.Equal(t, 10.0, cfg.RequestsPerSecond)
		assert.Equal(t, time.Second, cfg.ProbeTimeout)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	})

	t.Run("split hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed.internal:8080/v1"),
			WithGenerationHost("http://gen.internal:8080/v1"),
		)
		assert.Equal(t, "http://embed.internal:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://gen.internal:8080/v1", cfg.GenerationHost)
	})
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds v1 suffix", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434"))
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.GenerationHost)
	})

	t.Run("strips trailing slash before appending", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434/"))
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("idempotent", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:11434/v1"))
		cfg.Normalize()
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("fills zero values", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://h/v1", GenerationHost: "http://h/v1"}
		cfg.Normalize()
		assert.Equal(t, 384, cfg.EmbeddingDimensions)
		assert.Equal(t, 2.0, cfg.RequestsPerSecond)
		assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	t.Run("valid config", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingHost = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing generation host", func(t *testing.T) {
		cfg := valid()
		cfg.GenerationHost = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing generation model", func(t *testing.T) {
		cfg := valid()
		cfg.GenerationModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative dimensions", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingDimensions = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative rate", func(t *testing.T) {
		cfg := valid()
		cfg.RequestsPerSecond = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive request timeout", func(t *testing.T) {
		cfg := valid()
		cfg.RequestTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("validate normalizes hosts", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingHost = "http://localhost:9000"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:9000/v1", cfg.EmbeddingHost)
	})
}

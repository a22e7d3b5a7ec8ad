package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoad_Defaults(t *testing.T) {
	unsetEnv(t, "BUILD_TARGET", "DB_DRIVER", "SQLITE_PATH", "OLLAMA_MODEL", "BOOTSTRAP_TIMEOUT_SECONDS", "LLM_PROVIDER", "HTTP_PORT")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, ":8000", cfg.GetHTTPAddr())
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, "llama3.2:1b", cfg.ChatModel())
	assert.Equal(t, 5, cfg.BootstrapTimeoutSeconds)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())

	assert.Equal(t, []int{10, 20, 20, 30},
		[]int{cfg.RateLimitMessages, cfg.RateLimitNotes, cfg.RateLimitTasks, cfg.RateLimitDefault})
	assert.Equal(t, time.Minute, cfg.RateLimitWindow())
	assert.Equal(t, 300, cfg.RateLimitCleanupSeconds)
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	t.Setenv("NOTE_TAKER_OLLAMA_MODEL", "test-model")
	t.Setenv("NOTE_TAKER_RATE_LIMIT_MESSAGES", "3")
	t.Setenv("NOTE_TAKER_LLM_TIMEOUT_SECONDS", "0")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "test-model", cfg.ChatModel())
	assert.Equal(t, 3, cfg.RateLimitMessages)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout(), "zero timeout falls back to the default")
}

func TestConfigLoad_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("NOTE_TAKER_LLM_PROVIDER", "openai")
	unsetEnv(t, "OPENAI_API_KEY", "OPENAI_MODEL")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTE_TAKER_OPENAI_API_KEY")

	t.Setenv("NOTE_TAKER_OPENAI_API_KEY", "sk-test")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel())
}

func TestConfigLoad_MalformedNumber(t *testing.T) {
	t.Setenv("NOTE_TAKER_HTTP_PORT", "eighty")
	_, err := New()
	assert.ErrorContains(t, err, "read environment")
}

// unsetEnv removes NOTE_TAKER_ variables for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		k = "NOTE_TAKER_" + k
		t.Setenv(k, "") // registers restore on cleanup
		require.NoError(t, os.Unsetenv(k))
	}
}

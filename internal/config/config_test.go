package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FRIENDZONE_PROVIDER_MODE", "fixture")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderFixture, cfg.ProviderMode)
	require.Equal(t, SessionMemory, cfg.SessionBackend)
	require.Equal(t, ChatSimulated, cfg.ChatTransport)
	require.Equal(t, time.Second, cfg.ChatReplyMinDelay)
	require.Equal(t, 3*time.Second, cfg.ChatReplyMaxDelay)
	require.Equal(t, 1500*time.Millisecond, cfg.LeaveRedirectDelay)
	require.Equal(t, 300*time.Millisecond, cfg.PageRenderBudget)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadRejectsRedisWithoutURL(t *testing.T) {
	t.Setenv("FRIENDZONE_SESSION_BACKEND", "redis")
	t.Setenv("FRIENDZONE_REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("FRIENDZONE_API_TIMEOUT", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "api.timeout")
}

func TestValidateDelayWindow(t *testing.T) {
	cfg := Config{
		ProviderMode:      ProviderFixture,
		SessionBackend:    SessionMemory,
		ChatTransport:     ChatSimulated,
		AssistantProvider: AssistantNone,
		ChatReplyMinDelay: 3 * time.Second,
		ChatReplyMaxDelay: time.Second,
	}
	require.Error(t, cfg.Validate())

	cfg.ChatReplyMaxDelay = 4 * time.Second
	require.NoError(t, cfg.Validate())
}

func TestHTTPAddressKeepsColon(t *testing.T) {
	require.Equal(t, ":9000", Config{AppPort: ":9000"}.HTTPAddress())
}

package confconfig_test

import (
	"testing"

	"github.com/PioneersHub/pytanis-go/internal/wire"
	"github.com/PioneersHub/pytanis-go/pkg/confconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigHasNoUpstreamCredentials(t *testing.T) {
	cfg := confconfig.DefaultConfig()
	assert.Empty(t, cfg.Upstream.Token)
	assert.Empty(t, cfg.Upstream.BaseURL)
	assert.Equal(t, "v1", cfg.Upstream.Version)
	assert.Equal(t, "Accept-Version", cfg.Upstream.VersionHeader)
}

func TestFromEnvMissingTokenFails(t *testing.T) {
	t.Setenv("PYTANIS_UPSTREAM_BASE_URL", "https://example.org/api")
	t.Setenv("PYTANIS_UPSTREAM_TOKEN", "")

	_, err := confconfig.FromEnv()
	require.Error(t, err)
	var missing *wire.ConfigMissing
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "upstream.token", missing.Field)
}

func TestFromEnvLoadsCoreSettings(t *testing.T) {
	t.Setenv("PYTANIS_UPSTREAM_BASE_URL", "https://example.org/api")
	t.Setenv("PYTANIS_UPSTREAM_TOKEN", "secret-token")
	t.Setenv("PYTANIS_UPSTREAM_VERSION", "v2")
	t.Setenv("PYTANIS_RATE_LIMIT_RPS", "10")

	cfg, err := confconfig.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/api", cfg.Upstream.BaseURL)
	assert.Equal(t, "secret-token", cfg.Upstream.Token)
	assert.Equal(t, "v2", cfg.Upstream.Version)
	assert.Equal(t, 10.0, cfg.RateLimit.RatePerSecond)
}

func TestFromEnvOptionsOverrideEnv(t *testing.T) {
	t.Setenv("PYTANIS_UPSTREAM_BASE_URL", "https://example.org/api")
	t.Setenv("PYTANIS_UPSTREAM_TOKEN", "env-token")

	cfg, err := confconfig.FromEnv(confconfig.WithToken("option-token"))
	require.NoError(t, err)
	assert.Equal(t, "option-token", cfg.Upstream.Token)
}

func TestFromEnvOTELFallbackEnablesTelemetry(t *testing.T) {
	t.Setenv("PYTANIS_UPSTREAM_BASE_URL", "https://example.org/api")
	t.Setenv("PYTANIS_UPSTREAM_TOKEN", "secret-token")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4317")

	cfg, err := confconfig.FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http://collector:4317", cfg.Telemetry.Endpoint)
}

func TestStorageEnabledRequiresPath(t *testing.T) {
	t.Setenv("PYTANIS_UPSTREAM_BASE_URL", "https://example.org/api")
	t.Setenv("PYTANIS_UPSTREAM_TOKEN", "secret-token")

	cfg, err := confconfig.FromEnv(confconfig.WithStorage("filesystem", ""))
	require.Error(t, err)
	assert.Nil(t, cfg)
	var missing *wire.ConfigMissing
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "storage.path", missing.Field)
}

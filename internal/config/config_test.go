package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("RENET_API_TOKEN", "")
	t.Setenv("RENET_PUBLIC_TOKEN", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadFromDotEnv(t *testing.T) {
	t.Setenv("RENET_API_TOKEN", "")
	t.Setenv("RENET_PUBLIC_TOKEN", "")
	os.Unsetenv("RENET_API_TOKEN")
	os.Unsetenv("RENET_PUBLIC_TOKEN")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RENET_API_TOKEN=secret\nAGENCY_AGENTS=Jane Citizen,John Smith\nREVIEWS_TTL=30m\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("AGENCY_AGENTS")
		os.Unsetenv("REVIEWS_TTL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Upstream.Token)
	assert.Equal(t, DefaultUpstreamBaseURL, cfg.Upstream.BaseURL)
	assert.Equal(t, []string{"Jane Citizen", "John Smith"}, cfg.Agency.Agents)
	assert.Equal(t, 30*time.Minute, cfg.Reviews.TTL)
	assert.False(t, cfg.ReviewsEnabled())
}

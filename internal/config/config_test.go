package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr-poehali-dev/email-creation-site/internal/config"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "skzry.ru", cfg.Mail.Domain)
	assert.Equal(t, "993", cfg.IMAP.Port)
	assert.True(t, cfg.IMAP.TLS)
	assert.False(t, cfg.IMAP.Configured())
	assert.False(t, cfg.SMTP.Configured())
	assert.False(t, cfg.Poller.Enabled)
}

func TestLoad_ReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
mail:
  domain: example.org
imap:
  host: imap.example.org
  username: shared@example.org
  password: secret
smtp:
  host: smtp.example.org
  port: "465"
  username: shared@example.org
  password: secret
poller:
  enabled: true
  interval_sec: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "example.org", cfg.Mail.Domain)
	assert.True(t, cfg.IMAP.Configured())
	assert.True(t, cfg.IMAP.TLS) // default survives partial section
	assert.True(t, cfg.SMTP.Configured())
	assert.True(t, cfg.Poller.Enabled)
	assert.Equal(t, 30, cfg.Poller.IntervalSec)
}

func TestLoad_InvalidIntervalFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poller:\n  interval_sec: -5\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Poller.IntervalSec)
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/eicfolio/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"GHOSTFOLIO_SECURITY_TOKEN", "GHOSTFOLIO_URL", "GHOSTFOLIO_EIC_ACCOUNT_NAME",
	"GHOSTFOLIO_EIC_TARGET_TAG", "EIC_LOGIN", "EIC_PASSWORD", "CHROME_PATH",
	"GATHER_DATA", "JOURNAL_DSN", "SERVER_ADDR", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv deja el entorno limpio; t.Setenv restaura al terminar.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(writeConfig(t, "ghostfolio:\n  url: http://gf.local/\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://gf.local", cfg.Ghostfolio.URL)
	assert.Equal(t, 5.0, cfg.Ghostfolio.RatePerSec)
	assert.Equal(t, "EIC", cfg.Ghostfolio.PlatformName)
	assert.Equal(t, "https://webapp.eic.eu/", cfg.Ghostfolio.PlatformURL)
	assert.Equal(t, "EIC-MNG-FEE", cfg.Ghostfolio.FeeSymbol)
	assert.Equal(t, 500, cfg.Sync.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchDelay())
	assert.Equal(t, time.Second, cfg.CreateDelay())
	assert.Equal(t, 300*time.Second, cfg.LongWait())
	assert.Equal(t, 30*time.Second, cfg.ShortWait())
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.True(t, cfg.HeadlessBrowser())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Journal.DSN)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("GHOSTFOLIO_SECURITY_TOKEN", "secret")
	t.Setenv("GHOSTFOLIO_EIC_TARGET_TAG", "EIC-ENV")
	t.Setenv("EIC_LOGIN", "me")
	t.Setenv("GATHER_DATA", "true")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, `
ghostfolio:
  target_tag: EIC-YAML
  account_name: Broker
eic:
  headless: false
sync:
  batch_delay_seconds: -1
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Ghostfolio.SecurityToken)
	assert.Equal(t, "EIC-ENV", cfg.Ghostfolio.TargetTag)
	assert.Equal(t, "Broker", cfg.Ghostfolio.AccountName)
	assert.Equal(t, "me", cfg.EIC.Login)
	assert.True(t, cfg.Ghostfolio.GatherData)
	assert.False(t, cfg.HeadlessBrowser())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.LessOrEqual(t, cfg.BatchDelay(), time.Duration(0))
}

func TestLoad_BadGatherData(t *testing.T) {
	clearEnv(t)
	t.Setenv("GATHER_DATA", "maybe")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATHER_DATA")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_ListsEveryMissingField(t *testing.T) {
	clearEnv(t)
	t.Setenv("EIC_LOGIN", "me")

	cfg, err := config.Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, field := range []string{
		"ghostfolio.security_token", "ghostfolio.url", "eic.password",
		"ghostfolio.account_name", "ghostfolio.target_tag",
	} {
		assert.Contains(t, msg, field)
	}
	assert.NotContains(t, msg, "eic.login")

	assert.ErrorContains(t, cfg.ValidateBroker(), "eic.password")
}

func TestValidate_OK(t *testing.T) {
	clearEnv(t)
	t.Setenv("GHOSTFOLIO_SECURITY_TOKEN", "secret")
	t.Setenv("GHOSTFOLIO_URL", "http://gf.local")
	t.Setenv("GHOSTFOLIO_EIC_ACCOUNT_NAME", "EIC")
	t.Setenv("GHOSTFOLIO_EIC_TARGET_TAG", "EIC")
	t.Setenv("EIC_LOGIN", "me")
	t.Setenv("EIC_PASSWORD", "pw")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

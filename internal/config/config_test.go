package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.OCR.RenderScale)
	assert.Equal(t, 100, cfg.OCR.MinTextChars)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.DocumentTimeout)
	assert.Equal(t, 44640, cfg.Pipeline.SanityCeilingMinutes)
	assert.Equal(t, AllowlistSourceFile, cfg.Allowlist.Source)
	assert.Equal(t, "resultado_pontos.csv", cfg.Output.CSVPath)
	assert.Equal(t, "stderr", cfg.Logger.OutputPath)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("pipeline:\n  workers: 8\nocr:\n  language: por+eng\n  render_scale: 5\noutput:\n  xlsx: true\n")
	require.NoError(t, os.WriteFile(path, yaml, 0644))

	t.Setenv("TIMECARD_ALLOWLIST", "/etc/colaboradores.txt")
	t.Setenv("TIMECARD_PIPELINE_SANITY_CEILING_MINUTES", "1000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, "por+eng", cfg.OCR.Language)
	assert.Equal(t, 5.0, cfg.OCR.RenderScale)
	assert.True(t, cfg.Output.XLSX)
	assert.Equal(t, "/etc/colaboradores.txt", cfg.Allowlist.Path)
	assert.Equal(t, 1000, cfg.Pipeline.SanityCeilingMinutes)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"low render scale", func(c *Config) { c.OCR.RenderScale = 2 }},
		{"no workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"zero ceiling", func(c *Config) { c.Pipeline.SanityCeilingMinutes = 0 }},
		{"unknown allowlist source", func(c *Config) { c.Allowlist.Source = "ldap" }},
		{"database source without path", func(c *Config) {
			c.Allowlist.Source = AllowlistSourceDatabase
			c.Database.Path = ""
		}},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TIMECARD_TEST_DOTENV=loaded\n"), 0644))
	t.Setenv("TIMECARD_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("TIMECARD_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("TIMECARD_TEST_DOTENV"))
}

package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slotmerge.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "src", cfg.SourceDir)
	assert.Equal(t, "dist", cfg.OutputDir)
	assert.Equal(t, "_layout.html", cfg.LayoutFile)
	assert.Equal(t, ".html", cfg.PageExtension)
	assert.Equal(t, 150*time.Millisecond, cfg.Debounce)
	assert.Equal(t, []string{".tmp"}, cfg.TransientSuffixes)
	assert.Equal(t, "z-", cfg.Markdown.HighlightPrefix)
	assert.NoError(t, cfg.Validate())
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := writeConfig(t, `{
		"sourceDir": "site",
		"outputDir": "public",
		"pageExtension": "HTML",
		"debounceMs": 40,
		"transientSuffixes": [".swp", "~"],
		"minifyOutput": true,
		"logLevel": "debug"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "site", cfg.SourceDir)
	assert.Equal(t, "public", cfg.OutputDir)
	assert.Equal(t, ".html", cfg.PageExtension)
	assert.Equal(t, 40*time.Millisecond, cfg.Debounce)
	assert.Equal(t, []string{".swp", "~"}, cfg.TransientSuffixes)
	assert.True(t, cfg.MinifyOutput)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `{"layoutFile": "nested/_layout.html", "logLevel": "loud", "sourceDir": "x", "outputDir": "x"}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bare file name")
	assert.Contains(t, err.Error(), "unknown logLevel")
	assert.Contains(t, err.Error(), "outputDir must differ")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSetDebounce(t *testing.T) {
	cfg := Default()
	cfg.SetDebounce(25 * time.Millisecond)
	assert.Equal(t, 25, cfg.DebounceMs)
	cfg.SetDebounce(0)
	assert.Equal(t, 25*time.Millisecond, cfg.Debounce)
}

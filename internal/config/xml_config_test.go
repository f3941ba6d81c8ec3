package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdfconverter.config.xml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
	assert.Equal(t, filepath.Join(dir, "data", "converted"), cfg.GetConvertedDir())
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
	assert.Equal(t, time.Hour, cfg.SweepInterval())
	assert.Equal(t, 24*time.Hour, cfg.Retention())
}

func TestLoadConfig_RoundTripAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.xml")

	cfg := DefaultConfig()
	cfg.Server.Port = 9090
	cfg.Processing.SweepUploads = false
	cfg.Processing.RetentionHours = 48
	require.NoError(t, cfg.Save(path))

	t.Setenv("PUBLIC_BASE_URL", "http://localhost:9090")
	t.Setenv("CONVERTED_DIR", "/srv/converted")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, loaded.Server.Port)
	assert.Equal(t, "http://localhost:9090", loaded.Server.PublicBaseURL)
	assert.Equal(t, "/srv/converted", loaded.GetConvertedDir())
	assert.Equal(t, 48*time.Hour, loaded.Retention())
	assert.Equal(t, []string{"/srv/converted"}, loaded.SweepDirs())
}

func TestLoadConfig_PortOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.xml")
	t.Setenv("PORT", "4321")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:4321", cfg.GetServerAddr())
}

func TestServerTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.ServerTimeouts()
	assert.Equal(t, 30*time.Second, got.ReadHeader)
	assert.Equal(t, 15*time.Minute, got.Read, "upload bodies get far more than the header timeout")
	assert.Equal(t, 20*time.Minute, got.Write)
	assert.Equal(t, 2*time.Minute, got.Idle)

	cfg.Server.ReadTimeout = 1800
	cfg.Server.WriteTimeout = 60
	cfg.Server.ReadHeaderTimeout = 0
	got = cfg.ServerTimeouts()
	assert.Equal(t, 30*time.Minute, got.Read)
	assert.Equal(t, 30*time.Minute, got.Write, "write never below read")
	assert.Equal(t, 30*time.Second, got.ReadHeader)
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.xml")
	require.NoError(t, os.WriteFile(path, []byte("<PDFConverter><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{cfg.GetUploadDir(), cfg.GetConvertedDir()} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestResolvePaths_TempDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.UseTempDir = true
	cfg.resolvePaths("/etc/pdfconverter")

	assert.Equal(t, filepath.Join(os.TempDir(), "uploads"), cfg.GetUploadDir())
	assert.Equal(t, filepath.Join(os.TempDir(), "converted"), cfg.GetConvertedDir())
}

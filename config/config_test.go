package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NOVALITETEST_PATH", "/tmp/a.db")

	cfg, err := Load("NOVALITETEST", "")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/a.db", cfg.Path)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.False(t, cfg.SyncOnWrite)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 0, cfg.Cache.Pages)
	assert.Equal(t, "clock", cfg.Cache.Policy)
}

func TestLoad_Env_Overrides_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "novalite.yaml")
	content := "path: /data/from-file.db\nbackend: file\ncache:\n  policy: lru\nlog:\n  level: WARN\n  format: json\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	t.Setenv("NOVALITE_LOG_LEVEL", "DEBUG")
	t.Setenv("NOVALITE_SYNC_ON_WRITE", "true")
	t.Setenv("NOVALITE_CACHE_PAGES", "64")

	cfg, err := Load("NOVALITE", file)
	require.NoError(t, err)

	assert.Equal(t, "/data/from-file.db", cfg.Path)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.SyncOnWrite)
	assert.Equal(t, 64, cfg.Cache.Pages)
	assert.Equal(t, "lru", cfg.Cache.Policy)
	assert.Equal(t, "DEBUG", cfg.Log.Logger().Level)
}

func TestLoad_Missing_File_Fails(t *testing.T) {
	_, err := Load("NOVALITE", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Mem_Backend_Needs_No_Path(t *testing.T) {
	t.Setenv("NOVALITEMEM_BACKEND", "mem")

	cfg, err := Load("NOVALITEMEM", "")
	require.NoError(t, err)
	assert.Equal(t, BackendMem, cfg.Backend)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("file backend without path", func(t *testing.T) {
		cfg := Default()
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := Default()
		cfg.Backend = "s3"
		cfg.Path = "x.db"
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative cache", func(t *testing.T) {
		cfg := Default()
		cfg.Path = "x.db"
		cfg.Cache.Pages = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown cache policy", func(t *testing.T) {
		cfg := Default()
		cfg.Path = "x.db"
		cfg.Cache.Policy = "random"
		assert.Error(t, cfg.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		cfg := Default()
		cfg.Path = "x.db"
		assert.NoError(t, cfg.Validate())
	})
}

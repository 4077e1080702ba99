package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadNodeDefaults(t *testing.T) {
	cfg, err := LoadNode("")
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Importer.BatchSize)
	assert.True(t, cfg.Importer.Enabled)
	assert.Equal(t, time.Second, cfg.Importer.PollInterval)
	assert.Equal(t, uint64(21000), cfg.Web3.MinGas)
	assert.Equal(t, uint64(15000000), cfg.Web3.MaxGas)
	assert.Equal(t, "exclusive", cfg.Web3.Cache.Mode)
	assert.Equal(t, 20, cfg.Web3.Estimate.MaxIterations)
	assert.Equal(t, []string{"stdout"}, cfg.Log.Out)
}

func TestLoadNodeFileAndEnv(t *testing.T) {
	path := writeFile(t, `
[Importer]
BatchSize = 50

[Web3.Cache]
Mode = "shared"
TTL = "30s"
`)
	t.Setenv("HMN_IMPORTER_BATCHSIZE", "10")
	t.Setenv("HMN_POSTGRESQL_HOSTREAD", "replica")
	t.Setenv("HMN_WEB3_CACHE_SIZE", "5")
	t.Setenv("HMN_WEB3_ESTIMATE_MAXITERATIONS", "7")
	t.Setenv("HMN_LOG_OUT", "stdout,/tmp/node.log")

	cfg, err := LoadNode(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Importer.BatchSize)
	assert.Equal(t, "shared", cfg.Web3.Cache.Mode)
	assert.Equal(t, 30*time.Second, cfg.Web3.Cache.TTL)
	assert.Equal(t, "replica", cfg.PostgreSQL.HostRead)
	assert.Equal(t, "localhost", cfg.PostgreSQL.HostWrite)
	assert.Equal(t, 5, cfg.Web3.Cache.Size)
	assert.Equal(t, 7, cfg.Web3.Estimate.MaxIterations)
	assert.Equal(t, []string{"stdout", "/tmp/node.log"}, cfg.Log.Out)
}

type envSection struct {
	Port int `env:"HMN_TEST_PORT"`
}

func TestLoadEnvNested(t *testing.T) {
	var cfg struct {
		Name  string `env:"HMN_TEST_NAME"`
		Outer struct {
			Inner envSection
		}
	}
	t.Setenv("HMN_TEST_NAME", "a")
	t.Setenv("HMN_TEST_PORT", "8080")
	require.NoError(t, loadEnv(&cfg))
	assert.Equal(t, "a", cfg.Name)
	assert.Equal(t, 8080, cfg.Outer.Inner.Port)

	t.Setenv("HMN_TEST_PORT", "x")
	assert.Error(t, loadEnv(&cfg))
}

func TestLoadNodeInvalid(t *testing.T) {
	_, err := LoadNode(writeFile(t, "[Web3.Cache]\nMode = \"global\"\n"))
	assert.Error(t, err)

	_, err = LoadNode(writeFile(t, "[Web3]\nMinGas = 100\nMaxGas = 10\n"))
	assert.Error(t, err)

	_, err = LoadNode(writeFile(t, "[Importer]\nBatchSiz = 10\n"))
	assert.Error(t, err)

	_, err = LoadNode(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

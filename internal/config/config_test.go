package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"BUILDCAP_DRIVER", "BUILDCAP_CONFIGURATION", "BUILDCAP_PLATFORM", "BUILDCAP_TIMEOUT", "BUILDCAP_READER_COMMAND"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dotnet", cfg.Driver.Command)
	assert.Equal(t, []string{"msbuild"}, cfg.Driver.Args)
	assert.Equal(t, "Debug", cfg.Build.Configuration)
	assert.Equal(t, "Any CPU", cfg.Build.Platform)
	assert.Equal(t, "C#", cfg.Language)
	assert.Zero(t, cfg.Build.Timeout)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "buildcap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver:
  command: /opt/dotnet/dotnet
  log_dir: /tmp/logs
build:
  configuration: Release
  properties:
    TargetFramework: net8.0
  timeout: 10m
reader:
  command: binlog2jsonl
  args: ["--compilers"]
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/dotnet/dotnet", cfg.Driver.Command)
	assert.Equal(t, []string{"msbuild"}, cfg.Driver.Args, "unset keys keep defaults")
	assert.Equal(t, "/tmp/logs", cfg.Driver.LogDir)
	assert.Equal(t, "Release", cfg.Build.Configuration)
	assert.Equal(t, "Any CPU", cfg.Build.Platform)
	assert.Equal(t, map[string]string{"TargetFramework": "net8.0"}, cfg.Build.Properties)
	assert.Equal(t, 10*time.Minute, cfg.Build.Timeout)
	assert.Equal(t, "binlog2jsonl", cfg.Reader.Command)
	assert.Equal(t, []string{"--compilers"}, cfg.Reader.Args)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BUILDCAP_DRIVER", "msbuild-wrapper --quiet")
	t.Setenv("BUILDCAP_CONFIGURATION", "Release")
	t.Setenv("BUILDCAP_PLATFORM", "x64")
	t.Setenv("BUILDCAP_TIMEOUT", "90s")
	t.Setenv("BUILDCAP_READER_COMMAND", "dump-invocations -z")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "msbuild-wrapper", cfg.Driver.Command)
	assert.Equal(t, []string{"--quiet"}, cfg.Driver.Args)
	assert.Equal(t, "Release", cfg.Build.Configuration)
	assert.Equal(t, "x64", cfg.Build.Platform)
	assert.Equal(t, 90*time.Second, cfg.Build.Timeout)
	assert.Equal(t, "dump-invocations", cfg.Reader.Command)
	assert.Equal(t, []string{"-z"}, cfg.Reader.Args)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("driver: [unclosed"), 0o644))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("BUILDCAP_TIMEOUT", "soon")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
		require.Error(t, err)
	})
}

func TestLoadConfig_BlankEnvKeepsDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BUILDCAP_DRIVER", "   ")
	t.Setenv("BUILDCAP_READER_COMMAND", "\t")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Driver.Command, cfg.Driver.Command)
	assert.Equal(t, def.Driver.Args, cfg.Driver.Args)
	assert.Empty(t, cfg.Reader.Command)
}

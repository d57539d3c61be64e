package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Port)
	require.Equal(t, "repowiki.db", cfg.SQLitePath)
	require.Equal(t, "gemini", cfg.LLM.Provider)
	require.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	require.Equal(t, 3, cfg.Pipeline.RetryMax)
	require.Equal(t, 500*time.Millisecond, cfg.Pipeline.RetryBase)
	require.Equal(t, 32*1024, cfg.Pipeline.PreviewLimit)
	require.Equal(t, 2, cfg.Workers)
	require.False(t, cfg.Artifact.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LLM_PROVIDER", "fake")
	t.Setenv("PIPELINE_RETRY_MAX", "5")
	t.Setenv("PIPELINE_RETRY_BASE", "2s")
	t.Setenv("WORKERS", "4")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Port)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "fake", cfg.LLM.Provider)
	require.Equal(t, 5, cfg.Pipeline.RetryMax)
	require.Equal(t, 2*time.Second, cfg.Pipeline.RetryBase)
	require.Equal(t, 4, cfg.Workers)
	require.True(t, cfg.Artifact.Enabled)
	require.Equal(t, "repowiki-docs", cfg.Artifact.Bucket)
}

func TestLoad_RejectsBadWorkerCount(t *testing.T) {
	t.Setenv("WORKERS", "0")
	_, err := Load()
	require.Error(t, err)
}

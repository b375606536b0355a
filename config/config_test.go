package config_test

import (
	"testing"

	"github.com/contenox/orchestrator/config"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/orchestrator")
	t.Setenv("PORT", "8080")
	t.Setenv("ENABLE_KUBERNETES", "true")

	var cfg config.Config
	require.NoError(t, config.LoadConfig(&cfg))
	require.Equal(t, "postgres://localhost/orchestrator", cfg.DatabaseURL)
	require.Equal(t, "8080", cfg.Port)
	require.True(t, cfg.EnableKubernetes)
}

func TestValidateConfigFillsDefaults(t *testing.T) {
	cfg := config.Config{DatabaseURL: "postgres://localhost/orchestrator", Port: "8080"}
	require.NoError(t, config.ValidateConfig(&cfg))
	require.Equal(t, "0.0.0.0", cfg.Addr)
	require.Equal(t, "dummy", cfg.DefaultCloud)
	require.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestValidateConfigRequiresDatabaseURL(t *testing.T) {
	cfg := config.Config{Port: "8080"}
	err := config.ValidateConfig(&cfg)
	require.Error(t, err)
}

func TestValidateConfigRequiresAWSRegionWhenEnabled(t *testing.T) {
	cfg := config.Config{DatabaseURL: "postgres://localhost/orchestrator", Port: "8080", EnableAWS: true}
	err := config.ValidateConfig(&cfg)
	require.Error(t, err)
}

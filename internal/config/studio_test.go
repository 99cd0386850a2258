package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStudioFile(t *testing.T, contents string) *viper.Viper {
	t.Helper()
	path := filepath.Join(t.TempDir(), "studio.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return v
}

func TestLoadStudioConfigPartialFileFallsBackToDefaults(t *testing.T) {
	v := writeStudioFile(t, "studio:\n  timeZone: UTC\n")

	cfg, err := loadStudioConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.Equal(t, 2, cfg.MinDayThreshold)
	assert.Equal(t, 30, cfg.DefaultCommissionPercent)
}

func TestLoadStudioConfigEmptyFileYieldsDefaults(t *testing.T) {
	v := writeStudioFile(t, "studio: {}\n")

	cfg, err := loadStudioConfig(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultStudioConfig(), cfg)
}

func TestLoadStudioConfigRejectsInvalidZone(t *testing.T) {
	v := writeStudioFile(t, "studio:\n  timeZone: Mars/Olympus\n")

	_, err := loadStudioConfig(v)
	assert.Error(t, err)
}

func TestLoadStudioConfigRejectsOutOfRangeThreshold(t *testing.T) {
	v := writeStudioFile(t, "studio:\n  timeZone: UTC\n  minDayThreshold: 31\n")

	_, err := loadStudioConfig(v)
	assert.Error(t, err)
}

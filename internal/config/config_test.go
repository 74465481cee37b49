package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGetEnvFallsBackWhenUnset(t *testing.T) {
	os.Unsetenv("CATALYSTD_TEST_STR")
	assert.Equal(t, "fallback", getEnv("CATALYSTD_TEST_STR", "fallback"))

	t.Setenv("CATALYSTD_TEST_STR", "set")
	assert.Equal(t, "set", getEnv("CATALYSTD_TEST_STR", "fallback"))
}

func TestGetEnvAsIntInvalidValueFallsBack(t *testing.T) {
	t.Setenv("CATALYSTD_TEST_INT", "not-a-number")
	assert.Equal(t, 42, getEnvAsInt("CATALYSTD_TEST_INT", 42))

	t.Setenv("CATALYSTD_TEST_INT", "7")
	assert.Equal(t, 7, getEnvAsInt("CATALYSTD_TEST_INT", 42))
}

func TestGetEnvAsBoolInvalidValueFallsBack(t *testing.T) {
	t.Setenv("CATALYSTD_TEST_BOOL", "nonsense")
	assert.Equal(t, true, getEnvAsBool("CATALYSTD_TEST_BOOL", true))

	t.Setenv("CATALYSTD_TEST_BOOL", "false")
	assert.Equal(t, false, getEnvAsBool("CATALYSTD_TEST_BOOL", true))
}

func TestGetEnvAsFloat64InvalidValueFallsBack(t *testing.T) {
	t.Setenv("CATALYSTD_TEST_FLOAT", "nan-ish")
	assert.Equal(t, 1.5, getEnvAsFloat64("CATALYSTD_TEST_FLOAT", 1.5))

	t.Setenv("CATALYSTD_TEST_FLOAT", "2.75")
	assert.Equal(t, 2.75, getEnvAsFloat64("CATALYSTD_TEST_FLOAT", 1.5))
}

func TestDefaultKeywordTableHasAllFiveRows(t *testing.T) {
	kw := defaultKeywordTable()
	for _, tag := range []string{"partnership", "clinical", "fda", "merger", "acquisition"} {
		row, ok := kw[tag]
		require.Truef(t, ok, "missing keyword row %q", tag)
		assert.Greater(t, row.BaseConfidence, 0.0)
		assert.Greater(t, row.DefaultStopPct, 0.0)
		assert.Greater(t, row.DefaultTargetPct, 0.0)
	}
}

func TestLoadTablesFallsBackToDefaultKeywordsWithNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	tables, err := LoadTables(dir)
	require.NoError(t, err)
	assert.Equal(t, defaultKeywordTable(), tables.Keywords)
}

func TestWriteDefaultTablesRoundTripsAndRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultTables(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var tables Tables
	require.NoError(t, yaml.Unmarshal(raw, &tables))
	assert.Equal(t, defaultKeywordTable(), tables.Keywords)
	assert.NotEmpty(t, tables.Sources)

	err = WriteDefaultTables(path)
	require.Error(t, err, "must refuse to clobber an existing config")
}

package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browsercov/domain/usage"
	"browsercov/internal/errors"
)

func TestRulesFromFile(t *testing.T) {
	rules, err := RulesFromFile("")
	require.NoError(t, err)
	assert.Equal(t, usage.DefaultRules(), rules)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	yaml := `Samsung Internet:
  dot_version: true
  platforms:
    __default__: Samsung Internet
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	rules, err = RulesFromFile(path)
	require.NoError(t, err)
	assert.Contains(t, rules, "Safari")
	assert.True(t, rules["Samsung Internet"].DotVersion)
	assert.Equal(t, "16.4", rules.Version("Samsung Internet", "16.4.2"))
}

func TestRulesFromFile_Invalid(t *testing.T) {
	_, err := RulesFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Safari:\n  colour: blue\n"), 0o644))
	_, err = RulesFromFile(path)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

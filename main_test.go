package main

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ConfigError(t *testing.T) {
	err := run(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRun_StartupError(t *testing.T) {
	originalLogger := logger
	defer func() { logger = originalLogger }()

	cfg := fmt.Sprintf(`
device:
  host: 127.0.0.1
  login: root
  commands_file: %s
predictor:
  model_file: %s
log:
  level: error
`, writeTempFile(t, "commands.yml", mockCommandTableYAML), filepath.Join(t.TempDir(), "missing-model.yml"))

	err := run(writeTempFile(t, "config.yml", cfg))
	assert.ErrorIs(t, err, ErrPredictorLoad)
}

func TestMain_ExitsOnError(t *testing.T) {
	originalExit := exitFunc
	defer func() { exitFunc = originalExit }()

	var exitMsg string
	exitFunc = func(format string, args ...interface{}) {
		exitMsg = fmt.Sprintf(format, args...)
	}
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "missing.yml"))

	main()

	require.NotEmpty(t, exitMsg)
	assert.Contains(t, exitMsg, "smartband-relay")
	assert.Contains(t, exitMsg, "invalid configuration")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "well.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestNew_LoadsFromTOMLFile(t *testing.T) {
	path := writeConfigFile(t, `
[well]
name = "Balder-7"
field = "Balder"
bit_diameter_inches = 8.5

[optimizer]
cooldown_secs = 120
`)
	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "Balder-7", cfg.Well.Name)
	assert.Equal(t, 120, cfg.Optimizer.CooldownSecs)
	assert.Equal(t, 10, cfg.Optimizer.EvalEveryNPackets) // default retained
}

func TestNew_AppliesDefaultsWithoutFile(t *testing.T) {
	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Baseline.MinSamplesForLock)
	assert.Equal(t, 200, cfg.Baseline.WindowSize)
	assert.InDelta(t, 0.90, cfg.ACI.TargetCoverage, 1e-9)
}

func TestNew_EnvVarOverridesDefault(t *testing.T) {
	t.Setenv("KB_ROOT", "/data/kb")
	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "/data/kb", cfg.KB.Root)
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := Config{LogLevel: "verbose", Well: Well{BitDiameterInches: 8.5}, Baseline: Baseline{MinSamplesForLock: 1, WindowSize: 1}, ACI: ACI{TargetCoverage: 0.9}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveBitDiameter(t *testing.T) {
	cfg := Config{LogLevel: "info", Well: Well{BitDiameterInches: 0}, Baseline: Baseline{MinSamplesForLock: 1, WindowSize: 1}, ACI: ACI{TargetCoverage: 0.9}}
	assert.Error(t, cfg.Validate())
}

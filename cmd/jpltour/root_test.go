package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"jpltour/pkg/config"
	"jpltour/pkg/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyArgs(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	o := &options{}
	root := newRootCommand(o)
	require.NoError(t, root.ParseFlags(args))

	cfg := config.Default()
	return cfg, o.apply(root, cfg)
}

func TestApplyFlags(t *testing.T) {
	cfg, err := applyArgs(t,
		"-b", "/opt/chrome",
		"-t", "90",
		"-r", "2025-03-31,2025-03-01",
		"-n", "https://discord.com/api/webhooks/1/abc",
		"-w", "10,20",
		"-s", "custom.state.json",
	)
	require.NoError(t, err)

	assert.Equal(t, "/opt/chrome", cfg.Browser.ExecPath)
	assert.Equal(t, 90, cfg.Browser.PageTimeout)
	assert.False(t, cfg.Browser.Headless, "a reservation range needs a visible browser")
	assert.Equal(t, "2025-03-31", cfg.Reserve.From)
	assert.Equal(t, "2025-03-01", cfg.Reserve.To)
	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Notify.Destination)
	assert.Equal(t, 10, cfg.Run.WaitMin)
	assert.Equal(t, 20, cfg.Run.WaitMax)
	assert.Equal(t, "custom.state.json", cfg.State.Path)
}

func TestApplyFlagsKeepsConfigWhenUnset(t *testing.T) {
	cfg, err := applyArgs(t)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Browser.PageTimeout, cfg.Browser.PageTimeout)
	assert.False(t, cfg.Reserve.Enabled())
}

func TestApplyFlagsRejectsBadRanges(t *testing.T) {
	tests := [][]string{
		{"-r", "2025-03-01"},
		{"-r", "2025-03-01,someday"},
		{"-w", "5"},
		{"-w", "a,b"},
	}
	for _, args := range tests {
		_, err := applyArgs(t, args...)
		assert.ErrorIs(t, err, config.ErrInvalidValue, args)
	}
}

func TestStateContinueCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jpl_tour.state.json")
	t.Setenv("JPLTOUR_LOG_FILE", filepath.Join(dir, "jpltour.log"))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"-c", filepath.Join(dir, "none.yaml"), "-s", path, "state", "continue", "false"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "CONTINUE_PRESSING_RESERVE set to false")

	st, err := state.Load(path)
	require.NoError(t, err)
	assert.False(t, st.ContinuePressingReserve)
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "init", path})
	require.NoError(t, root.Execute())

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Tour.URL, cfg.Tour.URL)

	root = newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "init", path})
	assert.Error(t, root.Execute())
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/hushprint/pkg/hooks"
	"github.com/jingkaihe/hushprint/pkg/host"
	"github.com/jingkaihe/hushprint/pkg/server"
	"github.com/jingkaihe/hushprint/pkg/store"
)

func newTestRegistry(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	defaults := filepath.Join(dir, "default_hooks.hcl")
	require.NoError(t, os.WriteFile(defaults, []byte(`hook "DPRandomGenerator" "get_prompt" {}`), 0o644))

	st, err := store.Open(store.Options{DBPath: filepath.Join(dir, "hooks.db"), DefaultsPath: defaults})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	catalog := host.NewStaticCatalog(map[string][]string{
		"DPRandomGenerator": {"get_prompt"},
		"KSampler":          {"sample", "set_seed"},
	})
	srv, err := server.New(server.Config{
		Store:        st,
		Catalog:      catalog,
		Instrumenter: host.NewCatalogInstrumenter(catalog, nil),
		BasePath:     server.DefaultBasePath,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts.URL + server.DefaultBasePath
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestHooksCommands(t *testing.T) {
	addr := newTestRegistry(t)

	out, _, err := execute(t, "hooks", "add", "KSampler", "sample", "--server", addr, "--retries", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "KSampler")
	assert.Contains(t, out, "Saved and applied (hooks: 2)")

	out, _, err = execute(t, "hooks", "toggle", "1", "--server", addr, "--retries", "0", "--locale", "ja")
	require.NoError(t, err)
	assert.Contains(t, out, "保存して適用しました")

	out, _, err = execute(t, "hooks", "list", "--json", "--server", addr)
	require.NoError(t, err)
	var listed struct {
		Hooks hooks.List `json:"hooks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, hooks.List{
		{Owner: "DPRandomGenerator", Member: "get_prompt", Enabled: false},
		{Owner: "KSampler", Member: "sample", Enabled: true},
	}, listed.Hooks)

	_, errOut, err := execute(t, "hooks", "rm", "9", "--server", addr, "--locale", "en")
	var exitErr *exitCodeError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, errOut, "No hook at position 9")

	_, _, err = execute(t, "hooks", "rm", "zero", "--server", addr)
	assert.ErrorIs(t, err, ErrInvalidPosition)

	out, _, err = execute(t, "hooks", "reset", "--yes", "--server", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "Reset to defaults")
	assert.Contains(t, out, "DPRandomGenerator")
}

func TestDiscoveryCommands(t *testing.T) {
	addr := newTestRegistry(t)

	out, _, err := execute(t, "nodes", "--server", addr)
	require.NoError(t, err)
	assert.Equal(t, "DPRandomGenerator\nKSampler\n", out)

	out, _, err = execute(t, "methods", "KSampler", "set", "--server", addr)
	require.NoError(t, err)
	assert.Equal(t, "set_seed\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hushprint dev")
}

func TestBadServerAddress(t *testing.T) {
	_, _, err := execute(t, "hooks", "list", "--server", "ftp://nope")
	assert.ErrorIs(t, err, ErrCreateClient)
}

func TestParsePosition(t *testing.T) {
	i, err := parsePosition("3")
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	for _, arg := range []string{"0", "-1", "x", ""} {
		_, err := parsePosition(arg)
		assert.ErrorIs(t, err, ErrInvalidPosition, "arg %q", arg)
	}
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug")
	require.NoError(t, err)
	_, err = newLogger("loud")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serve:\n  port: 9999\n"), 0o644))

	require.NoError(t, loadConfig(path))
	assert.Equal(t, 9999, viper.GetInt("serve.port"))

	assert.ErrorIs(t, loadConfig(filepath.Join(t.TempDir(), "missing.yaml")), ErrReadConfig)
}

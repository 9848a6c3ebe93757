package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, Config{
		Log:    LogConfig{Level: "info"},
		Submit: SubmitConfig{Method: "POST", Timeout: 30 * time.Second, Sanitize: true},
	}, cfg)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formstate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
submit:
  endpoint: https://file.example/products
  method: put
  timeout: 5s
`), 0o600))

	t.Setenv("FORMSTATE_SUBMIT_ENDPOINT", "https://env.example/products")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("timeout", 0, "")
	flags.Bool("sanitize", true, "")
	require.NoError(t, flags.Parse([]string{"--timeout=2s", "--sanitize=false"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "https://env.example/products", cfg.Submit.Endpoint)
	require.Equal(t, "PUT", cfg.Submit.Method)
	require.Equal(t, 2*time.Second, cfg.Submit.Timeout)
	require.False(t, cfg.Submit.Sanitize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

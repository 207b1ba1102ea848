package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leapdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("mapping", "", "mapping file")
	flags.Int("workers", 1, "workers")
	flags.Bool("keep-going", false, "keep going")
	flags.String("state", "", "state path")
	flags.Bool("no-history", false, "disable history")
	flags.String("output", "", "output format")
	flags.Duration("debounce", 0, "debounce")
	flags.String("template", "", "command option")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.True(t, cfg.History)
	assert.False(t, cfg.KeepGoing)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `mapping: jobs/letters.json
workers: 4
keep_going: true
history: false
output: json
watch:
  debounce: 2s
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "jobs", "letters.json"), cfg.Mapping, "relative to the config file")
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.KeepGoing)
	assert.False(t, cfg.History)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadConfig_FoundUpward(t *testing.T) {
	path := writeConfig(t, "workers: 3\n")
	nested := filepath.Join(filepath.Dir(path), "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "workers: 2\noutput: text\n")
	t.Setenv("LEAPDOC_WORKERS", "5")
	t.Setenv("LEAPDOC_OUTPUT", "markdown")
	t.Setenv("LEAPDOC_WATCH_DEBOUNCE", "1s")

	flags := newFlags()
	require.NoError(t, flags.Set("workers", "8"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers, "flag wins over env and file")
	assert.Equal(t, "markdown", cfg.OutputFormat, "env wins over file")
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	path := writeConfig(t, "workers: 2\n")
	t.Setenv("LEAPDOC_WORKERS", "5")

	cfg, err := LoadConfig(path, newFlags())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
}

func TestLoadConfig_FlagMappings(t *testing.T) {
	wd := t.TempDir()
	t.Chdir(wd)
	path := writeConfig(t, "state_path: from_file.db\n")

	flags := newFlags()
	require.NoError(t, flags.Set("state", "local/state.db"))
	require.NoError(t, flags.Set("mapping", "m.json"))
	require.NoError(t, flags.Set("no-history", "true"))
	require.NoError(t, flags.Set("keep-going", "true"))
	require.NoError(t, flags.Set("debounce", "50ms"))
	require.NoError(t, flags.Set("template", "ignored.docx"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	wd, err = os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "local", "state.db"), cfg.StatePath, "path flags resolve against the working directory")
	assert.Equal(t, filepath.Join(wd, "m.json"), cfg.Mapping)
	assert.False(t, cfg.History)
	assert.True(t, cfg.KeepGoing)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"bad yaml", "workers: [\n", "error reading config file"},
		{"zero workers", "workers: 0\n", "workers must be at least 1"},
		{"unknown output", "output: html\n", "unknown output format"},
		{"bad duration", "watch:\n  debounce: soon\n", "unable to decode config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"LEAPDOC_WORKERS":        "workers",
		"LEAPDOC_KEEP_GOING":     "keep_going",
		"LEAPDOC_STATE_PATH":     "state_path",
		"LEAPDOC_WATCH_DEBOUNCE": "watch.debounce",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := t.Context()
	assert.Equal(t, Default(), FromContext(ctx))
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{Workers: 7}
	assert.Same(t, cfg, FromContext(WithConfig(ctx, cfg)))
}

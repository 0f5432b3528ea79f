package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeassist/internal/model"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CODEASSIST_ROOT", "CODEASSIST_PROVIDER", "CODEASSIST_MODEL", "CODEASSIST_LOG_LEVEL",
		"GEMINI_API_KEYS", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	for _, name := range []string{"codeassist.yaml", "codeassist.json"} {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			cfg := Default()
			cfg.Ignore = []string{"custom_ignore"}
			cfg.Scripts = model.Scripts{Build: "go build .", Test: "go test ./..."}

			path := filepath.Join(tmpDir, name)
			require.NoError(t, Save(path, cfg))
			assert.Equal(t, path, Find(tmpDir))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Scripts, loaded.Scripts)
			assert.Equal(t, []string{"custom_ignore"}, loaded.Ignore)
			assert.Equal(t, 6, loaded.HistoryWindow)
		})
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: openai\nhistory_window: 10\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, 4096, cfg.MaxOutputTokens)
	assert.Contains(t, cfg.Ignore, ".git")
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-6)
}

func TestLoad_ZeroTemperatureIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codeassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Temperature)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_MissingAndBroken(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "codeassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ignore: [unterminated"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestFind_Order(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir))

	for _, f := range []string{"codeassist.json", "codeassist.yml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("{}"), 0644))
	}
	assert.Equal(t, filepath.Join(dir, "codeassist.yml"), Find(dir))
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CODEASSIST_PROVIDER", "OpenAI")
	t.Setenv("CODEASSIST_MODEL", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GEMINI_API_KEY", "gm-env")

	cfg := Default()
	cfg.Model = "from-file"
	ApplyEnv(&cfg)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, []string{"sk-env"}, cfg.APIKeys)
}

func TestApplyEnv_FileKeysWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gm-env")

	cfg := Default()
	cfg.APIKeys = []string{"from-file"}
	ApplyEnv(&cfg)
	assert.Equal(t, []string{"from-file"}, cfg.APIKeys)
}

func TestApplyEnv_DotEnvInRoot(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("GEMINI_API_KEY")
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

	cfg := Default()
	cfg.Root = root
	ApplyEnv(&cfg)
	assert.Equal(t, []string{"from-dotenv"}, cfg.APIKeys)
}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"abc", []string{"abc"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{`["k1","k2"]`, []string{"k1", "k2"}},
		{`[{"key":"k1","model":"x"},{"key":"k2"}]`, []string{"k1", "k2"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseKeys(tt.in), "ParseKeys(%q)", tt.in)
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Default()))

	tests := []struct {
		name   string
		mutate func(*model.Config)
	}{
		{"provider", func(c *model.Config) { c.Provider = "llama" }},
		{"temperature", func(c *model.Config) { c.Temperature = 3 }},
		{"window", func(c *model.Config) { c.HistoryWindow = 0 }},
		{"timeout", func(c *model.Config) { c.ModelTimeout = "soon" }},
		{"log level", func(c *model.Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, Validate(cfg), ErrInvalid)
		})
	}
}

func TestTimeoutAndJournalPath(t *testing.T) {
	cfg := Default()
	d, err := Timeout(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	cfg.Root = "/work/app"
	assert.Equal(t, filepath.Join("/work/app", StateDir, "journal.db"), JournalPath(cfg))
	cfg.Journal = ""
	assert.Empty(t, JournalPath(cfg))
	cfg.Journal = "/var/lib/j.db"
	assert.Equal(t, "/var/lib/j.db", JournalPath(cfg))
}

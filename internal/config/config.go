package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"codeassist/internal/model"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StateDir = ".codeassist"
)

// Files are searched in this order by Find.
var Files = []string{"codeassist.yaml", "codeassist.yml", "codeassist.json"}

var ErrInvalid = errors.New("invalid config")

func Default() model.Config {
	return model.Config{
		Root:            ".",
		Ignore:          []string{".git", "node_modules", ".venv", ".idea", "__pycache__", StateDir},
		UseIgnoreFiles:  true,
		Provider:        ProviderGemini,
		Temperature:     0.2,
		MaxOutputTokens: 4096,
		ModelTimeout:    "2m",
		HistoryWindow:   6,
		RelevantBudget:  8000,
		Journal:         filepath.Join(StateDir, "journal.db"),
		LogLevel:        "info",
	}
}

// Find returns the first config file present in root, or "".
func Find(root string) string {
	for _, file := range Files {
		path := filepath.Join(root, file)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (model.Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, or JSON when path ends in .json.
func Save(path string, cfg model.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv loads .env files from the working directory and cfg.Root, then
// lets environment variables override file values. Variables already set in
// the process win over .env entries.
func ApplyEnv(cfg *model.Config) {
	_ = godotenv.Load()
	if cfg.Root != "" && cfg.Root != "." {
		_ = godotenv.Load(filepath.Join(cfg.Root, ".env"))
	}

	if v := os.Getenv("CODEASSIST_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv("CODEASSIST_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("CODEASSIST_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CODEASSIST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if len(cfg.APIKeys) == 0 {
		cfg.APIKeys = EnvKeys(cfg.Provider)
	}
}

// EnvKeys returns the API keys found in the environment for provider.
func EnvKeys(provider string) []string {
	var names []string
	switch provider {
	case ProviderOpenAI:
		names = []string{"OPENAI_API_KEY"}
	default:
		names = []string{"GEMINI_API_KEYS", "GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, name := range names {
		if keys := ParseKeys(os.Getenv(name)); len(keys) > 0 {
			return keys
		}
	}
	return nil
}

// ParseKeys accepts a JSON array of {"key": ...} objects, a JSON array of
// strings, or a comma separated list.
func ParseKeys(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var objs []struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal([]byte(s), &objs); err == nil {
			var out []string
			for _, o := range objs {
				out = append(out, o.Key)
			}
			return out
		}
		var strs []string
		if err := json.Unmarshal([]byte(s), &strs); err == nil {
			return strs
		}
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks values that would otherwise fail late, inside a request.
// API keys are not checked here; the model client reports those.
func Validate(cfg model.Config) error {
	var problems []string

	switch cfg.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		problems = append(problems, fmt.Sprintf("unknown provider %q", cfg.Provider))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("temperature %.2f out of range [0, 2]", cfg.Temperature))
	}
	if cfg.MaxOutputTokens < 0 {
		problems = append(problems, "max_output_tokens must not be negative")
	}
	if cfg.HistoryWindow <= 0 {
		problems = append(problems, "history_window must be positive")
	}
	if cfg.RelevantBudget < 0 {
		problems = append(problems, "relevant_budget must not be negative")
	}
	if _, err := Timeout(cfg); err != nil {
		problems = append(problems, err.Error())
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", cfg.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Timeout parses ModelTimeout. Empty means no timeout.
func Timeout(cfg model.Config) (time.Duration, error) {
	if cfg.ModelTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.ModelTimeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("bad model_timeout %q", cfg.ModelTimeout)
	}
	return d, nil
}

// JournalPath resolves the journal location against root. Empty disables it.
func JournalPath(cfg model.Config) string {
	if cfg.Journal == "" || cfg.Journal == ":memory:" || filepath.IsAbs(cfg.Journal) {
		return cfg.Journal
	}
	return filepath.Join(cfg.Root, cfg.Journal)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"codeassist/internal/config"
	"codeassist/internal/google"
	"codeassist/internal/journal"
	"codeassist/internal/logger"
	"codeassist/internal/model"
	"codeassist/internal/openai"
	"codeassist/internal/pipeline"
)

type app struct {
	cfg     model.Config
	log     *zap.Logger
	journal *journal.Journal
}

// loadConfig resolves configuration: file, then environment, then flags.
func loadConfig() (model.Config, error) {
	root := rootDir
	if root == "" {
		root = os.Getenv("CODEASSIST_ROOT")
	}
	if root == "" {
		root = "."
	}

	path := configPath
	if path == "" {
		path = config.Find(root)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if cfg.Root == "" || cfg.Root == "." {
		cfg.Root = root
	}
	config.ApplyEnv(&cfg)

	if rootDir != "" {
		cfg.Root = rootDir
	}
	if provider != "" && strings.ToLower(provider) != cfg.Provider {
		cfg.Provider = strings.ToLower(provider)
		cfg.APIKeys = config.EnvKeys(cfg.Provider)
	}
	if modelName != "" {
		cfg.Model = modelName
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return cfg, fmt.Errorf("resolve root: %w", err)
	}
	cfg.Root = abs
	return cfg, config.Validate(cfg)
}

// setup loads config and builds the logger. The interactive UI owns the
// terminal, so it always logs to a file.
func setup(interactive bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var log *zap.Logger
	switch {
	case logFile != "":
		log, err = logger.New(cfg.LogLevel, logFile)
	case interactive:
		log, err = logger.New(cfg.LogLevel, filepath.Join(cfg.Root, config.StateDir, "codeassist.log"))
	case verbose:
		log, err = logger.NewDevelopment("debug")
	default:
		log, err = logger.New("warn", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Debug("config loaded",
		zap.String("root", cfg.Root),
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model))
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) close() {
	if a.journal != nil {
		a.journal.Close()
	}
	_ = a.log.Sync()
}

func (a *app) openJournal() (*journal.Journal, error) {
	if a.journal != nil {
		return a.journal, nil
	}
	path := config.JournalPath(a.cfg)
	if path == "" {
		return nil, nil
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	a.journal = j
	return j, nil
}

func (a *app) generator() (pipeline.Generator, error) {
	timeout, err := config.Timeout(a.cfg)
	if err != nil {
		return nil, err
	}

	switch a.cfg.Provider {
	case config.ProviderOpenAI:
		var key string
		if len(a.cfg.APIKeys) > 0 {
			key = a.cfg.APIKeys[0]
		}
		return openai.NewClient(key, openai.Options{
			Model:           a.cfg.Model,
			Temperature:     a.cfg.Temperature,
			MaxOutputTokens: a.cfg.MaxOutputTokens,
			Timeout:         timeout,
		}, a.log)
	default:
		return google.NewClient(a.cfg.APIKeys, google.Options{
			Model:           a.cfg.Model,
			Temperature:     a.cfg.Temperature,
			MaxOutputTokens: a.cfg.MaxOutputTokens,
			Timeout:         timeout,
		}, a.log)
	}
}

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	gen, err := a.generator()
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{pipeline.WithLogger(a.log)}

	j, err := a.openJournal()
	if err != nil {
		// Requests still work without a journal.
		a.log.Warn("journal unavailable", zap.Error(err))
	} else if j != nil {
		opts = append(opts, pipeline.WithJournal(j))
	}
	return pipeline.New(a.cfg, gen, opts...), nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tetraminz/movie_dialogue/internal/corpus"
)

const (
	defaultCorpusDir  = "cornell_movie_dialogs_corpus"
	defaultSQLitePath = "dialogue.db"
	defaultEncoding   = "latin1"
	defaultStagePause = time.Second

	envCorpusDir  = "DIALOGUE_CORPUS_DIR"
	envDBPath     = "DIALOGUE_DB_PATH"
	envEncoding   = "DIALOGUE_ENCODING"
	envStagePause = "DIALOGUE_STAGE_PAUSE"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config describes one ETL run: where the corpus lives and where the
// dialogue table goes. Explicit file paths win over CorpusDir.
type Config struct {
	CorpusDir         string        `yaml:"corpus_dir"`
	LinesPath         string        `yaml:"lines_path"`
	MoviesPath        string        `yaml:"movies_path"`
	ConversationsPath string        `yaml:"conversations_path"`
	DBPath            string        `yaml:"db_path"`
	Encoding          string        `yaml:"encoding"`
	StagePause        time.Duration `yaml:"stage_pause"`
}

func defaultConfig() Config {
	return Config{
		CorpusDir:  defaultCorpusDir,
		DBPath:     defaultSQLitePath,
		Encoding:   defaultEncoding,
		StagePause: defaultStagePause,
	}
}

// loadConfig layers defaults, an optional YAML file, then environment
// variables (a .env file in the working directory is read first).
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	_ = godotenv.Load()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(envCorpusDir)); v != "" {
		cfg.CorpusDir = v
	}
	if v := strings.TrimSpace(os.Getenv(envDBPath)); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv(envEncoding)); v != "" {
		cfg.Encoding = v
	}
	if v := strings.TrimSpace(os.Getenv(envStagePause)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", envStagePause, err)
		}
		cfg.StagePause = d
	}
	return cfg, nil
}

// Paths resolves the three corpus files.
func (c Config) Paths() corpus.Paths {
	paths := corpus.PathsInDir(c.CorpusDir)
	if c.LinesPath != "" {
		paths.Lines = c.LinesPath
	}
	if c.MoviesPath != "" {
		paths.Movies = c.MoviesPath
	}
	if c.ConversationsPath != "" {
		paths.Conversations = c.ConversationsPath
	}
	return paths
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%w: db path is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.CorpusDir) == "" &&
		(c.LinesPath == "" || c.MoviesPath == "" || c.ConversationsPath == "") {
		return fmt.Errorf("%w: corpus dir or all three file paths are required", ErrInvalidConfig)
	}
	if _, err := corpus.ParseEncoding(c.Encoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.StagePause < 0 {
		return fmt.Errorf("%w: stage pause must be >= 0", ErrInvalidConfig)
	}
	return nil
}

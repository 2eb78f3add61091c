// Package config loads docqa settings from layered YAML files, a project
// .env file and DOCQA_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCQA_"

// Project-level file names, in lookup order.
var projectConfigNames = []string{".docqa.yaml", ".docqa.yml"}

// Config is the complete docqa configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval" envPrefix:"RETRIEVAL_"`
	Index     IndexConfig     `yaml:"index" json:"index" envPrefix:"INDEX_"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer" json:"analyzer" envPrefix:"ANALYZER_"`
	Ingest    IngestConfig    `yaml:"ingest" json:"ingest" envPrefix:"INGEST_"`
	Snapshot  SnapshotConfig  `yaml:"snapshot" json:"snapshot" envPrefix:"SNAPSHOT_"`
	Server    ServerConfig    `yaml:"server" json:"server" envPrefix:"SERVER_"`
}

// RetrievalConfig configures answer_context.
type RetrievalConfig struct {
	// TopK is the default number of chunks searched per query.
	TopK int `yaml:"top_k" json:"top_k" env:"TOP_K"`

	// Window is the number of neighbour sentences kept on each side of the
	// best sentence.
	Window int `yaml:"window" json:"window" env:"WINDOW"`

	// EmptySentences is "include" (empty context) or "skip".
	EmptySentences string `yaml:"empty_sentences" json:"empty_sentences" env:"EMPTY_SENTENCES"`

	SentenceCacheSize   int  `yaml:"sentence_cache_size" json:"sentence_cache_size" env:"SENTENCE_CACHE_SIZE"`
	PrecomputeSentences bool `yaml:"precompute_sentences" json:"precompute_sentences" env:"PRECOMPUTE_SENTENCES"`
}

// IndexConfig selects the similarity index backend.
type IndexConfig struct {
	Backend  string `yaml:"backend" json:"backend" env:"BACKEND"`
	M        int    `yaml:"m" json:"m" env:"M"`
	EfSearch int    `yaml:"ef_search" json:"ef_search" env:"EF_SEARCH"`
}

// AnalyzerConfig configures term analysis. Changing it requires a rebuild.
type AnalyzerConfig struct {
	Stemming bool `yaml:"stemming" json:"stemming" env:"STEMMING"`
}

// IngestConfig configures the chunk extractor.
type IngestConfig struct {
	MaxChunkChars  int      `yaml:"max_chunk_chars" json:"max_chunk_chars" env:"MAX_CHUNK_CHARS"`
	FigureMarker   string   `yaml:"figure_marker" json:"figure_marker" env:"FIGURE_MARKER"`
	HeaderMaxWords int      `yaml:"header_max_words" json:"header_max_words" env:"HEADER_MAX_WORDS"`
	HeaderPrefixes []string `yaml:"header_prefixes" json:"header_prefixes" env:"HEADER_PREFIXES"`
	Exclude        []string `yaml:"exclude,omitempty" json:"exclude,omitempty" env:"EXCLUDE"`
}

// SnapshotConfig locates the snapshot and controls hot reload.
type SnapshotConfig struct {
	// Path is resolved against the project directory when relative.
	Path          string        `yaml:"path" json:"path" env:"PATH"`
	LockTimeout   time.Duration `yaml:"lock_timeout" json:"lock_timeout" env:"LOCK_TIMEOUT"`
	Watch         bool          `yaml:"watch" json:"watch" env:"WATCH"`
	WatchDebounce time.Duration `yaml:"watch_debounce" json:"watch_debounce" env:"WATCH_DEBOUNCE"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport" env:"TRANSPORT"`
	LogLevel  string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`
}

// NewConfig returns the defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Retrieval: RetrievalConfig{
			TopK:              5,
			Window:            1,
			EmptySentences:    "include",
			SentenceCacheSize: 256,
		},
		Index: IndexConfig{
			Backend:  "flat",
			M:        16,
			EfSearch: 64,
		},
		Analyzer: AnalyzerConfig{
			Stemming: true,
		},
		Ingest: IngestConfig{
			MaxChunkChars:  1000,
			FigureMarker:   "[FIGURE_OR_TABLE]",
			HeaderMaxWords: 7,
			HeaderPrefixes: []string{"chapter ", "section ", "kdb+ - "},
		},
		Snapshot: SnapshotConfig{
			Path:          filepath.Join(".docqa", "snapshot.db"),
			LockTimeout:   10 * time.Second,
			Watch:         true,
			WatchDebounce: 500 * time.Millisecond,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the user configuration file:
//   - $XDG_CONFIG_HOME/docqa/config.yaml when XDG_CONFIG_HOME is set
//   - ~/.config/docqa/config.yaml otherwise
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docqa", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docqa", "config.yaml")
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml")
}

// ProjectConfigPath returns the project configuration file in dir, or ""
// when there is none.
func ProjectConfigPath(dir string) string {
	for _, name := range projectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// Load builds the configuration for the project in dir. Later steps
// override earlier ones:
//  1. defaults
//  2. user config
//  3. project config (.docqa.yaml, then .docqa.yml)
//  4. dir/.env, which never overrides variables already set
//  5. DOCQA_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if path := ProjectConfigPath(dir); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if path := filepath.Join(dir, ".env"); fileExists(path) {
		if err := godotenv.Load(path); err != nil {
			return nil, qaerrors.ConfigError("failed to load .env file", err).WithDetail("path", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, qaerrors.ConfigError("invalid configuration", err)
	}

	if !filepath.IsAbs(cfg.Snapshot.Path) {
		cfg.Snapshot.Path = filepath.Join(dir, cfg.Snapshot.Path)
	}
	return cfg, nil
}

// loadYAML decodes path on top of the current values. Keys absent from the
// file keep their value; unknown keys are rejected.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return qaerrors.IOError("failed to read config file", err).WithDetail("path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return qaerrors.ConfigError("failed to parse config file", err).WithDetail("path", path)
	}
	return nil
}

// applyEnv applies DOCQA_* overrides, e.g. DOCQA_RETRIEVAL_TOP_K=3 or
// DOCQA_SNAPSHOT_LOCK_TIMEOUT=30s. List values are comma separated.
func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return qaerrors.ConfigError("invalid environment override", err)
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be at least 1, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.Window < 0 {
		return fmt.Errorf("retrieval.window must be non-negative, got %d", c.Retrieval.Window)
	}
	if !oneOf(c.Retrieval.EmptySentences, "include", "skip") {
		return fmt.Errorf("retrieval.empty_sentences must be 'include' or 'skip', got %s", c.Retrieval.EmptySentences)
	}
	if c.Retrieval.SentenceCacheSize < 0 {
		return fmt.Errorf("retrieval.sentence_cache_size must be non-negative, got %d", c.Retrieval.SentenceCacheSize)
	}

	if !oneOf(c.Index.Backend, "flat", "hnsw") {
		return fmt.Errorf("index.backend must be 'flat' or 'hnsw', got %s", c.Index.Backend)
	}
	if c.Index.M < 2 {
		return fmt.Errorf("index.m must be at least 2, got %d", c.Index.M)
	}
	if c.Index.EfSearch < 1 {
		return fmt.Errorf("index.ef_search must be at least 1, got %d", c.Index.EfSearch)
	}

	if c.Ingest.MaxChunkChars < 1 {
		return fmt.Errorf("ingest.max_chunk_chars must be at least 1, got %d", c.Ingest.MaxChunkChars)
	}
	if c.Ingest.HeaderMaxWords < 1 {
		return fmt.Errorf("ingest.header_max_words must be at least 1, got %d", c.Ingest.HeaderMaxWords)
	}
	if strings.TrimSpace(c.Ingest.FigureMarker) == "" {
		return fmt.Errorf("ingest.figure_marker must not be empty")
	}

	if c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path must not be empty")
	}
	if c.Snapshot.LockTimeout <= 0 {
		return fmt.Errorf("snapshot.lock_timeout must be positive, got %s", c.Snapshot.LockTimeout)
	}
	if c.Snapshot.WatchDebounce < 0 {
		return fmt.Errorf("snapshot.watch_debounce must be non-negative, got %s", c.Snapshot.WatchDebounce)
	}

	if !oneOf(c.Server.Transport, "stdio") {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}
	if !oneOf(c.Server.LogLevel, "debug", "info", "warn", "error") {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to path, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return qaerrors.InternalError("failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return qaerrors.IOError("failed to create config directory", err).WithDetail("path", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return qaerrors.IOError("failed to write config file", err).WithDetail("path", path)
	}
	return nil
}

// normalize lower-cases enumerated values.
func (c *Config) normalize() {
	c.Retrieval.EmptySentences = strings.ToLower(c.Retrieval.EmptySentences)
	c.Index.Backend = strings.ToLower(c.Index.Backend)
	c.Server.Transport = strings.ToLower(c.Server.Transport)
	c.Server.LogLevel = strings.ToLower(c.Server.LogLevel)
}

func oneOf(v string, allowed ...string) bool {
	v = strings.ToLower(v)
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

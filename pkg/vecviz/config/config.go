package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/vecviz/pkg/vecviz/cluster"
	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/project"
	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// EnvPrefix prefixes every environment override, e.g. VECVIZ_SERVER_ADDR.
const EnvPrefix = "VECVIZ_"

// Model describes where the embedding model and its token counts come from.
type Model struct {
	Path          string `yaml:"path"`
	Format        string `yaml:"format"`
	CountsPath    string `yaml:"counts_path"` // "token count" lines
	CorpusPath    string `yaml:"corpus_path"` // raw text to count when no counts file is given
	Lowercase     bool   `yaml:"lowercase"`   // fold case while counting the corpus
	HalfPrecision bool   `yaml:"half_precision"`
	Limit         int    `yaml:"limit"`
}

type Builder struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

type Server struct {
	Addr     string `yaml:"addr"`
	MaxConns int    `yaml:"max_conns"`
}

type Store struct {
	Path string `yaml:"path"` // sqlite file; empty keeps builds in memory
}

type Log struct {
	Level string `yaml:"level"`
}

// Config is the full vecviz configuration.
type Config struct {
	Model      Model           `yaml:"model"`
	Projection project.Options `yaml:"projection"`
	Clustering cluster.Options `yaml:"clustering"`
	Builder    Builder         `yaml:"builder"`
	Server     Server          `yaml:"server"`
	Store      Store           `yaml:"store"`
	Log        Log             `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model:      Model{Format: string(vectors.Word2VecBinary)},
		Projection: project.DefaultOptions(),
		Clustering: cluster.DefaultOptions(),
		Builder:    Builder{Workers: runtime.NumCPU()},
		Server:     Server{Addr: "127.0.0.1:5001", MaxConns: 64},
		Log:        Log{Level: "info"},
	}
}

// Load builds a configuration from defaults, the optional YAML file at path
// and VECVIZ_* environment variables, in that order. Variables from a .env
// file in the working directory are loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from VECVIZ_* environment variables.
func (c *Config) ApplyEnv() {
	c.Model.Path = getEnv("MODEL_PATH", c.Model.Path)
	c.Model.Format = getEnv("MODEL_FORMAT", c.Model.Format)
	c.Model.CountsPath = getEnv("MODEL_COUNTS_PATH", c.Model.CountsPath)
	c.Model.CorpusPath = getEnv("MODEL_CORPUS_PATH", c.Model.CorpusPath)
	c.Model.Lowercase = getEnvBool("MODEL_LOWERCASE", c.Model.Lowercase)
	c.Model.HalfPrecision = getEnvBool("MODEL_HALF_PRECISION", c.Model.HalfPrecision)
	c.Model.Limit = getEnvInt("MODEL_LIMIT", c.Model.Limit)

	c.Projection.Algorithm = project.Algorithm(getEnv("PROJECTION_ALGORITHM", string(c.Projection.Algorithm)))
	c.Projection.Iterations = getEnvInt("PROJECTION_ITERATIONS", c.Projection.Iterations)
	c.Projection.Verbosity = getEnvInt("PROJECTION_VERBOSITY", c.Projection.Verbosity)
	c.Projection.Perplexity = getEnvFloat("PROJECTION_PERPLEXITY", c.Projection.Perplexity)
	c.Projection.LearningRate = getEnvFloat("PROJECTION_LEARNING_RATE", c.Projection.LearningRate)

	c.Clustering.Algorithm = cluster.Algorithm(getEnv("CLUSTERING_ALGORITHM", string(c.Clustering.Algorithm)))
	c.Clustering.TargetClusterCount = getEnvInt("CLUSTERING_TARGET_CLUSTER_COUNT", c.Clustering.TargetClusterCount)
	c.Clustering.AverageClusterSize = getEnvInt("CLUSTERING_AVERAGE_CLUSTER_SIZE", c.Clustering.AverageClusterSize)
	c.Clustering.Linkage = cluster.Linkage(getEnv("CLUSTERING_LINKAGE", string(c.Clustering.Linkage)))
	c.Clustering.Iterations = getEnvInt("CLUSTERING_ITERATIONS", c.Clustering.Iterations)
	c.Clustering.Verbosity = getEnvInt("CLUSTERING_VERBOSITY", c.Clustering.Verbosity)

	c.Builder.Workers = getEnvInt("BUILDER_WORKERS", c.Builder.Workers)
	c.Builder.Timeout = getEnvDuration("BUILDER_TIMEOUT", c.Builder.Timeout)

	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Server.MaxConns = getEnvInt("SERVER_MAX_CONNS", c.Server.MaxConns)

	c.Store.Path = getEnv("STORE_PATH", c.Store.Path)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Validate rejects unknown algorithm or format names and negative limits.
func (c *Config) Validate() error {
	if _, err := vectors.ParseFormat(c.Model.Format); err != nil {
		return err
	}
	if _, err := project.New(c.Projection); err != nil {
		return err
	}
	if _, err := cluster.New(c.Clustering); err != nil {
		return err
	}
	if c.Model.Limit < 0 {
		return fmt.Errorf("model.limit must be >= 0: %w", internalerr.ErrInvalidConfig)
	}
	if c.Clustering.TargetClusterCount < 0 || c.Clustering.AverageClusterSize < 0 {
		return fmt.Errorf("cluster counts must be >= 0: %w", internalerr.ErrInvalidConfig)
	}
	if c.Builder.Workers < 0 || c.Builder.Timeout < 0 {
		return fmt.Errorf("builder workers and timeout must be >= 0: %w", internalerr.ErrInvalidConfig)
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("server.max_conns must be >= 0: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if b, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/quantarax/sigtool/internal/crypto"
	"github.com/quantarax/sigtool/internal/digest"
	"github.com/quantarax/sigtool/internal/textenc"
	"github.com/quantarax/sigtool/internal/validation"
)

// Environment variables consulted by ApplyEnv
const (
	EnvConfigFile    = "SIGTOOL_CONFIG"
	EnvKeysDirectory = "SIGTOOL_KEYS_DIR"
	EnvKeyEncoding   = "SIGTOOL_KEY_ENCODING"
	EnvHashAlgorithm = "SIGTOOL_HASH_ALGORITHM"
	EnvChunkSize     = "SIGTOOL_CHUNK_SIZE"
	EnvLogLevel      = "SIGTOOL_LOG_LEVEL"
)

// ErrInvalidConfig is returned when configuration fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds sigtool configuration
type Config struct {
	KeysDirectory string `yaml:"keys_directory"`
	PublicKeyFile string `yaml:"public_key_file"`
	SecretKeyFile string `yaml:"secret_key_file"`
	KeyEncoding   string `yaml:"key_encoding"`
	HashAlgorithm string `yaml:"hash_algorithm"`
	ChunkSize     int    `yaml:"chunk_size"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	MetricsFile   string `yaml:"metrics_file"`
}

// DefaultConfig returns default configuration. Keys live in the working
// directory as key.pub / key.sec.
func DefaultConfig() *Config {
	return &Config{
		KeysDirectory: ".",
		PublicKeyFile: crypto.PublicKeyFile,
		SecretKeyFile: crypto.SecretKeyFile,
		KeyEncoding:   string(textenc.Base58),
		HashAlgorithm: string(digest.DefaultAlgorithm),
		ChunkSize:     digest.DefaultChunkSize,
		LogLevel:      "warn",
		LogFormat:     "auto",
	}
}

// LoadConfig returns the defaults overlaid with the YAML file at configPath.
// An empty configPath yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // caller-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, configPath, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SIGTOOL_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvKeysDirectory); v != "" {
		c.KeysDirectory = v
	}
	if v := os.Getenv(EnvKeyEncoding); v != "" {
		c.KeyEncoding = v
	}
	if v := os.Getenv(EnvHashAlgorithm); v != "" {
		c.HashAlgorithm = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvChunkSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvChunkSize, v, err)
		}
		c.ChunkSize = n
	}
	return nil
}

// Validate checks every field and normalizes enum values.
func (c *Config) Validate() error {
	if err := validation.ValidateStringNonEmpty(c.KeysDirectory); err != nil {
		return fmt.Errorf("%w: keys_directory: %w", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStringNonEmpty(c.PublicKeyFile); err != nil {
		return fmt.Errorf("%w: public_key_file: %w", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStringNonEmpty(c.SecretKeyFile); err != nil {
		return fmt.Errorf("%w: secret_key_file: %w", ErrInvalidConfig, err)
	}
	if paths := c.KeyPaths(); filepath.Clean(paths.Public) == filepath.Clean(paths.Secret) {
		return fmt.Errorf("%w: public_key_file and secret_key_file both resolve to %s", ErrInvalidConfig, paths.Public)
	}

	enc, err := textenc.ParseEncoding(c.KeyEncoding)
	if err != nil {
		return fmt.Errorf("%w: key_encoding: %w", ErrInvalidConfig, err)
	}
	c.KeyEncoding = string(enc)

	alg, err := digest.ParseAlgorithm(c.HashAlgorithm)
	if err != nil {
		return fmt.Errorf("%w: hash_algorithm: %w", ErrInvalidConfig, err)
	}
	c.HashAlgorithm = string(alg)

	if err := validation.ValidateRangeInt(c.ChunkSize, digest.MinChunkSize, digest.MaxChunkSize); err != nil {
		return fmt.Errorf("%w: chunk_size: %w", ErrInvalidConfig, err)
	}
	if err := validation.ValidateOneOf(c.LogLevel, "debug", "info", "warn", "error", "disabled"); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	if err := validation.ValidateOneOf(c.LogFormat, "auto", "json", "console"); err != nil {
		return fmt.Errorf("%w: log_format: %w", ErrInvalidConfig, err)
	}
	return nil
}

// KeyPaths resolves the key file names against KeysDirectory. Absolute file
// names are used as-is.
func (c *Config) KeyPaths() crypto.KeyPaths {
	resolve := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(c.KeysDirectory, name)
	}
	return crypto.KeyPaths{
		Public: resolve(c.PublicKeyFile),
		Secret: resolve(c.SecretKeyFile),
	}
}

// Encoding returns the validated key encoding.
func (c *Config) Encoding() textenc.Encoding { return textenc.Encoding(c.KeyEncoding) }

// Algorithm returns the validated hash algorithm.
func (c *Config) Algorithm() digest.Algorithm { return digest.Algorithm(c.HashAlgorithm) }

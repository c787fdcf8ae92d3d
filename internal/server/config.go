package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/nimora/nimora/internal/config"
	"github.com/nimora/nimora/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address          string                  `yaml:"address"`
	MaxRequestSize   string                  `yaml:"maxRequestSize"`
	Logging          config.LoggingConfig    `yaml:"logging"`
	Backend          config.BackendConfig    `yaml:"backend"`
	Attendance       config.AttendanceConfig `yaml:"attendance"`
	requestSizeBytes int64
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Address:        constants.DefaultServerAddress,
		MaxRequestSize: strconv.FormatInt(constants.DefaultMaxRequestSizeBytes, 10),
		Backend: config.BackendConfig{
			URL:            constants.DefaultBackendURL,
			TimeoutSeconds: constants.DefaultBackendTimeoutSeconds,
		},
		Attendance: config.AttendanceConfig{
			TargetPercentage: constants.DefaultTargetPercentage,
			MinTarget:        constants.MinTargetPercentage,
			MaxTarget:        constants.MaxTargetPercentage,
		},
		requestSizeBytes: constants.DefaultMaxRequestSizeBytes,
	}
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequestSizeBytes returns the request body limit in bytes.
func (c *Config) RequestSizeBytes() int64 {
	return c.requestSizeBytes
}

// SetRequestSizeBytes overrides the configured request body limit.
func (c *Config) SetRequestSizeBytes(size int64) {
	if size > 0 {
		c.requestSizeBytes = size
		c.MaxRequestSize = strconv.FormatInt(size, 10)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		c.Backend.URL = constants.DefaultBackendURL
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = constants.DefaultBackendTimeoutSeconds
	}

	bounds := &c.Attendance
	if bounds.MinTarget == 0 && bounds.MaxTarget == 0 {
		bounds.MinTarget = constants.MinTargetPercentage
		bounds.MaxTarget = constants.MaxTargetPercentage
	}
	if bounds.MinTarget < 0 || bounds.MaxTarget > constants.MaxTargetPercentage || bounds.MinTarget > bounds.MaxTarget {
		return fmt.Errorf("invalid attendance bounds %g-%g", bounds.MinTarget, bounds.MaxTarget)
	}
	if bounds.TargetPercentage == 0 {
		bounds.TargetPercentage = constants.DefaultTargetPercentage
	}
	if bounds.TargetPercentage < bounds.MinTarget || bounds.TargetPercentage > bounds.MaxTarget {
		return fmt.Errorf("default target %g outside attendance bounds %g-%g",
			bounds.TargetPercentage, bounds.MinTarget, bounds.MaxTarget)
	}

	sizeStr := strings.TrimSpace(c.MaxRequestSize)
	if sizeStr == "" {
		c.requestSizeBytes = constants.DefaultMaxRequestSizeBytes
		c.MaxRequestSize = strconv.FormatInt(constants.DefaultMaxRequestSizeBytes, 10)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxRequestSizeBytes
	}
	c.requestSizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "1M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxRequestSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(upper[:idx]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var shift uint
	switch strings.TrimSpace(upper[idx:]) {
	case "", "B":
	case "K", "KB":
		shift = 10
	case "M", "MB":
		shift = 20
	default:
		return 0, fmt.Errorf("unsupported size unit in %q", value)
	}

	if n > (1<<62)>>shift {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n << shift, nil
}

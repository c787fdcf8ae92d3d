// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nimora/nimora/internal/leave"
	"github.com/nimora/nimora/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for the nimora CLI.
type Configuration struct {
	Backend    BackendConfig    `yaml:"backend"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Student    StudentConfig    `yaml:"student,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	// Records, when present, are used instead of fetching from the backend.
	Records []leave.Record `yaml:"records,omitempty"`
}

// BackendConfig locates the portal scraping service.
type BackendConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	EncodePayload  bool   `yaml:"encodePayload"`
	PayloadSalt    string `yaml:"payloadSalt,omitempty"`
}

// Timeout returns the per-request timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return constants.DefaultBackendTimeoutSeconds * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// AttendanceConfig holds the maintenance percentage and the range students
// may choose it from.
type AttendanceConfig struct {
	TargetPercentage float64 `yaml:"targetPercentage"`
	MinTarget        float64 `yaml:"minTarget"`
	MaxTarget        float64 `yaml:"maxTarget"`
}

// StudentConfig holds portal credentials for CLI use. They are read from the
// config file or NIMORA_ROLLNO / NIMORA_PASSWORD and handed to the portal
// client per call; nothing else keeps them.
type StudentConfig struct {
	RollNo   string `yaml:"rollNo,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// LoadEnvFile loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading env file %s: %w", path, err)
	}
	return nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields defaults plus environment
// overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend.url", constants.DefaultBackendURL)
	v.SetDefault("backend.timeoutSeconds", constants.DefaultBackendTimeoutSeconds)
	v.SetDefault("backend.encodePayload", false)
	v.SetDefault("backend.payloadSalt", constants.DefaultPayloadSalt)
	v.SetDefault("attendance.targetPercentage", constants.DefaultTargetPercentage)
	v.SetDefault("attendance.minTarget", constants.MinTargetPercentage)
	v.SetDefault("attendance.maxTarget", constants.MaxTargetPercentage)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")

	// Credentials use short variable names.
	_ = v.BindEnv("student.rollNo", constants.EnvPrefix+"_ROLLNO")
	_ = v.BindEnv("student.password", constants.EnvPrefix+"_PASSWORD")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if strings.TrimSpace(c.Backend.URL) == "" && len(c.Records) == 0 {
		warnings = append(warnings, "backend.url is empty and no records are configured; nothing to report")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		warnings = append(warnings, fmt.Sprintf("backend.timeoutSeconds %d is not positive, using %ds",
			c.Backend.TimeoutSeconds, constants.DefaultBackendTimeoutSeconds))
	}
	if c.Backend.EncodePayload && c.Backend.PayloadSalt == "" {
		warnings = append(warnings, "backend.encodePayload is set without a payloadSalt, using the default salt")
	}

	a := c.Attendance
	if a.MinTarget > a.MaxTarget {
		warnings = append(warnings, fmt.Sprintf("attendance.minTarget %g exceeds attendance.maxTarget %g", a.MinTarget, a.MaxTarget))
	}
	if a.TargetPercentage < a.MinTarget || a.TargetPercentage > a.MaxTarget {
		warnings = append(warnings, fmt.Sprintf("attendance.targetPercentage %g is outside %g-%g",
			a.TargetPercentage, a.MinTarget, a.MaxTarget))
	}

	seen := make(map[string]bool)
	for i, record := range c.Records {
		if record.CourseCode == "" {
			warnings = append(warnings, fmt.Sprintf("records[%d] has no courseCode", i))
		} else if seen[record.CourseCode] {
			warnings = append(warnings, fmt.Sprintf("course %s is listed more than once", record.CourseCode))
		}
		seen[record.CourseCode] = true
		if err := leave.ValidateCounts(record.ClassesPresent, record.ClassesTotal); err != nil {
			warnings = append(warnings, fmt.Sprintf("course %s: %v", record.CourseCode, err))
		}
	}

	return warnings
}

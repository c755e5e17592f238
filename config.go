package microsel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fortio.org/log"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName is looked up in the user's home directory when no
// config file is named explicitly.
const DefaultConfigName = ".msel.yml"

// Config holds interpreter and REPL settings, usually read from YAML.
type Config struct {
	Prompt             string         `yaml:"prompt"`
	ContinuationPrompt string         `yaml:"continuation_prompt"`
	HistoryFile        string         `yaml:"history_file"`
	LogLevel           string         `yaml:"log_level"`
	Color              bool           `yaml:"color"`
	MaxCallDepth       int            `yaml:"max_call_depth"` // 0 = unlimited
	MaxStack           int            `yaml:"max_stack"`      // cells, 0 = unlimited
	Operators          map[string]int `yaml:"operators"`
	NumberFormat       NumberFormat   `yaml:"number_format"`
}

// DefaultConfig returns the settings used when no file overrides them.
func DefaultConfig() *Config {
	return &Config{
		Prompt:             ">>> ",
		ContinuationPrompt: "... ",
		HistoryFile:        ".msel_history",
		LogLevel:           "warning",
		Color:              true,
		MaxCallDepth:       10000,
		NumberFormat:       NumberCompact,
	}
}

// ConfigError aggregates validation failures.
type ConfigError struct {
	Path   string
	Issues []string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": invalid configuration:")
	for _, issue := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadConfig reads a YAML config file on top of DefaultConfig. An empty path
// means ~/.msel.yml, which may be absent. A named file must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, DefaultConfigName)
	}

	file, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			log.Debugf("no config at %s, using defaults", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	if err := cfg.decode(file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	log.Infof("loaded config from %s", path)
	return cfg, nil
}

// ParseConfig decodes YAML from r on top of DefaultConfig.
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs ConfigError
	if c.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, "max_call_depth must be >= 0")
	}
	if c.MaxStack < 0 {
		errs.Issues = append(errs.Issues, "max_stack must be >= 0")
	}
	switch c.NumberFormat {
	case NumberCompact, NumberFixed:
	case "":
		c.NumberFormat = NumberCompact
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("number_format %q must be %q or %q", c.NumberFormat, NumberCompact, NumberFixed))
	}
	if c.LogLevel != "" {
		if _, err := log.ValidateLevel(c.LogLevel); err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("log_level: %v", err))
		}
	}
	if err := c.InstallOperators(NewOpTable()); err != nil {
		errs.Issues = append(errs.Issues, "operators: "+err.Error())
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// InstallOperators registers the configured operators into t in a stable
// order.
func (c *Config) InstallOperators(t *OpTable) error {
	ops := make([]string, 0, len(c.Operators))
	for op := range c.Operators {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		if err := t.Register(op, c.Operators[op]); err != nil {
			return err
		}
	}
	return nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for Keyguard. All
// fields are pointers so that an absent key can be told apart from a zero
// value when merging with CLI flags.
type FileConfig struct {
	Include          *string `yaml:"include"`
	Exclude          *string `yaml:"exclude"`
	MaxBytes         *int64  `yaml:"max_bytes"`
	Threads          *int    `yaml:"threads"`
	RespectGitignore *bool   `yaml:"respect_gitignore"`
	NoCache          *bool   `yaml:"no_cache"`
	Validate         *bool   `yaml:"validate"`
	Output           *string `yaml:"output"`

	// Slack integration config mirrors CLI flags
	Slack *SlackConfig `yaml:"slack"`
}

// SlackConfig holds configuration for scanning Slack channels.
type SlackConfig struct {
	// Token is a bot token with channels:history scope. If empty, the
	// SLACK_API_TOKEN environment variable is consulted.
	Token *string `yaml:"token"`

	// DaysBack bounds how far the history scan reaches. Defaults to 30.
	DaysBack *int `yaml:"days_back"`

	// MaxMessages caps the number of messages fetched per channel.
	// Defaults to 1000.
	MaxMessages *int `yaml:"max_messages"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .keyguard.yml/.yaml and keyguard.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".keyguard.yml", ".keyguard.yaml", "keyguard.yml", "keyguard.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "keyguard", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// GetSlackConfig returns the Slack configuration with defaults applied.
func (fc FileConfig) GetSlackConfig() SlackConfig {
	var cfg SlackConfig
	if fc.Slack != nil {
		cfg = *fc.Slack
	}
	return cfg
}

// GetToken resolves the Slack token, falling back to SLACK_API_TOKEN.
func (sc SlackConfig) GetToken() string {
	if sc.Token != nil && *sc.Token != "" {
		return *sc.Token
	}
	return os.Getenv("SLACK_API_TOKEN")
}

// GetDaysBack returns the configured window or 0 to use the default.
func (sc SlackConfig) GetDaysBack() int {
	if sc.DaysBack == nil {
		return 0
	}
	return *sc.DaysBack
}

// GetMaxMessages returns the configured cap or 0 to use the default.
func (sc SlackConfig) GetMaxMessages() int {
	if sc.MaxMessages == nil {
		return 0
	}
	return *sc.MaxMessages
}

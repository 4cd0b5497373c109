package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Prompt        string        `mapstructure:"prompt" yaml:"prompt"`
	Color         bool          `mapstructure:"color" yaml:"color"`
	Suggest       SuggestConfig `mapstructure:"suggest" yaml:"suggest"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// SuggestConfig controls ask mode (Ctrl+A).
type SuggestConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Model          string `mapstructure:"model" yaml:"model"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	APIKeyEnv      string `mapstructure:"api_key_env" yaml:"api_key_env"`
	MaxTokens      int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// SSHConfig configures `crust serve`.
type SSHConfig struct {
	Addr               string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath        string `mapstructure:"host_key_path" yaml:"host_key_path"`
	AuthorizedKeysPath string `mapstructure:"authorized_keys_path" yaml:"authorized_keys_path"`
	TOTPSecret         string `mapstructure:"totp_secret" yaml:"totp_secret"`
	HomeDir            string `mapstructure:"home_dir" yaml:"home_dir"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	dir, err := configDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Prompt:        "$ ",
		Color:         true,
		Suggest: SuggestConfig{
			Enabled:        false,
			Model:          "gemini-2.0-flash",
			APIKeyEnv:      "GEMINI_API_KEY",
			MaxTokens:      40,
			TimeoutSeconds: 30,
		},
		SSH: SSHConfig{
			Addr:               "127.0.0.1:2722",
			HostKeyPath:        filepath.Join(dir, "ssh_host_ed25519_key"),
			AuthorizedKeysPath: filepath.Join(home, ".ssh", "authorized_keys"),
			HomeDir:            home,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path,
// $XDG_CONFIG_HOME/crust/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); filepath.IsAbs(xdg) {
		return filepath.Join(xdg, "crust"), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "crust"), nil
}

package appconfig

import (
	"encoding/base32"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("prompt", cfg.Prompt)
	v.SetDefault("color", cfg.Color)
	v.SetDefault("suggest.enabled", cfg.Suggest.Enabled)
	v.SetDefault("suggest.model", cfg.Suggest.Model)
	v.SetDefault("suggest.api_key", cfg.Suggest.APIKey)
	v.SetDefault("suggest.api_key_env", cfg.Suggest.APIKeyEnv)
	v.SetDefault("suggest.max_tokens", cfg.Suggest.MaxTokens)
	v.SetDefault("suggest.timeout_seconds", cfg.Suggest.TimeoutSeconds)
	v.SetDefault("ssh.addr", cfg.SSH.Addr)
	v.SetDefault("ssh.host_key_path", cfg.SSH.HostKeyPath)
	v.SetDefault("ssh.authorized_keys_path", cfg.SSH.AuthorizedKeysPath)
	v.SetDefault("ssh.totp_secret", cfg.SSH.TOTPSecret)
	v.SetDefault("ssh.home_dir", cfg.SSH.HomeDir)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateSuggestConfig(cfg.Suggest); err != nil {
		return Config{}, err
	}
	if err := validateSSHConfig(cfg.SSH); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateSuggestConfig(cfg SuggestConfig) error {
	if cfg.MaxTokens <= 0 {
		return fmt.Errorf("suggest.max_tokens must be positive")
	}
	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("suggest.timeout_seconds must be positive")
	}
	if cfg.Enabled && strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("suggest.model is required when suggest.enabled is true")
	}
	return nil
}

func validateSSHConfig(cfg SSHConfig) error {
	secret := strings.TrimSpace(cfg.TOTPSecret)
	if secret == "" {
		return nil
	}
	padded := strings.ToUpper(secret)
	if n := len(padded) % 8; n != 0 {
		padded += strings.Repeat("=", 8-n)
	}
	if _, err := base32.StdEncoding.DecodeString(padded); err != nil {
		return fmt.Errorf("ssh.totp_secret must be base32: %w", err)
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.SSH.HostKeyPath = expandEnv(cfg.SSH.HostKeyPath)
	cfg.SSH.AuthorizedKeysPath = expandEnv(cfg.SSH.AuthorizedKeysPath)
	cfg.SSH.HomeDir = expandEnv(cfg.SSH.HomeDir)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(home, strings.TrimPrefix(value, "~"))
		}
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}
	return path, write(path, cfg)
}

// SetTOTPSecret stores secret as ssh.totp_secret in the config file at path,
// creating the file from defaults when it does not exist.
func SetTOTPSecret(path, secret string) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	cfg.SSH.TOTPSecret = secret
	return path, write(path, cfg)
}

func write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

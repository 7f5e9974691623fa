package appconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing config file is not an error; defaults apply.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("action.endpoint", cfg.Action.Endpoint)
	v.SetDefault("action.secret", cfg.Action.Secret)
	v.SetDefault("hub.addr", cfg.Hub.Addr)
	v.SetDefault("hub.github.owner", cfg.Hub.GitHub.Owner)
	v.SetDefault("hub.github.repo", cfg.Hub.GitHub.Repo)
	v.SetDefault("hub.github.workflow_file", cfg.Hub.GitHub.WorkflowFile)
	v.SetDefault("hub.github.ref", cfg.Hub.GitHub.Ref)
	v.SetDefault("hub.github.token", cfg.Hub.GitHub.Token)
	v.SetDefault("looker.base_url", cfg.Looker.BaseURL)
	v.SetDefault("looker.client_id", cfg.Looker.ClientID)
	v.SetDefault("looker.client_secret", cfg.Looker.ClientSecret)
	v.SetDefault("project.dashboards_dir", cfg.Project.DashboardsDir)
	v.SetDefault("project.tenants_dir", cfg.Project.TenantsDir)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return Config{}, err
			}
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		// IsSet would also find the registered default; only the file counts.
		if !v.InConfig("config_version") {
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
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if err := validateBaseURL("action.endpoint", cfg.Action.Endpoint); err != nil {
		return err
	}
	if err := validateBaseURL("looker.base_url", cfg.Looker.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Hub.Addr) == "" {
		return fmt.Errorf("hub.addr must not be empty")
	}
	return nil
}

func validateBaseURL(key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must include scheme and host (e.g. https://example.com)", key)
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Action.Endpoint = expandEnv(cfg.Action.Endpoint)
	cfg.Action.Secret = expandEnv(cfg.Action.Secret)
	cfg.Hub.GitHub.Token = expandEnv(cfg.Hub.GitHub.Token)
	cfg.Looker.BaseURL = expandEnv(cfg.Looker.BaseURL)
	cfg.Looker.ClientID = expandEnv(cfg.Looker.ClientID)
	cfg.Looker.ClientSecret = expandEnv(cfg.Looker.ClientSecret)
	cfg.Project.DashboardsDir = expandEnv(cfg.Project.DashboardsDir)
	cfg.Project.TenantsDir = expandEnv(cfg.Project.TenantsDir)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
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

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

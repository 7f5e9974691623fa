package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Action        ActionConfig  `mapstructure:"action" yaml:"action"`
	Hub           HubConfig     `mapstructure:"hub" yaml:"hub"`
	Looker        LookerConfig  `mapstructure:"looker" yaml:"looker"`
	Project       ProjectConfig `mapstructure:"project" yaml:"project"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ActionConfig points the update requester at the deployed action hub.
type ActionConfig struct {
	// Endpoint is the action hub base URL. When empty, the requester
	// refuses to submit and reports the unconfigured state.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Secret is the shared secret Looker sends in the Authorization
	// header. Empty disables the check.
	Secret string `mapstructure:"secret" yaml:"secret"`
}

// HubConfig configures the action hub server and its GitHub dispatch target.
type HubConfig struct {
	Addr   string       `mapstructure:"addr" yaml:"addr"`
	GitHub GitHubConfig `mapstructure:"github" yaml:"github"`
}

// GitHubConfig identifies the repository whose workflow gets dispatched.
type GitHubConfig struct {
	Owner        string `mapstructure:"owner" yaml:"owner"`
	Repo         string `mapstructure:"repo" yaml:"repo"`
	WorkflowFile string `mapstructure:"workflow_file" yaml:"workflow_file"`
	Ref          string `mapstructure:"ref" yaml:"ref"`
	Token        string `mapstructure:"token" yaml:"token"`
}

// LookerConfig holds Looker API credentials for the import pipeline.
type LookerConfig struct {
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
}

// ProjectConfig locates the LookML project directories.
type ProjectConfig struct {
	// DashboardsDir is where base project dashboard files live.
	DashboardsDir string `mapstructure:"dashboards_dir" yaml:"dashboards_dir"`
	// TenantsDir is the parent directory holding tenant projects.
	TenantsDir string `mapstructure:"tenants_dir" yaml:"tenants_dir"`
}

// DefaultConfig returns a config with sensible defaults. Credentials fall
// back to the conventional Looker SDK and GitHub environment variables.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Action: ActionConfig{
			Endpoint: os.Getenv("DASHCTL_ACTION_ENDPOINT"),
			Secret:   os.Getenv("ACTION_SECRET"),
		},
		Hub: HubConfig{
			Addr: ":8080",
			GitHub: GitHubConfig{
				Owner:        os.Getenv("GH_REPO_OWNER"),
				Repo:         os.Getenv("GH_REPO_NAME"),
				WorkflowFile: "update_dashboard.yml",
				Ref:          "main",
				Token:        os.Getenv("GH_TOKEN"),
			},
		},
		Looker: LookerConfig{
			BaseURL:      os.Getenv("LOOKERSDK_BASE_URL"),
			ClientID:     os.Getenv("LOOKERSDK_CLIENT_ID"),
			ClientSecret: os.Getenv("LOOKERSDK_CLIENT_SECRET"),
		},
		Project: ProjectConfig{
			DashboardsDir: "dashboards",
			TenantsDir:    ".",
		},
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dashctl", "config.yaml"), nil
}

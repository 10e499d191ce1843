package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Supported auth provider variants
const (
	ProviderLocal  = "local"
	ProviderHosted = "hosted"
)

// Config represents the application configuration
type Config struct {
	Auth    AuthConfig    `yaml:"auth,omitempty"`
	Catalog CatalogConfig `yaml:"catalog,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	UI      UIConfig      `yaml:"ui,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	// Provider selects the session variant.  One of: "local", "hosted"
	Provider string `yaml:"provider,omitempty" env:"KASUMI_CONFIG_AUTH_PROVIDER"`
	// Token caches the hosted provider session token between runs.  Unused by the local variant.
	Token        string `yaml:"token,omitempty" env:"KASUMI_CONFIG_AUTH_TOKEN"`
	HostedURL    string `yaml:"hosted_url,omitempty" env:"KASUMI_CONFIG_AUTH_HOSTED_URL"`
	HostedAPIKey string `yaml:"hosted_api_key,omitempty" env:"KASUMI_CONFIG_AUTH_HOSTED_API_KEY"`
	// PollIntervalSeconds is how often the hosted variant re-reads the remote
	// session state.  Preference changes made elsewhere can take up to this
	// long to become visible.
	PollIntervalSeconds int `yaml:"poll_interval_seconds,omitempty" env:"KASUMI_CONFIG_AUTH_POLL_INTERVAL_SECONDS"`
}

// CatalogConfig contains remote catalog settings
type CatalogConfig struct {
	URL            string `yaml:"url,omitempty" env:"KASUMI_CONFIG_CATALOG_URL"`
	BrowsePageSize int    `yaml:"browse_page_size,omitempty" env:"KASUMI_CONFIG_CATALOG_BROWSE_PAGE_SIZE"`
	SearchPageSize int    `yaml:"search_page_size,omitempty" env:"KASUMI_CONFIG_CATALOG_SEARCH_PAGE_SIZE"`
}

// StorageConfig contains local persistence settings
type StorageConfig struct {
	DataDir string `yaml:"data_dir,omitempty" env:"KASUMI_CONFIG_STORAGE_DATA_DIR"`
}

// UIConfig contains UI display preferences
type UIConfig struct {
	// TitleLanguage is the preferred anime title language.  One of: "english", "romaji", "native"
	TitleLanguage string `yaml:"title_language,omitempty" env:"KASUMI_CONFIG_UI_TITLE_LANGUAGE"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty" env:"KASUMI_CONFIG_LOGGING_LEVEL"`
	FilePath string `yaml:"file_path,omitempty" env:"KASUMI_CONFIG_LOGGING_FILE_PATH"`
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
func Load() (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	// Overrides the config with any values coming from the loaded file
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. Apply the environment variable overrides which take precedence
	if err = applyEnvVarOverrides(cfg); err != nil {
		return nil, fmt.Errorf("error applying environment variable overrides: %w", err)
	}

	return cfg, nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
	cfg.Storage.DataDir = defaultDataDir()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	// Create config dir if not exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	// Apply the updates
	updateFn(cfg)

	return save(cfg, configPath)
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv("KASUMI_CONFIG_PATH")
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	kasumiConfigDir := filepath.Join(configDir, "kasumi")
	return filepath.Join(kasumiConfigDir, "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			Provider:            ProviderLocal,
			PollIntervalSeconds: 5,
		},
		Catalog: CatalogConfig{
			URL:            "https://graphql.anilist.co",
			BrowsePageSize: 12,
			SearchPageSize: 24,
		},
		Storage: StorageConfig{},
		UI: UIConfig{
			TitleLanguage: "english",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to logging in the current directory if home directory cannot be determined
		return filepath.Join(".", "kasumi.log")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\kasumi\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "kasumi", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "kasumi", "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/kasumi
		basePath = filepath.Join(homedir, "Library", "Logs", "kasumi")
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "kasumi", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "kasumi", "logs")
		}
	}

	err = os.MkdirAll(basePath, 0700)
	if err != nil {
		// If we failed to create the directory, fallback to logging in the current directory
		return filepath.Join(".", "kasumi.log")
	}
	return filepath.Join(basePath, "kasumi.log")
}

// defaultDataDir returns the directory holding the embedded user store.  Tries to use expected OS location defaults.
func defaultDataDir() string {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "kasumi-data")
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "kasumi", "data")
		}
		return filepath.Join(homedir, "AppData", "local", "kasumi", "data")
	case "darwin":
		return filepath.Join(homedir, "Library", "Application Support", "kasumi", "data")
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "kasumi", "data")
		}
		return filepath.Join(homedir, ".local", "share", "kasumi", "data")
	}
}

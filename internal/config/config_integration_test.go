package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "kasumi-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}

	t.Cleanup(func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Fatalf("Failed to remove temp directory: %v", err)
		}
	})

	tmpConfigPath := filepath.Join(tmpDir, "config.yaml")
	setEnv(t, "KASUMI_CONFIG_PATH", tmpConfigPath)

	t.Cleanup(func() {
		cleanupEnvVars(t)
	})

	return tmpConfigPath
}

// TestConfigIntegration tests the config package with actual file operations
// This test uses a temporary directory to avoid interfering with real user configs
func TestConfigIntegration(t *testing.T) {
	// Test loading when no config exists (should create default)
	t.Run("LoadDefaultConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		config := loadConfig(t)

		// Verify default values
		assert.Equal(t, ProviderLocal, config.Auth.Provider)
		assert.Equal(t, 5, config.Auth.PollIntervalSeconds)
		assert.Equal(t, "https://graphql.anilist.co", config.Catalog.URL)
		assert.Equal(t, 12, config.Catalog.BrowsePageSize)
		assert.Equal(t, 24, config.Catalog.SearchPageSize)
		assert.Equal(t, "english", config.UI.TitleLanguage)
		assert.Equal(t, "info", config.Logging.Level)
		assert.NotEmpty(t, config.Logging.FilePath)
		assert.NotEmpty(t, config.Storage.DataDir)

		// Verify file was created
		if _, err := os.Stat(tmpConfigPath); os.IsNotExist(err) {
			t.Errorf("Config file was not created at %s", tmpConfigPath)
		}

		// Load the file from disk to assert that the 'dynamic' configurations were not saved when the default config was written
		savedConfig, _ := loadFromDisk(tmpConfigPath)
		assert.Empty(t, savedConfig.Logging.FilePath)
		assert.Empty(t, savedConfig.Storage.DataDir)
	})

	// Test saving and loading custom values
	t.Run("SaveAndLoadConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		// Create a config with custom values
		customConfig := &Config{
			Auth: AuthConfig{
				Provider:            ProviderHosted,
				Token:               "test-token",
				HostedURL:           "https://project.example.co",
				HostedAPIKey:        "anon-key",
				PollIntervalSeconds: 2,
			},
			Catalog: CatalogConfig{
				URL:            "https://catalog.example.com",
				BrowsePageSize: 6,
				SearchPageSize: 10,
			},
			UI: UIConfig{
				TitleLanguage: "romaji",
			},
			Logging: LoggingConfig{
				Level:    "error",
				FilePath: "/var/log/kasumi.log",
			},
		}

		saveConfig(t, customConfig, tmpConfigPath)
		loadedConfig := loadConfig(t)

		// Verify loaded values match what we saved
		assert.Equal(t, ProviderHosted, loadedConfig.Auth.Provider)
		assert.Equal(t, "test-token", loadedConfig.Auth.Token)
		assert.Equal(t, "https://project.example.co", loadedConfig.Auth.HostedURL)
		assert.Equal(t, "anon-key", loadedConfig.Auth.HostedAPIKey)
		assert.Equal(t, 2, loadedConfig.Auth.PollIntervalSeconds)
		assert.Equal(t, "https://catalog.example.com", loadedConfig.Catalog.URL)
		assert.Equal(t, 6, loadedConfig.Catalog.BrowsePageSize)
		assert.Equal(t, 10, loadedConfig.Catalog.SearchPageSize)
		assert.Equal(t, "romaji", loadedConfig.UI.TitleLanguage)
		assert.Equal(t, "error", loadedConfig.Logging.Level)
		assert.Equal(t, "/var/log/kasumi.log", loadedConfig.Logging.FilePath)
	})

	// Test invalid YAML handling
	t.Run("InvalidConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		// Write invalid YAML to the config file
		if err := os.WriteFile(tmpConfigPath, []byte("invalid: yaml: ["), 0600); err != nil {
			t.Fatalf("Failed to write invalid config: %v", err)
		}

		// Attempt to load the invalid config
		_, err := Load()
		if err == nil {
			t.Error("Expected error when loading invalid YAML, got nil")
		}
	})

	t.Run("EnvironmentVariableOverrides", func(t *testing.T) {
		setupTestConfig(t)

		setEnv(t, "KASUMI_CONFIG_AUTH_PROVIDER", ProviderHosted)
		setEnv(t, "KASUMI_CONFIG_AUTH_TOKEN", "test-token")
		setEnv(t, "KASUMI_CONFIG_AUTH_HOSTED_URL", "https://project.example.co")
		setEnv(t, "KASUMI_CONFIG_CATALOG_URL", "https://catalog.example.com")
		setEnv(t, "KASUMI_CONFIG_UI_TITLE_LANGUAGE", "native")
		setEnv(t, "KASUMI_CONFIG_LOGGING_LEVEL", "warn")
		setEnv(t, "KASUMI_CONFIG_LOGGING_FILE_PATH", "/kasumi.log")

		config := loadConfig(t)

		assert.Equal(t, ProviderHosted, config.Auth.Provider)
		assert.Equal(t, "test-token", config.Auth.Token)
		assert.Equal(t, "https://project.example.co", config.Auth.HostedURL)
		assert.Equal(t, "https://catalog.example.com", config.Catalog.URL)
		assert.Equal(t, "native", config.UI.TitleLanguage)
		assert.Equal(t, "warn", config.Logging.Level)
		assert.Equal(t, "/kasumi.log", config.Logging.FilePath)

		// Remove one of the env vars, then reload the config.
		// This ensures that the env var overrides were not persisted to disk.
		unsetEnv(t, "KASUMI_CONFIG_LOGGING_LEVEL")

		config = loadConfig(t)

		assert.Equal(t, "info", config.Logging.Level)
	})

	t.Run("ModifyConfig", func(t *testing.T) {
		setupTestConfig(t)
		config := loadConfig(t)

		assert.Empty(t, config.Auth.Token)

		err := UpdateConfig(func(config *Config) {
			config.Auth.Token = "cached-session-token"
		})
		if err != nil {
			t.Fatalf("Failed to update config: %v", err)
		}

		// Reload the config and ensure it has the new value
		config = loadConfig(t)
		assert.Equal(t, "cached-session-token", config.Auth.Token)
	})
}

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	err := os.Setenv(key, value)
	if err != nil {
		t.Fatalf("Failed to set environment variable: %v", err)
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	err := os.Unsetenv(key)
	if err != nil {
		t.Fatalf("Failed to unset environment variable: %v", err)
	}
}

func saveConfig(t *testing.T, config *Config, configPath string) {
	t.Helper()
	if err := save(config, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
}

func loadConfig(t *testing.T) *Config {
	t.Helper()
	config, err := Load()
	if err != nil {
		t.Fatalf("Loading of config failed: %v", err)
	}
	return config
}

// Removes any env vars with the KASUMI_CONFIG prefix to ensure test isolation
func cleanupEnvVars(t *testing.T) {
	t.Helper()

	for _, envVar := range os.Environ() {
		if key := strings.Split(envVar, "=")[0]; strings.HasPrefix(key, "KASUMI_CONFIG") {
			unsetEnv(t, key)
		}
	}
}

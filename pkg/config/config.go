package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"
)

// BitrixOptions configures access to the CRM portal. The webhook URL can
// be given inline or resolved from a secret manager entry at startup.
type BitrixOptions struct {
	WebhookURL string `yaml:"webhookUrl"`
	SecretName string `yaml:"secretName"`
	ProjectID  string `yaml:"projectId"`
}

// SourceOptions configures the ERP exchange endpoint.
type SourceOptions struct {
	URL      string `yaml:"url"`
	AuthCode string `yaml:"authCode"`
}

// MigrationOptions names the two portals a migration copies between.
type MigrationOptions struct {
	OldWebhookURL string `yaml:"oldWebhookUrl"`
	NewWebhookURL string `yaml:"newWebhookUrl"`
}

// Config holds the application configuration
type Config struct {
	Bitrix      BitrixOptions    `yaml:"bitrix"`
	Source      SourceOptions    `yaml:"source"`
	Migration   MigrationOptions `yaml:"migration"`
	JournalPath string           `yaml:"journalPath"`
	OutputDir   string           `yaml:"outputDir"`
	Listen      string           `yaml:"listen"`
	Debug       bool             `yaml:"debug"`
}

var (
	// Global configuration instance
	globalConfig *Config
	// Mutex to ensure thread-safe access to the global configuration
	configMutex sync.RWMutex
	// Flag to track if the configuration has been loaded
	configLoaded bool
)

// LoadConfig loads the configuration from the specified YAML file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

// InitGlobalConfig initializes the global configuration from the specified file
func InitGlobalConfig(configPath string) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = config
	configLoaded = true
	return nil
}

// GetConfig returns the global configuration instance
// If the configuration hasn't been loaded yet, it attempts to load it from
// the default location (./config.yaml)
func GetConfig() (*Config, error) {
	configMutex.RLock()
	if configLoaded {
		defer configMutex.RUnlock()
		return globalConfig, nil
	}
	configMutex.RUnlock()

	configPath := "config.yaml"
	if err := InitGlobalConfig(configPath); err != nil {
		// If the default config file doesn't exist, create it
		if os.IsNotExist(err) {
			dir := filepath.Dir(configPath)
			if dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return nil, fmt.Errorf("error creating config directory: %w", err)
				}
			}

			defaultConfig := &Config{
				JournalPath: "journal.csv",
				OutputDir:   "archive",
				Listen:      ":8080",
			}

			data, err := yaml.Marshal(defaultConfig)
			if err != nil {
				return nil, fmt.Errorf("error creating default config: %w", err)
			}

			if err := os.WriteFile(configPath, data, 0644); err != nil {
				return nil, fmt.Errorf("error writing default config: %w", err)
			}

			configMutex.Lock()
			globalConfig = defaultConfig
			configLoaded = true
			configMutex.Unlock()

			return defaultConfig, nil
		}
		return nil, err
	}

	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig, nil
}

// GetSourceEndpoint returns the ERP exchange endpoint and its auth code
func GetSourceEndpoint() (string, string, error) {
	config, err := GetConfig()
	if err != nil {
		return "", "", err
	}

	if config.Source.URL == "" || config.Source.AuthCode == "" {
		return "", "", fmt.Errorf("error: source exchange endpoint not set in configuration")
	}

	return config.Source.URL, config.Source.AuthCode, nil
}

// GetMigrationEndpoints returns the old and new portal webhook URLs for a migration
func GetMigrationEndpoints() (string, string, error) {
	config, err := GetConfig()
	if err != nil {
		return "", "", err
	}

	if config.Migration.OldWebhookURL == "" || config.Migration.NewWebhookURL == "" {
		return "", "", fmt.Errorf("error: migration webhook URLs not set in configuration")
	}

	return config.Migration.OldWebhookURL, config.Migration.NewWebhookURL, nil
}

// GetJournalPath returns the path of the CSV journal, defaulting next to
// the working directory when unset
func GetJournalPath() (string, error) {
	config, err := GetConfig()
	if err != nil {
		return "", err
	}

	if config.JournalPath == "" {
		return "journal.csv", nil
	}
	return config.JournalPath, nil
}

// GetOutputDir returns the directory item archives are written to
func GetOutputDir() (string, error) {
	config, err := GetConfig()
	if err != nil {
		return "", err
	}

	if config.OutputDir == "" {
		return "archive", nil
	}
	return config.OutputDir, nil
}

// GetListenAddr returns the webhook server bind address
func GetListenAddr() (string, error) {
	config, err := GetConfig()
	if err != nil {
		return "", err
	}

	if config.Listen == "" {
		return ":8080", nil
	}
	return config.Listen, nil
}

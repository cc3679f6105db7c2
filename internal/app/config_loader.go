package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/dlqueue/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.dlqueue")
		v.AddConfigPath("/etc/dlqueue")
	}

	// Environment overrides, e.g. DLQUEUE_SERVER_PORT
	v.SetEnvPrefix("DLQUEUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, config)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindDefaults registers every key so AutomaticEnv can override it even
// when the config file omits the key.
func bindDefaults(v *viper.Viper, config *domain.Config) {
	for key, value := range configKeys(config) {
		v.SetDefault(key, value)
	}
}

// configKeys flattens config into dotted viper keys
func configKeys(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":                  config.Server.Host,
		"server.port":                  config.Server.Port,
		"store.database_path":          config.Store.DatabasePath,
		"manager.owner":                config.Manager.Owner,
		"manager.access_all_downloads": config.Manager.AccessAllDownloads,
		"manager.files_dir":            config.Manager.FilesDir,
		"manager.public_dir":           config.Manager.PublicDir,
		"logging.level":                config.Logging.Level,
		"logging.format":               config.Logging.Format,
		"logging.output_path":          config.Logging.OutputPath,
		"logging.logs_dir":             config.Logging.LogsDir,
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Store.DatabasePath = expandPath(config.Store.DatabasePath)
	config.Manager.FilesDir = expandPath(config.Manager.FilesDir)
	config.Manager.PublicDir = expandPath(config.Manager.PublicDir)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}

	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Store.DatabasePath == "" {
		return fmt.Errorf("store database path not configured")
	}

	if config.Manager.Owner == "" {
		return fmt.Errorf("manager owner not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configKeys(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

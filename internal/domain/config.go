package domain

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Manager ManagerConfig `mapstructure:"manager"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StoreConfig contains persistence configuration
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// ManagerConfig contains queue manager configuration
type ManagerConfig struct {
	Owner              string `mapstructure:"owner"`                // identity stamped on enqueued downloads
	AccessAllDownloads bool   `mapstructure:"access_all_downloads"` // privileged: see every owner's downloads
	FilesDir           string `mapstructure:"files_dir"`            // base of per-owner external files dirs
	PublicDir          string `mapstructure:"public_dir"`           // base of shared public dirs
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // categorized queue/error logs; empty disables
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Store: StoreConfig{
			DatabasePath: "$HOME/.dlqueue/downloads.db",
		},
		Manager: ManagerConfig{
			Owner:              "dlqueue",
			AccessAllDownloads: false,
			FilesDir:           "$HOME/.dlqueue/files",
			PublicDir:          "$HOME/Downloads",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "",
		},
	}
}

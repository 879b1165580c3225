package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultEnv       = "local"
	defaultConfigDir = ".habitkeeper"
)

// Config holds the client settings. Paths are resolved under ConfigDir,
// which defaults to ~/.habitkeeper.
type Config struct {
	Env       string `mapstructure:"app_env"`
	ServerURL string `mapstructure:"server_url"`
	ConfigDir string `mapstructure:"config_dir"`
	TokenPath string `mapstructure:"token_path"`
	StatePath string `mapstructure:"state_path"`
	DataPath  string `mapstructure:"data_path"`
}

// MustLoad reads the client configuration from a .env file and the
// environment, and makes sure the config directory exists.
func MustLoad() *Config {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("failed to load .env file: %v\n", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("SERVER_URL", defaultServerURL)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		fmt.Printf("failed to create config directory: %v\n", err)
	}

	config := &Config{
		Env:       viper.GetString("APP_ENV"),
		ServerURL: viper.GetString("SERVER_URL"),
		ConfigDir: configDir,
		TokenPath: filepath.Join(configDir, "token"),
		StatePath: filepath.Join(configDir, "state.json"),
		DataPath:  filepath.Join(configDir, "habitkeeper.db"),
	}

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}
	return config
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url must not be empty")
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}

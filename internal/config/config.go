package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DBPath     string `json:"db_path"`
	AuthURL    string `json:"auth_url"`
	WebEnabled bool   `json:"web_enabled"`
	WebPort    int    `json:"web_port"`
}

func Default() Config {
	return Config{AuthURL: "http://localhost:5000", WebPort: 8080}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "taskboard", "config.json"), nil
}

// CredentialsPath is the session token cache, kept next to the config file.
func CredentialsPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "credentials.json")
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

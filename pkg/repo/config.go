package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds repository-local settings.
type Config struct {
	User UserConfig `toml:"user"`
}

// UserConfig identifies the author recorded in commits.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

const (
	defaultUserName  = "Unknown"
	defaultUserEmail = "unknown@localhost"
)

func (r *Repository) configPath() string {
	return filepath.Join(r.KitDir, "config")
}

// ReadConfig reads the TOML config file. A missing file returns an empty
// config rather than an error.
func (r *Repository) ReadConfig() (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	return &cfg, nil
}

// WriteConfig atomically rewrites the config file.
func (r *Repository) WriteConfig(cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.KitDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// AuthorIdent builds the "Name <email>" string recorded in commits,
// falling back to placeholder values when the config is unset.
func (r *Repository) AuthorIdent() (string, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	name := cfg.User.Name
	if name == "" {
		name = defaultUserName
	}
	email := cfg.User.Email
	if email == "" {
		email = defaultUserEmail
	}
	return fmt.Sprintf("%s <%s>", name, email), nil
}

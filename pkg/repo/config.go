package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Config is the repository INI configuration stored at .pal/config.
type Config struct {
	file *ini.File
}

// DefaultConfig returns the configuration written by Init.
func DefaultConfig() *Config {
	f := ini.Empty()
	core := f.Section("core")
	core.Key("repositoryformatversion").SetValue("0")
	core.Key("filemode").SetValue("false")
	core.Key("bare").SetValue("false")
	return &Config{file: f}
}

func (r *Repo) configPath() string {
	return filepath.Join(r.PalDir, "config")
}

// ReadConfig reads .pal/config. A missing file yields the default config.
func (r *Repo) ReadConfig() (*Config, error) {
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("read config: parse: %w", err)
	}
	return &Config{file: f}, nil
}

// WriteConfig atomically writes .pal/config.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tmp, err := os.CreateTemp(r.PalDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := cfg.file.WriteTo(tmp); err != nil {
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

func splitConfigKey(key string) (string, string, error) {
	section, name, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || section == "" || name == "" {
		return "", "", fmt.Errorf("invalid config key %q: want section.name", key)
	}
	return section, name, nil
}

// Get returns the value stored under a dotted "section.name" key.
func (c *Config) Get(key string) (string, bool) {
	section, name, err := splitConfigKey(key)
	if err != nil {
		return "", false
	}
	sec, err := c.file.GetSection(section)
	if err != nil || !sec.HasKey(name) {
		return "", false
	}
	return sec.Key(name).String(), true
}

// Set stores a value under a dotted "section.name" key.
func (c *Config) Set(key, value string) error {
	section, name, err := splitConfigKey(key)
	if err != nil {
		return err
	}
	c.file.Section(section).Key(name).SetValue(value)
	return nil
}

// Identity returns "Name <email>" from the [user] section, or "" when no
// name is configured.
func (c *Config) Identity() string {
	name, _ := c.Get("user.name")
	email, _ := c.Get("user.email")
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return fmt.Sprintf("%s <%s>", name, strings.TrimSpace(email))
}

// SetConfigValue reads, updates and writes back one config key.
func (r *Repo) SetConfigValue(key, value string) error {
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return r.WriteConfig(cfg)
}

// ConfigValue returns one config key.
func (r *Repo) ConfigValue(key string) (string, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	v, ok := cfg.Get(key)
	if !ok {
		return "", fmt.Errorf("config key %q not found", key)
	}
	return v, nil
}

// DefaultIdentity picks the author for new commits and tags: the configured
// [user] identity, else $USER, else "unknown".
func (r *Repo) DefaultIdentity() string {
	if cfg, err := r.ReadConfig(); err == nil {
		if id := cfg.Identity(); id != "" {
			return id
		}
	}
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" {
		return u
	}
	return "unknown"
}

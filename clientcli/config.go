package clientcli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is used when no profile, env var or flag names a server.
const DefaultEndpoint = "http://localhost:8000"

// Environment variables read by Resolve.
const (
	EnvServer  = "FILELOADER_SERVER"
	EnvProfile = "FILELOADER_PROFILE"
	EnvConfig  = "FILELOADER_CONFIG"
)

// Profile is a named server endpoint.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Default  bool   `yaml:"default,omitempty"`
}

// ConfigFile is the on-disk list of profiles.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) index(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

// Profile returns the named profile, or the default one when name is empty.
// The default is the profile marked default, else the first.
func (c *ConfigFile) Profile(name string) (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	if name == "" {
		if i := slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Default }); i >= 0 {
			return &c.Profiles[i], nil
		}
		return &c.Profiles[0], nil
	}

	i := c.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return &c.Profiles[i], nil
}

// Put adds p or replaces the profile with the same name, keeping its
// default flag. It reports whether an existing profile was replaced.
func (c *ConfigFile) Put(p Profile) bool {
	if i := c.index(p.Name); i >= 0 {
		p.Default = c.Profiles[i].Default
		c.Profiles[i] = p
		return true
	}
	c.Profiles = append(c.Profiles, p)
	return false
}

// Remove deletes the named profile.
func (c *ConfigFile) Remove(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	c.Profiles = slices.Delete(c.Profiles, i, i+1)
	return nil
}

// SetDefault marks name as the only default profile.
func (c *ConfigFile) SetDefault(name string) error {
	if c.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for i := range c.Profiles {
		c.Profiles[i].Default = c.Profiles[i].Name == name
	}
	return nil
}

// Save writes the file with owner-only permissions, creating the directory.
func (c *ConfigFile) Save(path string) error {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads a profile file. A missing file wraps os.ErrNotExist.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns ~/.fileloader/config.yaml, or "" without a home directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fileloader", "config.yaml")
}

// ConfigPath returns flagPath, else $FILELOADER_CONFIG, else DefaultConfigPath.
func ConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultConfigPath()
}

// Config is the resolved connection setting for one server.
type Config struct {
	Endpoint string
}

// Validate checks the endpoint, when set, is an absolute http(s) URL.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return nil
	}
	return ValidateEndpoint(c.Endpoint)
}

// WithDefaults returns a copy with DefaultEndpoint filled in.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// ValidateEndpoint reports whether s is an absolute http or https URL.
func ValidateEndpoint(s string) error {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, s)
	}
	return nil
}

// Resolve picks the endpoint from, lowest precedence first: a profile in the
// config file, $FILELOADER_SERVER, and server. The profile is profile, else
// $FILELOADER_PROFILE, else the file's default.
//
// A missing config file is only an error when configPath or
// $FILELOADER_CONFIG named it, or a profile was asked for.
func Resolve(configPath, profile, server string) (*Config, error) {
	explicit := configPath != "" || os.Getenv(EnvConfig) != ""
	path := ConfigPath(configPath)
	if profile == "" {
		profile = os.Getenv(EnvProfile)
	}

	cfg := &Config{}

	if path != "" {
		file, err := LoadConfigFile(path)
		switch {
		case err == nil:
			p, perr := file.Profile(profile)
			switch {
			case perr == nil:
				cfg.Endpoint = p.Endpoint
			case profile != "" || !errors.Is(perr, ErrNoProfiles):
				return nil, perr
			}
		case explicit || profile != "" || !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	for _, override := range []string{os.Getenv(EnvServer), server} {
		if override != "" {
			cfg.Endpoint = override
		}
	}

	return cfg, nil
}

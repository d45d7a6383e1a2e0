// ABOUTME: Settings document for devices, sounds, connection, and shortcuts
// ABOUTME: YAML on disk; the running board state is the source of truth
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the persisted settings document
type Config struct {
	ServerAddress string         `yaml:"server_address"`
	APIKey        string         `yaml:"api_key"`
	Devices       []DeviceConfig `yaml:"devices"`
	Sounds        []SoundConfig  `yaml:"sounds"`
	Shortcuts     Shortcuts      `yaml:"shortcuts"`
}

// DeviceConfig matches a system device by name
type DeviceConfig struct {
	Name    string  `yaml:"name"`
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
	MuteKey uint16  `yaml:"mute_key,omitempty"`
}

// SoundConfig is one configured sound entry
type SoundConfig struct {
	Name   string  `yaml:"name"`
	Path   string  `yaml:"path"`
	Key    uint16  `yaml:"key,omitempty"`
	Volume float64 `yaml:"volume"`
}

// Shortcuts holds the global shortcut key codes; zero means unbound
type Shortcuts struct {
	Pause    uint16 `yaml:"pause,omitempty"`
	Stop     uint16 `yaml:"stop,omitempty"`
	Modifier uint16 `yaml:"modifier,omitempty"`
}

// Default returns the config used when no file exists yet
func Default() Config {
	return Config{
		Shortcuts: Shortcuts{},
	}
}

// Load reads and parses the config file. A missing file returns the default
// config without error; a malformed file is an error so we never clobber a
// document the user edited by hand.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

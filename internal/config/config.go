package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultFadeDuration is the crossfade ramp length in seconds.
const DefaultFadeDuration = 2.0

// DefaultSampleRate is the engine sample rate in Hz, used both for the
// output sink and for noise-buffer generation length.
const DefaultSampleRate = 44100

// DefaultMasterVolume is the initial master bus gain.
const DefaultMasterVolume = 0.8

// Remote holds MQTT bridge settings. A daemon with an empty Broker
// runs without the bridge.
type Remote struct {
	Broker      string `json:"broker,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
}

// Options holds the runtime-applicable engine settings. All of them
// may change between Load calls while the engine is running; Engine
// applies a changed set in place.
type Options struct {
	FadeDuration    float64 `json:"fade_duration,omitempty"`
	EnableCrossfade bool    `json:"enable_crossfade"`
	LoopLayers      bool    `json:"loop_layers"`
	SampleRate      int     `json:"sample_rate,omitempty"`
	MasterVolume    float64 `json:"master_volume,omitempty"`
}

// Config is the top-level configuration file layout.
type Config struct {
	Options Options `json:"config"`
	Catalog string  `json:"catalog,omitempty"` // optional catalog file path
	Preset  string  `json:"preset,omitempty"`  // preset store path
	Remote  Remote  `json:"remote,omitempty"`
}

// UnmarshalJSON sets defaults then decodes the JSON structure.
// Go's json.Unmarshal merges into existing struct fields, so only
// values present in JSON override the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	c.Options = DefaultOptions()
	type Alias Config
	return json.Unmarshal(data, (*Alias)(c))
}

// DefaultOptions returns the settings used when no config file exists.
func DefaultOptions() Options {
	return Options{
		FadeDuration:    DefaultFadeDuration,
		EnableCrossfade: true,
		LoopLayers:      true,
		SampleRate:      DefaultSampleRate,
		MasterVolume:    DefaultMasterVolume,
	}
}

// FileName is the config file name searched for by Load.
const FileName = "soundscape.json"

// Load reads and parses a config file. It tries, in order:
//  1. explicitPath (if non-empty)
//  2. soundscape.json next to the running binary
//  3. ~/.config/soundscape/soundscape.json
//
// A missing file is not an error: the defaults are returned.
func Load(explicitPath string) (Config, error) {
	if explicitPath != "" {
		return readConfig(explicitPath)
	}

	// Next to binary
	exe, err := os.Executable()
	if err == nil {
		p := filepath.Join(filepath.Dir(exe), FileName)
		if _, err := os.Stat(p); err == nil {
			return readConfig(p)
		}
	}

	// User config directory
	home, err := os.UserHomeDir()
	if err == nil {
		var p string
		if runtime.GOOS == "windows" {
			p = filepath.Join(home, "AppData", "Roaming", "soundscape", FileName)
		} else {
			p = filepath.Join(home, ".config", "soundscape", FileName)
		}
		if _, err := os.Stat(p); err == nil {
			return readConfig(p)
		}
	}

	return Config{Options: DefaultOptions()}, nil
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

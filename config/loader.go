// Package config loads effect options from configuration files.
// The effects library itself never touches disk; this is for hosts
// that want file-driven setup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/framewraith/retrofx/effects"
)

// fileOptions is the on-disk shape. Intervals are plain milliseconds
// so the same file reads identically as TOML, YAML, or JSON.
type fileOptions struct {
	Scanlines    *bool `json:"scanlines" yaml:"scanlines" toml:"scanlines"`
	ArcadeFrame  *bool `json:"arcade_frame" yaml:"arcade_frame" toml:"arcade_frame"`
	Particles    *bool `json:"particles" yaml:"particles" toml:"particles"`
	Glitch       *bool `json:"glitch" yaml:"glitch" toml:"glitch"`
	Counters     *bool `json:"counters" yaml:"counters" toml:"counters"`
	SmoothScroll *bool `json:"smooth_scroll" yaml:"smooth_scroll" toml:"smooth_scroll"`
	Sound        *bool `json:"sound" yaml:"sound" toml:"sound"`

	ParticleIntervalMS *int     `json:"particle_interval_ms" yaml:"particle_interval_ms" toml:"particle_interval_ms"`
	GlitchIntervalMS   *int     `json:"glitch_interval_ms" yaml:"glitch_interval_ms" toml:"glitch_interval_ms"`
	ParticleColors     []string `json:"particle_colors" yaml:"particle_colors" toml:"particle_colors"`
	Debug              *bool    `json:"debug" yaml:"debug" toml:"debug"`
}

// Load reads an options file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (effects.Options, error) {
	var fo fileOptions
	if path == "" {
		return effects.Options{}, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return effects.Options{}, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fo); err != nil {
			return effects.Options{}, err
		}
	case ".json":
		if err := json.Unmarshal(b, &fo); err != nil {
			return effects.Options{}, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &fo); err != nil {
			return effects.Options{}, err
		}
	default:
		return effects.Options{}, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return fo.options(), nil
}

// options converts the file shape to the library's overlay type
func (fo fileOptions) options() effects.Options {
	out := effects.Options{
		Scanlines:      fo.Scanlines,
		ArcadeFrame:    fo.ArcadeFrame,
		Particles:      fo.Particles,
		Glitch:         fo.Glitch,
		Counters:       fo.Counters,
		SmoothScroll:   fo.SmoothScroll,
		Sound:          fo.Sound,
		ParticleColors: fo.ParticleColors,
		Debug:          fo.Debug,
	}
	if fo.ParticleIntervalMS != nil {
		out.ParticleInterval = effects.Duration(time.Duration(*fo.ParticleIntervalMS) * time.Millisecond)
	}
	if fo.GlitchIntervalMS != nil {
		out.GlitchInterval = effects.Duration(time.Duration(*fo.GlitchIntervalMS) * time.Millisecond)
	}
	return out
}

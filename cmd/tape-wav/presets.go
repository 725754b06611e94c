package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	tape "github.com/tphakala/go-tape-hysteresis"
)

const (
	defaultPresetName = "default"
	presetsConfigName = "tape-presets"
	presetsKey        = "presets"
)

// preset is one named set of tape controls.
type preset struct {
	Drive        float64 `mapstructure:"drive"`
	Saturation   float64 `mapstructure:"saturation"`
	Width        float64 `mapstructure:"width"`
	Oversampling int     `mapstructure:"oversampling"`
	Mode         string  `mapstructure:"mode"`
	Nonlinearity string  `mapstructure:"nonlinearity"`
	Makeup       bool    `mapstructure:"makeup"`
}

// builtinPresets are available without a preset file. A file may redefine them.
var builtinPresets = map[string]preset{
	defaultPresetName: {Drive: 1, Saturation: 0.9, Width: 0.5, Oversampling: 4,
		Mode: "polyphase", Nonlinearity: "hysteresis", Makeup: true},
	"gentle": {Drive: 0.4, Saturation: 0.5, Width: 0.5, Oversampling: 4,
		Mode: "polyphase", Nonlinearity: "hysteresis", Makeup: true},
	"hot": {Drive: 1, Saturation: 1, Width: 0.2, Oversampling: 4,
		Mode: "polyphase", Nonlinearity: "hysteresis", Makeup: true},
	"clip": {Oversampling: 4, Mode: "polyphase", Nonlinearity: "clipper"},
}

// newPresetViper returns a viper instance seeded with the builtin presets.
// An empty file searches the standard locations; a missing file there is
// not an error.
func newPresetViper(file string) (*viper.Viper, error) {
	v := viper.New()
	for name, p := range builtinPresets {
		prefix := presetsKey + "." + name + "."
		v.SetDefault(prefix+"drive", p.Drive)
		v.SetDefault(prefix+"saturation", p.Saturation)
		v.SetDefault(prefix+"width", p.Width)
		v.SetDefault(prefix+"oversampling", p.Oversampling)
		v.SetDefault(prefix+"mode", p.Mode)
		v.SetDefault(prefix+"nonlinearity", p.Nonlinearity)
		v.SetDefault(prefix+"makeup", p.Makeup)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read presets %s: %w", file, err)
		}
		return v, nil
	}

	v.SetConfigName(presetsConfigName)
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "tape-wav"))
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read presets: %w", err)
		}
	}
	return v, nil
}

// loadPreset resolves name from the preset file and the builtins.
func loadPreset(file, name string) (preset, error) {
	v, err := newPresetViper(file)
	if err != nil {
		return preset{}, err
	}

	key := presetsKey + "." + strings.ToLower(name)
	if !v.IsSet(key) {
		return preset{}, fmt.Errorf("unknown preset %q", name)
	}

	// Fields a file preset leaves out fall back to the default preset.
	p := builtinPresets[defaultPresetName]
	if err := v.UnmarshalKey(key, &p); err != nil {
		return preset{}, fmt.Errorf("invalid preset %q: %w", name, err)
	}
	return p, nil
}

// override replaces the fields whose flags were given explicitly.
func (p preset) override(flags preset, set map[string]bool) preset {
	if set["drive"] {
		p.Drive = flags.Drive
	}
	if set["saturation"] {
		p.Saturation = flags.Saturation
	}
	if set["width"] {
		p.Width = flags.Width
	}
	if set["oversample"] {
		p.Oversampling = flags.Oversampling
	}
	if set["mode"] {
		p.Mode = flags.Mode
	}
	if set["nonlinearity"] {
		p.Nonlinearity = flags.Nonlinearity
	}
	if set["makeup"] {
		p.Makeup = flags.Makeup
	}
	return p
}

// config builds the processor configuration for a file.
func (p preset) config(sampleRate float64, channels int) (tape.Config, error) {
	cfg := tape.DefaultConfig()
	cfg.SampleRate = sampleRate
	cfg.Channels = channels
	cfg.Drive = p.Drive
	cfg.Saturation = p.Saturation
	cfg.Width = p.Width
	cfg.Oversampling = p.Oversampling
	cfg.ApplyMakeupGain = p.Makeup

	switch strings.ToLower(p.Mode) {
	case "", "polyphase":
		cfg.FilterMode = tape.FilterPolyphase
	case "direct":
		cfg.FilterMode = tape.FilterDirect
	default:
		return cfg, fmt.Errorf("unknown filter mode %q", p.Mode)
	}

	switch strings.ToLower(p.Nonlinearity) {
	case "", "hysteresis":
		cfg.Nonlinearity = tape.NonlinearityHysteresis
	case "clipper", "clip":
		cfg.Nonlinearity = tape.NonlinearityClipper
	default:
		return cfg, fmt.Errorf("unknown nonlinearity %q", p.Nonlinearity)
	}

	return cfg, cfg.Validate()
}

package config

import "sort"

// Presets are named playback setups.
var Presets = map[string]*Config{
	"month": {
		Playback: PlaybackConfig{Mode: "cumulative", SpeedMs: 1000, WindowDays: DefaultWindowDays},
	},
	"week": {
		Playback: PlaybackConfig{Mode: "window", SpeedMs: 1000, WindowDays: 7, Loop: true},
	},
	"fast": {
		Playback: PlaybackConfig{Mode: "cumulative", SpeedMs: 200, WindowDays: DefaultWindowDays, Loop: true},
	},
	"daily": {
		Playback: PlaybackConfig{Mode: "window", SpeedMs: 1500, WindowDays: 1},
	},
	"ring-of-fire": {
		Playback: PlaybackConfig{Mode: "window", SpeedMs: 800, WindowDays: 3, Loop: true},
		Region:   RegionConfig{Near: "0,-160", RadiusKm: 9000},
	},
}

// GetPreset returns the default config overlaid with a preset's playback
// and region settings, or nil for an unknown name.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Playback = p.Playback
	if cfg.Playback.FrameRate == 0 {
		cfg.Playback.FrameRate = DefaultFrameRate
	}
	if p.Region.Near != "" {
		cfg.Region = p.Region
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

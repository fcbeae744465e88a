// Package config persists user-tunable playback settings across restarts:
// master volume, default loop behaviour, billboard mode, default sprite
// saturation, and target frame rate.
package config

import (
	"encoding/json"
	"os"
)

// Settings is user-tunable configuration that should persist across
// application restarts.
type Settings struct {
	MasterVolume      float64 `json:"masterVolume"` // 0..100
	DefaultLoop       bool    `json:"defaultLoop"`
	BillboardEnabled  bool    `json:"billboardEnabled"`
	DefaultSaturation float64 `json:"defaultSaturation"` // seeds VideoRendererComponent.Saturation
	TargetFPS         float64 `json:"targetFps"`
}

var defaultSettings = Settings{
	MasterVolume:      100.0,
	DefaultLoop:       false,
	BillboardEnabled:  false,
	DefaultSaturation: 1.0,
	TargetFPS:         60.0,
}

const filename = "settings.json"

// Load reads the settings file from disk. When the file is missing or
// cannot be parsed, sane defaults are returned so the application can
// continue running.
func Load() Settings {
	f, err := os.Open(filename)
	if err != nil {
		return defaultSettings
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return defaultSettings
	}

	if s.TargetFPS == 0 {
		s.TargetFPS = defaultSettings.TargetFPS
	}
	if s.MasterVolume == 0 {
		s.MasterVolume = defaultSettings.MasterVolume
	}
	if s.DefaultSaturation == 0 {
		s.DefaultSaturation = defaultSettings.DefaultSaturation
	}

	return s
}

// Save writes s to disk, creating the file when necessary.
func Save(s Settings) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

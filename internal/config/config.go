// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"strings"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window" toml:"window"`
	Viewer  ViewerConfig  `yaml:"viewer" toml:"viewer"`
	Picking PickingConfig `yaml:"picking" toml:"picking"`
	Store   StoreConfig   `yaml:"store" toml:"store"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
	ShowFPS    bool   `yaml:"show_fps" toml:"show_fps"`
}

// ViewerConfig holds rendering and navigation settings. Colours are RGBA
// bytes; lights are a direction followed by an intensity.
type ViewerConfig struct {
	Background []int     `yaml:"background" toml:"background"`
	Highlight  []int     `yaml:"highlight" toml:"highlight"`
	LightA     []float32 `yaml:"light_a" toml:"light_a"`
	LightB     []float32 `yaml:"light_b" toml:"light_b"`
	Mode       string    `yaml:"mode" toml:"mode"`
	Navigation string    `yaml:"navigation" toml:"navigation"`
	Camera     string    `yaml:"camera" toml:"camera"`
	FOV        float32   `yaml:"fov" toml:"fov"`
	XRayAlpha  float32   `yaml:"xray_alpha" toml:"xray_alpha"`
	HideSpaces bool      `yaml:"hide_spaces" toml:"hide_spaces"`
}

// PickingConfig holds identification pass settings.
type PickingConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// StoreConfig holds the snapshot database location. An empty path
// disables snapshots.
type StoreConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// WatchConfig holds model file watching settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled" toml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms" toml:"debounce_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "xviewer",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Viewer: ViewerConfig{
			Background: []int{255, 255, 255, 255},
			Highlight:  []int{255, 153, 0, 255},
			LightA:     []float32{0, 1000000, 200000, 0.8},
			LightB:     []float32{0, -500000, 50000, 0.2},
			Mode:       "normal",
			Navigation: "orbit",
			Camera:     "perspective",
			FOV:        45,
			XRayAlpha:  0.15,
			HideSpaces: true,
		},
		Picking: PickingConfig{Enabled: true},
		Watch:   WatchConfig{DebounceMS: 200},
		Logging: LoggingConfig{Level: "info"},
	}
}

func checkColor(name string, c []int) error {
	if len(c) != 4 {
		return fmt.Errorf("%s needs 4 components, has %d", name, len(c))
	}
	for _, v := range c {
		if v < 0 || v > 255 {
			return fmt.Errorf("%s component %d outside [0,255]", name, v)
		}
	}
	return nil
}

// Validate checks the viewer section. Names of modes are checked by the
// packages that parse them.
func (v ViewerConfig) Validate() error {
	var problems []string
	for _, c := range []struct {
		name string
		rgba []int
	}{{"background", v.Background}, {"highlight", v.Highlight}} {
		if err := checkColor(c.name, c.rgba); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(v.LightA) != 4 || len(v.LightB) != 4 {
		problems = append(problems, "lights need 4 components")
	}
	if v.FOV <= 0 || v.FOV >= 180 {
		problems = append(problems, fmt.Sprintf("fov %g outside (0,180)", v.FOV))
	}
	if v.XRayAlpha < 0 || v.XRayAlpha > 1 {
		problems = append(problems, fmt.Sprintf("xray_alpha %g outside [0,1]", v.XRayAlpha))
	}
	if len(problems) > 0 {
		return fmt.Errorf("viewer config: %s", strings.Join(problems, "; "))
	}
	return nil
}

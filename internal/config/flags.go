package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagMode       = flag.String("mode", "", "Rendering mode: normal, grayscale, xray, xray-ultra")
	flagNav        = flag.String("nav", "", "Navigation mode: orbit, free-orbit, pan, zoom, none")
	flagStore      = flag.String("store", "", "Snapshot database path")
	flagWatch      = flag.Bool("watch", false, "Reload models when their files change")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Window.ShowFPS = true
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagMode != "" {
		cfg.Viewer.Mode = *flagMode
	}
	if *flagNav != "" {
		cfg.Viewer.Navigation = *flagNav
	}
	if *flagStore != "" {
		cfg.Store.Path = *flagStore
	}
	if *flagWatch {
		cfg.Watch.Enabled = true
	}
}

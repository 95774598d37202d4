// Package app runs the interactive viewer: window, input loop, models and
// snapshots.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/config"
	"github.com/Faultbox/xviewer/internal/engine/debug"
	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/export"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/internal/engine/input"
	"github.com/Faultbox/xviewer/internal/engine/pipeline"
	"github.com/Faultbox/xviewer/internal/engine/renderer"
	"github.com/Faultbox/xviewer/internal/engine/window"
	"github.com/Faultbox/xviewer/internal/loader"
	"github.com/Faultbox/xviewer/internal/logger"
	"github.com/Faultbox/xviewer/internal/store"
	"github.com/Faultbox/xviewer/internal/viewer"
)

// idleSleep is how long the loop waits when no frame was drawn.
const idleSleep = 10 * time.Millisecond

// App is the viewer application instance.
type App struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	viewer   *viewer.Viewer
	loader   *loader.Loader
	store    *store.Store
	watcher  *loader.Watcher
	session  *Session
	overlay  *debug.Overlay
	opened   chan string

	log *zap.Logger
}

// New checks the machine, opens the window and loads files.
func New(ctx context.Context, cfg *config.Config, files []string) (*App, error) {
	a := &App{
		config: cfg,
		loader: loader.New(),
		opened: make(chan string, 1),
		log:    logger.Named("app"),
	}
	a.log.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.Int("files", len(files)),
	)

	pre := pipeline.Check(window.Probe())
	for _, w := range pre.Warnings {
		a.log.Warn("environment", zap.String("warning", w))
	}
	if !pre.NoErrors() {
		return nil, fmt.Errorf("%v: %w", pre.Errors, errs.ErrUnsupportedEnvironment)
	}

	var err error
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the OpenGL context of the window.
	a.renderer, err = renderer.New(a.window.DrawableSize)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()
	a.input.SetScale(a.window.PixelRatio())

	if err := a.setup(ctx, files); err != nil {
		a.Close()
		return nil, err
	}
	a.log.Info("viewer initialized", zap.Int("models", len(a.viewer.Models())))
	return a, nil
}

func (a *App) setup(ctx context.Context, files []string) error {
	var err error
	a.viewer, err = viewer.New(viewer.Options{
		Device:  a.renderer,
		Present: a.window.SwapBuffers,
		Loader:  a.loader,
	})
	if err != nil {
		return err
	}
	if err := a.viewer.Set(a.config.Viewer); err != nil {
		return err
	}
	a.viewer.ClickPicking = a.config.Picking.Enabled

	a.overlay = debug.NewOverlay()
	if err := a.viewer.AddPlugin(a.overlay); err != nil {
		return err
	}
	if a.config.Window.ShowFPS {
		fps := debug.NewFPS(func(fps float64) {
			a.window.SetTitle(fmt.Sprintf("%s (%.0f fps)", a.config.Window.Title, fps))
		})
		if err := a.viewer.AddPlugin(fps); err != nil {
			return err
		}
	}
	a.viewer.On(events.NameError, func(ev events.Event) {
		e := ev.(events.Error)
		a.log.Error("viewer error", zap.Any("tag", e.Tag), zap.Error(e.Err))
	})

	if a.config.Store.Path != "" {
		a.store, err = store.Open(ctx, a.config.Store.Path)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
	}
	shots := export.NewScreenshotCapture(filepath.Join(config.ConfigDir(), "screenshots"), "xviewer", export.PNG)
	a.session = NewSession(a.viewer, a.store, a.overlay, shots)

	if err := a.session.Open(ctx, a.loader.DecodeAll, files); err != nil {
		return err
	}

	if a.config.Watch.Enabled {
		a.watcher, err = loader.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch models: %w", err)
		}
		if a.config.Watch.DebounceMS > 0 {
			a.watcher.Settle = time.Duration(a.config.Watch.DebounceMS) * time.Millisecond
		}
		for _, id := range a.viewer.Models() {
			path, _ := a.session.Path(id)
			if err := a.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
	}
	return a.viewer.Start(handle.All)
}

// Run starts the main loop. It returns when the window is closed.
func (a *App) Run(ctx context.Context) error {
	a.running = true
	a.log.Info("starting viewer loop")

	for a.running {
		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		for _, event := range a.input.Events() {
			if err := a.handleEvent(ctx, event); err != nil {
				a.log.Warn("input", zap.Error(err))
			}
		}

		// 2. Model files changed on disk or picked in the file dialog
		a.pollWatcher(ctx)
		a.pollOpened(ctx)

		// 3. Render and present
		drawn, err := a.viewer.Tick()
		if err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if !drawn {
			time.Sleep(idleSleep)
		}

		if ctx.Err() != nil {
			a.running = false
		}
	}
	a.log.Info("viewer loop stopped", zap.Uint64("frames", a.viewer.Frames()))
	return nil
}

func (a *App) handleEvent(ctx context.Context, event input.Event) error {
	switch event.Type {
	case input.EventPointer:
		return a.session.Pointer(event.Pointer)
	case input.EventKeyDown:
		return a.handleKey(ctx, event.Key)
	case input.EventWindowResize:
		a.log.Debug("window resized", zap.Int("width", event.Width), zap.Int("height", event.Height))
	}
	return nil
}

func (a *App) pollWatcher(ctx context.Context) {
	if a.watcher == nil {
		return
	}
	for {
		select {
		case path := <-a.watcher.Changed():
			if err := a.session.Reload(ctx, path); err != nil {
				a.log.Error("reload model", zap.String("path", path), zap.Error(err))
			}
		case err := <-a.watcher.Errors():
			a.log.Warn("watch", zap.Error(err))
		default:
			return
		}
	}
}

func (a *App) pollOpened(ctx context.Context) {
	select {
	case file := <-a.opened:
		path, err := a.session.AddFile(ctx, file)
		if err != nil {
			a.log.Error("open model", zap.String("file", file), zap.Error(err))
			return
		}
		if a.watcher != nil {
			if err := a.watcher.Add(path); err != nil {
				a.log.Warn("watch model", zap.String("path", path), zap.Error(err))
			}
		}
	default:
	}
}

// Close releases every resource in reverse order of creation.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.viewer != nil {
		a.viewer.Close()
	}
	if a.overlay != nil {
		a.overlay.Destroy()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close store", zap.Error(err))
		}
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

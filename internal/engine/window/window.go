// Package window handles SDL2 window and OpenGL context creation.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/pipeline"
	"github.com/Faultbox/xviewer/internal/engine/renderer"
	"github.com/Faultbox/xviewer/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Hidden     bool
}

// Window wraps SDL2 window and OpenGL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
	log       *zap.Logger
}

func setAttributes() {
	// 4.1 core is the most macOS offers.
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
}

// New creates a new window with OpenGL context.
func New(cfg Config) (*Window, error) {
	w := &Window{
		config: cfg,
		log:    logger.Named("window"),
	}

	w.log.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %v: %w", err, errs.ErrUnsupportedEnvironment)
	}
	setAttributes()

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}
	if cfg.Hidden {
		flags |= sdl.WINDOW_HIDDEN
	}

	var err error
	w.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %v: %w", err, errs.ErrUnsupportedEnvironment)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %v: %w", err, errs.ErrUnsupportedEnvironment)
	}

	if cfg.VSync {
		if err := sdl.GLSetSwapInterval(1); err != nil {
			w.log.Warn("failed to enable VSync", zap.Error(err))
		}
	} else {
		sdl.GLSetSwapInterval(0)
	}

	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// Close destroys the window and cleans up SDL2.
func (w *Window) Close() {
	w.log.Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}
	sdl.Quit()
}

// SwapBuffers swaps the OpenGL buffers.
func (w *Window) SwapBuffers() error {
	w.sdlWindow.GLSwap()
	return nil
}

// GetSize returns the current window size in screen coordinates.
func (w *Window) GetSize() (int, int) {
	width, height := w.sdlWindow.GetSize()
	return int(width), int(height)
}

// DrawableSize returns the size of the GL surface in pixels. It differs
// from GetSize on high-DPI displays.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// PixelRatio returns drawable pixels per screen coordinate.
func (w *Window) PixelRatio() float32 {
	ww, _ := w.GetSize()
	dw, _ := w.DrawableSize()
	if ww == 0 {
		return 1
	}
	return float32(dw) / float32(ww)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// Probe opens a hidden window to find out what the machine offers, then
// tears everything down again. Failures are reported in ProbeError rather
// than returned.
func Probe() pipeline.Environment {
	var env pipeline.Environment
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		env.ProbeError = err
		return env
	}
	defer sdl.Quit()
	env.VideoAvailable = true

	if n, err := sdl.GetNumVideoDisplays(); err == nil {
		env.Displays = n
	}

	setAttributes()
	win, err := sdl.CreateWindow("probe", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, 1, 1,
		sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN)
	if err != nil {
		env.ProbeError = err
		return env
	}
	defer win.Destroy()

	ctx, err := win.GLCreateContext()
	if err != nil {
		env.ProbeError = err
		return env
	}
	defer sdl.GLDeleteContext(ctx)

	if depth, err := sdl.GLGetAttribute(sdl.GL_DEPTH_SIZE); err == nil {
		env.DepthBits = depth
	}
	if err := renderer.InitGL(); err != nil {
		env.ProbeError = err
		return env
	}
	info := renderer.QueryInfo()
	env.GLMajor, env.GLMinor = info.Major, info.Minor
	env.Renderer = info.Renderer
	env.MaxTextureSize = info.MaxTextureSize
	return env
}

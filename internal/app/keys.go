package app

import (
	"context"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/camera"
)

// lightStep is how far one key press turns the key light, in degrees.
const lightStep = 30

var viewKeys = map[sdl.Scancode]camera.View{
	sdl.SCANCODE_0: camera.ViewDefault,
	sdl.SCANCODE_1: camera.ViewTop,
	sdl.SCANCODE_2: camera.ViewBottom,
	sdl.SCANCODE_3: camera.ViewFront,
	sdl.SCANCODE_4: camera.ViewBack,
	sdl.SCANCODE_5: camera.ViewLeft,
	sdl.SCANCODE_6: camera.ViewRight,
}

func (a *App) handleKey(ctx context.Context, key sdl.Scancode) error {
	s := a.session
	if view, ok := viewKeys[key]; ok {
		s.Show(view)
		return nil
	}

	switch key {
	case sdl.SCANCODE_ESCAPE:
		a.running = false
	case sdl.SCANCODE_Z:
		s.ZoomSelection()
	case sdl.SCANCODE_R:
		a.log.Info("rendering mode", zap.Stringer("mode", s.CycleMode()))
	case sdl.SCANCODE_H:
		return s.HideSelection()
	case sdl.SCANCODE_I:
		return s.IsolateSelection()
	case sdl.SCANCODE_A:
		return s.ShowAll()
	case sdl.SCANCODE_C:
		ok, err := s.ClipAtPointer()
		if err == nil && !ok {
			a.log.Debug("nothing to clip at")
		}
		return err
	case sdl.SCANCODE_U:
		s.Unclip()
	case sdl.SCANCODE_P:
		name, err := s.Screenshot()
		if err != nil {
			return err
		}
		a.log.Info("screenshot saved", zap.String("file", name))
	case sdl.SCANCODE_S:
		return s.Save(ctx)
	case sdl.SCANCODE_L:
		return s.RestoreAll(ctx)
	case sdl.SCANCODE_G:
		s.ToggleGrid()
	case sdl.SCANCODE_O:
		a.openFileDialog()
	case sdl.SCANCODE_K:
		return s.TurnKeyLight(lightStep)
	case sdl.SCANCODE_SPACE:
		s.ToggleRotation()
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/camera"
	"github.com/Faultbox/xviewer/internal/engine/debug"
	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/export"
	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/internal/engine/lighting"
	"github.com/Faultbox/xviewer/internal/engine/state"
	"github.com/Faultbox/xviewer/internal/logger"
	"github.com/Faultbox/xviewer/internal/store"
	"github.com/Faultbox/xviewer/internal/viewer"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// Overlay draws selection boxes and the ground grid. debug.Overlay
// implements it.
type Overlay interface {
	Select(r wexbim.Region)
	ClearSelection()
	ShowGrid(r wexbim.Region, step float32)
	HideGrid()
	GridVisible() bool
}

var _ Overlay = (*debug.Overlay)(nil)

// Session holds what the interactive viewer does on top of the engine:
// the loaded files, the selection and the snapshot store.
type Session struct {
	v       *viewer.Viewer
	store   *store.Store
	overlay Overlay
	shots   *export.ScreenshotCapture

	paths     map[int]string
	restore   map[string]bool
	selection *events.ProductRef
	pointer   events.Pointer
	log       *zap.Logger
}

// NewSession wires a session to v. st and ov may be nil.
func NewSession(v *viewer.Viewer, st *store.Store, ov Overlay, shots *export.ScreenshotCapture) *Session {
	s := &Session{
		v:       v,
		store:   st,
		overlay: ov,
		shots:   shots,
		paths:   make(map[int]string),
		restore: make(map[string]bool),
		log:     logger.Named("session"),
	}
	v.On(events.NameLoaded, s.onLoaded)
	v.On(events.NameError, s.onError)
	v.On(events.NamePick, s.onPick)
	v.On(events.NameUnloaded, s.onUnloaded)
	return s
}

// Selection returns the highlighted product or nil.
func (s *Session) Selection() *events.ProductRef { return s.selection }

// Path returns the file model id was loaded from.
func (s *Session) Path(modelID int) (string, bool) {
	p, ok := s.paths[modelID]
	return p, ok
}

// onLoaded remembers the file of models loaded with a path tag.
func (s *Session) onLoaded(ev events.Event) {
	e := ev.(events.Loaded)
	path, ok := e.Tag.(string)
	if !ok {
		return
	}
	s.paths[e.ModelID] = path
	if s.restore[path] {
		delete(s.restore, path)
		if err := s.Restore(context.Background(), e.ModelID); err != nil {
			s.log.Warn("restore snapshot", zap.String("path", path), zap.Error(err))
		}
	}
}

func (s *Session) onError(ev events.Event) {
	if path, ok := ev.(events.Error).Tag.(string); ok {
		delete(s.restore, path)
	}
}

func (s *Session) onPick(ev events.Event) {
	if err := s.Select(ev.(events.Pick).Hit); err != nil {
		s.log.Warn("select", zap.Error(err))
	}
}

func (s *Session) onUnloaded(ev events.Event) {
	id := ev.(events.Unloaded).ModelID
	delete(s.paths, id)
	if s.selection != nil && s.selection.ModelID == id {
		s.selection = nil
		if s.overlay != nil {
			s.overlay.ClearSelection()
		}
	}
}

// Select highlights ref and outlines it; nil clears the selection.
func (s *Session) Select(ref *events.ProductRef) error {
	if prev := s.selection; prev != nil && s.v.IsModelLoaded(prev.ModelID) {
		if s.v.State(prev.ProductID, prev.ModelID) == state.Highlighted {
			if err := s.v.SetState(state.Undefined, state.ID(prev.ProductID), prev.ModelID); err != nil {
				return err
			}
		}
	}
	s.selection = ref
	if ref == nil {
		if s.overlay != nil {
			s.overlay.ClearSelection()
		}
		return nil
	}

	if err := s.v.SetState(state.Highlighted, state.ID(ref.ProductID), ref.ModelID); err != nil {
		return err
	}
	if r, ok := s.v.Region(ref); ok && s.overlay != nil {
		s.overlay.Select(r)
	}
	s.log.Debug("selected", zap.Stringer("product", ref))
	return nil
}

// Pointer records p for ClipAtPointer and feeds it to the viewer.
func (s *Session) Pointer(p events.Pointer) error {
	s.pointer = p
	return s.v.HandlePointer(p)
}

// Open decodes paths concurrently and adds them in order, restoring the
// latest stored snapshot of each.
func (s *Session) Open(ctx context.Context, decode DecodeFunc, files []string) error {
	paths := make([]string, len(files))
	srcs := make([]any, len(files))
	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		paths[i] = abs
		srcs[i] = abs
	}
	models, err := decode(ctx, srcs)
	if err != nil {
		return err
	}
	for i, m := range models {
		s.restore[paths[i]] = true
		if _, err := s.v.Add(m, paths[i]); err != nil {
			delete(s.restore, paths[i])
			return fmt.Errorf("add %s: %w", paths[i], err)
		}
	}
	return nil
}

// AddFile loads file in the background. The model appears on a later
// viewer tick with its latest snapshot restored.
func (s *Session) AddFile(ctx context.Context, file string) (string, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	s.restore[path] = true
	if err := s.v.LoadAsync(ctx, path, path); err != nil {
		delete(s.restore, path)
		return "", err
	}
	return path, nil
}

// DecodeFunc decodes model sources in order. loader.Loader.DecodeAll is
// one.
type DecodeFunc func(ctx context.Context, srcs []any) ([]*wexbim.Model, error)

// Reload replaces the model loaded from path. States of products that
// are still in the file are kept.
func (s *Session) Reload(ctx context.Context, path string) error {
	id := handle.All
	for mid, p := range s.paths {
		if p == path {
			id = mid
		}
	}
	if id == handle.All {
		return fmt.Errorf("reload %s: %w", path, errs.ErrNotFound)
	}
	if s.selection != nil && s.selection.ModelID == id {
		if err := s.Select(nil); err != nil {
			return err
		}
	}

	snap, err := s.v.ModelState(id)
	if err != nil {
		return err
	}
	if err := s.v.Unload(id); err != nil {
		return err
	}
	nid, err := s.v.Load(ctx, path, path)
	if err != nil {
		return err
	}
	n, err := s.v.MergeModelState(nid, snap)
	if err != nil {
		return err
	}
	s.log.Info("model reloaded", zap.String("path", path), zap.Int("model", nid), zap.Int("kept", n))
	return nil
}

// Save stores the state of every loaded model.
func (s *Session) Save(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("no snapshot store: %w", errs.ErrPreconditionViolation)
	}
	name := time.Now().Format(time.DateTime)
	for id, path := range s.paths {
		snap, err := s.v.ModelState(id)
		if err != nil {
			return err
		}
		uid, err := s.store.Save(ctx, name, path, snap)
		if err != nil {
			return err
		}
		s.log.Info("snapshot saved", zap.String("path", path), zap.Stringer("id", uid))
	}
	return nil
}

// Restore applies the latest stored snapshot of a model. Having none is
// not an error.
func (s *Session) Restore(ctx context.Context, modelID int) error {
	if s.store == nil {
		return nil
	}
	path, ok := s.paths[modelID]
	if !ok {
		return fmt.Errorf("model %d: %w", modelID, errs.ErrNotFound)
	}
	rec, err := s.store.Latest(ctx, path)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.v.RestoreModelState(modelID, rec.Snapshot)
}

// RestoreAll applies the latest snapshot of every loaded model.
func (s *Session) RestoreAll(ctx context.Context) error {
	for id := range s.paths {
		if err := s.Restore(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Show moves the camera to a canonical view.
func (s *Session) Show(view camera.View) { s.v.Show(view) }

// ZoomSelection frames the selection, or everything when nothing is
// selected.
func (s *Session) ZoomSelection() bool {
	return s.v.ZoomTo(s.selection)
}

// CycleMode switches to the next rendering mode.
func (s *Session) CycleMode() gpu.Mode {
	m := (s.v.RenderingMode() + 1) % (gpu.ModeXRayUltra + 1)
	s.v.SetRenderingMode(m)
	return m
}

// HideSelection hides the selected product.
func (s *Session) HideSelection() error {
	ref := s.selection
	if ref == nil {
		return nil
	}
	if err := s.Select(nil); err != nil {
		return err
	}
	return s.v.SetState(state.Hidden, state.ID(ref.ProductID), ref.ModelID)
}

// IsolateSelection hides everything in the selected model except the
// selection.
func (s *Session) IsolateSelection() error {
	if s.selection == nil {
		return nil
	}
	return s.v.Isolate([]int32{s.selection.ProductID}, s.selection.ModelID)
}

// ShowAll resets the states of every model.
func (s *Session) ShowAll() error {
	if err := s.Select(nil); err != nil {
		return err
	}
	return s.v.ResetStates(s.v.HideSpaces(), handle.All)
}

// ClipAtPointer cuts the scene at the product under the last pointer.
func (s *Session) ClipAtPointer() (bool, error) {
	return s.v.ClipAt(s.pointer)
}

// Unclip removes the section planes.
func (s *Session) Unclip() { s.v.Unclip(handle.All) }

// Screenshot writes the current view to a new file and returns its name.
func (s *Session) Screenshot() (string, error) {
	if s.shots == nil {
		return "", fmt.Errorf("no screenshot directory: %w", errs.ErrPreconditionViolation)
	}
	img, err := s.v.CurrentImage(0, 0)
	if err != nil {
		return "", err
	}
	return s.shots.Capture(img)
}

// ToggleGrid shows or hides a ground grid under the scene.
func (s *Session) ToggleGrid() bool {
	if s.overlay == nil {
		return false
	}
	if s.overlay.GridVisible() {
		s.overlay.HideGrid()
		return false
	}
	r, ok := s.v.Region(nil)
	if !ok {
		return false
	}
	s.overlay.ShowGrid(r, debug.GridStep(r, s.v.UnitsPerMeter()))
	return s.overlay.GridVisible()
}

// TurnKeyLight rotates the key light around the vertical axis.
func (s *Session) TurnKeyLight(degrees float32) error {
	a, b := s.v.Lights()
	return s.v.SetLights(lighting.Turn(a, degrees), b)
}

// ToggleRotation starts or stops the turntable.
func (s *Session) ToggleRotation() bool {
	if s.v.Camera().Rotating() {
		s.v.StopRotation()
		return false
	}
	s.v.StartRotation()
	return true
}

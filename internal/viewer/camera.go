package viewer

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/camera"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// region returns the bounding box of ref, or of the loaded scene when ref
// is nil. ref.ModelID may be handle.All.
func (v *Viewer) region(ref *events.ProductRef) (wexbim.Region, bool) {
	if ref == nil {
		return v.reg.MergedRegion()
	}
	if ref.ModelID != handle.All {
		h, err := v.reg.Get(ref.ModelID)
		if err != nil {
			return wexbim.Region{}, false
		}
		return h.ProductRegion(ref.ProductID)
	}
	for _, h := range v.reg.Handles() {
		if r, ok := h.ProductRegion(ref.ProductID); ok {
			return r, true
		}
	}
	return wexbim.Region{}, false
}

// Region returns the bounding box of a product, or of the active models
// for nil.
func (v *Viewer) Region(ref *events.ProductRef) (wexbim.Region, bool) {
	return v.region(ref)
}

// UnitsPerMeter returns the scale of the biggest active model, 1 when
// nothing is loaded.
func (v *Viewer) UnitsPerMeter() float32 {
	if h := v.reg.BiggestHandle(); h != nil && h.UnitsPerMeter > 0 {
		return h.UnitsPerMeter
	}
	return 1
}

// SetCameraTarget makes the centre of a product, or of the whole scene
// for nil, the navigation pivot. The view itself does not change. It
// returns false when the target does not exist.
func (v *Viewer) SetCameraTarget(ref *events.ProductRef) bool {
	r, ok := v.region(ref)
	if !ok {
		return false
	}
	return v.cam.SetTarget(r)
}

// ZoomTo targets a product, or the whole scene for nil, and moves the
// camera so it fills the view.
func (v *Viewer) ZoomTo(ref *events.ProductRef) bool {
	r, ok := v.region(ref)
	if !ok {
		return false
	}
	return v.cam.ZoomTo(r)
}

// SetCameraFromCurrentModel fits the near and far planes to the active
// models.
func (v *Viewer) SetCameraFromCurrentModel() {
	r, ok := v.reg.MergedRegion()
	if !ok {
		return
	}
	v.cam.FitClipPlanes(r, v.UnitsPerMeter())
}

// frameFirstModel points the camera at the first model loaded into an
// empty viewer.
func (v *Viewer) frameFirstModel(ev events.Event) {
	if v.reg.Len() != 1 {
		return
	}
	v.cam.Show(camera.ViewDefault)
	if !v.ZoomTo(nil) {
		return
	}
	v.SetCameraFromCurrentModel()
	origin := v.cam.Origin()
	v.log.Debug("camera framed",
		zap.Int("model", ev.(events.Loaded).ModelID),
		zap.Float32s("origin", origin[:]))
}

// SetCameraPosition moves the eye. Call it after SetCameraTarget.
func (v *Viewer) SetCameraPosition(p mgl32.Vec3) { v.cam.SetPosition(p) }

// CameraPosition returns the eye position.
func (v *Viewer) CameraPosition() mgl32.Vec3 { return v.cam.Position() }

// Show moves the camera to one of the canonical views around the pivot.
func (v *Viewer) Show(view camera.View) { v.cam.Show(view) }

// Navigate applies a pointer drag of dx, dy pixels.
func (v *Viewer) Navigate(kind camera.Navigation, dx, dy float32) {
	v.cam.Navigate(kind, dx, dy)
}

// StartRotation slowly orbits the camera on every frame.
func (v *Viewer) StartRotation() { v.cam.StartRotation() }

// StopRotation stops the orbit started by StartRotation.
func (v *Viewer) StopRotation() { v.cam.StopRotation() }

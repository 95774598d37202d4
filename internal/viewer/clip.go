package viewer

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/clipping"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/internal/engine/picking"
)

// Clipping applies to every model. A model ID is accepted for symmetry
// with the other operations and otherwise ignored.
func (v *Viewer) clipScope(op string, modelID int) {
	if modelID != handle.All {
		v.log.Debug("clipping applies to every model", zap.String("op", op), zap.Int("model", modelID))
	}
}

// Clip hides everything on the side of the plane through point that
// normal points to. It installs plane A.
func (v *Viewer) Clip(point, normal mgl32.Vec3, modelID int) error {
	v.clipScope("clip", modelID)
	return v.clip.Clip(point, normal)
}

// SetClippingPlaneA installs a raw [a b c d] plane in slot A.
func (v *Viewer) SetClippingPlaneA(pl clipping.Plane, modelID int) {
	v.clipScope("set plane a", modelID)
	v.clip.SetA(pl)
}

// SetClippingPlaneB installs a raw [a b c d] plane in slot B.
func (v *Viewer) SetClippingPlaneB(pl clipping.Plane, modelID int) {
	v.clipScope("set plane b", modelID)
	v.clip.SetB(pl)
}

// Unclip removes both planes.
func (v *Viewer) Unclip(modelID int) {
	v.clipScope("unclip", modelID)
	v.clip.Unclip()
}

// ClippingPlanes returns the installed planes.
func (v *Viewer) ClippingPlanes(modelID int) clipping.Set {
	v.clipScope("get planes", modelID)
	return v.clip.Get()
}

// ClipAt cuts the scene across the pointer ray at the depth of the centre
// of the product under p, hiding the part between the cut and the eye. It
// reports false when there is no product under the pointer.
func (v *Viewer) ClipAt(p events.Pointer) (bool, error) {
	hit, err := v.pick.IDsFromEvent(p)
	if err != nil || hit == nil {
		return false, err
	}
	box, ok := v.region(hit)
	if !ok {
		return false, nil
	}

	w, h := v.dev.Size()
	v.cam.Update(w, h)
	ray := picking.ScreenToRay(float32(p.X), float32(p.Y), float32(w), float32(h), v.cam.InverseViewProjection())
	point := mgl32.Vec3(box.Centre())
	if _, ok := ray.IntersectRegion(box); ok {
		point = ray.At(point.Sub(ray.Origin).Dot(ray.Direction))
	}
	if err := v.clip.Clip(point, ray.Direction.Mul(-1)); err != nil {
		return false, err
	}
	v.log.Debug("clipped at product", zap.Stringer("product", hit))
	return true, nil
}

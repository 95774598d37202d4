package viewer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/internal/config"
	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/internal/engine/export"
	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/engine/gpu/gputest"
	"github.com/Faultbox/xviewer/internal/engine/handle"
	"github.com/Faultbox/xviewer/internal/engine/lighting"
	"github.com/Faultbox/xviewer/internal/engine/plugin"
	"github.com/Faultbox/xviewer/internal/engine/state"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

const surface = 16

var white = [4]uint8{255, 255, 255, 255}

func newViewer(t *testing.T) (*Viewer, *gputest.Device) {
	t.Helper()
	dev := gputest.New(surface, surface)
	v, err := New(Options{Device: dev})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(v.Close)
	return v, dev
}

// building returns a model with walls 10 and 12 and space 11 in a row
// along x, starting at offset.
func building(offset float32) *wexbim.Model {
	box := func(i float32) ([3]float32, [3]float32) {
		return [3]float32{offset + 2*i, 0, 0}, [3]float32{offset + 2*i + 1, 1, 1}
	}
	b := wexbim.NewBuilder(1)
	lo, hi := box(0)
	b.AddBox(10, wexbim.TypeWall, lo, hi, white)
	lo, hi = box(1)
	b.AddBox(11, wexbim.TypeSpace, lo, hi, white)
	lo, hi = box(2)
	b.AddBox(12, wexbim.TypeWall, lo, hi, white)
	return b.Build()
}

func single(id int32) *wexbim.Model {
	return wexbim.NewBuilder(1).
		AddBox(id, wexbim.TypeWall, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}, white).
		Build()
}

func mustAdd(t *testing.T, v *Viewer, m *wexbim.Model) int {
	t.Helper()
	id, err := v.Add(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// pointer builds an event whose window position hits pixel (x, y) of the
// bottom-up surface.
func pointer(kind events.PointerKind, b events.Button, x, y int) events.Pointer {
	return events.Pointer{Kind: kind, Button: b, X: x, Y: surface - 1 - y}
}

func TestNewWithoutDevice(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, errs.ErrUnsupportedEnvironment) {
		t.Errorf("err = %v, want ErrUnsupportedEnvironment", err)
	}
}

func TestStyles(t *testing.T) {
	v, _ := newViewer(t)
	mustAdd(t, v, building(0))

	if err := v.DefineStyle(3, []int{255, 0, 0, 255}); err != nil {
		t.Fatal(err)
	}
	if err := v.SetStyle(3, state.ID(10), handle.All); err != nil {
		t.Fatal(err)
	}
	if got := v.Style(10, handle.All); got != 3 {
		t.Errorf("Style(10) = %d, want 3", got)
	}

	tests := []struct {
		name string
		err  error
	}{
		{"short colour", v.DefineStyle(4, []int{255, 0, 0})},
		{"component out of range", v.DefineStyle(4, []int{256, 0, 0, 255})},
		{"undefined style", v.SetStyle(7, state.ID(10), handle.All)},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, errs.ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", tt.name, tt.err)
		}
	}

	if err := v.SetStyle(uint8(state.Unstyled), state.ID(10), handle.All); err != nil {
		t.Fatal(err)
	}
	if got := v.Style(10, handle.All); got != state.NoStyle {
		t.Errorf("Style after unstyle = %d, want NoStyle", got)
	}
	if got := v.Style(999, handle.All); got != 0xFF {
		t.Errorf("Style(unknown) = %d, want 0xFF", got)
	}
}

func TestStatesAcrossModels(t *testing.T) {
	v, _ := newViewer(t)
	a := mustAdd(t, v, single(10))
	b := mustAdd(t, v, single(20))

	if err := v.SetState(state.Hidden, state.IDs{10, 20}, handle.All); err != nil {
		t.Fatal(err)
	}
	if v.State(10, handle.All) != state.Hidden || v.State(20, b) != state.Hidden {
		t.Error("both products should be hidden")
	}
	if got := v.State(20, a); got != state.Undefined {
		t.Errorf("State(20) in the wrong model = %s, want undefined", got)
	}
	if got := v.State(999, handle.All); got != state.Undefined {
		t.Errorf("State(unknown) = %s, want undefined", got)
	}
	if err := v.SetState(state.Hidden, state.ID(10), 42); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("SetState on unknown model: err = %v, want ErrNotFound", err)
	}
	if typ, ok := v.ProductType(10, handle.All); !ok || typ != wexbim.TypeWall {
		t.Errorf("ProductType(10) = %v, %v", typ, ok)
	}
}

func TestHiddenSpacesAndReset(t *testing.T) {
	v, _ := newViewer(t)
	id := mustAdd(t, v, building(0))

	if got := v.State(11, id); got != state.Hidden {
		t.Fatalf("space after load = %s, want hidden", got)
	}
	if err := v.SetState(state.Highlighted, state.ID(10), id); err != nil {
		t.Fatal(err)
	}
	if err := v.ResetStates(true, handle.All); err != nil {
		t.Fatal(err)
	}
	if v.State(10, id) != state.Undefined || v.State(11, id) != state.Hidden {
		t.Errorf("after reset: wall %s, space %s", v.State(10, id), v.State(11, id))
	}

	if err := v.ResetStates(false, id); err != nil {
		t.Fatal(err)
	}
	if got := v.State(11, id); got != state.Undefined {
		t.Errorf("space with spaces shown = %s, want undefined", got)
	}
	if !v.HideSpaces() {
		t.Error("per-call reset changed the load default")
	}

	if err := v.ResetStates(true, id+1); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown model: err = %v", err)
	}

	cfg := config.Default().Viewer
	cfg.HideSpaces = false
	if err := v.Set(cfg); err != nil {
		t.Fatal(err)
	}
	second := mustAdd(t, v, building(20))
	if got := v.State(11, second); got != state.Undefined {
		t.Errorf("space loaded with spaces shown = %s, want undefined", got)
	}
}

func TestModelStateRoundTrip(t *testing.T) {
	v, _ := newViewer(t)
	id := mustAdd(t, v, building(0))
	if err := v.DefineStyle(0, []int{0, 255, 0, 255}); err != nil {
		t.Fatal(err)
	}
	v.SetStyle(0, state.ID(12), id)
	v.SetState(state.XRayVisible, state.ID(10), id)

	snap, err := v.ModelState(id)
	if err != nil {
		t.Fatal(err)
	}
	v.ResetStyles(id)
	v.SetState(state.Hidden, state.IDs{10, 12}, id)

	if err := v.RestoreModelState(id, snap); err != nil {
		t.Fatal(err)
	}
	if v.State(10, id) != state.XRayVisible || v.Style(12, id) != 0 || v.State(12, id) != state.Undefined {
		t.Errorf("restored: 10=%s 12=%s/%d", v.State(10, id), v.State(12, id), v.Style(12, id))
	}

	other := mustAdd(t, v, single(10))
	if err := v.RestoreModelState(other, snap); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("restore into another model: err = %v, want ErrInvalidArgument", err)
	}
}

func TestIsolate(t *testing.T) {
	v, _ := newViewer(t)
	id := mustAdd(t, v, building(0))

	if err := v.Isolate([]int32{12}, id); err != nil {
		t.Fatal(err)
	}
	if v.State(10, id) != state.Hidden || v.State(12, id) != state.Undefined {
		t.Error("only 12 should stay visible")
	}
	got, err := v.Isolated(id)
	if err != nil || len(got) != 1 || got[0] != 12 {
		t.Errorf("Isolated = %v, %v", got, err)
	}
}

func TestLoad(t *testing.T) {
	v, _ := newViewer(t)
	data, err := wexbim.Encode(building(0))
	if err != nil {
		t.Fatal(err)
	}

	var loaded []events.Loaded
	v.On(events.NameLoaded, func(ev events.Event) { loaded = append(loaded, ev.(events.Loaded)) })

	id, err := v.Load(context.Background(), data, "bytes")
	if err != nil {
		t.Fatal(err)
	}
	if id2, err := v.Load(context.Background(), bytes.NewReader(data), "reader"); err != nil || id2 == id {
		t.Fatalf("second load: id %d, err %v", id2, err)
	}
	if len(loaded) != 2 || loaded[0].ModelID != id || loaded[0].Tag != "bytes" {
		t.Errorf("loaded events = %+v", loaded)
	}

	for _, src := range []any{42, nil, struct{}{}} {
		if _, err := v.Load(context.Background(), src, nil); !errors.Is(err, errs.ErrInvalidArgument) {
			t.Errorf("Load(%T): err = %v, want ErrInvalidArgument", src, err)
		}
	}
}

func TestLoadAsync(t *testing.T) {
	v, dev := newViewer(t)
	data, _ := wexbim.Encode(single(5))

	var loaded, failed int
	var failedTag any
	v.On(events.NameLoaded, func(events.Event) { loaded++ })
	v.On(events.NameError, func(ev events.Event) {
		failed++
		failedTag = ev.(events.Error).Tag
	})

	if err := v.LoadAsync(context.Background(), data, "good"); err != nil {
		t.Fatal(err)
	}
	if err := v.LoadAsync(context.Background(), bytes.Repeat([]byte{'x'}, 64), "bad"); err != nil {
		t.Fatal(err)
	}
	if err := v.LoadAsync(context.Background(), 3.14, nil); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("LoadAsync(float): err = %v", err)
	}
	v.Wait()

	if dev.Uploads != 0 {
		t.Error("nothing should be uploaded before Pump")
	}
	if n := v.Pump(); n != 1 {
		t.Errorf("Pump = %d, want 1", n)
	}
	if loaded != 1 || failed != 1 || failedTag != "bad" {
		t.Errorf("loaded %d, failed %d (tag %v)", loaded, failed, failedTag)
	}
	if v.Pump() != 0 {
		t.Error("second Pump should have nothing to do")
	}
}

type unloader struct {
	plugin.Base
	v     *Viewer
	model int
	err   error
}

func (u *unloader) OnBeforeDraw(int, int) error {
	u.err = u.v.Unload(u.model)
	return nil
}

func TestUnload(t *testing.T) {
	v, dev := newViewer(t)
	id := mustAdd(t, v, single(1))

	u := &unloader{v: v, model: id}
	if err := v.AddPlugin(u); err != nil {
		t.Fatal(err)
	}
	if err := v.Draw(); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(u.err, errs.ErrPreconditionViolation) {
		t.Errorf("unload during draw: err = %v, want ErrPreconditionViolation", u.err)
	}
	v.RemovePlugin(u)

	if err := v.Unload(id); err != nil {
		t.Fatal(err)
	}
	if v.IsModelLoaded(id) {
		t.Error("model still loaded")
	}
	_, snapErr := v.ModelState(id)
	checks := map[string]error{
		"unload":     v.Unload(id),
		"setState":   v.SetState(state.Hidden, state.ID(1), id),
		"stop":       v.Stop(id),
		"modelState": snapErr,
	}
	for name, err := range checks {
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("%s after unload: err = %v, want ErrNotFound", name, err)
		}
	}
	if dev.Uploads != 1 {
		t.Errorf("uploads = %d", dev.Uploads)
	}
}

func TestSetCameraTarget(t *testing.T) {
	v, _ := newViewer(t)
	if v.SetCameraTarget(nil) {
		t.Error("SetCameraTarget on an empty viewer should be false")
	}

	m := building(0)
	id := mustAdd(t, v, m)
	if !v.SetCameraTarget(nil) {
		t.Fatal("SetCameraTarget with one model should be true")
	}
	if got := v.Camera().Origin(); !got.ApproxEqual(mgl32.Vec3(m.Region.Centre())) {
		t.Errorf("origin = %v, want %v", got, m.Region.Centre())
	}

	if !v.SetCameraTarget(&events.ProductRef{ProductID: 12, ModelID: id}) {
		t.Fatal("product target should exist")
	}
	if got := v.Camera().Origin(); !got.ApproxEqual(mgl32.Vec3{4.5, 0.5, 0.5}) {
		t.Errorf("origin = %v, want centre of product 12", got)
	}

	for _, ref := range []*events.ProductRef{
		{ProductID: 99, ModelID: handle.All},
		{ProductID: 10, ModelID: 77},
	} {
		if v.SetCameraTarget(ref) || v.ZoomTo(ref) {
			t.Errorf("target %v should not exist", ref)
		}
	}
	if !v.ZoomTo(&events.ProductRef{ProductID: 10, ModelID: handle.All}) {
		t.Error("ZoomTo(10) should succeed")
	}
}

func TestFirstModelIsFramed(t *testing.T) {
	v, _ := newViewer(t)
	m := building(100)
	var origin mgl32.Vec3
	v.On(events.NameLoaded, func(events.Event) { origin = v.Camera().Origin() })

	mustAdd(t, v, m)
	if !origin.ApproxEqual(mgl32.Vec3(m.Region.Centre())) {
		t.Errorf("origin seen by loaded handler = %v, want %v", origin, m.Region.Centre())
	}
	if far := v.Camera().Perspective.Far; far < m.Region.Diagonal() {
		t.Errorf("far plane %g does not cover the model", far)
	}
}

func TestClickPicks(t *testing.T) {
	v, dev := newViewer(t)
	id := mustAdd(t, v, building(0))
	dev.Cover(3, 10, id, 2, mgl32.Vec3{4.5, 0.5, 0.5}, 0.5)

	var picks []events.Pick
	v.On(events.NamePick, func(ev events.Event) { picks = append(picks, ev.(events.Pick)) })

	v.HandlePointer(pointer(events.PointerDown, events.ButtonLeft, 3, 10))
	if err := v.HandlePointer(pointer(events.PointerUp, events.ButtonLeft, 3, 10)); err != nil {
		t.Fatal(err)
	}
	if len(picks) != 1 || picks[0].Hit == nil {
		t.Fatalf("picks = %+v", picks)
	}
	if got := *picks[0].Hit; got != (events.ProductRef{ProductID: 12, ModelID: id}) {
		t.Errorf("hit = %v", got)
	}

	v.HandlePointer(pointer(events.PointerDown, events.ButtonLeft, 0, 0))
	v.HandlePointer(pointer(events.PointerUp, events.ButtonLeft, 0, 0))
	if len(picks) != 2 || picks[1].Hit != nil {
		t.Errorf("background click should fire a pick with no hit: %+v", picks)
	}

	v.ClickPicking = false
	v.HandlePointer(pointer(events.PointerDown, events.ButtonLeft, 3, 10))
	v.HandlePointer(pointer(events.PointerUp, events.ButtonLeft, 3, 10))
	if len(picks) != 2 {
		t.Error("click picking is off")
	}
}

func TestDragNavigates(t *testing.T) {
	v, _ := newViewer(t)
	mustAdd(t, v, building(0))

	var picks, downs int
	v.On(events.NamePick, func(events.Event) { picks++ })
	v.On(events.NameMouseDown, func(events.Event) { downs++ })

	before := v.CameraPosition()
	v.HandlePointer(pointer(events.PointerDown, events.ButtonLeft, 5, 5))
	move := pointer(events.PointerMove, events.ButtonLeft, 15, 5)
	move.DX = 10
	v.HandlePointer(move)
	v.HandlePointer(pointer(events.PointerUp, events.ButtonLeft, 15, 5))

	if picks != 0 {
		t.Error("a drag must not pick")
	}
	if downs != 1 {
		t.Errorf("mouseDown fired %d times", downs)
	}
	if v.CameraPosition().ApproxEqual(before) {
		t.Error("orbit drag should move the eye")
	}

	dist := v.Camera().Distance()
	v.HandlePointer(events.Pointer{Kind: events.PointerWheel, Wheel: 1})
	if v.Camera().Distance() >= dist {
		t.Error("wheel should zoom in")
	}
}

func TestContextMenu(t *testing.T) {
	v, dev := newViewer(t)
	id := mustAdd(t, v, building(0))
	dev.Cover(8, 8, id, 0, mgl32.Vec3{0.5, 0.5, 0.5}, 0.5)

	var menus []events.ContextMenu
	v.On(events.NameContextMenu, func(ev events.Event) { menus = append(menus, ev.(events.ContextMenu)) })
	v.On(events.NamePick, func(events.Event) { t.Error("right click must not pick") })

	v.HandlePointer(pointer(events.PointerDown, events.ButtonRight, 8, 8))
	v.HandlePointer(pointer(events.PointerUp, events.ButtonRight, 8, 8))
	if len(menus) != 1 || menus[0].Hit == nil || menus[0].Hit.ProductID != 10 {
		t.Errorf("context menus = %+v", menus)
	}
}

func TestStopPicking(t *testing.T) {
	v, dev := newViewer(t)
	id := mustAdd(t, v, single(1))
	dev.Cover(2, 2, id, 0, mgl32.Vec3{}, 0.5)

	if err := v.StopPicking(id); err != nil {
		t.Fatal(err)
	}
	if hit, err := v.GetID(2, 2); err != nil || hit != nil {
		t.Errorf("GetID with picking stopped = %v, %v", hit, err)
	}
	v.StartPicking(id)
	if hit, _ := v.GetID(2, 2); hit == nil || hit.ProductID != 1 {
		t.Errorf("GetID = %v, want product 1", hit)
	}
	if !v.IsPickable(id) || !v.IsProductInModel(1, id) {
		t.Error("model should be pickable and own product 1")
	}
}

func TestClipping(t *testing.T) {
	v, dev := newViewer(t)
	id := mustAdd(t, v, building(0))

	if err := v.Clip(mgl32.Vec3{}, mgl32.Vec3{}, handle.All); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("zero normal: err = %v", err)
	}
	// The model ID is ignored: planes are global.
	if err := v.Clip(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 0, 0}, 99); err != nil {
		t.Fatal(err)
	}
	v.SetClippingPlaneB(mgl32.Vec4{0, 0, 1, -5}, handle.All)
	set := v.ClippingPlanes(handle.All)
	if set.A == nil || set.B == nil || *set.A != (mgl32.Vec4{1, 0, 0, -1}) {
		t.Errorf("planes = %+v", set)
	}
	v.Unclip(handle.All)
	if set := v.ClippingPlanes(handle.All); set.A != nil || set.B != nil {
		t.Error("Unclip should clear both planes")
	}

	if ok, err := v.ClipAt(pointer(events.PointerDown, events.ButtonLeft, 1, 1)); ok || err != nil {
		t.Errorf("ClipAt on background = %v, %v", ok, err)
	}
	dev.Cover(8, 8, id, 0, mgl32.Vec3{0.5, 0.5, 0.5}, 0.5)
	ok, err := v.ClipAt(pointer(events.PointerDown, events.ButtonLeft, 8, 8))
	if err != nil || !ok {
		t.Fatalf("ClipAt = %v, %v", ok, err)
	}
	a := *v.ClippingPlanes(handle.All).A
	if eye := v.CameraPosition(); a.Vec3().Dot(eye)+a[3] <= 0 {
		t.Error("the eye side of the cut should be hidden")
	}
	// The cut goes through the centre of wall 10.
	if d := a.Vec3().Dot(mgl32.Vec3{0.5, 0.5, 0.5}) + a[3]; mgl32.Abs(d) > 1e-3 {
		t.Errorf("centre is %g from the cut", d)
	}
	if n := a.Vec3().Len(); mgl32.Abs(n-1) > 1e-4 {
		t.Errorf("normal length = %g", n)
	}
}

func TestTick(t *testing.T) {
	v, dev := newViewer(t)
	if drew, _ := v.Tick(); drew {
		t.Error("idle viewer should not draw")
	}
	id := mustAdd(t, v, single(1))
	v.Start(handle.All)
	if drew, err := v.Tick(); !drew || err != nil {
		t.Fatalf("Tick = %v, %v", drew, err)
	}

	v.Stop(id)
	if drew, _ := v.Tick(); drew {
		t.Error("no active model, nothing to draw")
	}
	v.Start(id)
	v.Stop(handle.All)
	if drew, _ := v.Tick(); drew || v.Running() {
		t.Error("paused loop should not draw")
	}
	if v.Frames() != 1 {
		t.Errorf("frames = %d, want 1", v.Frames())
	}

	// Draw works in every state.
	if err := v.Draw(); err != nil {
		t.Fatal(err)
	}
	if v.Frames() != 2 || dev.Calls[len(dev.Calls)-1].Op != "end" {
		t.Errorf("frames = %d, ops %v", v.Frames(), dev.Ops())
	}
}

func TestStopAllThenStart(t *testing.T) {
	v, _ := newViewer(t)
	a := mustAdd(t, v, single(1))
	b := mustAdd(t, v, building(10))

	v.StopAll()
	if v.Running() || v.IsModelOn(a) || v.IsModelOn(b) {
		t.Fatalf("after StopAll: running %v, on %v %v", v.Running(), v.IsModelOn(a), v.IsModelOn(b))
	}
	if drew, _ := v.Tick(); drew {
		t.Error("stopped viewer drew")
	}

	if err := v.Start(handle.All); err != nil {
		t.Fatal(err)
	}
	if !v.Running() || !v.IsModelOn(a) || !v.IsModelOn(b) {
		t.Fatalf("after Start(All): running %v, on %v %v", v.Running(), v.IsModelOn(a), v.IsModelOn(b))
	}
	if drew, err := v.Tick(); !drew || err != nil {
		t.Errorf("Tick after Start(All) = %v, %v", drew, err)
	}

	v.StopAll()
	v.StartAll()
	if drew, err := v.Tick(); !drew || err != nil {
		t.Errorf("Tick after StartAll = %v, %v", drew, err)
	}
}

func TestCurrentImage(t *testing.T) {
	v, _ := newViewer(t)
	cfg := config.Default().Viewer
	cfg.Background = []int{0, 0, 255, 255}
	if err := v.Set(cfg); err != nil {
		t.Fatal(err)
	}

	img, err := v.CurrentImage(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("size = %v", b)
	}
	if c := img.RGBAAt(3, 1); c.B != 255 || c.R != 0 {
		t.Errorf("pixel = %v, want background", c)
	}

	url, err := v.CurrentImageDataURL(0, 0, export.PNG)
	if err != nil || !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("data URL = %.30q, %v", url, err)
	}

	var buf bytes.Buffer
	if err := v.WriteCurrentImage(&buf, 2, 2, export.BMP); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("BM")) {
		t.Error("not a BMP")
	}
}

func TestSet(t *testing.T) {
	v, _ := newViewer(t)

	cfg := config.Default().Viewer
	cfg.Mode = "xray-ultra"
	cfg.Navigation = "pan"
	if err := v.Set(cfg); err != nil {
		t.Fatal(err)
	}
	if v.RenderingMode() != gpu.ModeXRayUltra || v.Camera().Mode.String() != "pan" {
		t.Errorf("mode %s, navigation %s", v.RenderingMode(), v.Camera().Mode)
	}

	bad := []func(*config.ViewerConfig){
		func(c *config.ViewerConfig) { c.Mode = "sepia" },
		func(c *config.ViewerConfig) { c.Navigation = "fly" },
		func(c *config.ViewerConfig) { c.Camera = "fisheye" },
		func(c *config.ViewerConfig) { c.FOV = 0 },
		func(c *config.ViewerConfig) { c.Background = []int{1, 2} },
		func(c *config.ViewerConfig) { c.LightA = []float32{0, 0, 0, 0.5} },
		func(c *config.ViewerConfig) { c.LightB = []float32{0, 0, 1, 3} },
	}
	for i, mutate := range bad {
		c := config.Default().Viewer
		mutate(&c)
		if err := v.Set(c); !errors.Is(err, errs.ErrInvalidArgument) {
			t.Errorf("case %d: err = %v, want ErrInvalidArgument", i, err)
		}
	}
	if v.RenderingMode() != gpu.ModeXRayUltra {
		t.Error("a rejected Set must not change anything")
	}
}

func TestLights(t *testing.T) {
	v, _ := newViewer(t)
	a, b := v.Lights()
	if a != lighting.Key || b != lighting.Fill {
		t.Errorf("default lights = %v, %v", a, b)
	}
	sun := lighting.Sun(45, 30, 0.9)
	if err := v.SetLights(sun, b); err != nil {
		t.Fatal(err)
	}
	if a, _ := v.Lights(); a != sun {
		t.Errorf("key light = %v, want %v", a, sun)
	}
	if err := v.SetLights(mgl32.Vec4{}, b); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

type recorder struct {
	plugin.Base
	viewer plugin.Viewer
	draws  int
}

func (r *recorder) Init(v plugin.Viewer) error {
	r.viewer = v
	return nil
}

func (r *recorder) OnAfterDraw(int, int) error {
	r.draws++
	return nil
}

func TestPlugins(t *testing.T) {
	v, _ := newViewer(t)
	r := &recorder{}
	if err := v.AddPlugin(r); err != nil {
		t.Fatal(err)
	}
	if r.viewer != v {
		t.Error("plugin should be initialised with the viewer")
	}
	if err := v.Draw(); err != nil {
		t.Fatal(err)
	}
	if r.draws != 1 || len(v.Plugins()) != 1 {
		t.Errorf("draws = %d, plugins = %d", r.draws, len(v.Plugins()))
	}
	if !v.RemovePlugin(r) || v.RemovePlugin(r) {
		t.Error("RemovePlugin should succeed exactly once")
	}
}

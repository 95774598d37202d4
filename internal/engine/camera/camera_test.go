package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/internal/engine/events"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

const eps = 1e-3

func near(a, b float32) bool {
	return math32.Abs(a-b) < eps
}

func vecNear(a, b mgl32.Vec3) bool {
	for i := range a {
		if !near(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestSetTarget(t *testing.T) {
	c := New()
	if c.SetTarget(wexbim.EmptyRegion()) {
		t.Error("empty region should not be a target")
	}
	r := wexbim.Region{Min: [3]float32{0, 0, 0}, Max: [3]float32{4, 2, 6}}
	eye := c.Position()
	if !c.SetTarget(r) {
		t.Fatal("SetTarget failed")
	}
	if !vecNear(c.Origin(), mgl32.Vec3{2, 1, 3}) {
		t.Errorf("origin = %v, want centroid", c.Origin())
	}
	if c.Position() != eye {
		t.Error("SetTarget should keep the eye")
	}
}

func TestPanMovesEyeAndOrigin(t *testing.T) {
	c := New()
	eye, origin := c.Position(), c.Origin()
	dist := c.Distance()

	c.Navigate(NavPan, 10, -5)
	de := c.Position().Sub(eye)
	do := c.Origin().Sub(origin)
	if !vecNear(de, do) {
		t.Errorf("eye moved %v but origin moved %v", de, do)
	}
	if de.Len() == 0 {
		t.Error("pan did not move")
	}
	if !near(c.Distance(), dist) {
		t.Errorf("distance changed: %v -> %v", dist, c.Distance())
	}
}

func TestZoom(t *testing.T) {
	c := New()
	dir := c.Direction()
	dist := c.Distance()

	c.Navigate(NavZoom, 0, 1)
	if c.Distance() >= dist {
		t.Errorf("zoom in: distance %v -> %v", dist, c.Distance())
	}
	if !vecNear(c.Direction(), dir) {
		t.Error("zoom changed view direction")
	}
	for i := 0; i < 200; i++ {
		c.Navigate(NavZoom, 0, 5)
	}
	if c.Distance() <= 0 {
		t.Error("zoom must never pass the pivot")
	}
}

func TestOrbitKeepsDistanceAndUp(t *testing.T) {
	c := New()
	dist := c.Distance()
	for i := 0; i < 50; i++ {
		c.Navigate(NavOrbit, 13, 7)
	}
	if !near(c.Distance(), dist) {
		t.Errorf("distance %v -> %v", dist, c.Distance())
	}
	if c.Up().Dot(mgl32.Vec3{0, 0, 1}) <= 0 {
		t.Errorf("fixed orbit flipped the up vector: %v", c.Up())
	}
	if math32.Abs(c.Up().Dot(c.Direction())) > eps {
		t.Error("up vector not orthogonal to view direction")
	}
}

func TestFreeOrbitKeepsDistance(t *testing.T) {
	c := New()
	dist := c.Distance()
	c.Navigate(NavFreeOrbit, 100, 300)
	if !near(c.Distance(), dist) {
		t.Errorf("distance %v -> %v", dist, c.Distance())
	}
}

func TestNavNoneIgnoresInput(t *testing.T) {
	c := New()
	c.Mode = NavNone
	eye := c.Position()

	for _, b := range []events.Button{events.ButtonLeft, events.ButtonMiddle, events.ButtonRight} {
		c.Navigate(c.ButtonNavigation(b), 20, 20)
	}
	c.Wheel(3)
	if c.Position() != eye {
		t.Error("mode none should ignore all input")
	}
}

func TestButtonNavigation(t *testing.T) {
	c := New()
	c.Mode = NavFreeOrbit
	tests := []struct {
		button events.Button
		want   Navigation
	}{
		{events.ButtonLeft, NavFreeOrbit},
		{events.ButtonRight, NavPan},
		{events.ButtonMiddle, NavPan},
		{events.ButtonNone, NavNone},
	}
	for _, tt := range tests {
		if got := c.ButtonNavigation(tt.button); got != tt.want {
			t.Errorf("button %d -> %s, want %s", tt.button, got, tt.want)
		}
	}
}

func TestShow(t *testing.T) {
	tests := []struct {
		view View
		dir  mgl32.Vec3 // pivot to eye
	}{
		{ViewTop, mgl32.Vec3{0, 0, 1}},
		{ViewBottom, mgl32.Vec3{0, 0, -1}},
		{ViewFront, mgl32.Vec3{0, -1, 0}},
		{ViewBack, mgl32.Vec3{0, 1, 0}},
		{ViewLeft, mgl32.Vec3{-1, 0, 0}},
		{ViewRight, mgl32.Vec3{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			c := New()
			c.SetOrigin(mgl32.Vec3{5, 5, 5})
			dist := c.Distance()
			c.Show(tt.view)
			want := c.Origin().Add(tt.dir.Mul(dist))
			if !vecNear(c.Position(), want) {
				t.Errorf("eye = %v, want %v", c.Position(), want)
			}
			c.Update(800, 600)
			if c.ModelView() == mgl32.Ident4() {
				t.Error("model-view not computed")
			}
		})
	}
}

func TestZoomToFitsRegion(t *testing.T) {
	c := New()
	r := wexbim.Region{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}
	if !c.ZoomTo(r) {
		t.Fatal("ZoomTo failed")
	}
	radius := r.Diagonal() / 2
	want := radius / math32.Sin(mgl32.DegToRad(c.Perspective.FOV)/2)
	if !near(c.Distance(), want) {
		t.Errorf("distance = %v, want %v", c.Distance(), want)
	}
	if c.ZoomTo(wexbim.EmptyRegion()) {
		t.Error("ZoomTo on empty region should fail")
	}
}

func TestZoomToNarrowViewport(t *testing.T) {
	r := wexbim.Region{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}
	radius := r.Diagonal() / 2
	halfY := mgl32.DegToRad(New().Perspective.FOV) / 2

	tests := []struct {
		name          string
		width, height int
		half          float32
		top           float32
	}{
		{"landscape", 200, 100, halfY, radius},
		{"square", 100, 100, halfY, radius},
		{"portrait", 100, 200, math32.Atan(math32.Tan(halfY) * 0.5), 2 * radius},
	}
	for _, tt := range tests {
		c := New()
		c.Update(tt.width, tt.height)
		c.ZoomTo(r)
		if want := radius / math32.Sin(tt.half); !near(c.Distance(), want) {
			t.Errorf("%s: distance = %v, want %v", tt.name, c.Distance(), want)
		}
		if !near(c.Orthogonal.Top, tt.top) {
			t.Errorf("%s: ortho top = %v, want %v", tt.name, c.Orthogonal.Top, tt.top)
		}
		// The sphere fits horizontally too.
		if w := c.Orthogonal.Right - c.Orthogonal.Left; w < 2*radius-1e-3 {
			t.Errorf("%s: ortho width %v < diameter %v", tt.name, w, 2*radius)
		}
	}
}

func TestSetTypeKeepsParameters(t *testing.T) {
	c := New()
	c.Perspective.FOV = 60
	c.Orthogonal.Top = 42
	eye := c.Position()

	c.SetType(Orthogonal)
	c.Update(100, 100)
	c.SetType(Perspective)
	if c.Perspective.FOV != 60 {
		t.Errorf("fov lost: %v", c.Perspective.FOV)
	}
	if c.Orthogonal.Top != 42 {
		t.Errorf("ortho top lost: %v", c.Orthogonal.Top)
	}
	if c.Position() != eye {
		t.Error("switching type moved the eye")
	}
}

func TestFitClipPlanes(t *testing.T) {
	c := New()
	r := wexbim.Region{Min: [3]float32{0, 0, 0}, Max: [3]float32{100000, 50000, 20000}}
	c.FitClipPlanes(r, 1000)
	if c.Perspective.Near <= 0 || c.Perspective.Near >= c.Perspective.Far {
		t.Errorf("near/far = %v/%v", c.Perspective.Near, c.Perspective.Far)
	}
	if c.Perspective.Far < r.Diagonal() {
		t.Errorf("far %v smaller than model diagonal %v", c.Perspective.Far, r.Diagonal())
	}
}

func TestRotationTick(t *testing.T) {
	c := New()
	if c.Tick() {
		t.Error("tick without rotation should not move")
	}
	c.StartRotation()
	eye := c.Position()
	if !c.Tick() || c.Position() == eye {
		t.Error("rotation tick should move the eye")
	}
	c.StopRotation()
	if c.Rotating() {
		t.Error("rotation still on")
	}
}

func TestParse(t *testing.T) {
	if v, err := ParseView("TOP"); err != nil || v != ViewTop {
		t.Errorf("ParseView = %v, %v", v, err)
	}
	if n, err := ParseNavigation("free-orbit"); err != nil || n != NavFreeOrbit {
		t.Errorf("ParseNavigation = %v, %v", n, err)
	}
	if _, err := ParseType("fisheye"); err == nil {
		t.Error("expected error for unknown camera type")
	}
}

// Package lighting describes the two directional lights of the colour
// pass. A light is a Vec4: xyz points from the scene towards the light and
// w is its intensity in [0,1].
package lighting

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Default lights: a strong key light from the front and above, and a weak
// fill from behind.
var (
	Key  = mgl32.Vec4{0, 1000000, 200000, 0.8}
	Fill = mgl32.Vec4{0, -500000, 50000, 0.2}
)

// Sun converts angles in degrees to a light. Azimuth turns around the z
// axis from +y towards +x; elevation is the angle above the ground plane.
func Sun(azimuth, elevation, intensity float32) mgl32.Vec4 {
	az := mgl32.DegToRad(azimuth)
	el := mgl32.DegToRad(elevation)

	// Spherical to Cartesian, z up
	x := math32.Cos(el) * math32.Sin(az)
	y := math32.Cos(el) * math32.Cos(az)
	z := math32.Sin(el)
	return mgl32.Vec4{x, y, z, intensity}
}

// Turn rotates the direction of l around the z axis by degrees, keeping
// its elevation and intensity.
func Turn(l mgl32.Vec4, degrees float32) mgl32.Vec4 {
	d := mgl32.Rotate3DZ(-mgl32.DegToRad(degrees)).Mul3x1(l.Vec3())
	return d.Vec4(l[3])
}

// Validate checks that l has a direction and a usable intensity.
func Validate(l mgl32.Vec4) error {
	if l.Vec3().Len() == 0 {
		return fmt.Errorf("light has no direction")
	}
	if l[3] < 0 || l[3] > 1 {
		return fmt.Errorf("light intensity %g outside [0,1]", l[3])
	}
	return nil
}

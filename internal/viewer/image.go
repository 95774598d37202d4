package viewer

import (
	"fmt"
	"image"
	"io"

	"github.com/Faultbox/xviewer/internal/engine/export"
)

// CurrentImage renders one frame offscreen at width x height, or at the
// surface size when either is zero, and returns it top row first.
func (v *Viewer) CurrentImage(width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		width, height = v.dev.Size()
	}
	t, err := v.dev.NewTarget(width, height)
	if err != nil {
		return nil, fmt.Errorf("create image target: %w", err)
	}
	defer t.Destroy()

	if err := v.pipe.Draw(t); err != nil {
		return nil, err
	}
	img, err := v.dev.ReadImage(t)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return export.FromGL(img), nil
}

// CurrentImageDataURL renders a frame and encodes it as a data URL.
func (v *Viewer) CurrentImageDataURL(width, height int, f export.Format) (string, error) {
	img, err := v.CurrentImage(width, height)
	if err != nil {
		return "", err
	}
	return export.DataURL(img, f)
}

// WriteCurrentImage renders a frame and encodes it to w.
func (v *Viewer) WriteCurrentImage(w io.Writer, width, height int, f export.Format) error {
	img, err := v.CurrentImage(width, height)
	if err != nil {
		return err
	}
	return export.Encode(w, img, f)
}

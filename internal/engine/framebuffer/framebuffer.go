// Package framebuffer provides offscreen render targets. Colour
// attachments use nearest filtering so identification colours are never
// blended when sampled.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/xviewer/internal/engine/errs"
)

// Framebuffer manages an offscreen render target with color and depth attachments.
type Framebuffer struct {
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	width        int32
	height       int32
}

// New creates a new framebuffer with the specified dimensions.
func New(width, height int) (*Framebuffer, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("framebuffer size %dx%d: %w", width, height, errs.ErrInvalidArgument)
	}

	fb := &Framebuffer{
		width:  int32(width),
		height: int32(height),
	}
	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}
	return fb, nil
}

func (fb *Framebuffer) create() error {
	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	gl.GenTextures(1, &fb.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, fb.width, fb.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)

	gl.GenRenderbuffers(1, &fb.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, fb.width, fb.height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Destroy()
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

// BindWithViewport binds and sets viewport, saving previous state.
// Returns a restore function to restore the previous framebuffer and viewport.
func (fb *Framebuffer) BindWithViewport() func() {
	return BindDefault(fb.fbo, int(fb.width), int(fb.height))
}

// BindDefault binds fbo (0 for the window surface) with a w x h viewport
// and returns a function restoring the previous binding.
func BindDefault(fbo uint32, w, h int) func() {
	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, int32(w), int32(h))

	return func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
		gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
	}
}

// FBO returns the underlying framebuffer object ID.
func (fb *Framebuffer) FBO() uint32 {
	return fb.fbo
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (width, height int) {
	return int(fb.width), int(fb.height)
}

// Resize reallocates the attachments when the dimensions change.
func (fb *Framebuffer) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if int32(width) == fb.width && int32(height) == fb.height {
		return
	}
	fb.width = int32(width)
	fb.height = int32(height)

	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, fb.width, fb.height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, fb.width, fb.height)
}

// ReadPixels reads a w x h rectangle at (x, y) of framebuffer fbo into
// RGBA bytes, rows bottom-up as stored by OpenGL.
func ReadPixels(fbo uint32, x, y, w, h int) []byte {
	pixels := make([]byte, w*h*4)

	var prevFBO int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)

	gl.ReadPixels(int32(x), int32(y), int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prevFBO))
	return pixels
}

// ReadPixel returns the RGBA value at (x, y), origin bottom-left.
func (fb *Framebuffer) ReadPixel(x, y int) ([4]uint8, error) {
	if x < 0 || y < 0 || x >= int(fb.width) || y >= int(fb.height) {
		return [4]uint8{}, fmt.Errorf("pixel (%d,%d) outside %dx%d: %w", x, y, fb.width, fb.height, errs.ErrInvalidArgument)
	}
	var px [4]uint8
	copy(px[:], ReadPixels(fb.fbo, x, y, 1, 1))
	return px, nil
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
	if fb.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.depthRBO)
		fb.depthRBO = 0
	}
}

// Package renderer implements gpu.Device on OpenGL 4.1 core.
package renderer

import (
	"fmt"
	"image"
	"math"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/engine/framebuffer"
	"github.com/Faultbox/xviewer/internal/engine/gpu"
	"github.com/Faultbox/xviewer/internal/engine/renderer/shaders"
	"github.com/Faultbox/xviewer/internal/engine/shader"
	"github.com/Faultbox/xviewer/internal/logger"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

var uniformNames = []string{
	"uProjection", "uModelView", "uStates", "uStateSize", "uPalette",
	"uPass", "uPhase", "uMode", "uModelID", "uHighlight", "uLightA", "uLightB",
	"uAlpha", "uClipA", "uClipB", "uClipAOn", "uClipBOn",
}

const (
	unitStates  = 0
	unitPalette = 1
)

// Info describes the OpenGL context.
type Info struct {
	Version        string
	Renderer       string
	Major, Minor   int
	MaxTextureSize int
}

// Renderer is the OpenGL device. It must only be used from the thread
// owning the context.
type Renderer struct {
	size    func() (int, int)
	program *shader.Program
	palette uint32
	info    Info

	restore func()
	target  gpu.Target
	pass    gpu.Pass
	log     *zap.Logger
}

// New creates the device. size reports the drawable size of the window
// surface.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(size func() (int, int)) (*Renderer, error) {
	if err := InitGL(); err != nil {
		return nil, err
	}
	r := &Renderer{size: size, log: logger.Named("renderer")}
	r.info = QueryInfo()
	r.log.Info("OpenGL initialized",
		zap.String("version", r.info.Version),
		zap.String("renderer", r.info.Renderer),
		zap.Int("max_texture", r.info.MaxTextureSize))

	var err error
	r.program, err = shader.New(shaders.ProductVertexShader, shaders.ProductFragmentShader, uniformNames...)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	gl.GenTextures(1, &r.palette)
	gl.BindTexture(gl.TEXTURE_2D, r.palette)
	setNearest()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 256, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	gl.DepthFunc(gl.LESS)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return r, nil
}

// InitGL loads the OpenGL entry points for the current context.
func InitGL() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %v: %w", err, errs.ErrUnsupportedEnvironment)
	}
	return nil
}

// QueryInfo reads the version strings and limits of the current context.
func QueryInfo() Info {
	var info Info
	info.Version = gl.GoStr(gl.GetString(gl.VERSION))
	info.Renderer = gl.GoStr(gl.GetString(gl.RENDERER))
	var major, minor, maxTex int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)
	info.Major, info.Minor, info.MaxTextureSize = int(major), int(minor), int(maxTex)
	return info
}

// Info returns the context description gathered at start-up.
func (r *Renderer) Info() Info { return r.info }

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.palette != 0 {
		gl.DeleteTextures(1, &r.palette)
		r.palette = 0
	}
	if r.program != nil {
		r.program.Delete()
	}
}

func setNearest() {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
}

// buffers is one uploaded model.
type buffers struct {
	vao       uint32
	vbo       [4]uint32
	ebo       uint32
	states    uint32
	stateSize int32
	indices   int32
	products  int
}

func (b *buffers) Products() int { return b.products }

func (b *buffers) Release() {
	if b.vao == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteBuffers(int32(len(b.vbo)), &b.vbo[0])
	gl.DeleteBuffers(1, &b.ebo)
	gl.DeleteTextures(1, &b.states)
	*b = buffers{}
}

// stateSize returns the edge of the square state texture for n products.
func stateSize(n int) int32 {
	s := int32(math.Ceil(math.Sqrt(float64(n))))
	if s < 1 {
		s = 1
	}
	return s
}

// Upload copies model geometry to the GPU and allocates its state texture
// with every product UNDEFINED and unstyled.
func (r *Renderer) Upload(m *wexbim.Model) (gpu.Buffers, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	size := stateSize(len(m.Products))
	if int(size) > r.info.MaxTextureSize && r.info.MaxTextureSize > 0 {
		return nil, fmt.Errorf("%d products need a %d texture, limit %d: %w",
			len(m.Products), size, r.info.MaxTextureSize, errs.ErrUnsupportedEnvironment)
	}
	b := &buffers{stateSize: size, indices: int32(len(m.Indices)), products: len(m.Products)}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.GenBuffers(int32(len(b.vbo)), &b.vbo[0])

	floatAttrib(b.vbo[0], 0, 3, m.Positions)
	floatAttrib(b.vbo[1], 1, 3, m.Normals)

	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo[2])
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Colors), ptr(m.Colors), gl.STATIC_DRAW)
	gl.VertexAttribPointer(2, 4, gl.UNSIGNED_BYTE, true, 4, nil)
	gl.EnableVertexAttribArray(2)

	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo[3])
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Slots)*4, ptr(m.Slots), gl.STATIC_DRAW)
	gl.VertexAttribIPointer(3, 1, gl.UNSIGNED_INT, 4, nil)
	gl.EnableVertexAttribArray(3)

	gl.GenBuffers(1, &b.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, ptr(m.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	gl.GenTextures(1, &b.states)
	gl.BindTexture(gl.TEXTURE_2D, b.states)
	setNearest()
	texels := make([]uint8, int(size)*int(size)*2)
	for i := range texels {
		texels[i] = 0xFF
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RG8UI, size, size, 0, gl.RG_INTEGER, gl.UNSIGNED_BYTE, gl.Ptr(texels))

	r.log.Debug("model uploaded",
		zap.Int("vertices", m.VertexCount()),
		zap.Int("triangles", len(m.Indices)/3),
		zap.Int32("state_texture", size))
	return b, nil
}

func floatAttrib(vbo, index uint32, n int32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, ptr(data), gl.STATIC_DRAW)
	gl.VertexAttribPointer(index, n, gl.FLOAT, false, n*4, nil)
	gl.EnableVertexAttribArray(index)
}

// ptr returns a pointer to the first element, or nil for an empty slice.
func ptr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}

func (r *Renderer) owned(b gpu.Buffers) (*buffers, error) {
	buf, ok := b.(*buffers)
	if !ok || buf.vao == 0 {
		return nil, fmt.Errorf("buffers not owned by this device or released: %w", errs.ErrInvalidArgument)
	}
	return buf, nil
}

// UpdateStates replaces the state texture of b. entries are packed as
// state<<8 | style, one per product slot.
func (r *Renderer) UpdateStates(b gpu.Buffers, entries []uint16) error {
	buf, err := r.owned(b)
	if err != nil {
		return err
	}
	if len(entries) != buf.products {
		return fmt.Errorf("%d state entries for %d products: %w", len(entries), buf.products, errs.ErrInvalidArgument)
	}
	texels := make([]uint8, int(buf.stateSize)*int(buf.stateSize)*2)
	for i := range texels {
		texels[i] = 0xFF
	}
	for i, e := range entries {
		texels[i*2] = uint8(e >> 8)
		texels[i*2+1] = uint8(e)
	}
	gl.BindTexture(gl.TEXTURE_2D, buf.states)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, buf.stateSize, buf.stateSize, gl.RG_INTEGER, gl.UNSIGNED_BYTE, gl.Ptr(texels))
	return nil
}

// UpdatePalette replaces the 256-entry style palette.
func (r *Renderer) UpdatePalette(texels []uint8) error {
	if len(texels) != 256*4 {
		return fmt.Errorf("palette has %d bytes: %w", len(texels), errs.ErrInvalidArgument)
	}
	gl.BindTexture(gl.TEXTURE_2D, r.palette)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, 256, 1, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(texels))
	return nil
}

// NewTarget allocates an offscreen framebuffer.
func (r *Renderer) NewTarget(width, height int) (gpu.Target, error) {
	return framebuffer.New(width, height)
}

// Size returns the drawable size of the window surface.
func (r *Renderer) Size() (int, int) { return r.size() }

func (r *Renderer) bind(t gpu.Target) (func(), error) {
	if t == nil {
		w, h := r.size()
		return framebuffer.BindDefault(0, w, h), nil
	}
	fb, ok := t.(*framebuffer.Framebuffer)
	if !ok {
		return nil, fmt.Errorf("target %T not owned by this device: %w", t, errs.ErrInvalidArgument)
	}
	return fb.BindWithViewport(), nil
}

// Begin binds target, clears it and sets the frame uniforms.
func (r *Renderer) Begin(t gpu.Target, pass gpu.Pass, u gpu.FrameUniforms) error {
	if r.restore != nil {
		return fmt.Errorf("pass already open: %w", errs.ErrPreconditionViolation)
	}
	restore, err := r.bind(t)
	if err != nil {
		return err
	}
	r.restore, r.target, r.pass = restore, t, pass

	if pass == gpu.PassID {
		gl.ClearColor(0, 0, 0, 0)
	} else {
		bg := u.Background
		gl.ClearColor(bg[0], bg[1], bg[2], bg[3])
	}
	gl.DepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)

	p := r.program
	p.Use()
	p.SetMat4("uProjection", u.Projection)
	p.SetMat4("uModelView", u.ModelView)
	p.SetVec4("uClipA", u.ClipA)
	p.SetVec4("uClipB", u.ClipB)
	p.SetBool("uClipAOn", u.ClipAOn)
	p.SetBool("uClipBOn", u.ClipBOn)
	p.SetVec4("uHighlight", u.Highlight)
	p.SetVec4("uLightA", u.LightA)
	p.SetVec4("uLightB", u.LightB)
	p.SetInt("uMode", int32(u.Mode))
	p.SetInt("uPass", int32(pass))
	p.SetInt("uStates", unitStates)
	p.SetInt("uPalette", unitPalette)

	gl.ActiveTexture(gl.TEXTURE0 + unitPalette)
	gl.BindTexture(gl.TEXTURE_2D, r.palette)
	return nil
}

// Draw submits one model.
func (r *Renderer) Draw(b gpu.Buffers, u gpu.ModelUniforms) error {
	if r.restore == nil {
		return fmt.Errorf("draw outside a pass: %w", errs.ErrPreconditionViolation)
	}
	buf, err := r.owned(b)
	if err != nil {
		return err
	}

	if u.DepthTest || r.pass == gpu.PassID {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if u.Phase == gpu.PhaseTranslucent && r.pass == gpu.PassColor {
		gl.Enable(gl.BLEND)
		gl.DepthMask(false)
	} else {
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
	}

	p := r.program
	p.SetUint("uModelID", uint32(u.ModelID))
	p.SetInt("uPhase", int32(u.Phase))
	p.SetFloat("uAlpha", u.Alpha)
	p.SetInt("uStateSize", buf.stateSize)

	gl.ActiveTexture(gl.TEXTURE0 + unitStates)
	gl.BindTexture(gl.TEXTURE_2D, buf.states)

	gl.BindVertexArray(buf.vao)
	gl.DrawElements(gl.TRIANGLES, buf.indices, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
	return nil
}

// End restores the previous framebuffer binding.
func (r *Renderer) End() error {
	if r.restore == nil {
		return fmt.Errorf("end outside a pass: %w", errs.ErrPreconditionViolation)
	}
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	r.restore()
	r.restore, r.target = nil, nil
	return nil
}

func (r *Renderer) readTarget(t gpu.Target) (fbo uint32, w, h int, err error) {
	if t == nil {
		w, h = r.size()
		return 0, w, h, nil
	}
	fb, ok := t.(*framebuffer.Framebuffer)
	if !ok {
		return 0, 0, 0, fmt.Errorf("target %T not owned by this device: %w", t, errs.ErrInvalidArgument)
	}
	w, h = fb.Size()
	return fb.FBO(), w, h, nil
}

// ReadPixel returns the RGBA value at (x, y), origin bottom-left.
func (r *Renderer) ReadPixel(t gpu.Target, x, y int) ([4]uint8, error) {
	if fb, ok := t.(*framebuffer.Framebuffer); ok {
		return fb.ReadPixel(x, y)
	}
	fbo, w, h, err := r.readTarget(t)
	if err != nil {
		return [4]uint8{}, err
	}
	if x < 0 || y < 0 || x >= w || y >= h {
		return [4]uint8{}, fmt.Errorf("pixel (%d,%d) outside %dx%d: %w", x, y, w, h, errs.ErrInvalidArgument)
	}
	var px [4]uint8
	copy(px[:], framebuffer.ReadPixels(fbo, x, y, 1, 1))
	return px, nil
}

// ReadImage returns the whole target with rows bottom-up.
func (r *Renderer) ReadImage(t gpu.Target) (*image.RGBA, error) {
	fbo, w, h, err := r.readTarget(t)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Pix = framebuffer.ReadPixels(fbo, 0, 0, w, h)
	return img, nil
}

var _ gpu.Device = (*Renderer)(nil)

package debug

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xviewer/internal/engine/camera"
	"github.com/Faultbox/xviewer/internal/engine/plugin"
	"github.com/Faultbox/xviewer/internal/engine/shader"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

//go:embed shaders/lines.vert
var linesVertexShader string

//go:embed shaders/lines.frag
var linesFragmentShader string

// Overlay is a plugin drawing a selection box and a ground grid on top of
// the colour pass. It needs the OpenGL device.
type Overlay struct {
	plugin.Base

	SelectionColor mgl32.Vec4
	GridColor      mgl32.Vec4

	cam      *camera.Camera
	program  *shader.Program
	vao, vbo uint32

	selection []float32
	grid      []float32
}

// NewOverlay creates an overlay with nothing to draw.
func NewOverlay() *Overlay {
	return &Overlay{
		SelectionColor: mgl32.Vec4{1, 0.6, 0, 1},
		GridColor:      mgl32.Vec4{0.6, 0.6, 0.6, 1},
	}
}

// Init compiles the line program.
func (o *Overlay) Init(v plugin.Viewer) error {
	o.cam = v.Camera()
	p, err := shader.New(linesVertexShader, linesFragmentShader, "uProjection", "uModelView", "uColor")
	if err != nil {
		return fmt.Errorf("overlay shader: %w", err)
	}
	o.program = p

	gl.GenVertexArrays(1, &o.vao)
	gl.GenBuffers(1, &o.vbo)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.BindVertexArray(0)
	return nil
}

// Select outlines r. An empty region clears the selection.
func (o *Overlay) Select(r wexbim.Region) {
	o.selection = RegionLines(r, DefaultBoxPadding)
}

// ClearSelection removes the selection box.
func (o *Overlay) ClearSelection() { o.selection = nil }

// ShowGrid lays a ground grid under r with the given spacing.
func (o *Overlay) ShowGrid(r wexbim.Region, step float32) {
	o.grid = GridLines(r, step)
}

// HideGrid removes the ground grid.
func (o *Overlay) HideGrid() { o.grid = nil }

// GridVisible reports whether a grid is drawn.
func (o *Overlay) GridVisible() bool { return len(o.grid) > 0 }

func (o *Overlay) lines(vertices []float32, color mgl32.Vec4) {
	if len(vertices) == 0 {
		return
	}
	o.program.SetVec4("uColor", color)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STREAM_DRAW)
	gl.DrawArrays(gl.LINES, 0, int32(len(vertices)/3))
}

// OnAfterDraw draws the grid depth tested and the selection box on top.
func (o *Overlay) OnAfterDraw(width, height int) error {
	if o.program == nil || (len(o.grid) == 0 && len(o.selection) == 0) {
		return nil
	}
	o.program.Use()
	o.program.SetMat4("uProjection", o.cam.Projection())
	o.program.SetMat4("uModelView", o.cam.ModelView())
	gl.BindVertexArray(o.vao)

	gl.Enable(gl.DEPTH_TEST)
	o.lines(o.grid, o.GridColor)
	gl.Disable(gl.DEPTH_TEST)
	o.lines(o.selection, o.SelectionColor)
	gl.Enable(gl.DEPTH_TEST)

	gl.BindVertexArray(0)
	return nil
}

// Destroy releases the GL objects.
func (o *Overlay) Destroy() {
	if o.program != nil {
		o.program.Delete()
		o.program = nil
	}
	if o.vbo != 0 {
		gl.DeleteBuffers(1, &o.vbo)
		o.vbo = 0
	}
	if o.vao != 0 {
		gl.DeleteVertexArrays(1, &o.vao)
		o.vao = 0
	}
}

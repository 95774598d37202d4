// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ProductVertexShader looks up per-product state and style and computes
// either the shaded colour or the identification colour.
//
//go:embed product.vert
var ProductVertexShader string

// ProductFragmentShader applies the clipping planes and writes the colour
// chosen by the vertex stage.
//
//go:embed product.frag
var ProductFragmentShader string

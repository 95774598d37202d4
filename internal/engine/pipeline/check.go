package pipeline

import (
	"fmt"
	"strings"
)

// Environment describes the rendering context available to the viewer.
// window.Probe gathers it without opening a visible window.
type Environment struct {
	VideoAvailable bool
	Displays       int
	GLMajor        int
	GLMinor        int
	Renderer       string
	MaxTextureSize int
	DepthBits      int
	ProbeError     error
}

// Prerequisites are the outcome of Check. Errors make the viewer unusable;
// warnings mean degraded operation.
type Prerequisites struct {
	Warnings []string
	Errors   []string
}

// NoErrors reports whether the viewer can run.
func (p Prerequisites) NoErrors() bool { return len(p.Errors) == 0 }

// NoWarnings reports whether the viewer can run without degradation.
func (p Prerequisites) NoWarnings() bool { return len(p.Warnings) == 0 }

const (
	minGLMajor = 4
	minGLMinor = 1

	// State tables are square textures; this edge holds 16M products.
	fullTextureSize = 4096
)

// Check evaluates env against what the renderer needs.
func Check(env Environment) Prerequisites {
	var p Prerequisites
	if env.ProbeError != nil {
		p.Errors = append(p.Errors, fmt.Sprintf("rendering context unavailable: %v", env.ProbeError))
		return p
	}
	if !env.VideoAvailable {
		p.Errors = append(p.Errors, "no video subsystem")
		return p
	}
	if env.Displays == 0 {
		p.Errors = append(p.Errors, "no display attached")
	}
	if env.GLMajor < minGLMajor || (env.GLMajor == minGLMajor && env.GLMinor < minGLMinor) {
		p.Errors = append(p.Errors, fmt.Sprintf("OpenGL %d.%d found, %d.%d core required",
			env.GLMajor, env.GLMinor, minGLMajor, minGLMinor))
	}
	if env.MaxTextureSize > 0 && env.MaxTextureSize < fullTextureSize {
		p.Warnings = append(p.Warnings, fmt.Sprintf("max texture size %d limits models to %d products",
			env.MaxTextureSize, env.MaxTextureSize*env.MaxTextureSize))
	}
	if env.DepthBits > 0 && env.DepthBits < 24 {
		p.Warnings = append(p.Warnings, fmt.Sprintf("%d-bit depth buffer may cause z-fighting", env.DepthBits))
	}
	r := strings.ToLower(env.Renderer)
	if strings.Contains(r, "llvmpipe") || strings.Contains(r, "software") || strings.Contains(r, "swrast") {
		p.Warnings = append(p.Warnings, "software renderer in use: "+env.Renderer)
	}
	return p
}

//go:build tinygo || !cgo

package gleval

import "errors"

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// Gather runs the ghost gather compute shader over field and stores the padded blocks in dst.
func (g *GhostGatherGPU) Gather(dst, field []float32) error {
	return errNoCGO
}

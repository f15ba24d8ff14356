//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Init1x1GLFW starts a 1x1 sized invisible GLFW window so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
// The calling goroutine must be locked to its OS thread with [runtime.LockOSThread].
func Init1x1GLFW() (terminate func(), err error) {
	err = glfw.Init()
	if err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(1, 1, "compute", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	window.MakeContextCurrent()
	err = gl.Init()
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, err
	}
	return func() {
		window.Destroy()
		glfw.Terminate()
	}, nil
}

// Gather runs the ghost gather compute shader over field and stores the padded blocks in dst.
// See [GatherGhostsCPU] for buffer layout.
func (g *GhostGatherGPU) Gather(dst, field []float32) error {
	if g.shader == "" {
		return errors.New("GhostGatherGPU not configured before first use")
	}
	err := checkGatherBuffers(dst, field, g.tbl)
	if err != nil {
		return err
	}
	prog, err := glgl.CompileProgram(glgl.ShaderSource{Compute: g.shader})
	if err != nil {
		return fmt.Errorf("compiling ghost gather program: %w", err)
	}
	prog.Bind()
	defer prog.Delete()
	defer prog.Unbind()

	var p runtime.Pinner
	var ssboField, ssboHash, ssboOut uint32
	p.Pin(&ssboField)
	p.Pin(&ssboHash)
	p.Pin(&ssboOut)
	defer p.Unpin()
	ssboField = loadSSBO(field, 0, gl.STATIC_DRAW)
	if ssboField == 0 {
		return glErrOrMessage("loading field SSBO got zero id")
	}
	defer gl.DeleteBuffers(1, &ssboField)
	ssboHash = loadSSBO(g.tbl.Hash, 1, gl.STATIC_DRAW)
	if ssboHash == 0 {
		return glErrOrMessage("loading ghost hash SSBO got zero id")
	}
	defer gl.DeleteBuffers(1, &ssboHash)
	ssboOut = createSSBO(elemSize[float32]()*len(dst), 2, gl.DYNAMIC_READ)
	if ssboOut == 0 {
		return glErrOrMessage("zero id SSBO creating padded output buffer")
	}
	defer gl.DeleteBuffers(1, &ssboOut)
	err = glgl.Err()
	if err != nil {
		return err
	}

	nWorkX := (len(dst) + g.invocX - 1) / g.invocX
	gl.DispatchCompute(uint32(nWorkX), 1, 1)
	err = glgl.Err()
	if err != nil {
		return err
	}
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	err = copySSBO(dst, ssboOut)
	if err != nil {
		return err
	}
	return glgl.Err()
}

func loadSSBO[T any](slice []T, base, usage uint32) (ssbo uint32) {
	var p runtime.Pinner
	p.Pin(&ssbo)
	gl.GenBuffers(1, &ssbo)
	p.Unpin()
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	size := len(slice) * elemSize[T]()
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, unsafe.Pointer(&slice[0]), usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func createSSBO(size int, base, usage uint32) (ssbo uint32) {
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, usage)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, base, ssbo)
	return ssbo
}

func copySSBO[T any](dst []T, ssbo uint32) error {
	bufSize := elemSize[T]() * len(dst)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, bufSize, gl.MAP_READ_BIT)
	if ptr == nil {
		return glErrOrMessage("failed to map SSBO buffer during copy")
	}
	defer gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	gpuBytes := unsafe.Slice((*byte)(ptr), bufSize)
	bufBytes := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), bufSize)
	copy(bufBytes, gpuBytes)
	return nil
}

func elemSize[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

func glErrOrMessage(defaultMsg string) (err error) {
	err = glgl.Err()
	if err == nil {
		err = errors.New(defaultMsg)
	} else {
		err = fmt.Errorf("%s: %w", defaultMsg, err)
	}
	return err
}

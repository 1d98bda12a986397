// Package soft implements device.Device on the CPU. Buffers are plain word slices, queries
// read a host clock, and programs run as Go kernels registered per shader basename. Kernel
// invocations are spread across a worker pool so that atomics in kernels see real contention,
// which is what the hash table and work-list tests rely on.
package soft

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

// Device is the software device. It is not an interface-wrapped type because tests reach
// for its inspection methods (Commands, RegisterKernel, FailNextUnmap) directly.
type Device struct {
	pool    worker.DynamicWorkerPool
	workers int
	chunk   uint32
	clock   func() uint64
	start   time.Time

	kernels map[string]Kernel

	mu       sync.Mutex
	commands []string
	errs     []error

	program     *program
	bindings    map[device.BufferTarget]map[uint32]*buffer
	textures    map[uint32]*texture
	framebuffer *framebuffer
	viewport    common.Resolution
	depth       device.DepthState
	colorMask   bool

	counters      []*counterQuery
	unmapFailures map[string]int
	live          int
	released      bool
}

var _ device.Device = &Device{}

// NewDevice creates a software device.
//
// Parameters:
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - *Device: the device, ready for use from a single host goroutine
func NewDevice(options ...DeviceBuilderOption) *Device {
	d := &Device{
		workers:       4,
		chunk:         64,
		start:         time.Now(),
		kernels:       make(map[string]Kernel),
		bindings:      make(map[device.BufferTarget]map[uint32]*buffer),
		textures:      make(map[uint32]*texture),
		viewport:      common.Resolution{Width: 64, Height: 64},
		colorMask:     true,
		unmapFailures: make(map[string]int),
	}
	d.clock = func() uint64 { return uint64(time.Since(d.start).Nanoseconds()) }

	for _, option := range options {
		option(d)
	}

	if d.pool == nil {
		d.pool = worker.NewDynamicWorkerPool(d.workers, 256, time.Second)
	}
	return d
}

// RegisterKernel installs k as the implementation of every program whose label is basename.
// Registering again replaces the previous kernel.
//
// Parameters:
//   - basename: the shader basename, e.g. "03_dais_compute_pass"
//   - k: the kernel run once per invocation
func (d *Device) RegisterKernel(basename string, k Kernel) {
	d.kernels[basename] = k
}

// Commands returns a copy of the command log.
func (d *Device) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

// ResetCommands clears the command log.
func (d *Device) ResetCommands() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = d.commands[:0]
}

// CountCommands returns how many logged commands start with prefix.
func (d *Device) CountCommands(prefix string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.commands {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// KernelErrors returns and clears the errors returned by kernels since the last call.
func (d *Device) KernelErrors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	errs := d.errs
	d.errs = nil
	return errs
}

// FailNextUnmap makes the next Unmap of any buffer labelled label report corruption.
func (d *Device) FailNextUnmap(label string) {
	d.unmapFailures[label]++
}

// Live returns the number of created resources that have not been released.
func (d *Device) Live() int {
	return d.live
}

// ViewportSize returns the current viewport size.
func (d *Device) ViewportSize() common.Resolution {
	return d.viewport
}

func (d *Device) record(format string, args ...any) {
	d.mu.Lock()
	d.commands = append(d.commands, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

func (d *Device) recordErr(err error) {
	d.mu.Lock()
	d.errs = append(d.errs, err)
	d.mu.Unlock()
}

func (d *Device) consumeUnmapFailure(label string) bool {
	if d.unmapFailures[label] == 0 {
		return false
	}
	d.unmapFailures[label]--
	return true
}

func (d *Device) UseProgram(p device.Program) {
	if p == nil {
		d.program = nil
		d.record("UseProgram <nil>")
		return
	}
	d.program = p.(*program)
	d.record("UseProgram %s", p.Label())
}

func (d *Device) BindBuffer(target device.BufferTarget, index uint32, b device.Buffer) {
	m, ok := d.bindings[target]
	if !ok {
		m = make(map[uint32]*buffer)
		d.bindings[target] = m
	}
	if b == nil {
		delete(m, index)
		d.record("BindBuffer %s %d <nil>", targetName(target), index)
		return
	}
	m[index] = b.(*buffer)
	d.record("BindBuffer %s %d %s", targetName(target), index, b.Label())
}

func (d *Device) BindFramebuffer(fb device.Framebuffer) {
	if fb == nil {
		d.framebuffer = nil
		d.record("BindFramebuffer default")
		return
	}
	d.framebuffer = fb.(*framebuffer)
	d.record("BindFramebuffer %s", fb.Label())
}

func (d *Device) BindTexture(unit uint32, t device.Texture) {
	if t == nil {
		delete(d.textures, unit)
		d.record("BindTexture %d <nil>", unit)
		return
	}
	d.textures[unit] = t.(*texture)
	d.record("BindTexture %d %s", unit, t.Label())
}

func (d *Device) Viewport(res common.Resolution) {
	d.viewport = res
	d.record("Viewport %s", res)
}

func (d *Device) Clear(flags device.ClearFlags) {
	var parts []string
	if flags&device.ClearColor != 0 {
		parts = append(parts, "color")
	}
	if flags&device.ClearDepth != 0 {
		parts = append(parts, "depth")
	}
	d.record("Clear %s", strings.Join(parts, "|"))
}

func (d *Device) SetDepthState(state device.DepthState) {
	d.depth = state
	d.record("SetDepthState test=%t write=%t func=%d", state.Test, state.Write, state.Func)
}

// DepthState returns the current depth state.
func (d *Device) DepthState() device.DepthState {
	return d.depth
}

func (d *Device) SetColorMask(enabled bool) {
	d.colorMask = enabled
	d.record("SetColorMask %t", enabled)
}

func (d *Device) DrawMesh(m device.Mesh, instances int) {
	mesh := m.(*mesh)
	d.record("DrawMesh %s x%d", mesh.label, instances)
	d.count(uint64(mesh.vertexCount*instances), uint64(d.viewport.Pixels()))
	d.launch(uint32(mesh.vertexCount / 3 * instances))
}

func (d *Device) DrawFullscreenTriangle() {
	d.record("DrawFullscreenTriangle")
	d.count(3, uint64(d.viewport.Pixels()))
	d.launch(uint32(d.viewport.Pixels()))
}

func (d *Device) Dispatch(x, y, z uint32) {
	d.record("Dispatch %d %d %d", x, y, z)
	local := uint32(1)
	if d.program != nil {
		local = d.program.localSize
	}
	d.launch(x * y * z * local)
}

func (d *Device) MemoryBarrier(bits device.BarrierBits) {
	d.record("MemoryBarrier %d", bits)
}

func (d *Device) BlitDepth(src, dst device.Framebuffer) {
	d.record("BlitDepth %s %s", fbLabel(src), fbLabel(dst))
}

func (d *Device) Finish() {
	d.record("Finish")
}

func (d *Device) Release() {
	if d.released {
		return
	}
	d.released = true
	d.pool.Stop()
}

func (d *Device) count(vertices, fragments uint64) {
	for _, q := range d.counters {
		switch q.kind {
		case device.CounterVertexInvocations:
			q.value += vertices
		case device.CounterFragmentInvocations:
			q.value += fragments
		}
	}
}

func targetName(t device.BufferTarget) string {
	switch t {
	case device.TargetStorage:
		return "storage"
	case device.TargetUniform:
		return "uniform"
	case device.TargetAtomicCounter:
		return "atomic"
	}
	return fmt.Sprintf("target(%d)", int(t))
}

func fbLabel(fb device.Framebuffer) string {
	if fb == nil {
		return "default"
	}
	return fb.Label()
}

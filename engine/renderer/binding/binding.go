// Package binding groups the device buffers a pipeline binds to indexed binding points and
// owns their lifetime, including reallocation after the driver reports that a mapped buffer
// was corrupted.
package binding

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

// ErrUnknownBuffer is returned for labels the provider does not hold.
var ErrUnknownBuffer = errors.New("binding: unknown buffer")

// BufferSpec declares one buffer held by a Provider.
type BufferSpec struct {
	// Label identifies the buffer within the provider and on the device.
	Label string
	// Target and Index are the binding point the buffer is attached to by Bind.
	Target device.BufferTarget
	Index  uint32
	// Size is the allocation size in bytes.
	Size int
	// Usage is the device usage hint.
	Usage device.BufferUsage
}

type entry struct {
	spec BufferSpec
	buf  device.Buffer
}

// provider is the unexported implementation of Provider.
type provider struct {
	// label is a debug label added for convenience.
	label string
	// d is the device that owns every buffer.
	d device.Device
	// order keeps Bind and Release deterministic.
	order []string
	// entries holds the declared buffers keyed by label.
	entries map[string]*entry
}

// Provider owns a set of labelled device buffers bound to fixed binding points.
//
// Usage pattern:
//  1. Construct with WithBuffer options describing each buffer
//  2. Call Init once to allocate
//  3. Call Bind before the passes that read the buffers
//  4. Use MapWrite / MapRead for host access; corruption triggers reallocation
//  5. Call Release when the owning pipeline is torn down
type Provider interface {
	// Label returns the debug label for this provider.
	Label() string

	// Init allocates every declared buffer that is not yet allocated.
	//
	// Returns:
	//   - error: the first allocation error
	Init() error

	// Buffer returns the allocated buffer for label, or nil.
	//
	// Parameters:
	//   - label: the buffer label
	//
	// Returns:
	//   - device.Buffer: the buffer or nil
	Buffer(label string) device.Buffer

	// Spec returns the declaration of label.
	Spec(label string) (BufferSpec, bool)

	// Bind attaches every allocated buffer to its binding point.
	Bind()

	// Resize releases and reallocates label with a new size, then rebinds it.
	// Contents are undefined afterwards.
	//
	// Parameters:
	//   - label: the buffer label
	//   - size: new size in bytes
	//
	// Returns:
	//   - error: ErrUnknownBuffer or the allocation error
	Resize(label string, size int) error

	// Recreate reallocates label at its current size and rebinds it.
	Recreate(label string) error

	// MapWrite maps label for writing and calls fill with the mapped bytes. When the unmap
	// reports corruption a warning is logged, the buffer is recreated and the returned error
	// wraps device.ErrBufferCorrupted. The caller should treat that as a stale frame.
	MapWrite(label string, fill func(data []byte)) error

	// MapRead maps label for reading and calls read with the mapped bytes, recovering from
	// corruption like MapWrite. On corruption read has already seen undefined data.
	MapRead(label string, read func(data []byte)) error

	// Release frees every buffer. The provider may be re-initialised with Init.
	Release()
}

var _ Provider = &provider{}

// NewProvider creates a Provider whose buffers live on d.
//
// Parameters:
//   - label: debug label
//   - d: the owning device, must not be nil
//   - options: a variadic list of options declaring buffers
//
// Returns:
//   - Provider: the provider, buffers not yet allocated
func NewProvider(label string, d device.Device, options ...ProviderBuilderOption) Provider {
	if d == nil {
		panic("binding: NewProvider requires a device")
	}
	p := &provider{
		label:   label,
		d:       d,
		entries: make(map[string]*entry),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *provider) declare(spec BufferSpec) {
	if _, ok := p.entries[spec.Label]; !ok {
		p.order = append(p.order, spec.Label)
	}
	p.entries[spec.Label] = &entry{spec: spec}
}

func (p *provider) Label() string {
	return p.label
}

func (p *provider) Init() error {
	for _, label := range p.order {
		e := p.entries[label]
		if e.buf != nil {
			continue
		}
		if err := p.allocate(e); err != nil {
			return err
		}
	}
	return nil
}

func (p *provider) allocate(e *entry) error {
	buf, err := p.d.CreateBuffer(e.spec.Label, e.spec.Size, e.spec.Usage)
	if err != nil {
		return fmt.Errorf("binding %s: allocate %s: %w", p.label, e.spec.Label, err)
	}
	e.buf = buf
	logger.Logger().Debug("buffer allocated", "provider", p.label, "buffer", e.spec.Label, "bytes", buf.Size())
	return nil
}

func (p *provider) Buffer(label string) device.Buffer {
	e, ok := p.entries[label]
	if !ok {
		return nil
	}
	return e.buf
}

func (p *provider) Spec(label string) (BufferSpec, bool) {
	e, ok := p.entries[label]
	if !ok {
		return BufferSpec{}, false
	}
	return e.spec, true
}

func (p *provider) Bind() {
	for _, label := range p.order {
		e := p.entries[label]
		if e.buf != nil {
			p.d.BindBuffer(e.spec.Target, e.spec.Index, e.buf)
		}
	}
}

func (p *provider) Resize(label string, size int) error {
	e, ok := p.entries[label]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBuffer, label)
	}
	e.spec.Size = size
	return p.reallocate(e)
}

func (p *provider) Recreate(label string) error {
	e, ok := p.entries[label]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBuffer, label)
	}
	return p.reallocate(e)
}

func (p *provider) reallocate(e *entry) error {
	if e.buf != nil {
		e.buf.Release()
		e.buf = nil
	}
	if err := p.allocate(e); err != nil {
		return err
	}
	p.d.BindBuffer(e.spec.Target, e.spec.Index, e.buf)
	return nil
}

func (p *provider) MapWrite(label string, fill func(data []byte)) error {
	return p.mapped(label, device.MapWrite, fill)
}

func (p *provider) MapRead(label string, read func(data []byte)) error {
	return p.mapped(label, device.MapRead, read)
}

// mapped runs fn on the mapped contents of label. The buffer is unmapped even when fn
// panics.
func (p *provider) mapped(label string, access device.MapAccess, fn func([]byte)) (err error) {
	e, ok := p.entries[label]
	if !ok || e.buf == nil {
		return fmt.Errorf("%w: %s", ErrUnknownBuffer, label)
	}
	data, err := e.buf.Map(access)
	if err != nil {
		return fmt.Errorf("binding %s: map %s: %w", p.label, label, err)
	}
	defer func() {
		err = p.unmap(e, label)
	}()
	fn(data)
	return nil
}

// unmap releases the mapping of e. Corrupted contents are logged and the buffer is
// recreated; the corruption error is still returned.
func (p *provider) unmap(e *entry, label string) error {
	err := e.buf.Unmap()
	if err == nil {
		return nil
	}
	if !errors.Is(err, device.ErrBufferCorrupted) {
		return fmt.Errorf("binding %s: unmap %s: %w", p.label, label, err)
	}

	logger.Logger().Warn("buffer corrupted while mapped, recreating", "provider", p.label, "buffer", label)
	if rerr := p.reallocate(e); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

func (p *provider) Release() {
	for _, label := range p.order {
		e := p.entries[label]
		if e.buf != nil {
			e.buf.Release()
			e.buf = nil
		}
	}
}

package algorithm

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

// attachment names one texture of a render target.
type attachment struct {
	name   string
	format device.TextureFormat
}

// renderTarget is a framebuffer together with the textures it owns.
type renderTarget struct {
	fb    device.Framebuffer
	color []device.Texture
	depth device.Texture
}

// newRenderTarget allocates one texture per attachment at res with samples and a
// framebuffer over them. Depth formats become the depth attachment. On error everything
// allocated so far is released.
//
// Parameters:
//   - d: the device
//   - label: framebuffer label, texture labels are "<label>.<name>"
//   - res: attachment size
//   - samples: MSAA sample count, 0 for single sampled
//   - attachments: colour attachments in draw-buffer order plus at most one depth format
//
// Returns:
//   - *renderTarget: the target
//   - error: a texture or framebuffer error
func newRenderTarget(d device.Device, label string, res common.Resolution, samples int, attachments ...attachment) (*renderTarget, error) {
	t := &renderTarget{}
	for _, a := range attachments {
		tex, err := d.CreateTexture(device.TextureDescriptor{
			Label:      label + "." + a.name,
			Resolution: res,
			Format:     a.format,
			Samples:    samples,
		})
		if err != nil {
			t.release()
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		if a.format.IsDepth() {
			if t.depth != nil {
				tex.Release()
				t.release()
				return nil, errors.New(label + ": more than one depth attachment")
			}
			t.depth = tex
			continue
		}
		t.color = append(t.color, tex)
	}

	fb, err := d.CreateFramebuffer(device.FramebufferDescriptor{Label: label, Color: t.color, Depth: t.depth})
	if err != nil {
		t.release()
		return nil, err
	}
	t.fb = fb
	return t, nil
}

// labels returns the texture labels in attachment order, depth last.
func (t *renderTarget) labels() []string {
	var out []string
	for _, c := range t.color {
		out = append(out, c.Label())
	}
	if t.depth != nil {
		out = append(out, t.depth.Label())
	}
	return out
}

func (t *renderTarget) release() {
	if t == nil {
		return
	}
	if t.fb != nil {
		t.fb.Release()
		t.fb = nil
	}
	for _, c := range t.color {
		c.Release()
	}
	t.color = nil
	if t.depth != nil {
		t.depth.Release()
		t.depth = nil
	}
}

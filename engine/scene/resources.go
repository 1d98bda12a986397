package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/light"
	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/binding"
	"github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"
)

const (
	lightsLabel   = "scene.lights"
	offsetsLabel  = "scene.offsets"
	verticesLabel = "scene.vertices"
	meshLabel     = "scene.sphere"
	volumeLabel   = "scene.light_volume"
	offsetBytes   = 16

	// LightVolumeSlices is the tessellation of the unit sphere drawn once per light.
	LightVolumeSlices = 8
)

// Resources mirrors a Scene on a device: the sphere mesh and vertex buffer, the sphere
// offsets and the light buffer. Sync uploads whatever changed since the previous call.
type Resources struct {
	d        device.Device
	s        Scene
	provider binding.Provider
	mesh     device.Mesh
	volume   device.Mesh

	geometryVersion uint64
	lightsVersion   uint64
	lightCount      int
}

// NewResources allocates the device side of s. Nothing is uploaded until Sync.
//
// Parameters:
//   - d: the device, must not be nil
//   - s: the scene, must not be nil
//
// Returns:
//   - *Resources: the resources
//   - error: an allocation error
func NewResources(d device.Device, s Scene) (*Resources, error) {
	if d == nil || s == nil {
		panic("scene: NewResources requires a device and a scene")
	}
	r := &Resources{
		d: d,
		s: s,
		provider: binding.NewProvider("scene", d,
			binding.WithStorageBuffer(lightsLabel, light.Binding, light.BufferSize()),
			binding.WithStorageBuffer(offsetsLabel, OffsetsBinding, len(s.Offsets())*offsetBytes),
			binding.WithStorageBuffer(verticesLabel, VerticesBinding, len(s.Vertices())*4),
		),
	}
	if err := r.provider.Init(); err != nil {
		r.provider.Release()
		return nil, err
	}
	return r, nil
}

// Sync uploads the geometry when the scene's geometry version moved and the lights when
// the light set changed. The offsets buffer grows when the grid does and is rebound.
//
// Returns:
//   - error: an allocation or write error; the previous upload stays in place
func (r *Resources) Sync() error {
	if r.volume == nil {
		volume, err := r.d.CreateMesh(volumeLabel, SphereVertices(1, LightVolumeSlices))
		if err != nil {
			return fmt.Errorf("scene: upload light volume: %w", err)
		}
		r.volume = volume
	}
	if v := r.s.GeometryVersion(); v != r.geometryVersion {
		if err := r.uploadGeometry(); err != nil {
			return fmt.Errorf("scene: upload geometry: %w", err)
		}
		r.geometryVersion = v
	}

	lights := r.s.Lights()
	if v := lights.Version(); v != r.lightsVersion || lights.Count() != r.lightCount {
		err := binding.ApplyWrites(
			binding.BufferWrite{Provider: r.provider, Buffer: lightsLabel, Data: light.MarshalHeader(lights.Count())},
			binding.BufferWrite{Provider: r.provider, Buffer: lightsLabel, Offset: light.HeaderSize, Data: light.Marshal(lights.Lights())},
		)
		if err != nil {
			return fmt.Errorf("scene: upload lights: %w", err)
		}
		r.lightsVersion = v
		r.lightCount = lights.Count()
	}
	return nil
}

func (r *Resources) uploadGeometry() error {
	mesh, err := r.d.CreateMesh(meshLabel, r.s.Vertices())
	if err != nil {
		return err
	}
	if r.mesh != nil {
		r.mesh.Release()
	}
	r.mesh = mesh

	if err := r.upload(offsetsLabel, common.SliceToBytes(r.s.Offsets())); err != nil {
		return err
	}
	if err := r.upload(verticesLabel, common.SliceToBytes(r.s.Vertices())); err != nil {
		return err
	}
	logger.Logger().Debug("scene geometry uploaded",
		"spheres", r.s.SphereCount(),
		"triangles", r.s.TriangleCount(),
		"vertices", mesh.VertexCount(),
	)
	return nil
}

// upload writes data to the start of buffer, growing it first when it is too small.
func (r *Resources) upload(buffer string, data []byte) error {
	if buf := r.provider.Buffer(buffer); buf == nil || buf.Size() < len(data) {
		if err := r.provider.Resize(buffer, len(data)); err != nil {
			return err
		}
	}
	return r.provider.Buffer(buffer).Write(0, data)
}

// Bind attaches the light and offset buffers to their storage binding points.
func (r *Resources) Bind() {
	r.provider.Bind()
}

// Mesh returns the sphere mesh, nil before the first Sync.
func (r *Resources) Mesh() device.Mesh {
	return r.mesh
}

// Draw draws every sphere of the grid as instances of the sphere mesh. It is a no-op
// before the first successful Sync.
func (r *Resources) Draw() {
	if r.mesh == nil {
		return
	}
	r.d.DrawMesh(r.mesh, r.s.SphereCount())
}

// DrawLightVolumes draws a unit sphere per light. The vertex shader scales each instance by
// the light's range. It is a no-op before the first successful Sync.
func (r *Resources) DrawLightVolumes() {
	if r.volume == nil {
		return
	}
	r.d.DrawMesh(r.volume, r.s.Lights().Count())
}

// Release frees the meshes and the buffers.
func (r *Resources) Release() {
	for _, m := range []*device.Mesh{&r.mesh, &r.volume} {
		if *m != nil {
			(*m).Release()
			*m = nil
		}
	}
	r.provider.Release()
	r.geometryVersion = 0
	r.lightsVersion = 0
}

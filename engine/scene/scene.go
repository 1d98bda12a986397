// Package scene holds the benchmark scene: a cubic grid of identical UV spheres lit by an
// animated light set. Geometry is generated on the host; Resources mirrors it on a device.
package scene

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/light"
	"github.com/chewxy/math32"
)

const (
	// MinSpheresPerRow and MaxSpheresPerRow bound the grid edge length.
	MinSpheresPerRow = 1
	MaxSpheresPerRow = 100
	// DefaultSpheresPerRow is the grid edge length used when none is configured.
	DefaultSpheresPerRow = 6

	// MinSlices and MaxSlices bound the sector and stack count of a sphere.
	MinSlices = 5
	MaxSlices = 100
	// DefaultSlices is the sector and stack count used when none is configured.
	DefaultSlices = 20

	// SphereRadius is the radius of every sphere. Grid cells are one unit wide.
	SphereRadius = 0.5

	// FloatsPerVertex is the interleaved vertex layout: position xyz, normal xyz.
	FloatsPerVertex = 6
)

// scene is the implementation of the Scene interface.
type scene struct {
	spheresPerRow int
	slices        int

	vertices []float32
	offsets  [][4]float32

	lights       *light.Set
	lightOptions []light.SetBuilderOption

	// pool fills the grid offsets one z plane per task. Workers persist for the life of the
	// scene so grid changes do not spawn goroutines.
	pool    worker.DynamicWorkerPool
	workers int

	geometryVersion uint64
}

// Scene is the host-side description of the benchmark scene.
type Scene interface {
	// SpheresPerRow returns the grid edge length.
	SpheresPerRow() int

	// SetSpheresPerRow changes the grid edge length, clamped to [MinSpheresPerRow,
	// MaxSpheresPerRow], and recomputes the sphere offsets.
	//
	// Returns:
	//   - bool: true when the value changed
	SetSpheresPerRow(n int) bool

	// Slices returns the sector and stack count of the sphere mesh.
	Slices() int

	// SetSlices changes the sphere tessellation, clamped to [MinSlices, MaxSlices], and
	// regenerates the mesh.
	//
	// Returns:
	//   - bool: true when the value changed
	SetSlices(n int) bool

	// SphereCount returns the number of spheres, SpheresPerRow cubed.
	SphereCount() int

	// TrianglesPerSphere returns the triangle count of one sphere mesh.
	TrianglesPerSphere() int

	// TriangleCount returns the triangle count of the whole grid.
	TriangleCount() int

	// Vertices returns the sphere mesh as a triangle list of interleaved position and normal.
	Vertices() []float32

	// Offsets returns the centre of every sphere, w unused.
	Offsets() [][4]float32

	// Lights returns the light set.
	Lights() *light.Set

	// GeometryVersion increases whenever Vertices or Offsets change.
	GeometryVersion() uint64

	// Update advances the light animation by one frame.
	Update()
}

var _ Scene = &scene{}

// NewScene creates a scene with the default grid, tessellation and lights.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene with geometry generated
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		spheresPerRow: DefaultSpheresPerRow,
		slices:        DefaultSlices,
		workers:       runtime.GOMAXPROCS(0),
	}
	for _, option := range options {
		option(s)
	}
	if s.pool == nil {
		s.pool = worker.NewDynamicWorkerPool(s.workers, MaxSpheresPerRow, time.Second)
	}

	lightOptions := append([]light.SetBuilderOption{light.WithMaxDistance(float32(s.spheresPerRow))}, s.lightOptions...)
	s.lights = light.NewSet(lightOptions...)
	s.vertices = SphereVertices(SphereRadius, s.slices)
	s.offsets = s.gridOffsets(s.spheresPerRow)
	s.geometryVersion = 1
	return s
}

func (s *scene) SpheresPerRow() int {
	return s.spheresPerRow
}

func (s *scene) SetSpheresPerRow(n int) bool {
	n = common.Clamp(n, MinSpheresPerRow, MaxSpheresPerRow)
	if n == s.spheresPerRow {
		return false
	}
	s.spheresPerRow = n
	s.offsets = s.gridOffsets(n)
	s.geometryVersion++
	return true
}

func (s *scene) Slices() int {
	return s.slices
}

func (s *scene) SetSlices(n int) bool {
	n = common.Clamp(n, MinSlices, MaxSlices)
	if n == s.slices {
		return false
	}
	s.slices = n
	s.vertices = SphereVertices(SphereRadius, n)
	s.geometryVersion++
	return true
}

func (s *scene) SphereCount() int {
	return s.spheresPerRow * s.spheresPerRow * s.spheresPerRow
}

func (s *scene) TrianglesPerSphere() int {
	return TrianglesPerSphere(s.slices)
}

func (s *scene) TriangleCount() int {
	return s.SphereCount() * s.TrianglesPerSphere()
}

func (s *scene) Vertices() []float32 {
	return s.vertices
}

func (s *scene) Offsets() [][4]float32 {
	return s.offsets
}

func (s *scene) Lights() *light.Set {
	return s.lights
}

func (s *scene) GeometryVersion() uint64 {
	return s.geometryVersion
}

func (s *scene) Update() {
	s.lights.Update()
}

// TrianglesPerSphere returns the triangle count of a UV sphere with slices sectors and
// stacks. The polar stacks contribute one triangle per sector, every other stack two.
func TrianglesPerSphere(slices int) int {
	return 2 * slices * (slices - 1)
}

// gridOffsets is GridOffsets with the z planes filled in parallel on the scene's pool.
func (s *scene) gridOffsets(n int) [][4]float32 {
	out := make([][4]float32, n*n*n)
	var wg sync.WaitGroup
	for z := range n {
		wg.Add(1)
		s.pool.SubmitTask(worker.Task{
			ID: z,
			Do: func() (any, error) {
				defer wg.Done()
				fillPlane(out, n, z)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return out
}

// GridOffsets returns the centres of an n*n*n grid of unit cells centred on the origin,
// x varying fastest.
func GridOffsets(n int) [][4]float32 {
	out := make([][4]float32, n*n*n)
	for z := range n {
		fillPlane(out, n, z)
	}
	return out
}

// fillPlane writes the n*n offsets of plane z into out.
func fillPlane(out [][4]float32, n, z int) {
	half := float32(n-1) * 0.5
	base := z * n * n
	for y := range n {
		for x := range n {
			out[base+y*n+x] = [4]float32{float32(x) - half, float32(y) - half, float32(z) - half, 0}
		}
	}
}

// SphereVertices tessellates a UV sphere into a triangle list with interleaved position and
// normal. Sectors run around the Z axis and stacks from the +Z pole to the -Z pole;
// triangles are emitted counter-clockwise when seen from outside.
//
// Parameters:
//   - radius: the sphere radius
//   - slices: sector and stack count, at least 3
//
// Returns:
//   - []float32: TrianglesPerSphere(slices)*3 vertices of FloatsPerVertex floats
func SphereVertices(radius float32, slices int) []float32 {
	sectors, stacks := slices, slices
	sectorStep := 2 * math32.Pi / float32(sectors)
	stackStep := math32.Pi / float32(stacks)

	grid := make([][3]float32, 0, (stacks+1)*(sectors+1))
	for i := 0; i <= stacks; i++ {
		stackAngle := math32.Pi/2 - float32(i)*stackStep
		r := radius * math32.Cos(stackAngle)
		z := radius * math32.Sin(stackAngle)
		for j := 0; j <= sectors; j++ {
			sin, cos := math32.Sincos(float32(j) * sectorStep)
			grid = append(grid, [3]float32{r * cos, r * sin, z})
		}
	}

	out := make([]float32, 0, TrianglesPerSphere(slices)*3*FloatsPerVertex)
	emit := func(idx ...int) {
		for _, k := range idx {
			p := grid[k]
			out = append(out, p[0], p[1], p[2], p[0]/radius, p[1]/radius, p[2]/radius)
		}
	}
	for i := 0; i < stacks; i++ {
		k1 := i * (sectors + 1)
		k2 := k1 + sectors + 1
		for j := 0; j < sectors; j, k1, k2 = j+1, k1+1, k2+1 {
			if i != 0 {
				emit(k1, k2, k1+1)
			}
			if i != stacks-1 {
				emit(k1+1, k2, k2+1)
			}
		}
	}
	return out
}

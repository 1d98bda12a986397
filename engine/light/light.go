// Package light generates and animates the point lights of the benchmark scene. Lights are
// scattered in a shell around the sphere grid, receive a random range and colour, and orbit
// the vertical axis at a configurable speed.
package light

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/chewxy/math32"
)

const (
	// DefaultCount is the number of lights generated when no count is configured.
	DefaultCount = 10
	// DefaultRotationSpeed is the default rotation per frame, in radians.
	DefaultRotationSpeed = 0.01
	// ambientWeight is written to the w component of every generated colour.
	ambientWeight = 0.10
	// maxChannel bounds each generated colour channel.
	maxChannel = 0.5
)

// Set owns the light array and its animation state.
type Set struct {
	lights []Light

	maxDistance   float32
	minRange      float32
	maxRange      float32
	rotationSpeed float32
	rotate        bool

	rng     *rand.Rand
	version uint64
}

// NewSet creates a light set and generates its lights.
//
// Parameters:
//   - options: variadic list of SetBuilderOption functions
//
// Returns:
//   - *Set: the set with Count() lights generated
func NewSet(options ...SetBuilderOption) *Set {
	s := &Set{
		lights:        make([]Light, DefaultCount),
		maxDistance:   6,
		minRange:      0.2,
		maxRange:      2.0,
		rotationSpeed: DefaultRotationSpeed,
		rotate:        true,
		rng:           rand.New(rand.NewPCG(1, 2)),
	}
	for _, option := range options {
		option(s)
	}
	s.Regenerate()
	return s
}

// Lights returns the current lights. The slice is owned by the set.
func (s *Set) Lights() []Light {
	return s.lights
}

// Count returns the number of lights.
func (s *Set) Count() int {
	return len(s.lights)
}

// Version increases whenever the lights change, so uploads can be skipped while it is stable.
func (s *Set) Version() uint64 {
	return s.version
}

// SetCount changes the number of lights, clamped to [1, MaxLights], and regenerates them.
//
// Returns:
//   - bool: true when the count changed
func (s *Set) SetCount(n int) bool {
	n = common.Clamp(n, 1, MaxLights)
	if n == len(s.lights) {
		return false
	}
	s.lights = make([]Light, n)
	s.Regenerate()
	return true
}

// SetMaxDistance sets the outer radius of the shell lights are placed in and regenerates
// them. Values below 1 are raised to 1.
func (s *Set) SetMaxDistance(d float32) {
	s.maxDistance = max(d, 1)
	s.Regenerate()
}

// RangeLimits returns the bounds lights draw their range from.
func (s *Set) RangeLimits() (lo, hi float32) {
	return s.minRange, s.maxRange
}

// SetRangeLimits sets the range bounds and redraws every light's range. The bounds are
// swapped when given in the wrong order.
func (s *Set) SetRangeLimits(lo, hi float32) {
	if lo > hi {
		lo, hi = hi, lo
	}
	s.minRange, s.maxRange = lo, hi
	s.RandomizeRanges()
}

// RotationSpeed returns the rotation applied by Update, in radians.
func (s *Set) RotationSpeed() float32 {
	return s.rotationSpeed
}

// SetRotationSpeed sets the rotation applied by Update, in radians.
func (s *Set) SetRotationSpeed(speed float32) {
	s.rotationSpeed = speed
}

// Rotating reports whether Update moves the lights.
func (s *Set) Rotating() bool {
	return s.rotate
}

// SetRotate enables or disables the animation.
func (s *Set) SetRotate(v bool) {
	s.rotate = v
}

// Regenerate draws new positions, ranges and colours for every light.
// Each position is a random direction scaled to a distance in [1, maxDistance].
func (s *Set) Regenerate() {
	for i := range s.lights {
		dir := s.direction()
		dist := s.uniform(1, s.maxDistance)
		s.lights[i] = Light{
			Position: [4]float32{dir[0] * dist, dir[1] * dist, dir[2] * dist, s.uniform(s.minRange, s.maxRange)},
			Color:    [4]float32{s.uniform(0, maxChannel), s.uniform(0, maxChannel), s.uniform(0, maxChannel), ambientWeight},
		}
	}
	s.version++
}

// RandomizeRanges draws a new range for every light, keeping positions and colours.
func (s *Set) RandomizeRanges() {
	for i := range s.lights {
		s.lights[i].Position[3] = s.uniform(s.minRange, s.maxRange)
	}
	s.version++
}

// Update rotates every light about the Y axis by the rotation speed. It is a no-op while
// rotation is disabled.
func (s *Set) Update() {
	if !s.rotate || s.rotationSpeed == 0 {
		return
	}
	sin, cos := math32.Sincos(s.rotationSpeed)
	for i := range s.lights {
		p := &s.lights[i].Position
		x, z := p[0], p[2]
		p[0] = x*cos + z*sin
		p[2] = -x*sin + z*cos
	}
	s.version++
}

// direction returns a normalized random vector, retrying on a degenerate draw.
func (s *Set) direction() [3]float32 {
	for {
		v := [3]float32{s.uniform(-1, 1), s.uniform(-1, 1), s.uniform(-1, 1)}
		l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		if l > 1e-6 {
			return [3]float32{v[0] / l, v[1] / l, v[2] / l}
		}
	}
}

func (s *Set) uniform(lo, hi float32) float32 {
	return lo + s.rng.Float32()*(hi-lo)
}

package light

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-shading/common"
)

// SetBuilderOption is a function that configures a Set during construction.
type SetBuilderOption func(*Set)

// WithCount is an option builder that sets the number of lights, clamped to [1, MaxLights].
//
// Parameters:
//   - n: the light count
//
// Returns:
//   - SetBuilderOption: a function that applies the count option to a Set
func WithCount(n int) SetBuilderOption {
	return func(s *Set) {
		s.lights = make([]Light, common.Clamp(n, 1, MaxLights))
	}
}

// WithMaxDistance is an option builder that sets the outer radius of the light shell.
//
// Parameters:
//   - d: the maximum distance from the origin, at least 1
//
// Returns:
//   - SetBuilderOption: a function that applies the distance option to a Set
func WithMaxDistance(d float32) SetBuilderOption {
	return func(s *Set) {
		s.maxDistance = max(d, 1)
	}
}

// WithRangeLimits is an option builder that sets the bounds light ranges are drawn from.
//
// Parameters:
//   - lo: the minimum range
//   - hi: the maximum range
//
// Returns:
//   - SetBuilderOption: a function that applies the range option to a Set
func WithRangeLimits(lo, hi float32) SetBuilderOption {
	return func(s *Set) {
		if lo > hi {
			lo, hi = hi, lo
		}
		s.minRange, s.maxRange = lo, hi
	}
}

// WithRotation is an option builder that configures the animation.
//
// Parameters:
//   - enabled: whether Update moves the lights
//   - speed: the rotation per Update, in radians
//
// Returns:
//   - SetBuilderOption: a function that applies the rotation option to a Set
func WithRotation(enabled bool, speed float32) SetBuilderOption {
	return func(s *Set) {
		s.rotate = enabled
		s.rotationSpeed = speed
	}
}

// WithSeed is an option builder that seeds the generator, making layouts reproducible.
//
// Parameters:
//   - seed: the generator seed
//
// Returns:
//   - SetBuilderOption: a function that applies the seed option to a Set
func WithSeed(seed uint64) SetBuilderOption {
	return func(s *Set) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	}
}

package scene

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shading/common"
	"github.com/Carmen-Shannon/oxy-shading/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithSpheresPerRow sets the edge length of the sphere grid, clamped to
// [MinSpheresPerRow, MaxSpheresPerRow].
//
// Parameters:
//   - n: spheres per row
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSpheresPerRow(n int) SceneBuilderOption {
	return func(s *scene) {
		s.spheresPerRow = common.Clamp(n, MinSpheresPerRow, MaxSpheresPerRow)
	}
}

// WithSlices sets the sector and stack count of the sphere mesh, clamped to
// [MinSlices, MaxSlices].
//
// Parameters:
//   - n: slices per sphere
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSlices(n int) SceneBuilderOption {
	return func(s *scene) {
		s.slices = common.Clamp(n, MinSlices, MaxSlices)
	}
}

// WithLightOptions forwards options to the light set. Without WithMaxDistance the lights
// are placed within SpheresPerRow of the origin.
//
// Parameters:
//   - options: light set options
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLightOptions(options ...light.SetBuilderOption) SceneBuilderOption {
	return func(s *scene) {
		s.lightOptions = append(s.lightOptions, options...)
	}
}

// WithWorkers sets how many workers generate the sphere grid. Ignored when WithWorkerPool
// supplies a pool.
//
// Parameters:
//   - n: worker count, at least 1
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = max(n, 1)
	}
}

// WithWorkerPool makes the scene generate its grid on p instead of a pool of its own.
//
// Parameters:
//   - p: a running worker pool
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkerPool(p worker.DynamicWorkerPool) SceneBuilderOption {
	return func(s *scene) {
		s.pool = p
	}
}

package binding

import "github.com/Carmen-Shannon/oxy-shading/engine/renderer/device"

// ProviderBuilderOption is a functional option used to configure a Provider during construction.
type ProviderBuilderOption func(*provider)

// WithBuffer declares a buffer. Declaring the same label twice replaces the first declaration.
//
// Parameters:
//   - spec: the buffer declaration
//
// Returns:
//   - ProviderBuilderOption: a function that declares the buffer
func WithBuffer(spec BufferSpec) ProviderBuilderOption {
	return func(p *provider) {
		p.declare(spec)
	}
}

// WithStorageBuffer declares a shader storage buffer bound at index.
func WithStorageBuffer(label string, index uint32, size int) ProviderBuilderOption {
	return WithBuffer(BufferSpec{Label: label, Target: device.TargetStorage, Index: index, Size: size, Usage: device.UsageStorage})
}

// WithUniformBuffer declares a uniform buffer bound at index.
func WithUniformBuffer(label string, index uint32, size int) ProviderBuilderOption {
	return WithBuffer(BufferSpec{Label: label, Target: device.TargetUniform, Index: index, Size: size, Usage: device.UsageUniform})
}

package opengl

// DeviceBuilderOption is a functional option for configuring a Device.
type DeviceBuilderOption func(*Device)

// WithDebugOutput routes KHR_debug messages to the engine logger. The context must have
// been created with the debug flag for the driver to report anything.
//
// Parameters:
//   - enabled: whether to install the debug callback
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithDebugOutput(enabled bool) DeviceBuilderOption {
	return func(d *Device) {
		d.debugOutput = enabled
	}
}

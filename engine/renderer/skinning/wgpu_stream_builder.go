package skinning

import "github.com/cogentcore/webgpu/wgpu"

// WGPUStreamBuilderOption is a functional option for configuring a WGPUStream during construction.
type WGPUStreamBuilderOption func(*wgpuStream)

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - WGPUStreamBuilderOption: a function that applies the adapter option to a stream
func WithForceFallbackAdapter(force bool) WGPUStreamBuilderOption {
	return func(w *wgpuStream) {
		w.forceFallbackAdapter = force
	}
}

// WithStreamLabel sets the label prefix of the device and pipeline objects.
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - WGPUStreamBuilderOption: a function that applies the label option to a stream
func WithStreamLabel(label string) WGPUStreamBuilderOption {
	return func(w *wgpuStream) {
		w.label = label
	}
}

// WithBufferUsage adds usage flags to the buffers created for a binding.
//
// Parameters:
//   - binding: the binding index
//   - usage: the usage flags to add
//
// Returns:
//   - WGPUStreamBuilderOption: a function that applies the usage option to a stream
func WithBufferUsage(binding int, usage wgpu.BufferUsage) WGPUStreamBuilderOption {
	return func(w *wgpuStream) {
		w.bufferUsageOverrides[binding] |= usage
	}
}

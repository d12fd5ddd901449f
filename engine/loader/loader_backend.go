package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-character/engine/model"
)

// loaderBackend defines the generic interface for loading models from files or streams.
// Concrete implementations (e.g., yamlLoaderBackend) handle format-specific details.
// Backends decode and resolve names only; validation is left to the Loader.
type loaderBackend interface {
	// Load performs a full model import from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - model.Model: the imported model
	//   - error: error if reading or decoding fails
	Load(path string) (model.Model, error)

	// LoadReader imports a model from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing model data
	//
	// Returns:
	//   - model.Model: the imported model
	//   - error: error if decoding fails
	LoadReader(r io.Reader) (model.Model, error)
}

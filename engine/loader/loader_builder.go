package loader

import (
	"github.com/Carmen-Shannon/oxy-character/engine/model"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}

// WithoutValidation is an option builder that skips Model.Validate after a load.
// Tools that inspect broken files use it; characters still validate on construction.
//
// Returns:
//   - LoaderBuilderOption: a function that disables validation on a loader
func WithoutValidation() LoaderBuilderOption {
	return func(l *loader) {
		l.skipValidation = true
	}
}

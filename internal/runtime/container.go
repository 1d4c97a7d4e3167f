// Package runtime holds the application's global dig container, created
// once at process start and handed to internal/container.BuildContainer.
package runtime

import (
	"go.uber.org/dig"
)

var container *dig.Container

func init() {
	container = dig.New()
}

// GetContainer returns the global dependency injection container.
func GetContainer() *dig.Container {
	return container
}

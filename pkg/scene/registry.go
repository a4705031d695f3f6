package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// ErrUnknownScene is returned when a scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a built-in scene
type SceneInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type sceneFactory func(seed int64, cameraOverrides ...renderer.CameraConfig) *Scene

type registryEntry struct {
	description string
	create      sceneFactory
}

var registry = map[string]registryEntry{
	"default": {
		description: "Diffuse, glass and metal spheres on a ground sphere",
		create: func(_ int64, cameraOverrides ...renderer.CameraConfig) *Scene {
			return NewDefaultScene(cameraOverrides...)
		},
	},
	"hollow-glass": {
		description: "Hollow glass sphere with depth of field",
		create: func(_ int64, cameraOverrides ...renderer.CameraConfig) *Scene {
			return NewHollowGlassScene(cameraOverrides...)
		},
	},
	"random-spheres": {
		description: "Field of random small spheres around three large ones",
		create:      NewRandomSpheresScene,
	},
}

// Names returns the registered scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns info for every registered scene, sorted by name
func List() []SceneInfo {
	infos := make([]SceneInfo, 0, len(registry))
	for _, name := range Names() {
		infos = append(infos, SceneInfo{Name: name, Description: registry[name].description})
	}
	return infos
}

// Create builds the named scene. Seed only affects randomly generated scenes.
func Create(name string, seed int64, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	entry, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScene, name, Names())
	}
	return entry.create(seed, cameraOverrides...), nil
}

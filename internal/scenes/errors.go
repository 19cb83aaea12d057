package scenes

import "errors"

var (
	// ErrSceneNotFound is returned when no scene matches the requested name.
	ErrSceneNotFound = errors.New("no scene found with the name")

	// ErrSceneCreateFailed wraps bridge failures while creating a scene.
	ErrSceneCreateFailed = errors.New("cannot create scene")
)

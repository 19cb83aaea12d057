// Package scenes finds bridge scenes by approximate name.
//
// Matching is a case- and accent-insensitive substring test. Matches are
// ranked so that names closest in length to the query come first (the
// tighter the match, the better), with the most recently updated scene
// winning ties.
package scenes

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"huecli/internal/lights"
	"huecli/internal/logging"
)

// DefaultMax caps listings when the caller does not say otherwise.
const DefaultMax = 10

type Resolver struct {
	client lights.Client
	log    *logging.Logger
}

func NewResolver(client lights.Client, log *logging.Logger) *Resolver {
	return &Resolver{
		client: client,
		log:    logging.OrDiscard(log).Component("scenes"),
	}
}

// Query fetches every scene from the bridge and returns at most max of them
// matching pattern, best match first.
func (r *Resolver) Query(ctx context.Context, pattern string, max int) ([]lights.Scene, error) {
	all, err := r.client.Scenes(ctx)
	if err != nil {
		return nil, err
	}
	ranked := Rank(all, pattern, max)
	r.log.Debug("scenes ranked", "pattern", pattern, "total", len(all), "returned", len(ranked))
	return ranked, nil
}

// List writes the lower-cased names of the matching scenes, one per line.
func (r *Resolver) List(ctx context.Context, w io.Writer, pattern string, max int) error {
	matches, err := r.Query(ctx, pattern, max)
	if err != nil {
		return err
	}
	for _, s := range matches {
		if _, err := fmt.Fprintln(w, strings.ToLower(s.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Activate recalls the best match for pattern.
func (r *Resolver) Activate(ctx context.Context, pattern string) (lights.Scene, error) {
	matches, err := r.Query(ctx, pattern, 1)
	if err != nil {
		return lights.Scene{}, err
	}
	if len(matches) == 0 {
		return lights.Scene{}, fmt.Errorf("%w %q", ErrSceneNotFound, pattern)
	}

	scene := matches[0]
	r.log.Debug("activating scene", "scene", scene.ID, "name", scene.Name)
	if err := r.client.ActivateScene(ctx, scene.ID); err != nil {
		return lights.Scene{}, err
	}
	return scene, nil
}

// Create saves the current state of every light in the default group as a
// new scene called name and returns its id.
func (r *Resolver) Create(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: no scene name specified", lights.ErrMissingArgument)
	}

	group, err := r.client.Group(ctx, lights.DefaultGroup)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSceneCreateFailed, err)
	}
	id, err := r.client.CreateScene(ctx, name, group.Lights)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSceneCreateFailed, err)
	}
	r.log.Debug("scene created", "scene", id, "name", name, "lights", len(group.Lights))
	return id, nil
}

// Rank filters scenes by pattern, orders them and truncates to max. A
// negative max is treated as zero. The input slice is not modified.
func Rank(scenes []lights.Scene, pattern string, max int) []lights.Scene {
	if max < 0 {
		max = 0
	}
	p := Normalize(pattern)
	pLen := utf8.RuneCountInString(p)

	type candidate struct {
		scene    lights.Scene
		distance int
	}
	var matches []candidate
	for _, s := range scenes {
		name := Normalize(s.Name)
		if !strings.Contains(name, p) {
			continue
		}
		c := candidate{scene: s}
		if p != "" {
			c.distance = abs(utf8.RuneCountInString(name) - pLen)
		}
		matches = append(matches, c)
	}

	// Bridges return scenes in map order; fix a base order so equal
	// candidates always come out the same way.
	slices.SortStableFunc(matches, func(a, b candidate) int {
		return cmp.Compare(a.scene.ID, b.scene.ID)
	})
	slices.SortStableFunc(matches, func(a, b candidate) int {
		if d := cmp.Compare(a.distance, b.distance); d != 0 {
			return d
		}
		return b.scene.LastUpdated.Compare(a.scene.LastUpdated)
	})

	out := make([]lights.Scene, 0, min(max, len(matches)))
	for _, c := range matches[:min(max, len(matches))] {
		out = append(out, c.scene)
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

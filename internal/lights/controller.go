package lights

import "context"

// Client is the set of bridge operations the commands need. Bridge
// implements it against the v1 REST API; tests substitute fakes.
type Client interface {
	Lights(ctx context.Context) ([]Light, error)
	SetLightState(ctx context.Context, id string, state State) error
	Group(ctx context.Context, id string) (Group, error)
	SetGroupState(ctx context.Context, id string, state State) error
	Scenes(ctx context.Context) ([]Scene, error)
	ActivateScene(ctx context.Context, id string) error
	CreateScene(ctx context.Context, name string, lightIDs []string) (string, error)
}

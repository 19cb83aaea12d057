package lights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"huecli/internal/logging"
)

// Manager implements the light commands on top of a Client.
type Manager struct {
	client Client
	log    *logging.Logger
}

func NewManager(client Client, log *logging.Logger) *Manager {
	return &Manager{
		client: client,
		log:    logging.OrDiscard(log).Component("lights"),
	}
}

func (m *Manager) List(ctx context.Context) ([]Light, error) {
	return m.client.Lights(ctx)
}

// Set applies a raw JSON state to light id and returns the parsed state.
// The state is passed through as-is; only its well-formedness is checked.
func (m *Manager) Set(ctx context.Context, id, rawState string) (State, error) {
	if strings.TrimSpace(id) == "" {
		return State{}, fmt.Errorf("%w: no light id specified", ErrMissingArgument)
	}
	if strings.TrimSpace(rawState) == "" {
		return State{}, fmt.Errorf("%w: no light state JSON specified", ErrMissingArgument)
	}
	state, err := ParseState(rawState)
	if err != nil {
		return State{}, err
	}

	m.log.Debug("setting light state", "light", id, "state", state.String())
	if err := m.client.SetLightState(ctx, id, state); err != nil {
		m.log.Debug("setting light state failed", "light", id, "error", err)
		return State{}, err
	}
	return state, nil
}

// Switch turns every light on the bridge on or off via the default group.
func (m *Manager) Switch(ctx context.Context, on bool) error {
	m.log.Debug("switching all lights", "on", on)
	if err := m.client.SetGroupState(ctx, DefaultGroup, OnState(on)); err != nil {
		m.log.Debug("switching all lights failed", "on", on, "error", err)
		return err
	}
	return nil
}

// WriteLights prints each light as "#id:name" followed by its indented state.
func WriteLights(w io.Writer, lights []Light) error {
	for _, l := range lights {
		state, err := json.MarshalIndent(l.State, "", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "#%s:%s\n%s\n\n", l.ID, l.Name, state); err != nil {
			return err
		}
	}
	return nil
}

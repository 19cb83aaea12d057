package lights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"huecli/internal/logging"
)

// lastUpdatedLayout is how v1 bridges format scene timestamps (UTC, no zone).
const lastUpdatedLayout = "2006-01-02T15:04:05"

// Bridge talks to a Hue bridge over the v1 REST API.
type Bridge struct {
	baseURL    string
	user       string
	httpClient *http.Client
	log        *logging.Logger
}

type BridgeOption func(*Bridge)

func WithHTTPClient(c *http.Client) BridgeOption {
	return func(b *Bridge) { b.httpClient = c }
}

func WithLogger(l *logging.Logger) BridgeOption {
	return func(b *Bridge) { b.log = logging.OrDiscard(l).Component("hue") }
}

// NewBridge returns a client for the bridge at address. address may be a bare
// host ("192.168.1.2") or a full base URL. user may be empty for Register.
func NewBridge(address, user string, opts ...BridgeOption) *Bridge {
	base := address
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	b := &Bridge{
		baseURL:    strings.TrimRight(base, "/"),
		user:       user,
		httpClient: http.DefaultClient,
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ Client = (*Bridge)(nil)

// Register asks the bridge for a new user name. The bridge only grants one
// within a short window after its link button was pressed.
func (b *Bridge) Register(ctx context.Context, deviceType string) (string, error) {
	var results []result
	body := map[string]string{"devicetype": deviceType}
	if err := b.do(ctx, http.MethodPost, "/api", body, &results); err != nil {
		return "", err
	}

	var success struct {
		Username string `json:"username"`
	}
	if err := firstSuccess(results, &success); err != nil {
		return "", err
	}
	if success.Username == "" {
		return "", fmt.Errorf("hue: pairing response carried no username")
	}
	return success.Username, nil
}

func (b *Bridge) Lights(ctx context.Context) ([]Light, error) {
	var raw map[string]Light
	if err := b.do(ctx, http.MethodGet, b.userPath("lights"), nil, &raw); err != nil {
		return nil, err
	}

	out := make([]Light, 0, len(raw))
	for id, l := range raw {
		l.ID = id
		out = append(out, l)
	}
	sortIDs(out, func(l Light) string { return l.ID })
	return out, nil
}

func (b *Bridge) SetLightState(ctx context.Context, id string, state State) error {
	return b.put(ctx, b.userPath("lights", id, "state"), state)
}

func (b *Bridge) Group(ctx context.Context, id string) (Group, error) {
	var g Group
	if err := b.do(ctx, http.MethodGet, b.userPath("groups", id), nil, &g); err != nil {
		return Group{}, err
	}
	g.ID = id
	return g, nil
}

func (b *Bridge) SetGroupState(ctx context.Context, id string, state State) error {
	return b.put(ctx, b.userPath("groups", id, "action"), state)
}

func (b *Bridge) Scenes(ctx context.Context) ([]Scene, error) {
	var raw map[string]struct {
		Name        string   `json:"name"`
		Lights      []string `json:"lights"`
		LastUpdated *string  `json:"lastupdated"`
	}
	if err := b.do(ctx, http.MethodGet, b.userPath("scenes"), nil, &raw); err != nil {
		return nil, err
	}

	out := make([]Scene, 0, len(raw))
	for id, s := range raw {
		scene := Scene{ID: id, Name: s.Name, Lights: s.Lights}
		if s.LastUpdated != nil {
			t, err := time.ParseInLocation(lastUpdatedLayout, *s.LastUpdated, time.UTC)
			if err != nil {
				b.log.Debug("unparseable scene timestamp", "scene", id, "value", *s.LastUpdated)
			} else {
				scene.LastUpdated = t
			}
		}
		out = append(out, scene)
	}
	sortIDs(out, func(s Scene) string { return s.ID })
	return out, nil
}

// ActivateScene recalls a scene on the default group.
func (b *Bridge) ActivateScene(ctx context.Context, id string) error {
	var state State
	if err := state.Set("scene", id); err != nil {
		return err
	}
	return b.SetGroupState(ctx, DefaultGroup, state)
}

// CreateScene stores the current state of lightIDs as a new scene and returns
// its bridge-assigned id.
func (b *Bridge) CreateScene(ctx context.Context, name string, lightIDs []string) (string, error) {
	body := struct {
		Name    string   `json:"name"`
		Lights  []string `json:"lights"`
		Recycle bool     `json:"recycle"`
	}{Name: name, Lights: lightIDs}

	var results []result
	if err := b.do(ctx, http.MethodPost, b.userPath("scenes"), body, &results); err != nil {
		return "", err
	}

	var success struct {
		ID string `json:"id"`
	}
	if err := firstSuccess(results, &success); err != nil {
		return "", err
	}
	return success.ID, nil
}

func (b *Bridge) put(ctx context.Context, path string, state State) error {
	var results []result
	if err := b.do(ctx, http.MethodPut, path, state, &results); err != nil {
		return err
	}
	return firstError(results)
}

func (b *Bridge) userPath(parts ...string) string {
	escaped := make([]string, 0, len(parts)+2)
	escaped = append(escaped, "api", url.PathEscape(b.user))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/" + strings.Join(escaped, "/")
}

func (b *Bridge) do(ctx context.Context, method, path string, body, v any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	b.log.Debug("request", "method", method, "path", b.redact(path))
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Description: strings.TrimSpace(string(data))}
	}
	return decode(data, v)
}

// redact hides the user name in logged paths; it is a bearer credential.
func (b *Bridge) redact(path string) string {
	if b.user == "" {
		return path
	}
	return strings.Replace(path, url.PathEscape(b.user), "***", 1)
}

// result is one element of the array v1 bridges answer writes with.
type result struct {
	Success json.RawMessage `json:"success,omitempty"`
	Error   *APIError       `json:"error,omitempty"`
}

// decode unmarshals a bridge response into v. Reads answer with an object,
// but failures (bad user, missing resource) arrive as an array of errors
// even for reads, so arrays are checked for errors first.
func decode(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []result
		if err := json.Unmarshal(trimmed, &results); err == nil {
			if err := firstError(results); err != nil {
				return err
			}
		}
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("hue: decoding response: %w", err)
	}
	return nil
}

func firstError(results []result) error {
	for _, r := range results {
		if r.Error != nil {
			return r.Error
		}
	}
	return nil
}

func firstSuccess(results []result, v any) error {
	if err := firstError(results); err != nil {
		return err
	}
	for _, r := range results {
		if len(r.Success) > 0 {
			return json.Unmarshal(r.Success, v)
		}
	}
	return fmt.Errorf("hue: response carried no success element")
}

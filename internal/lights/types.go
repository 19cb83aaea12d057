package lights

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultGroup is the bridge's built-in group containing every light.
const DefaultGroup = "0"

// State is a light or group state as the bridge expresses it: an open set of
// properties whose shape depends on the bridge firmware. Keys keep the order
// in which they were decoded or set.
type State struct {
	keys   []string
	values map[string]json.RawMessage
}

// ParseState decodes raw JSON into a State. The input must be a JSON object.
func ParseState(raw string) (State, error) {
	// UnmarshalJSON accepts null for bridge responses; user input may not.
	if strings.TrimSpace(raw) == "null" {
		return State{}, fmt.Errorf("%w: state must be a JSON object", ErrInvalidState)
	}
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return s, nil
}

// OnState is the {"on": on} state used to switch lights and groups.
func OnState(on bool) State {
	var s State
	_ = s.Set("on", on)
	return s
}

func (s State) Len() int {
	return len(s.keys)
}

func (s State) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s State) Get(key string) (json.RawMessage, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, appending key if it is new.
func (s *State) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.setRaw(key, raw)
	return nil
}

func (s *State) setRaw(key string, raw json.RawMessage) {
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = raw
}

func (s State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(s.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *State) UnmarshalJSON(data []byte) error {
	*s = State{}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("state must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		s.setRaw(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after state object")
	}
	return nil
}

func (s State) String() string {
	b, _ := s.MarshalJSON()
	return string(b)
}

type Light struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	ModelID string `json:"modelid,omitempty"`
	State   State  `json:"state"`
}

type Group struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Lights []string `json:"lights"`
	Action State    `json:"action"`
}

type Scene struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Lights      []string  `json:"lights,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Device is a CLIP v2 catalog entry. Zero Kelvin bounds mean unknown.
type Device struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Model           string `json:"model,omitempty"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
	SupportsColor   bool   `json:"supportsColor"`
	SupportsKelvin  bool   `json:"supportsKelvin"`
	MinKelvin       int    `json:"minKelvin,omitempty"`
	MaxKelvin       int    `json:"maxKelvin,omitempty"`
}

// sortIDs orders bridge resource ids numerically when both are numbers.
func sortIDs[T any](items []T, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := id(items[i]), id(items[j])
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return na < nb
		}
		if (errA == nil) != (errB == nil) {
			return errA == nil
		}
		return a < b
	})
}

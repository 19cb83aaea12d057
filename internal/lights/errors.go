package lights

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArgument is returned when a required id, name or state was not given.
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidState is returned when a state payload is not a JSON object.
	ErrInvalidState = errors.New("the state JSON is not valid JSON")
)

// ErrorTypeLinkButton is the bridge error type for a pairing request made
// without the link button having been pressed.
const ErrorTypeLinkButton = 101

// APIError is a failure reported by the bridge, either as an error element
// in a v1 response array or as a non-2xx HTTP status.
type APIError struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
	StatusCode  int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("hue: bridge returned HTTP %d: %s", e.StatusCode, e.Description)
	}
	if e.Address != "" {
		return fmt.Sprintf("hue: %s (type %d at %s)", e.Description, e.Type, e.Address)
	}
	return fmt.Sprintf("hue: %s (type %d)", e.Description, e.Type)
}

// IsLinkButtonNotPressed reports whether err is the bridge refusing to pair
// because its link button was not pressed.
func IsLinkButtonNotPressed(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrorTypeLinkButton
}

package lights

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState_PreservesKeyOrder(t *testing.T) {
	state, err := ParseState(`{"on":true,"bri":254,"xy":[0.3,0.3],"alert":"none"}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"on", "bri", "xy", "alert"}, state.Keys())
	assert.Equal(t, `{"on":true,"bri":254,"xy":[0.3,0.3],"alert":"none"}`, state.String())
}

func TestParseState_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{on: true}`},
		{name: "truncated", raw: `{"on": true`},
		{name: "array", raw: `[1, 2]`},
		{name: "scalar", raw: `true`},
		{name: "string", raw: `"on"`},
		{name: "trailing data", raw: `{"on": true} {}`},
		{name: "null", raw: "null"},
		{name: "padded null", raw: " null\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseState(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestState_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	state, err := ParseState(`{"on":true,"bri":1,"on":false}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"on", "bri"}, state.Keys())
	v, ok := state.Get("on")
	require.True(t, ok)
	assert.JSONEq(t, `false`, string(v))
}

func TestState_ZeroValueMarshalsAsEmptyObject(t *testing.T) {
	var state State
	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
	assert.Zero(t, state.Len())
}

func TestState_NullDecodesEmpty(t *testing.T) {
	var light Light
	require.NoError(t, json.Unmarshal([]byte(`{"name":"a","state":null}`), &light))
	assert.Zero(t, light.State.Len())
}

func TestState_NestedValuesPassThrough(t *testing.T) {
	raw := `{"effect":{"name":"colorloop","speed":[1,2,{"x":null}]},"on":true}`
	state, err := ParseState(raw)
	require.NoError(t, err)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(data))
	assert.Equal(t, []string{"effect", "on"}, state.Keys())
}

func TestState_IndentKeepsOrder(t *testing.T) {
	state, err := ParseState(`{"z":1,"a":2}`)
	require.NoError(t, err)

	data, err := json.MarshalIndent(state, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": 2\n}", string(data))
}

func TestOnState(t *testing.T) {
	assert.Equal(t, `{"on":true}`, OnState(true).String())
	assert.Equal(t, `{"on":false}`, OnState(false).String())
}

func TestState_SetAppendsAndOverwrites(t *testing.T) {
	var state State
	require.NoError(t, state.Set("on", true))
	require.NoError(t, state.Set("bri", 100))
	require.NoError(t, state.Set("on", false))

	assert.Equal(t, `{"on":false,"bri":100}`, state.String())
}

func TestSortIDs(t *testing.T) {
	ids := []string{"10", "2", "abc", "1", "Zed"}
	sortIDs(ids, func(s string) string { return s })
	assert.Equal(t, []string{"1", "2", "10", "Zed", "abc"}, ids)
}

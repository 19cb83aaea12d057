package lights

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clipLights = `{"errors":[],"data":[
	{"id":"l-2","type":"light","metadata":{"name":"Porch"},"owner":{"rid":"d-2","rtype":"device"}},
	{"id":"l-1","type":"light","metadata":{"name":"Desk"},"owner":{"rid":"d-1","rtype":"device"},
	 "color":{"xy":{"x":0.3,"y":0.3}},
	 "color_temperature":{"mirek":300,"mirek_valid":true,"mirek_schema":{"mirek_minimum":153,"mirek_maximum":500}}}
]}`

const clipDevices = `{"errors":[],"data":[
	{"id":"d-1","type":"device","product_data":{"model_id":"LCT015","product_name":"Hue color lamp","software_version":"1.104.2"}},
	{"id":"d-2","type":"device","product_data":{"model_id":"LWB010"}}
]}`

func TestCatalog_Devices(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "app-key", r.Header.Get("hue-application-key"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/resource/light"):
			io.WriteString(w, clipLights)
		case strings.HasSuffix(r.URL.Path, "/resource/device"):
			io.WriteString(w, clipDevices)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	catalog, err := NewCatalog(server.URL, "app-key", nil)
	require.NoError(t, err)

	devices, err := catalog.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	desk := devices[0]
	assert.Equal(t, "Desk", desk.Name)
	assert.Equal(t, "Hue color lamp", desk.Model)
	assert.Equal(t, "1.104.2", desk.FirmwareVersion)
	assert.True(t, desk.SupportsColor)
	assert.True(t, desk.SupportsKelvin)
	assert.Equal(t, 2000, desk.MinKelvin)
	assert.Equal(t, 6535, desk.MaxKelvin)

	porch := devices[1]
	assert.Equal(t, "Porch", porch.Name)
	assert.Equal(t, "LWB010", porch.Model)
	assert.False(t, porch.SupportsColor)
	assert.False(t, porch.SupportsKelvin)
}

func TestCatalog_Devices_Unauthorized(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"errors":[{"description":"unauthorized user"}],"data":[]}`)
	}))
	defer server.Close()

	catalog, err := NewCatalog(server.URL, "wrong", nil)
	require.NoError(t, err)

	_, err = catalog.Devices(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestWriteDevices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDevices(&buf, []Device{
		{Name: "Desk", Model: "Hue color lamp", FirmwareVersion: "1.104.2", SupportsColor: true, SupportsKelvin: true, MinKelvin: 2000, MaxKelvin: 6535},
		{Name: "Porch"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "2000-6535")
	assert.Contains(t, lines[2], "Porch")
	assert.Contains(t, lines[2], "-")
}

package discovery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huecli/internal/logging"
)

func method(name string, bridges []Bridge, err error, calls *[]string) Method {
	return Method{
		Name: name,
		Find: func(ctx context.Context) ([]Bridge, error) {
			*calls = append(*calls, name)
			return bridges, err
		},
	}
}

func TestDiscoverBridges_FirstNonEmptyMethodWins(t *testing.T) {
	var calls []string
	s := NewScanner(nil, WithMethods(
		method("a", nil, nil, &calls),
		method("b", []Bridge{{Address: "10.0.0.2"}, {Address: "10.0.0.3"}}, nil, &calls),
		method("c", []Bridge{{Address: "10.0.0.9"}}, nil, &calls),
	))

	got, err := s.DiscoverBridges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, calls)
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.2", got[0].Address)
	assert.Equal(t, "10.0.0.3", got[1].Address)
}

func TestDiscoverBridges_ErrorFallsThrough(t *testing.T) {
	var calls []string
	s := NewScanner(nil, WithMethods(
		method("a", nil, errors.New("offline"), &calls),
		method("b", []Bridge{{Address: "10.0.0.2"}}, nil, &calls),
	))

	got, err := s.DiscoverBridges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", got[0].Address)
}

func TestDiscoverBridges_NothingFound(t *testing.T) {
	var calls []string
	s := NewScanner(nil, WithMethods(
		method("a", nil, nil, &calls),
		method("b", nil, nil, &calls),
	))

	got, err := s.DiscoverBridges(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestDiscoverBridges_AllFailed(t *testing.T) {
	var calls []string
	offline := errors.New("offline")
	s := NewScanner(nil, WithMethods(
		method("a", nil, offline, &calls),
		method("b", nil, errors.New("timeout"), &calls),
	))

	_, err := s.DiscoverBridges(context.Background())
	assert.ErrorIs(t, err, offline)
	assert.Contains(t, err.Error(), "a: offline")
	assert.Contains(t, err.Error(), "b: timeout")
}

func TestDiscoverBridges_CancelledContext(t *testing.T) {
	var calls []string
	s := NewScanner(nil, WithMethods(method("a", []Bridge{{Address: "10.0.0.2"}}, nil, &calls)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.DiscoverBridges(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func TestDedupe(t *testing.T) {
	got := dedupe([]Bridge{
		{Address: "10.0.0.2"},
		{Address: ""},
		{Address: "10.0.0.3"},
		{Address: "10.0.0.2", Source: "dup"},
	})
	assert.Equal(t, []Bridge{{Address: "10.0.0.2"}, {Address: "10.0.0.3"}}, got)
}

func TestDiscoverViaCloud(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer limited.Close()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":"001788fffe100491","internalipaddress":"192.168.1.2","port":443},
			{"id":"001788fffe100492","internalipaddress":""},
			{"id":"001788fffe100493","internalipaddress":"192.168.1.3","port":443}
		]`)
	}))
	defer ok.Close()

	s := NewScanner(nil, WithNUPnPURLs(limited.URL, ok.URL))
	got, err := s.discoverViaCloud(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Bridge{
		{Address: "192.168.1.2", ID: "001788fffe100491", Source: "nupnp"},
		{Address: "192.168.1.3", ID: "001788fffe100493", Source: "nupnp"},
	}, got)
}

func TestDiscoverViaCloud_AllEndpointsFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	}))
	defer broken.Close()

	s := NewScanner(nil, WithNUPnPURLs(broken.URL))
	got, err := s.discoverViaCloud(context.Background())
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestDiscoverViaCloud_EmptyList(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer empty.Close()

	s := NewScanner(nil, WithNUPnPURLs(empty.URL))
	got, err := s.discoverViaCloud(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestTxtValue(t *testing.T) {
	fields := []string{"modelid=BSB002", "BridgeID=001788fffe100491"}
	assert.Equal(t, "001788fffe100491", txtValue(fields, "bridgeid"))
	assert.Equal(t, "BSB002", txtValue(fields, "modelid"))
	assert.Empty(t, txtValue(fields, "missing"))
}

func TestIsHueSSDPResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{
			name:     "hue bridge",
			response: "HTTP/1.1 200 OK\r\nSERVER: Hue/1.0 UPnP/1.0 IpBridge/1.26.0\r\nhue-bridgeid: 001788FFFE100491\r\n",
			want:     true,
		},
		{
			name:     "router",
			response: "HTTP/1.1 200 OK\r\nSERVER: Linux/3.14 UPnP/1.0 MiniUPnPd/2.0\r\n",
			want:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isHueSSDPResponse(tt.response))
		})
	}
}

func TestMDNSParams_LogsThroughScannerLogger(t *testing.T) {
	tests := []struct {
		level   string
		visible bool
	}{
		{level: "warn", visible: false},
		{level: "debug", visible: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := logging.New(logging.Config{Level: tt.level, NoColor: true, Output: &buf})
			s := NewScanner(log)

			params := s.mdnsParams(make(chan *mdns.ServiceEntry))
			require.NotNil(t, params.Logger)
			assert.Equal(t, "_hue._tcp", params.Service)

			params.Logger.Printf("[INFO] mdns: Closing client %v", "{...}")
			if tt.visible {
				assert.Contains(t, buf.String(), "Closing client")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestReadDeadline(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(time.Second), readDeadline(now, now.Add(5*time.Second)))
	assert.Equal(t, now.Add(300*time.Millisecond), readDeadline(now, now.Add(300*time.Millisecond)))
	assert.Equal(t, now.Add(time.Second), readDeadline(now, now.Add(time.Second)))
}

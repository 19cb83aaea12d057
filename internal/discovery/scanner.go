// Package discovery finds Hue bridges on the local network.
//
// Three mechanisms are tried one after another: the N-UPnP cloud endpoint,
// mDNS (_hue._tcp) and SSDP. The first mechanism that yields at least one
// bridge wins and its answer order is preserved.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"huecli/internal/logging"
)

// Bridge is a discovery candidate. Only Address is used for linking.
type Bridge struct {
	Address string `json:"address"`
	ID      string `json:"id,omitempty"`
	Source  string `json:"source"`
}

// Method is one discovery mechanism.
type Method struct {
	Name string
	Find func(ctx context.Context) ([]Bridge, error)
}

// DefaultNUPnPURLs are queried in order until one answers.
var DefaultNUPnPURLs = []string{
	"https://discovery.meethue.com/",
	"https://www.meethue.com/api/nupnp",
}

type Scanner struct {
	nupnpURLs   []string
	httpClient  *http.Client
	mdnsTimeout time.Duration
	ssdpTimeout time.Duration
	methods     []Method
	log         *logging.Logger
}

type Option func(*Scanner)

func WithNUPnPURLs(urls ...string) Option {
	return func(s *Scanner) { s.nupnpURLs = urls }
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Scanner) { s.httpClient = c }
}

func WithTimeouts(mdnsTimeout, ssdpTimeout time.Duration) Option {
	return func(s *Scanner) {
		s.mdnsTimeout = mdnsTimeout
		s.ssdpTimeout = ssdpTimeout
	}
}

// WithMethods replaces the default mechanisms.
func WithMethods(methods ...Method) Option {
	return func(s *Scanner) { s.methods = methods }
}

func NewScanner(log *logging.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		nupnpURLs:   DefaultNUPnPURLs,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		mdnsTimeout: 3 * time.Second,
		ssdpTimeout: 5 * time.Second,
		log:         logging.OrDiscard(log).Component("discovery"),
	}
	s.methods = []Method{
		{Name: "nupnp", Find: s.discoverViaCloud},
		{Name: "mdns", Find: s.discoverViaMDNS},
		{Name: "ssdp", Find: s.discoverViaSSDP},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscoverBridges returns the bridges found by the first successful method.
// An empty result with a nil error means every method ran and found nothing.
func (s *Scanner) DiscoverBridges(ctx context.Context) ([]Bridge, error) {
	var errs []error
	for _, m := range s.methods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.log.Debug("searching for bridges", "method", m.Name)
		found, err := m.Find(ctx)
		if err != nil {
			s.log.Debug("discovery method failed", "method", m.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", m.Name, err))
		}
		if bridges := dedupe(found); len(bridges) > 0 {
			s.log.Debug("bridges found", "method", m.Name, "count", len(bridges))
			return bridges, nil
		}
	}
	return nil, errors.Join(errs...)
}

func dedupe(bridges []Bridge) []Bridge {
	seen := make(map[string]bool, len(bridges))
	out := bridges[:0:0]
	for _, b := range bridges {
		if b.Address == "" || seen[b.Address] {
			continue
		}
		seen[b.Address] = true
		out = append(out, b)
	}
	return out
}

func (s *Scanner) discoverViaCloud(ctx context.Context) ([]Bridge, error) {
	var lastErr error
	for _, url := range s.nupnpURLs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			lastErr = err
			continue
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.log.Debug("N-UPnP request failed", "url", url, "error", err)
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		// 429 is common on the public endpoint; try the next one.
		if resp.StatusCode != http.StatusOK {
			s.log.Debug("N-UPnP endpoint refused", "url", url, "status", resp.StatusCode)
			lastErr = fmt.Errorf("%s returned HTTP %d", url, resp.StatusCode)
			continue
		}

		var results []struct {
			ID                string `json:"id"`
			InternalIPAddress string `json:"internalipaddress"`
			Port              int    `json:"port"`
		}
		if err := json.Unmarshal(body, &results); err != nil {
			lastErr = fmt.Errorf("%s: %w", url, err)
			continue
		}

		var bridges []Bridge
		for _, r := range results {
			if r.InternalIPAddress == "" {
				continue
			}
			bridges = append(bridges, Bridge{Address: r.InternalIPAddress, ID: r.ID, Source: "nupnp"})
		}
		if len(bridges) > 0 {
			return bridges, nil
		}
	}
	return nil, lastErr
}

func (s *Scanner) discoverViaMDNS(ctx context.Context) ([]Bridge, error) {
	entries := make(chan *mdns.ServiceEntry, 10)
	errc := make(chan error, 1)

	go func() {
		errc <- mdns.Query(s.mdnsParams(entries))
		close(entries)
	}()

	var bridges []Bridge
	for entry := range entries {
		if ctx.Err() != nil {
			continue
		}
		if entry.AddrV4 == nil {
			continue
		}
		bridges = append(bridges, Bridge{
			Address: entry.AddrV4.String(),
			ID:      txtValue(entry.InfoFields, "bridgeid"),
			Source:  "mdns",
		})
	}
	if err := <-errc; err != nil {
		return bridges, err
	}
	return bridges, ctx.Err()
}

// mdnsParams builds the _hue._tcp query. The library's own chatter goes
// through our logger at debug level instead of the standard logger.
func (s *Scanner) mdnsParams(entries chan<- *mdns.ServiceEntry) *mdns.QueryParam {
	return &mdns.QueryParam{
		Service:             "_hue._tcp",
		Domain:              "local",
		Timeout:             s.mdnsTimeout,
		Entries:             entries,
		DisableIPv6:         true,
		WantUnicastResponse: true,
		Logger:              slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}
}

func txtValue(fields []string, key string) string {
	prefix := key + "="
	for _, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), prefix) {
			return f[len(prefix):]
		}
	}
	return ""
}

var ssdpSearchTargets = []string{
	"ssdp:all",
	"urn:schemas-upnp-org:device:Basic:1",
	"upnp:rootdevice",
}

func (s *Scanner) discoverViaSSDP(ctx context.Context) ([]Bridge, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("opening UDP socket: %w", err)
	}
	defer conn.Close()

	ssdpAddr, err := net.ResolveUDPAddr("udp4", "239.255.255.250:1900")
	if err != nil {
		return nil, err
	}

	for _, st := range ssdpSearchTargets {
		msg := "M-SEARCH * HTTP/1.1\r\n" +
			"HOST: 239.255.255.250:1900\r\n" +
			"MAN: \"ssdp:discover\"\r\n" +
			"ST: " + st + "\r\n" +
			"MX: 3\r\n" +
			"\r\n"
		if _, err := conn.WriteTo([]byte(msg), ssdpAddr); err != nil {
			s.log.Debug("SSDP M-SEARCH failed", "target", st, "error", err)
		}
	}

	deadline := time.Now().Add(s.ssdpTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	buf := make([]byte, 4096)
	var bridges []Bridge
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return bridges, ctx.Err()
		}
		if err := conn.SetReadDeadline(readDeadline(time.Now(), deadline)); err != nil {
			return bridges, fmt.Errorf("setting SSDP read deadline: %w", err)
		}
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return bridges, err
		}

		udpAddr, ok := addr.(*net.UDPAddr)
		if !ok || !isHueSSDPResponse(string(buf[:n])) {
			continue
		}
		bridges = append(bridges, Bridge{Address: udpAddr.IP.String(), Source: "ssdp"})
	}
	return bridges, nil
}

// readDeadline bounds one SSDP read to a second without passing the
// overall listen deadline.
func readDeadline(now, deadline time.Time) time.Time {
	next := now.Add(time.Second)
	if next.After(deadline) {
		return deadline
	}
	return next
}

// isHueSSDPResponse matches the SERVER / hue-bridgeid headers Hue bridges send.
func isHueSSDPResponse(response string) bool {
	upper := strings.ToUpper(response)
	return strings.Contains(upper, "IPBRIDGE") ||
		strings.Contains(upper, "HUE-BRIDGEID") ||
		strings.Contains(upper, "PHILIPS HUE")
}

package lights

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/openhue/openhue-go"

	"huecli/internal/logging"
)

// Catalog reads light and device metadata over the CLIP v2 API, which
// exposes product names, firmware and color capabilities the v1 API lacks.
// The v1 user name doubles as the v2 application key.
type Catalog struct {
	address string
	client  *openhue.ClientWithResponses
	log     *logging.Logger
}

// NewCatalog connects to the bridge at address (bare host or https base URL).
// Bridges serve a self-signed certificate, so verification is disabled.
func NewCatalog(address, key string, log *logging.Logger) (*Catalog, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	apiURL := address
	if !strings.Contains(apiURL, "://") {
		apiURL = fmt.Sprintf("https://%s", address)
	}
	client, err := openhue.NewClientWithResponses(
		apiURL,
		openhue.WithHTTPClient(httpClient),
		openhue.WithRequestEditorFn(func(ctx context.Context, req *http.Request) error {
			req.Header.Set("hue-application-key", key)
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Hue client for %s: %w", address, err)
	}

	return &Catalog{
		address: address,
		client:  client,
		log:     logging.OrDiscard(log).Component("hue"),
	}, nil
}

// Devices lists every light with the product data of its owning device.
func (c *Catalog) Devices(ctx context.Context) ([]Device, error) {
	resp, err := c.client.GetLightsWithResponse(ctx)
	if err != nil {
		return nil, err
	}
	if resp.HTTPResponse != nil && resp.HTTPResponse.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.HTTPResponse.StatusCode, Description: "listing lights"}
	}
	if resp.JSON200 == nil || resp.JSON200.Data == nil {
		return nil, fmt.Errorf("hue: bridge %s returned no light data", c.address)
	}

	// Product data is best-effort: without it lights are still listed.
	// LightGet.Owner.Rid points to the owning device resource.
	type deviceMeta struct {
		modelName       string
		firmwareVersion string
	}
	meta := make(map[string]deviceMeta)
	if devResp, err := c.client.GetDevicesWithResponse(ctx); err != nil {
		c.log.Debug("device metadata unavailable", "error", err)
	} else if devResp.JSON200 != nil && devResp.JSON200.Data != nil {
		for _, hd := range *devResp.JSON200.Data {
			if hd.Id == nil || hd.ProductData == nil {
				continue
			}
			m := deviceMeta{}
			if v := hd.ProductData.ProductName; v != nil {
				m.modelName = *v
			} else if v := hd.ProductData.ModelId; v != nil {
				m.modelName = *v
			}
			if v := hd.ProductData.SoftwareVersion; v != nil {
				m.firmwareVersion = *v
			}
			meta[*hd.Id] = m
		}
	}

	var result []Device
	for _, l := range *resp.JSON200.Data {
		if l.Id == nil {
			continue
		}
		name := "Hue Light"
		if l.Metadata != nil && l.Metadata.Name != nil {
			name = *l.Metadata.Name
		}

		// Kelvin = 1 000 000 / mirek, so the mirek maximum is the Kelvin minimum.
		var minKelvin, maxKelvin int
		if l.ColorTemperature != nil && l.ColorTemperature.MirekSchema != nil {
			if v := l.ColorTemperature.MirekSchema.MirekMaximum; v != nil && *v > 0 {
				minKelvin = 1_000_000 / *v
			}
			if v := l.ColorTemperature.MirekSchema.MirekMinimum; v != nil && *v > 0 {
				maxKelvin = 1_000_000 / *v
			}
		}

		d := Device{
			ID:             *l.Id,
			Name:           name,
			SupportsColor:  l.Color != nil,
			SupportsKelvin: l.ColorTemperature != nil,
			MinKelvin:      minKelvin,
			MaxKelvin:      maxKelvin,
		}
		if l.Owner != nil && l.Owner.Rid != nil {
			if m, ok := meta[*l.Owner.Rid]; ok {
				d.Model = m.modelName
				d.FirmwareVersion = m.firmwareVersion
			}
		}
		result = append(result, d)
	}
	c.log.Debug("catalog read", "bridge", c.address, "lights", len(result))

	sort.SliceStable(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// WriteDevices prints devices as an aligned table.
func WriteDevices(w io.Writer, devices []Device) error {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODEL\tFIRMWARE\tCOLOR\tKELVIN")
	for _, d := range devices {
		kelvin := "-"
		if d.SupportsKelvin {
			kelvin = "yes"
			if d.MinKelvin > 0 && d.MaxKelvin > 0 {
				kelvin = fmt.Sprintf("%d-%d", d.MinKelvin, d.MaxKelvin)
			}
		}
		color := "-"
		if d.SupportsColor {
			color = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, orDash(d.Model), orDash(d.FirmwareVersion), color, kelvin)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

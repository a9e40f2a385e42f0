// Package overpass fetches walkable ways from an Overpass API endpoint
// and flattens them into trail segments.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/pkg/metrics"
)

// DefaultURL is the public Overpass interpreter.
const DefaultURL = "https://overpass-api.de/api/interpreter"

// Client implements ports.SegmentSource against Overpass.
type Client struct {
	url    string
	client *http.Client
}

// New creates an Overpass client. An empty url falls back to DefaultURL.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		url:    endpoint,
		client: &http.Client{Timeout: timeout},
	}
}

// overpassResponse is the subset of the Overpass JSON output we read:
// ways with inline geometry.
type overpassResponse struct {
	Elements []struct {
		Type     string `json:"type"`
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"elements"`
}

// FetchSegments queries walkable highway ways inside the bounding box and
// splits each way's geometry into point-to-point segments.
func (c *Client) FetchSegments(ctx context.Context, b domain.Bounds) (segs []domain.Segment, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			metrics.SegmentFetchErrors.Inc()
			return
		}
		metrics.SegmentFetchDuration.Observe(time.Since(start).Seconds())
	}()

	query := fmt.Sprintf(`[out:json][timeout:90];
way["highway"~"path|footway|track|bridleway|steps|cycleway|unclassified|residential|service|tertiary"]
  (%f,%f,%f,%f);
out geom;`, b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("overpass decode: %w", err)
	}

	for _, el := range parsed.Elements {
		if el.Type != "way" {
			continue
		}
		for i := 1; i < len(el.Geometry); i++ {
			segs = append(segs, domain.Segment{
				Start: domain.GeoPoint{Lat: el.Geometry[i-1].Lat, Lon: el.Geometry[i-1].Lon},
				End:   domain.GeoPoint{Lat: el.Geometry[i].Lat, Lon: el.Geometry[i].Lon},
			})
		}
	}
	return segs, nil
}

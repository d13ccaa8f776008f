package trackerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"raahi/internal/domain"
)

// Client talks to the tracking server's REST collaborators: the route
// catalog and the per-route bus roster, plus the optional path endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ListRoutes fetches the full route catalog.
func (c *Client) ListRoutes(ctx context.Context) ([]*domain.Route, error) {
	var routes []*domain.Route
	if err := c.getJSON(ctx, "/api/routes", &routes); err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}
	return routes, nil
}

// RouteBuses fetches the current roster for one route, the pre-live-update
// seed applied right after subscribing.
func (c *Client) RouteBuses(ctx context.Context, routeID string) ([]*domain.VehicleRecord, error) {
	var buses []*domain.VehicleRecord
	if err := c.getJSON(ctx, "/api/routes/"+routeID+"/buses", &buses); err != nil {
		return nil, fmt.Errorf("fetching roster for route %s: %w", routeID, err)
	}
	return buses, nil
}

type pathRequest struct {
	Start domain.Coordinate `json:"start"`
	End   domain.Coordinate `json:"end"`
}

// RoutePath asks the server for a walking/driving path between two points.
// The endpoint is optional server-side; when it is absent (404) the result
// is nil with no error and the caller shows no path.
func (c *Client) RoutePath(ctx context.Context, start, end domain.Coordinate) (*PathGeometry, error) {
	body, err := json.Marshal(pathRequest{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("encoding path request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/locations/route", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var geom PathGeometry
	if err := json.NewDecoder(resp.Body).Decode(&geom); err != nil {
		return nil, fmt.Errorf("decoding path: %w", err)
	}
	return &geom, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

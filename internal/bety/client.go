// Package bety is the BETYdb trait-database client: plot boundary lookup by
// date and site, and bulk CSV trait submission.
package bety

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"canopycover-extractor/internal/config"
	"canopycover-extractor/internal/models"
)

type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

func NewClient(cfg config.BETYConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		key:     cfg.Key,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type siteEnvelope struct {
	Site struct {
		ID       json.Number            `json:"id"`
		Sitename string                 `json:"sitename"`
		Geometry *models.GeoJSONPolygon `json:"geometry"`
	} `json:"site"`
}

type sitesResponse struct {
	Data []siteEnvelope `json:"data"`
}

// SiteBoundaries returns the registered plot boundaries for one site on the
// given calendar date, keyed by plot name. No registered plots is a valid
// empty result, not an error.
func (c *Client) SiteBoundaries(date, city string) (map[string]*models.GeoJSONPolygon, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("malformed date %q: %w", date, err)
	}

	reqURL := fmt.Sprintf("%s/api/v1/sites.json?key=%s&city=%s&date=%s",
		c.baseURL, url.QueryEscape(c.key), url.QueryEscape(city), date)

	resp, err := c.http.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call BETYdb: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read BETYdb response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BETYdb returned status %d: %s", resp.StatusCode, string(body))
	}

	var sites sitesResponse
	if err := json.Unmarshal(body, &sites); err != nil {
		return nil, fmt.Errorf("failed to parse BETYdb sites response: %w", err)
	}

	boundaries := make(map[string]*models.GeoJSONPolygon, len(sites.Data))
	for _, envelope := range sites.Data {
		if envelope.Site.Sitename == "" || envelope.Site.Geometry == nil {
			continue
		}
		boundaries[envelope.Site.Sitename] = envelope.Site.Geometry
	}

	return boundaries, nil
}

// SubmitTraits uploads the whole traits CSV in one bulk call, authenticated
// with the configured key. A failure here is job-fatal for the caller.
func (c *Client) SubmitTraits(csvPath string) error {
	data, err := os.ReadFile(csvPath)
	if err != nil {
		return fmt.Errorf("failed to read traits CSV %s: %w", csvPath, err)
	}

	reqURL := fmt.Sprintf("%s/api/v1/traits.csv?key=%s", c.baseURL, url.QueryEscape(c.key))
	resp, err := c.http.Post(reqURL, "text/csv", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to submit traits to BETYdb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("BETYdb trait submission returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// VariableLink is the human-facing catalog link recorded in the run summary
// metadata.
func (c *Client) VariableLink() string {
	return fmt.Sprintf("%s/api/beta/variables?name=canopy_cover", c.baseURL)
}

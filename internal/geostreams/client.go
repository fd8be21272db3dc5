// Package geostreams submits geolocated, timestamped datapoints to the
// host's geostream store.
package geostreams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"canopycover-extractor/internal/config"
)

// Datapoint is one per-plot measurement. Coordinates are submitted in
// [lat, lon] order.
type Datapoint struct {
	SourceURI string
	Variable  string
	Value     float64
	Latitude  float64
	Longitude float64
	StartTime string
	EndTime   string
	Season    string
}

type Client struct {
	host string
	key  string
	http *http.Client
}

func NewClient(cfg config.ClowderConfig) *Client {
	host := cfg.Host
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}
	return &Client{
		host: host,
		key:  cfg.Key,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type datapointPayload struct {
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Type       string         `json:"type"`
	Geometry   pointGeometry  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type pointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// CreateDatapoint posts one datapoint for the named variable, associated
// with the acquisition date as its season key.
func (c *Client) CreateDatapoint(dp Datapoint) error {
	payload := datapointPayload{
		StartTime: dp.StartTime,
		EndTime:   dp.EndTime,
		Type:      "Point",
		Geometry: pointGeometry{
			Type:        "Point",
			Coordinates: []float64{dp.Latitude, dp.Longitude},
		},
		Properties: map[string]any{
			"source":    dp.SourceURI,
			"variable":  dp.Variable,
			"value":     dp.Value,
			"season":    dp.Season,
			"site_date": dp.Season,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal datapoint: %w", err)
	}

	reqURL := fmt.Sprintf("%sapi/geostreams/datapoints?key=%s", c.host, url.QueryEscape(c.key))
	resp, err := c.http.Post(reqURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post datapoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("geostreams returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

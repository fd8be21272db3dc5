package geostreams

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"canopycover-extractor/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDatapoint(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/geostreams/datapoints", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(config.ClowderConfig{Host: server.URL, Key: "secret"})
	err := client.CreateDatapoint(Datapoint{
		SourceURI: "http://clowder.example/files/abc123",
		Variable:  "Canopy Cover",
		Value:     0.42,
		Latitude:  33.076,
		Longitude: -111.974,
		StartTime: "2016-07-01T12:00:00-07:00",
		EndTime:   "2016-07-01T12:00:00-07:00",
		Season:    "2016-07-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "2016-07-01T12:00:00-07:00", payload["start_time"])
	assert.Equal(t, "2016-07-01T12:00:00-07:00", payload["end_time"])

	geometry := payload["geometry"].(map[string]any)
	coords := geometry["coordinates"].([]any)
	assert.Equal(t, 33.076, coords[0], "latitude first")
	assert.Equal(t, -111.974, coords[1])

	properties := payload["properties"].(map[string]any)
	assert.Equal(t, "http://clowder.example/files/abc123", properties["source"])
	assert.Equal(t, 0.42, properties["value"])
	assert.Equal(t, "2016-07-01", properties["season"])
}

func TestCreateDatapoint_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(config.ClowderConfig{Host: server.URL})
	err := client.CreateDatapoint(Datapoint{Variable: "Canopy Cover"})
	assert.Error(t, err)
}

package clowder

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"canopycover-extractor/internal/config"
	"canopycover-extractor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileURL(t *testing.T) {
	client := NewClient(config.ClowderConfig{Host: "http://clowder.example"})
	assert.Equal(t, "http://clowder.example/files/abc123", client.FileURL("abc123"))

	// Trailing slash on the host must not double up.
	client = NewClient(config.ClowderConfig{Host: "http://clowder.example/"})
	assert.Equal(t, "http://clowder.example/files/abc123", client.FileURL("abc123"))
}

func TestDatasetInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/datasets/ds1", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Write([]byte(`{"id": "ds1", "name": "Full Field - 2016-07-01"}`))
	}))
	defer server.Close()

	client := NewClient(config.ClowderConfig{Host: server.URL, Key: "secret"})
	info, err := client.DatasetInfo("ds1")
	require.NoError(t, err)
	assert.Equal(t, "Full Field - 2016-07-01", info.Name)
}

func TestDatasetMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/datasets/ds1/metadata.jsonld", r.URL.Path)
		w.Write([]byte(`[
			{"agent": {"@type": "cat:extractor", "extractor_id": "http://h/api/extractors/terra.stereo-rgb.canopycover"},
			 "content": {"plots_processed": 2}}
		]`))
	}))
	defer server.Close()

	client := NewClient(config.ClowderConfig{Host: server.URL})
	entries, err := client.DatasetMetadata("ds1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.True(t, HasExtractorEntry(entries, models.Extractor.Name))
	assert.False(t, HasExtractorEntry(entries, "terra.heightmap"))
}

func TestHasExtractorEntry_Empty(t *testing.T) {
	assert.False(t, HasExtractorEntry(nil, models.Extractor.Name))
}

func TestUploadDatasetMetadata(t *testing.T) {
	var received MetadataEntry
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/datasets/ds1/metadata.jsonld", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(config.ClowderConfig{Host: server.URL, Key: "secret"})
	err := client.UploadDatasetMetadata("ds1", map[string]any{
		"plots_processed": 2,
		"plots_skipped":   1,
	})
	require.NoError(t, err)

	assert.Contains(t, received.Agent.ExtractorID, models.Extractor.Name)
	assert.EqualValues(t, 2, received.Content["plots_processed"])
	assert.EqualValues(t, 1, received.Content["plots_skipped"])
}

package bety

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"canopycover-extractor/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sitesJSON = `{
	"data": [
		{"site": {"id": 6000000001, "sitename": "MAC_001", "geometry": {
			"type": "Polygon",
			"coordinates": [[[-111.975, 33.075], [-111.973, 33.075], [-111.973, 33.077], [-111.975, 33.077], [-111.975, 33.075]]]
		}}},
		{"site": {"id": 6000000002, "sitename": "MAC_002", "geometry": {
			"type": "Polygon",
			"coordinates": [[[-111.971, 33.075], [-111.969, 33.075], [-111.969, 33.077], [-111.971, 33.077], [-111.971, 33.075]]]
		}}},
		{"site": {"id": 6000000003, "sitename": "", "geometry": null}}
	]
}`

func TestSiteBoundaries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sites.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "Maricopa", r.URL.Query().Get("city"))
		assert.Equal(t, "2016-07-01", r.URL.Query().Get("date"))
		w.Write([]byte(sitesJSON))
	}))
	defer server.Close()

	client := NewClient(config.BETYConfig{URL: server.URL, Key: "secret"})
	boundaries, err := client.SiteBoundaries("2016-07-01", "Maricopa")
	require.NoError(t, err)

	require.Len(t, boundaries, 2, "unnamed or geometry-less sites are dropped")
	assert.Contains(t, boundaries, "MAC_001")
	assert.Contains(t, boundaries, "MAC_002")

	centroid, err := boundaries["MAC_001"].Centroid()
	require.NoError(t, err)
	assert.InDelta(t, -111.974, centroid[0], 1e-9)
}

func TestSiteBoundaries_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewClient(config.BETYConfig{URL: server.URL})
	boundaries, err := client.SiteBoundaries("2016-07-01", "Maricopa")
	require.NoError(t, err, "no registered plots is a valid empty result")
	assert.Empty(t, boundaries)
}

func TestSiteBoundaries_MalformedDate(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(config.BETYConfig{URL: server.URL})
	_, err := client.SiteBoundaries("July 1st 2016", "Maricopa")
	assert.Error(t, err)
	assert.False(t, called, "malformed date fails before any request is made")
}

func TestSiteBoundaries_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(config.BETYConfig{URL: server.URL})
	_, err := client.SiteBoundaries("2016-07-01", "Maricopa")
	assert.Error(t, err)
}

func TestSubmitTraits(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "out_canopycover.csv")
	content := "local_datetime,canopy_cover\n2016-07-01T12:00:00,0.42\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/traits.csv", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, content, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(config.BETYConfig{URL: server.URL, Key: "secret"})
	require.NoError(t, client.SubmitTraits(csvPath))
}

func TestSubmitTraits_Failure(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "out_canopycover.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("header\n"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(config.BETYConfig{URL: server.URL, Key: "wrong"})
	assert.Error(t, client.SubmitTraits(csvPath))
}

func TestVariableLink(t *testing.T) {
	client := NewClient(config.BETYConfig{URL: "https://bety.example/"})
	assert.Equal(t, "https://bety.example/api/beta/variables?name=canopy_cover", client.VariableLink())
}

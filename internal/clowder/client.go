// Package clowder talks to the host runtime's dataset and metadata APIs.
package clowder

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
	"canopycover-extractor/internal/models"
)

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

// Host returns the host base URL, always with a trailing slash.
func (c *Client) Host() string {
	return c.host
}

// FileURL builds the public source URI for a file resource.
func (c *Client) FileURL(fileID string) string {
	return c.host + "files/" + fileID
}

type DatasetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DatasetInfo fetches the dataset descriptor; the dataset name carries the
// acquisition date as its " - " suffix.
func (c *Client) DatasetInfo(datasetID string) (*DatasetInfo, error) {
	reqURL := fmt.Sprintf("%sapi/datasets/%s?key=%s", c.host, datasetID, url.QueryEscape(c.key))

	resp, err := c.http.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset %s: %w", datasetID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset lookup returned status %d: %s", resp.StatusCode, string(body))
	}

	var info DatasetInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse dataset response: %w", err)
	}

	return &info, nil
}

// MetadataEntry is one attached metadata document on a dataset.
type MetadataEntry struct {
	Agent   MetadataAgent  `json:"agent"`
	Content map[string]any `json:"content"`
}

type MetadataAgent struct {
	Type        string `json:"@type"`
	ExtractorID string `json:"extractor_id"`
}

// DatasetMetadata downloads all metadata attached to a dataset.
func (c *Client) DatasetMetadata(datasetID string) ([]MetadataEntry, error) {
	reqURL := fmt.Sprintf("%sapi/datasets/%s/metadata.jsonld?key=%s", c.host, datasetID, url.QueryEscape(c.key))

	resp, err := c.http.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for dataset %s: %w", datasetID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata lookup returned status %d: %s", resp.StatusCode, string(body))
	}

	var entries []MetadataEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse metadata response: %w", err)
	}

	return entries, nil
}

// HasExtractorEntry reports whether a metadata entry from the named
// extractor is already attached, which gates reprocessing.
func HasExtractorEntry(entries []MetadataEntry, extractorName string) bool {
	for _, entry := range entries {
		if strings.Contains(entry.Agent.ExtractorID, extractorName) {
			return true
		}
	}
	return false
}

// BuildMetadata wraps extractor output content in the host's metadata
// envelope, tagged with the extractor identity.
func BuildMetadata(host string, info models.ExtractorInfo, content map[string]any) MetadataEntry {
	return MetadataEntry{
		Agent: MetadataAgent{
			Type:        "cat:extractor",
			ExtractorID: host + "api/extractors/" + info.Name,
		},
		Content: content,
	}
}

// UploadDatasetMetadata attaches a summary metadata document to the parent
// dataset.
func (c *Client) UploadDatasetMetadata(datasetID string, content map[string]any) error {
	entry := BuildMetadata(c.host, models.Extractor, content)

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	reqURL := fmt.Sprintf("%sapi/datasets/%s/metadata.jsonld?key=%s", c.host, datasetID, url.QueryEscape(c.key))
	resp, err := c.http.Post(reqURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to upload metadata for dataset %s: %w", datasetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("metadata upload returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

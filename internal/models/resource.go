package models

// Resource describes the triggering file as delivered by the host runtime:
// a full-field orthomosaic thumb living in a parent dataset.
type Resource struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	LocalPath       string `json:"local_path,omitempty"`
	ObjectName      string `json:"object_name,omitempty"`
	ParentDatasetID string `json:"parent_dataset_id"`
}

// ExtractionRequest is the message consumed from the extraction queue.
type ExtractionRequest struct {
	ID       string   `json:"id"`
	Resource Resource `json:"resource"`
}

// ExtractorInfo identifies this extractor in dataset metadata; its presence
// on a dataset marks the resource as already processed.
type ExtractorInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

var Extractor = ExtractorInfo{
	Name:    "terra.stereo-rgb.canopycover",
	Version: "1.0",
}

// Package extractor holds the per-field batch orchestration loop: enumerate
// the plots registered for a field and date, clip each one out of the
// full-field raster, estimate canopy cover, and feed every successful plot
// to two independent sinks (the traits CSV and the geostream store) without
// letting one plot's failure abort the rest.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"canopycover-extractor/internal/clowder"
	"canopycover-extractor/internal/config"
	"canopycover-extractor/internal/geostreams"
	"canopycover-extractor/internal/models"
	"canopycover-extractor/internal/raster"
	"canopycover-extractor/internal/traits"
)

const canopyCoverVariable = "Canopy Cover"

// fullfieldThumb gates incoming resources to full-field RGB thumb products.
var fullfieldThumb = regexp.MustCompile(`^.*\d+_rgb_.*thumb.tif`)

// PlotEnumerator returns the registered plot boundaries for a site on a
// calendar date.
type PlotEnumerator interface {
	SiteBoundaries(date, city string) (map[string]*models.GeoJSONPolygon, error)
}

// TraitSubmitter bulk-uploads the finished traits CSV and exposes the
// catalog link recorded in the run summary.
type TraitSubmitter interface {
	SubmitTraits(csvPath string) error
	VariableLink() string
}

// DatapointSink dispatches one geolocated datapoint per successful plot.
type DatapointSink interface {
	CreateDatapoint(dp geostreams.Datapoint) error
}

// HostClient is the narrow contract with the host runtime: dataset lookup,
// metadata gating and the summary annotation.
type HostClient interface {
	DatasetInfo(datasetID string) (*clowder.DatasetInfo, error)
	DatasetMetadata(datasetID string) ([]clowder.MetadataEntry, error)
	UploadDatasetMetadata(datasetID string, content map[string]any) error
	FileURL(fileID string) string
}

// Clipper extracts one plot's pixel sub-array from the raster.
type Clipper interface {
	Clip(rasterPath string, boundary *models.GeoJSONPolygon) (raster.PixelArray, raster.GeoTransform, error)
}

// Estimator computes the canopy-cover fraction from a channel-last array.
type Estimator interface {
	EstimateCanopyCover(a raster.PixelArray) (float64, error)
}

// RasterStore fetches rasters that arrive without a local path and archives
// run outputs. Optional.
type RasterStore interface {
	FetchRaster(ctx context.Context, objectName, destPath string) error
	ArchiveTraits(ctx context.Context, objectName, csvPath string) error
}

type Extractor struct {
	cfg        *config.ExtractorConfig
	log        *slog.Logger
	plots      PlotEnumerator
	submitter  TraitSubmitter
	datapoints DatapointSink
	host       HostClient
	clip       Clipper
	estimate   Estimator
	store      RasterStore
}

func New(
	cfg *config.ExtractorConfig,
	log *slog.Logger,
	plots PlotEnumerator,
	submitter TraitSubmitter,
	datapoints DatapointSink,
	host HostClient,
	clip Clipper,
	estimate Estimator,
	store RasterStore,
) *Extractor {
	return &Extractor{
		cfg:        cfg,
		log:        log,
		plots:      plots,
		submitter:  submitter,
		datapoints: datapoints,
		host:       host,
		clip:       clip,
		estimate:   estimate,
		store:      store,
	}
}

// HandleExtraction gates and runs one field job.
func (e *Extractor) HandleExtraction(ctx context.Context, req models.ExtractionRequest) error {
	ok, err := e.CheckMessage(req.Resource)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	summary, err := e.ProcessField(ctx, req.Resource)
	if err != nil {
		return err
	}

	e.log.Info("field job complete",
		"resource", req.Resource.Name,
		"plots_processed", summary.PlotsProcessed,
		"plots_skipped", summary.PlotsSkipped,
	)
	return nil
}

// CheckMessage decides whether a resource should be processed: the name
// must reference a fullfield composite and match the RGB thumb pattern, and
// the dataset must not already carry this extractor's metadata unless the
// overwrite flag is set.
func (e *Extractor) CheckMessage(res models.Resource) (bool, error) {
	if !strings.Contains(res.Name, "fullfield") || !fullfieldThumb.MatchString(res.Name) {
		e.log.Info("skipping resource, name pattern not matched", "resource", res.Name)
		return false, nil
	}

	md, err := e.host.DatasetMetadata(res.ParentDatasetID)
	if err != nil {
		return false, fmt.Errorf("failed to check dataset metadata: %w", err)
	}
	if clowder.HasExtractorEntry(md, models.Extractor.Name) && !e.cfg.Overwrite {
		e.log.Info("skipping resource, metadata indicates it was already processed", "resource", res.Name)
		return false, nil
	}

	return true, nil
}

// ProcessField runs one field job end to end: enumerate plots, process each
// one into a PlotOutcome, stream successful outcomes to both sinks, then
// bulk-submit the CSV and annotate the dataset. Per-plot failures are
// isolated; enumeration, bulk submission and annotation failures are
// job-fatal.
func (e *Extractor) ProcessField(ctx context.Context, res models.Resource) (models.RunSummary, error) {
	var summary models.RunSummary

	info, err := e.host.DatasetInfo(res.ParentDatasetID)
	if err != nil {
		return summary, err
	}

	date, err := acquisitionDate(info.Name)
	if err != nil {
		return summary, err
	}

	rasterPath, err := e.localRaster(ctx, res)
	if err != nil {
		return summary, err
	}

	outCSV := traitsCSVPath(rasterPath, res.Name)
	e.log.Info("writing CSV", "path", outCSV)
	writer, err := newTraitsWriter(outCSV)
	if err != nil {
		return summary, err
	}
	// The handle is released on every exit path; Close is idempotent so the
	// explicit close before submission does not double-close.
	defer writer.Close()

	boundaries, err := e.plots.SiteBoundaries(date, e.cfg.SiteFilter)
	if err != nil {
		return summary, fmt.Errorf("plot enumeration failed: %w", err)
	}
	e.log.Info("found plots", "count", len(boundaries), "date", date, "site", e.cfg.SiteFilter)

	outcomes := make([]models.PlotOutcome, 0, len(boundaries))
	for _, plotName := range sortedPlotNames(boundaries) {
		outcome := e.processPlot(rasterPath, plotName, boundaries[plotName])
		outcomes = append(outcomes, outcome)

		if outcome.Failed() {
			e.log.Error("error generating canopy cover for plot",
				"plot", plotName, "error", outcome.Err)
			continue
		}

		record := models.NewTraitRecord(date+"T12:00:00", outcome.CanopyCover, e.cfg.Species, plotName)
		if err := writer.WriteRecord(record); err != nil {
			return summary, err
		}

		e.dispatchDatapoint(res, date, outcome)

		summary.PlotsProcessed++
		if summary.PlotsProcessed%10 == 0 {
			e.log.Info("processed plots", "done", summary.PlotsProcessed, "total", len(boundaries))
		}
	}
	summary.PlotsSkipped = len(outcomes) - summary.PlotsProcessed

	if err := writer.Close(); err != nil {
		return summary, fmt.Errorf("failed to close traits CSV: %w", err)
	}

	e.log.Info("submitting CSV to BETYdb", "path", outCSV)
	if err := e.submitter.SubmitTraits(outCSV); err != nil {
		return summary, fmt.Errorf("bulk trait submission failed: %w", err)
	}

	if e.store != nil {
		if err := e.store.ArchiveTraits(ctx, filepath.Base(outCSV), outCSV); err != nil {
			e.log.Error("failed to archive traits CSV", "error", err)
		}
	}

	e.log.Info("updating dataset metadata", "dataset", res.ParentDatasetID)
	content := map[string]any{
		"plots_processed": summary.PlotsProcessed,
		"plots_skipped":   summary.PlotsSkipped,
		"betydb_link":     e.submitter.VariableLink(),
	}
	if err := e.host.UploadDatasetMetadata(res.ParentDatasetID, content); err != nil {
		return summary, fmt.Errorf("dataset metadata upload failed: %w", err)
	}

	return summary, nil
}

// processPlot produces one outcome for one plot. Every failure mode — clip
// error, degenerate shape, estimator error, bad geometry — lands in the
// outcome instead of aborting the loop.
func (e *Extractor) processPlot(rasterPath, plotName string, boundary *models.GeoJSONPolygon) models.PlotOutcome {
	outcome := models.PlotOutcome{Plot: plotName}

	pixels, _, err := e.clip.Clip(rasterPath, boundary)
	if err != nil {
		outcome.Err = fmt.Errorf("clip failed: %w", err)
		return outcome
	}
	if pixels.Dims() < 3 {
		outcome.Err = fmt.Errorf("unexpected array shape %v", pixels.Shape)
		return outcome
	}

	// The clipper is band-first; the estimator wants channel-last.
	rolled, err := traits.RollAxis(pixels)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	cover, err := e.estimate.EstimateCanopyCover(rolled)
	if err != nil {
		outcome.Err = fmt.Errorf("canopy cover estimation failed: %w", err)
		return outcome
	}

	centroid, err := boundary.Centroid()
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.CanopyCover = cover
	outcome.Centroid = centroid
	return outcome
}

// dispatchDatapoint sends one plot's measurement to the geostream store. A
// delivery failure is logged and isolated: the CSV row is already written,
// so the two output channels stay 1:1 in content and may diverge only in
// delivery success.
func (e *Extractor) dispatchDatapoint(res models.Resource, date string, outcome models.PlotOutcome) {
	timeFmt := date + "T12:00:00" + e.cfg.UTCOffset
	dp := geostreams.Datapoint{
		SourceURI: e.host.FileURL(res.ID),
		Variable:  canopyCoverVariable,
		Value:     outcome.CanopyCover,
		Latitude:  outcome.Centroid[1],
		Longitude: outcome.Centroid[0],
		StartTime: timeFmt,
		EndTime:   timeFmt,
		Season:    date,
	}

	if err := e.datapoints.CreateDatapoint(dp); err != nil {
		e.log.Error("datapoint dispatch failed", "plot", outcome.Plot, "error", err)
	}
}

// localRaster resolves the raster to a local path, downloading from the
// object store when the message carries no local copy.
func (e *Extractor) localRaster(ctx context.Context, res models.Resource) (string, error) {
	if res.LocalPath != "" {
		return res.LocalPath, nil
	}
	if e.store == nil {
		return "", fmt.Errorf("resource %s has no local path and no object store is configured", res.Name)
	}

	objectName := res.ObjectName
	if objectName == "" {
		objectName = res.Name
	}
	dest := filepath.Join(os.TempDir(), res.Name)
	if err := e.store.FetchRaster(ctx, objectName, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// acquisitionDate pulls the calendar date out of the dataset name, which is
// formatted "<product> - <date>".
func acquisitionDate(datasetName string) (string, error) {
	parts := strings.SplitN(datasetName, " - ", 2)
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("dataset name %q carries no acquisition date", datasetName)
	}
	return parts[1], nil
}

// traitsCSVPath places the output next to the source image, replacing the
// image extension with _canopycover.csv.
func traitsCSVPath(rasterPath, resourceName string) string {
	base := strings.TrimSuffix(resourceName, filepath.Ext(resourceName)) + "_canopycover.csv"
	return filepath.Join(filepath.Dir(rasterPath), base)
}

func sortedPlotNames(boundaries map[string]*models.GeoJSONPolygon) []string {
	names := make([]string, 0, len(boundaries))
	for name := range boundaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

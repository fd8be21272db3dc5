package traits

import "canopycover-extractor/internal/raster"

// CanopyEstimator adapts the canopy-cover kernel to the orchestrator's
// estimator contract.
type CanopyEstimator struct{}

func NewCanopyEstimator() *CanopyEstimator {
	return &CanopyEstimator{}
}

func (CanopyEstimator) EstimateCanopyCover(a raster.PixelArray) (float64, error) {
	return EstimateCanopyCover(a)
}

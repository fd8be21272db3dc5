package models

import "strconv"

// TraitFields is the fixed column order of the traits CSV. The header row
// and every record row follow this order exactly.
var TraitFields = []string{
	"local_datetime",
	"canopy_cover",
	"access_level",
	"species",
	"site",
	"citation_author",
	"citation_year",
	"citation_title",
	"method",
}

// Default trait row values. CitationAuthor carries an embedded comma in the
// original dataset; rows are comma-joined without escaping, so splitting a
// row only round-trips when no field contains a comma.
const (
	DefaultAccessLevel    = "2"
	DefaultCitationAuthor = `"Zongyang, Li"`
	DefaultCitationYear   = "2016"
	DefaultCitationTitle  = "Maricopa Field Station Data and Metadata"
	DefaultMethod         = "Canopy Cover Estimation from RGB images"
)

// TraitRecord is one row of measurement output for a single plot. Every
// field is populated before the record is written; records are never
// mutated after creation.
type TraitRecord struct {
	LocalDatetime  string
	CanopyCover    float64
	AccessLevel    string
	Species        string
	Site           string
	CitationAuthor string
	CitationYear   string
	CitationTitle  string
	Method         string
}

// NewTraitRecord builds a fully populated record for one plot.
func NewTraitRecord(localDatetime string, canopyCover float64, species, site string) TraitRecord {
	return TraitRecord{
		LocalDatetime:  localDatetime,
		CanopyCover:    canopyCover,
		AccessLevel:    DefaultAccessLevel,
		Species:        species,
		Site:           site,
		CitationAuthor: DefaultCitationAuthor,
		CitationYear:   DefaultCitationYear,
		CitationTitle:  DefaultCitationTitle,
		Method:         DefaultMethod,
	}
}

// Row returns the record's values in TraitFields order.
func (r TraitRecord) Row() []string {
	return []string{
		r.LocalDatetime,
		strconv.FormatFloat(r.CanopyCover, 'f', -1, 64),
		r.AccessLevel,
		r.Species,
		r.Site,
		r.CitationAuthor,
		r.CitationYear,
		r.CitationTitle,
		r.Method,
	}
}

// PlotOutcome is the result of processing one plot: either a canopy-cover
// value with the plot centroid, or a failure reason. The orchestration loop
// accumulates one outcome per plot regardless of errors.
type PlotOutcome struct {
	Plot        string
	CanopyCover float64
	Centroid    [2]float64 // [lon, lat]
	Err         error
}

func (o PlotOutcome) Failed() bool {
	return o.Err != nil
}

// RunSummary counts plots attempted vs. succeeded for one field job.
type RunSummary struct {
	PlotsProcessed int `json:"plots_processed"`
	PlotsSkipped   int `json:"plots_skipped"`
}

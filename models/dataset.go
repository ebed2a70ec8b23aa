// models/dataset.go
package models

import "strings"

// OrgNationalLandSurvey is the organization name used by datasets whose blank
// "(-)" labels mean the year is unknown.
const OrgNationalLandSurvey = "National Land Survey of Finland"

// DatasetFamily tags a dataset with the identity/timestamp convention it
// follows. The family is assigned once when the dataset row is loaded, so the
// resolver and the ID builder dispatch over a closed set instead of repeating
// substring tests against the collection ID.
type DatasetFamily int

const (
	FamilyDefault DatasetFamily = iota
	// FamilyElevationLive datasets only carry the latest data; their
	// timestamps come from the file's Last-Modified header.
	FamilyElevationLive
	// FamilyDecadeTopographic datasets declare their year as a decade
	// placeholder such as "192x".
	FamilyDecadeTopographic
	// FamilySnowLoad datasets encode the year span in the filename,
	// rcp<scenario><startyear><endyear>.
	FamilySnowLoad
	// FamilyMonthlyPredictions is the predictions family whose filenames
	// carry a three-segment variable name.
	FamilyMonthlyPredictions
	// FamilyPredictions datasets may carry a parenthesized annotation in the
	// year column that has to be stripped before splitting.
	FamilyPredictions
	// FamilyMonthlyAggregate datasets have a YYYYMM token in the filename.
	FamilyMonthlyAggregate
	// FamilySpectre items have the publication date in the path, not the data
	// date, so path years must be ignored.
	FamilySpectre
	// FamilySurvey datasets guarantee one file per time period, so the item
	// ID is collection + date with no path-derived part.
	FamilySurvey
	// FamilyOrthoimage item IDs need extra path segments (elevation model and
	// processing run) to stay unique.
	FamilyOrthoimage
	// FamilyGeneralMap item IDs follow the legacy convention of concatenating
	// the filename segments without separators.
	FamilyGeneralMap
)

// String returns the family name for logging.
func (f DatasetFamily) String() string {
	switch f {
	case FamilyElevationLive:
		return "elevation-live"
	case FamilyDecadeTopographic:
		return "decade-topographic"
	case FamilySnowLoad:
		return "snow-load"
	case FamilyMonthlyPredictions:
		return "monthly-predictions"
	case FamilyPredictions:
		return "predictions"
	case FamilyMonthlyAggregate:
		return "monthly-aggregate"
	case FamilySpectre:
		return "spectre"
	case FamilySurvey:
		return "survey"
	case FamilyOrthoimage:
		return "orthoimage"
	case FamilyGeneralMap:
		return "general-map"
	default:
		return "default"
	}
}

// ClassifyDataset maps a collection ID and year field to a DatasetFamily.
// The order of the checks is part of the contract: a collection ID can match
// several markers (e.g. monthly predictions), and the first match wins.
func ClassifyDataset(stacID, yearField string) DatasetFamily {
	switch {
	case strings.Contains(stacID, "nls_digital_elevation_model_2m"):
		return FamilyElevationLive
	case strings.Contains(stacID, "nls_topographic_map_42k") && strings.Contains(yearField, "x"):
		return FamilyDecadeTopographic
	case strings.Contains(stacID, "snow_load_on_trees"):
		return FamilySnowLoad
	case strings.Contains(stacID, "predictions") && strings.Contains(stacID, "monthly"):
		return FamilyMonthlyPredictions
	case strings.Contains(stacID, "predictions"):
		return FamilyPredictions
	case strings.Contains(stacID, "monthly_avg") || strings.Contains(stacID, "monthly_precipitation_1km"):
		return FamilyMonthlyAggregate
	case strings.HasPrefix(stacID, "hy_spectre"):
		return FamilySpectre
	case strings.HasPrefix(stacID, "hy"):
		return FamilySurvey
	case strings.Contains(stacID, "orthoimage"):
		return FamilyOrthoimage
	case strings.Contains(stacID, "general_map"):
		return FamilyGeneralMap
	default:
		return FamilyDefault
	}
}

// HasSurveyID reports whether the item ID follows the survey convention
// (collection + date only). Spectre collections share the "hy" prefix and use
// the same ID rule even though their timestamp handling differs.
func (f DatasetFamily) HasSurveyID() bool {
	return f == FamilySurvey || f == FamilySpectre
}

// DatasetDescriptor is one row of dataset-level metadata from the catalog
// database. It is immutable for the duration of a sync run.
type DatasetDescriptor struct {
	DataID     int    `db:"data_id"`
	StacID     string `db:"stac_id"`
	OrgName    string `db:"org_eng"`
	Name       string `db:"name_eng"`
	Scale      string `db:"scale"`
	YearField  string `db:"year"`
	Format     string `db:"format_eng"`
	CoordSys   string `db:"coord_sys"`
	LicenseURL string `db:"license_url"`
	MetadataID string `db:"meta"`

	Family DatasetFamily `db:"-"`
}

// IndexRecord is one discovered candidate file row from the spatial index
// table. Path may point at a single file, a "*"-suffixed pattern, or a
// directory that has to be listed.
type IndexRecord struct {
	GID     int    `db:"gid"`
	DataID  int    `db:"data_id"`
	Label   string `db:"label"`
	Path    string `db:"path"`
	GeoJSON string `db:"geojson"`
}

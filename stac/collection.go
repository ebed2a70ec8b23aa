// stac/collection.go
package stac

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/geoharvest/stacsync/models"
)

var (
	scalePattern = regexp.MustCompile(`Scale:\s*(.*?)\.`)
	coordPattern = regexp.MustCompile(`Coordinate systems:\s*(.*?)\.`)
)

// BuildCollection assembles the collection document for a dataset row. The
// spatial extent starts as a placeholder and is recomputed from items later;
// the temporal extent comes from the dataset year column.
func BuildCollection(ds models.DatasetDescriptor) (models.Collection, error) {
	ts, err := rangeSpan(ds.YearField)
	if err != nil {
		return models.Collection{}, fmt.Errorf("collection %s: %w", ds.StacID, err)
	}

	scale := strings.TrimRight(ds.Scale, " ")
	name := ds.Name
	// The newest 100k sheet series is published under a different dataset name
	// than the rest of the collection.
	if ds.StacID == "nls_topographic_map_100k_at_paituli" && name == "Sverige-Finland map" {
		name = "Basic or topographic map"
	}

	title := fmt.Sprintf("%s, %s (Paituli)", name, scale)
	description := fmt.Sprintf("%s. Provided by %s. Scale: %s. Coordinate systems: %s.",
		name, ds.OrgName, scale, ds.CoordSys)
	if strings.Contains(ds.StacID, "newest") {
		title = fmt.Sprintf("%s newest, %s (Paituli)", name, scale)
		description = fmt.Sprintf("%s newest. Provided by %s. Scale: %s. Coordinate systems: %s.",
			name, ds.OrgName, scale, ds.CoordSys)
	}

	license := "CC-BY-4.0"
	if ds.Name == "Landsat" {
		license = "PDDL-1.0"
	}

	start, end := ts.Start, ts.End
	return models.Collection{
		ID:          ds.StacID,
		Title:       title,
		Description: description,
		License:     license,
		LicenseURL:  ds.LicenseURL,
		Providers: []models.Provider{
			{Name: ds.OrgName, Roles: []string{"licensor", "producer"}},
			{Name: "CSC Finland", URL: "https://www.csc.fi/", Roles: []string{"host"}},
		},
		SpatialBBox:  []float64{0, 0, 0, 0},
		TemporalFrom: &start,
		TemporalTo:   &end,
		Scales:       []string{ds.Scale},
		CoordSystems: []string{ds.CoordSys},
		Assets: map[string]models.Asset{
			"meta": {
				Href:  "https://urn.fi/" + ds.MetadataID,
				Title: "Metadata",
				Roles: []string{"metadata"},
			},
		},
	}, nil
}

// MergeCollectionVariant folds another dataset row's scale and coordinate
// system into an existing collection document. Collections spanning several
// scales drop the scale from their title. Reports whether the document
// changed.
func MergeCollectionVariant(doc map[string]any, ds models.DatasetDescriptor) bool {
	description, _ := doc["description"].(string)
	changed := false

	scales := variantValues(doc["scale"], scalePattern, description)
	if !containsString(scales, ds.Scale) {
		if m := scalePattern.FindStringSubmatch(description); m != nil {
			description = strings.Replace(description, m[1], m[1]+", "+ds.Scale, 1)
		}
		doc["scale"] = append(scales, ds.Scale)
		doc["title"] = ds.Name + " (Paituli)"
		changed = true
	}

	coords := variantValues(doc["coord_sys"], coordPattern, description)
	if !containsString(coords, ds.CoordSys) {
		if m := coordPattern.FindStringSubmatch(description); m != nil {
			description = strings.Replace(description, m[1], m[1]+", "+ds.CoordSys, 1)
		}
		doc["coord_sys"] = append(coords, ds.CoordSys)
		changed = true
	}

	if changed {
		doc["description"] = description
	}
	return changed
}

// variantValues reads the known variants from the document field, falling back
// to the description sentence when the server dropped the field.
func variantValues(field any, pattern *regexp.Regexp, description string) []string {
	switch vals := field.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if m := pattern.FindStringSubmatch(description); m != nil {
		parts := strings.Split(m[1], ", ")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	}
	return nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

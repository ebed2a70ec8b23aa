// stac/itemid.go
package stac

import (
	"fmt"
	"strings"

	"github.com/geoharvest/stacsync/models"
)

// BuildItemID derives the stable item identifier for a file. The identifier
// is a pure function of the dataset row, the path, the label and the date
// token produced by the resolver.
func BuildItemID(path string, ds models.DatasetDescriptor, dateToken, label string) (string, error) {
	// One dataset carries an incomplete file path in the index; patch it
	// before any path-derived naming happens.
	if strings.Contains(path, "ei_kkayria") && dateToken == "2006" {
		if i := strings.LastIndex(path, "."); i >= 0 {
			path = path[:i] + "_RK2_2.tif"
		}
	}

	usableLabel, hasLabel := UsableLabel(label)

	var itemID string
	if hasLabel {
		if usableLabel == dateToken {
			itemID = ds.StacID + "_" + usableLabel
		} else {
			itemID = ds.StacID + "_" + usableLabel + "_" + dateToken
		}
	} else {
		itemID = ds.StacID + "_" + stemName(path) + "_" + dateToken
	}

	// Family-specific identifier conventions override the base rule. The
	// chain is exclusive: the first matching family decides.
	switch {
	case ds.Family == models.FamilyOrthoimage:
		// Orthoimages collide on label+date alone; the 6th-, 3rd- and
		// 2nd-from-last path segments carry the elevation model version and
		// the processing run that keep them apart.
		segs := strings.Split(path, "/")
		if len(segs) < 6 {
			return "", fmt.Errorf("orthoimage path %q has too few segments for a unique ID", path)
		}
		suffix := segs[len(segs)-6] + "_" + segs[len(segs)-3] + "_" + segs[len(segs)-2]
		if hasLabel {
			itemID = ds.StacID + "_" + usableLabel + "_" + dateToken + "_" + suffix
		} else {
			itemID = ds.StacID + "_" + FileStem(path) + "_" + dateToken + "_" + suffix
		}

	case ds.Family == models.FamilyGeneralMap:
		// Legacy general-map identifiers concatenate the filename segments
		// with no separator. The slash cleanup at the end of this function
		// trims the segment back down to the sheet name.
		dotSegs := strings.Split(path, ".")
		if len(dotSegs) < 2 {
			return "", fmt.Errorf("general-map path %q has no extension", path)
		}
		name := strings.ReplaceAll(dotSegs[len(dotSegs)-2], "_", "")
		itemID = ds.StacID + "_" + name + "_" + dateToken

	case ds.Family == models.FamilyMonthlyPredictions:
		base := path[strings.LastIndex(path, "/")+1:]
		dotSegs := strings.Split(base, ".")
		if len(dotSegs) < 2 {
			return "", fmt.Errorf("prediction filename %q has no extension", base)
		}
		segs := strings.Split(dotSegs[len(dotSegs)-2], "_")
		if len(segs) > 3 {
			segs = segs[:3]
		}
		itemID = ds.StacID + "_" + strings.Join(segs, "_") + "_" + dateToken

	case ds.Family.HasSurveyID():
		// One file per time period: the date alone disambiguates.
		itemID = ds.StacID + "_" + dateToken

	case ds.Family == models.FamilyDecadeTopographic:
		// The decade family bypasses labels entirely; re-derive the name
		// from the filename stem.
		itemID = ds.StacID + "_" + stemName(path) + "_" + dateToken
	}

	itemID = cleanItemID(itemID)
	if itemID == "" {
		return "", fmt.Errorf("empty item ID for %q in %s", path, ds.StacID)
	}
	return itemID, nil
}

// stemName is the first underscore-delimited segment of the filename stem,
// lower-cased, with hyphens folded to underscores.
func stemName(path string) string {
	name := strings.ToLower(strings.Split(FileStem(path), "_")[0])
	return strings.ReplaceAll(name, "-", "_")
}

// cleanItemID applies the legacy identifier cleanups: periods are stripped
// outright; otherwise a path separator that leaked into a label segment is
// trimmed back to the text after its last slash.
func cleanItemID(itemID string) string {
	if strings.Contains(itemID, ".") {
		return strings.ReplaceAll(itemID, ".", "")
	}
	if strings.Contains(itemID, "/") {
		segs := strings.Split(itemID, "_")
		if len(segs) >= 2 {
			leaked := segs[len(segs)-2]
			fixed := leaked[strings.LastIndex(leaked, "/")+1:]
			itemID = strings.ReplaceAll(itemID, leaked, fixed)
		}
	}
	return itemID
}

package stac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoharvest/stacsync/models"
)

func descriptor(stacID, name, scale, coordSys, yearField string) models.DatasetDescriptor {
	ds := models.DatasetDescriptor{
		StacID:     stacID,
		OrgName:    "National Land Survey of Finland",
		Name:       name,
		Scale:      scale,
		YearField:  yearField,
		CoordSys:   coordSys,
		LicenseURL: "https://creativecommons.org/licenses/by/4.0/",
		MetadataID: "urn:nbn:fi:csc-topo",
	}
	ds.Family = models.ClassifyDataset(ds.StacID, ds.YearField)
	return ds
}

func TestBuildCollection(t *testing.T) {
	coll, err := BuildCollection(
		descriptor("nls_basic_map_at_paituli", "Basic map", "1:20 000", "KKJ", "1960-1990"))
	require.NoError(t, err)

	assert.Equal(t, "nls_basic_map_at_paituli", coll.ID)
	assert.Equal(t, "Basic map, 1:20 000 (Paituli)", coll.Title)
	assert.Equal(t,
		"Basic map. Provided by National Land Survey of Finland. Scale: 1:20 000. Coordinate systems: KKJ.",
		coll.Description)
	assert.Equal(t, "CC-BY-4.0", coll.License)
	assert.Equal(t, []float64{0, 0, 0, 0}, coll.SpatialBBox)
	require.NotNil(t, coll.TemporalFrom)
	assert.Equal(t, 1960, coll.TemporalFrom.Year())
	assert.Equal(t, 1990, coll.TemporalTo.Year())

	require.Len(t, coll.Providers, 2)
	assert.Equal(t, "National Land Survey of Finland", coll.Providers[0].Name)
	assert.Equal(t, []string{"host"}, coll.Providers[1].Roles)

	meta := coll.Assets["meta"]
	assert.Equal(t, "https://urn.fi/urn:nbn:fi:csc-topo", meta.Href)
	assert.Equal(t, []string{"metadata"}, meta.Roles)
}

func TestBuildCollectionNewestVariant(t *testing.T) {
	coll, err := BuildCollection(
		descriptor("nls_basic_map_newest_at_paituli", "Basic map", "1:20 000", "ETRS-TM35FIN", "2005->"))
	require.NoError(t, err)

	assert.Equal(t, "Basic map newest, 1:20 000 (Paituli)", coll.Title)
	assert.Contains(t, coll.Description, "Basic map newest.")
	// Open-ended range anchors on the first year.
	assert.Equal(t, 2005, coll.TemporalFrom.Year())
	assert.Equal(t, 2005, coll.TemporalTo.Year())
}

func TestBuildCollectionLandsatLicense(t *testing.T) {
	coll, err := BuildCollection(
		descriptor("nls_landsat_at_paituli", "Landsat", "", "ETRS-TM35FIN", "1984-1997"))
	require.NoError(t, err)
	assert.Equal(t, "PDDL-1.0", coll.License)
}

func TestBuildCollectionSverigeFinlandRename(t *testing.T) {
	coll, err := BuildCollection(descriptor(
		"nls_topographic_map_100k_at_paituli", "Sverige-Finland map", "1:100 000", "KKJ", "1920-1949"))
	require.NoError(t, err)
	assert.Equal(t, "Basic or topographic map, 1:100 000 (Paituli)", coll.Title)
	assert.Contains(t, coll.Description, "Basic or topographic map.")
}

func TestMergeCollectionVariantAddsScale(t *testing.T) {
	doc := map[string]any{
		"title":       "Basic map, 1:20 000 (Paituli)",
		"description": "Basic map. Provided by National Land Survey of Finland. Scale: 1:20 000. Coordinate systems: KKJ.",
		"scale":       []string{"1:20 000"},
		"coord_sys":   []string{"KKJ"},
	}
	ds := descriptor("nls_basic_map_at_paituli", "Basic map", "1:10 000", "KKJ", "1960-1990")

	changed := MergeCollectionVariant(doc, ds)
	assert.True(t, changed)
	assert.Equal(t, []string{"1:20 000", "1:10 000"}, doc["scale"])
	assert.Equal(t, "Basic map (Paituli)", doc["title"])
	assert.Contains(t, doc["description"], "Scale: 1:20 000, 1:10 000.")
}

func TestMergeCollectionVariantAddsCoordSys(t *testing.T) {
	doc := map[string]any{
		"description": "Basic map. Provided by National Land Survey of Finland. Scale: 1:20 000. Coordinate systems: KKJ.",
		"scale":       []string{"1:20 000"},
		"coord_sys":   []string{"KKJ"},
	}
	ds := descriptor("nls_basic_map_at_paituli", "Basic map", "1:20 000", "ETRS-TM35FIN", "1960-1990")

	changed := MergeCollectionVariant(doc, ds)
	assert.True(t, changed)
	assert.Equal(t, []string{"KKJ", "ETRS-TM35FIN"}, doc["coord_sys"])
	assert.Contains(t, doc["description"], "Coordinate systems: KKJ, ETRS-TM35FIN.")
}

func TestMergeCollectionVariantNoChange(t *testing.T) {
	doc := map[string]any{
		"description": "Basic map. Provided by National Land Survey of Finland. Scale: 1:20 000. Coordinate systems: KKJ.",
		"scale":       []string{"1:20 000"},
		"coord_sys":   []string{"KKJ"},
	}
	ds := descriptor("nls_basic_map_at_paituli", "Basic map", "1:20 000", "KKJ", "1960-1990")
	assert.False(t, MergeCollectionVariant(doc, ds))
}

func TestMergeCollectionVariantParsesDescriptionFallback(t *testing.T) {
	// A server round trip drops the scale and coord_sys fields; the known
	// variants are recovered from the description sentence.
	doc := map[string]any{
		"description": "Basic map. Provided by National Land Survey of Finland. Scale: 1:20 000, 1:10 000. Coordinate systems: KKJ.",
	}
	ds := descriptor("nls_basic_map_at_paituli", "Basic map", "1:10 000", "KKJ", "1960-1990")
	assert.False(t, MergeCollectionVariant(doc, ds))
}

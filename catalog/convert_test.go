package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCollection() map[string]any {
	return map[string]any{
		"type":        "Collection",
		"id":          "nls_orthoimage_at_paituli",
		"title":       "NLS orthoimages",
		"description": "Aerial orthoimages of Finland.",
		"license":     "CC-BY-4.0",
		"providers":   []any{map[string]any{"name": "NLS", "roles": []any{"producer"}}},
		"extent": map[string]any{
			"spatial": map[string]any{
				"bbox": []any{[]any{19.0, 59.0, 32.0, 71.0}},
			},
			"temporal": map[string]any{
				"interval": []any{[]any{"1990-01-01T00:00:00Z", "2010-12-31T00:00:00Z"}},
			},
		},
		"links": []any{
			map[string]any{"rel": "license", "href": "https://example.org/license"},
		},
	}
}

func TestConvertCollection(t *testing.T) {
	converted, err := ConvertToServerJSON(sampleCollection())
	require.NoError(t, err)

	assert.Equal(t, "Feature", converted["type"])
	props := converted["properties"].(map[string]any)
	assert.Equal(t, "nls_orthoimage_at_paituli", props["name"])
	assert.Equal(t, "nls_orthoimage_at_paituli", props["eo:identifier"])
	assert.Equal(t, "1990-01-01T00:00:00Z", props["timeStart"])
	assert.Equal(t, "2010-12-31T00:00:00Z", props["timeEnd"])
	assert.Equal(t, true, props["primary"])
	assert.Equal(t, []any{"eo:identifier"}, props["queryables"])
	assert.Equal(t, map[string]any{
		"href": "https://example.org/license",
		"rel":  "license",
		"type": "application/json",
	}, props["licenseLink"])

	// The polygon starts and ends at the south-east corner.
	geom := converted["geometry"].(map[string]any)
	ring := geom["coordinates"].([]any)[0].([]any)
	require.Len(t, ring, 5)
	assert.Equal(t, []any{32.0, 59.0}, ring[0])
	assert.Equal(t, []any{32.0, 59.0}, ring[4])
	assert.Equal(t, []any{19.0, 71.0}, ring[2])
}

func TestConvertCollectionSentinelQueryables(t *testing.T) {
	collection := sampleCollection()
	collection["id"] = "sentinel2-l2a"
	converted, err := ConvertToServerJSON(collection)
	require.NoError(t, err)
	props := converted["properties"].(map[string]any)
	assert.Equal(t, []any{"eo:identifier", "eo:cloud_cover"}, props["queryables"])
}

func TestConvertCollectionDerivedFrom(t *testing.T) {
	collection := sampleCollection()
	collection["derived_from"] = "https://upstream.example.org/collection.json"
	converted, err := ConvertToServerJSON(collection)
	require.NoError(t, err)
	props := converted["properties"].(map[string]any)
	derived := props["derivedFrom"].(map[string]any)
	assert.Equal(t, "https://upstream.example.org/collection.json", derived["href"])
	assert.Equal(t, "derived_from", derived["rel"])
}

func sampleFeature() map[string]any {
	return map[string]any{
		"type":       "Feature",
		"id":         "x_at_paituli_v4133_2005",
		"collection": "x_at_paituli",
		"geometry":   map[string]any{"type": "Polygon"},
		"gsd":        0.5,
		"assets":     map[string]any{},
		"properties": map[string]any{
			"start_datetime": "2005-01-01T00:00:00Z",
			"end_datetime":   "2005-12-31T00:00:00Z",
			"datetime":       "2005-01-01T00:00:00Z",
			"proj:epsg":      3067,
			"proj:transform": []any{0.5, 0.0, 0.0, 0.0, -0.5, 0.0},
		},
	}
}

func TestConvertFeature(t *testing.T) {
	converted, err := ConvertToServerJSON(sampleFeature())
	require.NoError(t, err)

	props := converted["properties"].(map[string]any)
	assert.Equal(t, "x_at_paituli_v4133_2005", props["eop:identifier"])
	assert.Equal(t, "x_at_paituli", props["eop:parentIdentifier"])
	assert.Equal(t, "2005-01-01T00:00:00Z", props["timeStart"])
	assert.Equal(t, "2005-12-31T00:00:00Z", props["timeEnd"])
	assert.Equal(t, 0.5, props["eop:resolution"])
	assert.Equal(t, 3067, props["crs"])
}

func TestConvertFeatureCloudCover(t *testing.T) {
	feature := sampleFeature()
	feature["properties"].(map[string]any)["eo:cloud_cover"] = 12.7
	converted, err := ConvertToServerJSON(feature)
	require.NoError(t, err)
	props := converted["properties"].(map[string]any)
	assert.Equal(t, 12, props["opt:cloudCover"])
}

func TestConvertFeatureSingleDatetime(t *testing.T) {
	feature := sampleFeature()
	props := feature["properties"].(map[string]any)
	props["start_datetime"] = nil
	props["end_datetime"] = nil
	props["datetime"] = "2020-06-01T00:00:00Z"

	converted, err := ConvertToServerJSON(feature)
	require.NoError(t, err)
	out := converted["properties"].(map[string]any)
	assert.Equal(t, "2020-06-01T00:00:00Z", out["timeStart"])
	assert.Equal(t, "2020-06-01T00:00:00Z", out["timeEnd"])
}

func TestConvertUnknownType(t *testing.T) {
	_, err := ConvertToServerJSON(map[string]any{"type": "Catalog"})
	assert.Error(t, err)
}

func TestCollectionIntervalMissingExtent(t *testing.T) {
	_, err := collectionInterval(map[string]any{"id": "x"})
	assert.Error(t, err)

	_, err = collectionInterval(map[string]any{"id": "x", "extent": map[string]any{}})
	assert.Error(t, err)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoharvest/stacsync/config"
	"github.com/geoharvest/stacsync/models"
)

func TestAddMirrorAssets(t *testing.T) {
	cat := newFakeCatalog()
	cat.published["luke_forest_at_paituli"] = []models.RemoteItem{
		{ID: "item_single", AssetKeys: []string{"luke_forest_at_paituli_tiff"}},
		{ID: "item_done", AssetKeys: []string{"luke_forest_at_paituli_tiff", "luke_forest_at_puhti_tiff"}},
	}
	cat.rawItems["item_single"] = map[string]any{
		"id": "item_single",
		"assets": map[string]any{
			"luke_forest_at_paituli_tiff": map[string]any{
				"href":  onlinePrefix + "luke/forest/V4133.tif",
				"title": "luke_forest_at_paituli_tiff",
			},
		},
	}

	m := &MirrorService{
		Catalog: cat,
		Config: config.DataSourceConfig{
			OnlinePrefix:    onlinePrefix,
			MirrorPrefix:    "/appl/data/geo/",
			MirrorTitleFrom: "paituli",
			MirrorTitleTo:   "puhti",
		},
	}

	updated, err := m.AddMirrorAssets("luke_forest_at_paituli")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, []string{"item_single"}, cat.updatedItems)

	assets := cat.rawItems["item_single"]["assets"].(map[string]any)
	require.Contains(t, assets, "luke_forest_at_puhti_tiff")
	mirror := assets["luke_forest_at_puhti_tiff"].(map[string]any)
	assert.Equal(t, "/appl/data/geo/luke/forest/V4133.tif", mirror["href"])
	assert.Equal(t, "luke_forest_at_puhti_tiff", mirror["title"])

	// The original online asset is untouched.
	primary := assets["luke_forest_at_paituli_tiff"].(map[string]any)
	assert.Equal(t, onlinePrefix+"luke/forest/V4133.tif", primary["href"])
}

func TestAddMirrorAssetsSkipsItemsWithoutAssets(t *testing.T) {
	cat := newFakeCatalog()
	cat.published["x_at_paituli"] = []models.RemoteItem{
		{ID: "item_empty", AssetKeys: []string{}},
	}
	cat.rawItems["item_empty"] = map[string]any{"id": "item_empty", "assets": map[string]any{}}

	m := &MirrorService{Catalog: cat, Config: config.DataSourceConfig{
		MirrorTitleFrom: "paituli", MirrorTitleTo: "puhti",
	}}
	updated, err := m.AddMirrorAssets("x_at_paituli")
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Empty(t, cat.updatedItems)
}

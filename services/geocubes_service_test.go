package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRenditions(t *testing.T) {
	files := []string{
		"corine_2018_100m_3067.tif",
		"corine_2018_100m_3067_rgb.tif",
		"corine_2018_100m_3067_mask.tif",
		"ndvi_2018_10m_3067.tif",
	}
	groups := groupRenditions(files)
	require.Len(t, groups, 2)

	corine := groups["corine_2018_100m_3067"]
	// Every rendition joins its group, base raster first.
	assert.Equal(t, []string{
		"corine_2018_100m_3067",
		"corine_2018_100m_3067_rgb",
		"corine_2018_100m_3067_mask",
	}, corine)

	assert.Equal(t, []string{"ndvi_2018_10m_3067"}, groups["ndvi_2018_10m_3067"])
}

func TestYearFromPath(t *testing.T) {
	assert.Equal(t, "2018", yearFromPath("https://example.org/corine/2018/"))
	assert.Equal(t, "2012", yearFromPath("https://example.org/corine/2012"))
}

func TestGeoCubesItemID(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		translated string
		want       string
	}{
		{
			name:       "sentinel layer keeps native name",
			key:        "sentinel2-avg_20200626_100m_3067",
			translated: "Sentinel-2 mosaic",
			want:       "sentinel2_avg_20200626_100m_3067",
		},
		{
			name:       "ndvi layer keeps native name",
			key:        "ndvi_2018_10m_3067",
			translated: "NDVI",
			want:       "ndvi_2018_10m_3067",
		},
		{
			name:       "default uses translated title",
			key:        "corine_2018_100m_3067",
			translated: "Corine Land Cover",
			want:       "corine_land_cover_2018_100m_3067",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geocubesItemID(tt.key, tt.translated))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "corine_land_cover", slugify("Corine Land Cover"))
	assert.Equal(t, "forest_height_broadleaved", slugify("Forest height, broadleaved"))
}

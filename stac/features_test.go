package stac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYearInPath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		year  string
		found bool
	}{
		{"plain year directory", "mml/orto/2005/some_file.tif", "2005", true},
		{"year range yields first year", "fmi/grid/1998-2005/file.tif", "1998", true},
		{"month token rejected", "fmi/monthly/202401.tif", "", false},
		{"glued span yields trailing year", "snow/rcp45_19712000.tif", "2000", true},
		{"underscored first year skipped", "data/1971_2000/file.tif", "2000", true},
		{"century out of range", "old/1850/map.png", "", false},
		{"leftmost match wins", "a/1999/b/2005/file.tif", "1999", true},
		{"year at end of path", "dem/etrs-tm35fin/2008", "2008", true},
		{"no year at all", "mml/peruskartta/sheet.tif", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, found := YearInPath(tt.path)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.year, year)
		})
	}
}

func TestYearInLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		year  string
		found bool
	}{
		{"parenthesized year", "3811 07 Iisalmi (1932)", "1932", true},
		{"nineteenth century accepted", "sheet (1899)", "1899", true},
		{"eighteenth century accepted", "sheet (1855)", "1855", true},
		{"bare year not enough", "sheet 1932", "", false},
		{"blank year placeholder", "4411 11 (-)", "", false},
		{"empty label", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, found := YearInLabel(tt.label)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.year, year)
		})
	}
}

func TestUsableLabel(t *testing.T) {
	label, ok := UsableLabel("V4133A")
	assert.True(t, ok)
	assert.Equal(t, "v4133a", label)

	for _, structured := range []string{"", "a_b", "sheet (1932)", "two words"} {
		_, ok := UsableLabel(structured)
		assert.False(t, ok, "label %q should be unusable", structured)
	}
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "file", FileStem("dir/sub/file.tif"))
	assert.Equal(t, "file", FileStem("dir/sub/file.tar.gz"))
	assert.Equal(t, "file", FileStem("file.tif"))
	assert.Equal(t, "noext", FileStem("dir/noext"))
}

func TestNumericToken(t *testing.T) {
	token, ok := NumericToken("fmi/monthly_avg_temperature_202402.tif")
	assert.True(t, ok)
	assert.Equal(t, "202402", token)

	token, ok = NumericToken("fmi/202301_temperature_monthly.tif")
	assert.True(t, ok)
	assert.Equal(t, "202301", token)

	_, ok = NumericToken("fmi/temperature_monthly.tif")
	assert.False(t, ok)
}

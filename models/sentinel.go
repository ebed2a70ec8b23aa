// models/sentinel.go
package models

// Band describes one Sentinel-2 spectral band.
type Band struct {
	Name        string
	Description string
	CommonName  string
}

// Sentinel2Bands is the static band table attached to Sentinel-2 L2A items.
var Sentinel2Bands = map[string]Band{
	"B01": {Name: "B01", Description: "Coastal: 400 - 450 nm", CommonName: "coastal"},
	"B02": {Name: "B02", Description: "Blue: 450 - 500 nm", CommonName: "blue"},
	"B03": {Name: "B03", Description: "Green: 500 - 600 nm", CommonName: "green"},
	"B04": {Name: "B04", Description: "Red: 600 - 700 nm", CommonName: "red"},
	"B05": {Name: "B05", Description: "Vegetation Red Edge: 705 nm", CommonName: "rededge"},
	"B06": {Name: "B06", Description: "Vegetation Red Edge: 740 nm", CommonName: "rededge"},
	"B07": {Name: "B07", Description: "Vegetation Red Edge: 783 nm", CommonName: "rededge"},
	"B08": {Name: "B08", Description: "Near-IR: 750 - 1000 nm", CommonName: "nir"},
	"B8A": {Name: "B8A", Description: "Near-IR: 750 - 900 nm", CommonName: "nir08"},
	"B09": {Name: "B09", Description: "Water vapour: 850 - 1050 nm", CommonName: "nir09"},
	"B10": {Name: "B10", Description: "SWIR-Cirrus: 1350 - 1400 nm", CommonName: "cirrus"},
	"B11": {Name: "B11", Description: "SWIR16: 1550 - 1750 nm", CommonName: "swir16"},
	"B12": {Name: "B12", Description: "SWIR22: 2100 - 2300 nm", CommonName: "swir22"},
}

// ToDict renders the band as an eo:bands entry.
func (b Band) ToDict() map[string]any {
	return map[string]any{
		"name":        b.Name,
		"description": b.Description,
		"common_name": b.CommonName,
	}
}

// SafeMetadata holds the product-level fields read from a SAFE package's
// MTD_MSIL2A.xml file.
type SafeMetadata struct {
	CloudCover int
	DataCover  int
	StartTime  string
	EndTime    string
	Orbit      string
	Baseline   string
}

// SafeCRS holds the tile-level CRS code and per-resolution raster shapes from
// MTD_TL.xml.
type SafeCRS struct {
	EPSG   int
	Shapes map[string][2]int
}

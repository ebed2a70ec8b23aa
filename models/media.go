// models/media.go
package models

import "strings"

// MediaType maps a dataset format name to its MIME type and file extension.
type MediaType struct {
	Name string
	MIME string
	Ext  string
}

// MediaTypes is the fixed vocabulary of raster formats the pipeline handles.
var MediaTypes = map[string]MediaType{
	"TIFF": {
		Name: "TIFF",
		MIME: "image/tiff; application=geotiff",
		Ext:  "tif",
	},
	"PNG": {
		Name: "PNG",
		MIME: "image/png",
		Ext:  "png",
	},
	"JPEG2000": {
		Name: "JPEG2000",
		MIME: "image/jp2",
		Ext:  "jp2",
	},
	"NetCDF": {
		Name: "NetCDF",
		MIME: "application/x-netcdf",
		Ext:  "nc",
	},
}

// MediaTypeFor resolves the media type for a dataset format column. The
// column can hold a comma-separated list; the first entry decides.
func MediaTypeFor(formatField string) (MediaType, bool) {
	name := strings.TrimSpace(strings.Split(formatField, ",")[0])
	mt, ok := MediaTypes[name]
	return mt, ok
}

// Key returns the lower-cased format name used as the asset key suffix.
func (m MediaType) Key() string {
	return strings.ToLower(m.Name)
}

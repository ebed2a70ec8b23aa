// models/geocubes.go
package models

// GeoCubesDataset is one dataset entry from the GeoCubes info API.
type GeoCubesDataset struct {
	Name          string
	LayerName     string
	Years         string
	Folder        string
	FilePrefix    string
	MaxResolution string
	BitDepth      string
	Producer      string
	MetadataURL   string

	// YearPaths are the per-year listing directories derived from Years and
	// Folder.
	YearPaths []string
}

// LayerNameRow is one row of the layer translation CSV mapping native dataset
// names to the English collection titles used in the catalog.
type LayerNameRow struct {
	Native string `csv:"Nimi"`
	Name   string `csv:"Name"`
}

// models/stac.go
package models

import (
	"time"
)

// WholeWorldBBox is the placeholder bbox a raster reader returns when it
// cannot derive a footprint. Items carrying it get their geometry replaced
// from the spatial index.
var WholeWorldBBox = []float64{-180.0, -90.0, 180.0, 90.0}

// Asset is one named file attached to an item.
type Asset struct {
	Href      string
	Title     string
	MediaType string
	Roles     []string
	GSD       float64
	Shape     []int
	Transform []float64
	Extra     map[string]any
}

// ToDict renders the asset as a STAC asset object.
func (a Asset) ToDict() map[string]any {
	d := map[string]any{
		"href": a.Href,
	}
	if a.Title != "" {
		d["title"] = a.Title
	}
	if a.MediaType != "" {
		d["type"] = a.MediaType
	}
	if len(a.Roles) > 0 {
		d["roles"] = a.Roles
	}
	if a.GSD != 0 {
		d["gsd"] = a.GSD
	}
	if len(a.Shape) > 0 {
		d["proj:shape"] = a.Shape
	}
	if len(a.Transform) > 0 {
		d["proj:transform"] = a.Transform
	}
	for k, v := range a.Extra {
		d[k] = v
	}
	return d
}

// Item is a single discoverable file's worth of geospatial metadata.
type Item struct {
	ID         string
	Collection string
	Geometry   map[string]any
	BBox       []float64
	StartTime  time.Time
	EndTime    time.Time
	GSD        float64
	EPSG       int
	Properties map[string]any
	Assets     map[string]Asset
}

// ToDict renders the item as a STAC feature dictionary, the shape the catalog
// conversion layer consumes.
func (it Item) ToDict() map[string]any {
	assets := make(map[string]any, len(it.Assets))
	for key, a := range it.Assets {
		assets[key] = a.ToDict()
	}
	props := map[string]any{
		"start_datetime": FormatTime(it.StartTime),
		"end_datetime":   FormatTime(it.EndTime),
		"datetime":       FormatTime(it.StartTime),
		"proj:epsg":      it.EPSG,
	}
	for k, v := range it.Properties {
		props[k] = v
	}
	return map[string]any{
		"type":       "Feature",
		"id":         it.ID,
		"collection": it.Collection,
		"geometry":   it.Geometry,
		"bbox":       it.BBox,
		"gsd":        it.GSD,
		"properties": props,
		"assets":     assets,
	}
}

// RemoteItem is the slice of a published item the reconciler needs: its
// identity, asset keys and temporal placement.
type RemoteItem struct {
	ID        string
	AssetKeys []string
	StartTime *time.Time
	EndTime   *time.Time
	BBox      []float64
}

// Provider identifies an organization involved in a collection.
type Provider struct {
	Name  string
	URL   string
	Roles []string
}

// ToDict renders the provider as a STAC provider object.
func (p Provider) ToDict() map[string]any {
	d := map[string]any{"name": p.Name, "roles": p.Roles}
	if p.URL != "" {
		d["url"] = p.URL
	}
	return d
}

// Collection is a named group of items sharing provenance and licensing.
type Collection struct {
	ID           string
	Title        string
	Description  string
	License      string
	LicenseURL   string
	Providers    []Provider
	SpatialBBox  []float64
	TemporalFrom *time.Time
	TemporalTo   *time.Time
	Scales       []string
	CoordSystems []string
	Assets       map[string]Asset
	Summaries    map[string]any
	DerivedFrom  string
}

// ToDict renders the collection as a STAC collection dictionary.
func (c Collection) ToDict() map[string]any {
	interval := []any{nil, nil}
	if c.TemporalFrom != nil {
		interval[0] = FormatTime(*c.TemporalFrom)
	}
	if c.TemporalTo != nil {
		interval[1] = FormatTime(*c.TemporalTo)
	}
	bbox := c.SpatialBBox
	if len(bbox) != 4 {
		bbox = []float64{0, 0, 0, 0}
	}
	// Rendered as []any so the document round-trips like decoded JSON.
	bboxValues := make([]any, len(bbox))
	for i, v := range bbox {
		bboxValues[i] = v
	}
	d := map[string]any{
		"type":        "Collection",
		"id":          c.ID,
		"title":       c.Title,
		"description": c.Description,
		"license":     c.License,
		"providers":   providerDicts(c.Providers),
		"extent": map[string]any{
			"spatial":  map[string]any{"bbox": []any{bboxValues}},
			"temporal": map[string]any{"interval": []any{interval}},
		},
		"scale":     c.Scales,
		"coord_sys": c.CoordSystems,
	}
	links := []any{}
	if c.LicenseURL != "" {
		links = append(links, map[string]any{
			"rel":   "license",
			"href":  c.LicenseURL,
			"title": "License",
		})
	}
	if c.DerivedFrom != "" {
		links = append(links, map[string]any{
			"rel":  "derived_from",
			"href": c.DerivedFrom,
		})
	}
	d["links"] = links
	if len(c.Assets) > 0 {
		assets := make(map[string]any, len(c.Assets))
		for key, a := range c.Assets {
			assets[key] = a.ToDict()
		}
		d["assets"] = assets
	}
	if len(c.Summaries) > 0 {
		d["summaries"] = c.Summaries
	}
	return d
}

func providerDicts(providers []Provider) []any {
	out := make([]any, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.ToDict())
	}
	return out
}

// FormatTime renders timestamps the way the catalog expects them.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

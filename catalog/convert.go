// catalog/convert.go
package catalog

import (
	"fmt"
)

// ConvertToServerJSON maps a STAC document into the catalog server's OpenSearch
// EO layout. Collections and Features carry different layouts; the input type
// field decides which mapping applies. Some properties are hardcoded because
// the source documents do not carry them.
func ConvertToServerJSON(content map[string]any) (map[string]any, error) {
	switch content["type"] {
	case "Collection":
		return convertCollection(content)
	case "Feature":
		return convertFeature(content)
	default:
		return nil, fmt.Errorf("cannot convert document of type %v", content["type"])
	}
}

func convertCollection(content map[string]any) (map[string]any, error) {
	bbox, err := collectionBBox(content)
	if err != nil {
		return nil, err
	}
	interval, err := collectionInterval(content)
	if err != nil {
		return nil, err
	}

	// The server expects the footprint as a closed polygon drawn from the
	// bbox corners, starting at the south-east corner.
	geometry := map[string]any{
		"type": "Polygon",
		"coordinates": []any{
			[]any{
				[]any{bbox[2], bbox[1]},
				[]any{bbox[2], bbox[3]},
				[]any{bbox[0], bbox[3]},
				[]any{bbox[0], bbox[1]},
				[]any{bbox[2], bbox[1]},
			},
		},
	}

	props := map[string]any{
		"name":          content["id"],
		"title":         content["title"],
		"eo:identifier": content["id"],
		"description":   content["description"],
		"timeStart":     interval[0],
		"timeEnd":       interval[1],
		"primary":       true,
		"license":       content["license"],
		"providers":     content["providers"],
		"licenseLink":   nil,
		"queryables":    []any{"eo:identifier"},
	}

	if assets, ok := content["assets"]; ok {
		props["assets"] = assets
	}
	if summaries, ok := content["summaries"]; ok {
		props["summaries"] = summaries
	}

	// Cloud cover is only queryable for Sentinel-2 L2A.
	if content["id"] == "sentinel2-l2a" {
		props["queryables"] = append(props["queryables"].([]any), "eo:cloud_cover")
	}

	if derived, ok := content["derived_from"]; ok {
		props["derivedFrom"] = map[string]any{
			"href": derived,
			"rel":  "derived_from",
			"type": "application/json",
		}
	}

	if links, ok := content["links"].([]any); ok {
		for _, raw := range links {
			link, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if link["rel"] == "license" {
				props["licenseLink"] = map[string]any{
					"href": link["href"],
					"rel":  "license",
					"type": "application/json",
				}
			}
		}
	}

	return map[string]any{
		"type":       "Feature",
		"geometry":   geometry,
		"properties": props,
	}, nil
}

func convertFeature(content map[string]any) (map[string]any, error) {
	itemProps, ok := content["properties"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("item %v has no properties", content["id"])
	}

	props := map[string]any{
		"eop:identifier":       content["id"],
		"eop:parentIdentifier": content["collection"],
		"timeStart":            itemProps["start_datetime"],
		"timeEnd":              itemProps["end_datetime"],
		"eop:resolution":       content["gsd"],
		"crs":                  itemProps["proj:epsg"],
		"projTransform":        itemProps["proj:transform"],
		"assets":               content["assets"],
	}

	if cover, ok := itemProps["eo:cloud_cover"]; ok {
		switch v := cover.(type) {
		case float64:
			props["opt:cloudCover"] = int(v)
		case int:
			props["opt:cloudCover"] = v
		}
	}

	// Some weather model items carry only a single datetime instead of a
	// start/end pair.
	if itemProps["start_datetime"] == nil && itemProps["end_datetime"] == nil && itemProps["datetime"] != nil {
		props["timeStart"] = itemProps["datetime"]
		props["timeEnd"] = itemProps["datetime"]
	}

	return map[string]any{
		"type":       "Feature",
		"geometry":   content["geometry"],
		"properties": props,
	}, nil
}

func collectionBBox(content map[string]any) ([]float64, error) {
	extent, ok := content["extent"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("collection %v has no extent", content["id"])
	}
	spatial, ok := extent["spatial"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("collection %v has no spatial extent", content["id"])
	}
	boxes, ok := spatial["bbox"].([]any)
	if !ok || len(boxes) == 0 {
		return nil, fmt.Errorf("collection %v has no bbox", content["id"])
	}
	raw, ok := boxes[0].([]any)
	if !ok || len(raw) < 4 {
		return nil, fmt.Errorf("collection %v bbox is malformed", content["id"])
	}
	bbox := make([]float64, len(raw))
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("collection %v bbox value %v is not a number", content["id"], v)
		}
		bbox[i] = f
	}
	return bbox, nil
}

func collectionInterval(content map[string]any) ([]any, error) {
	extent, ok := content["extent"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("collection %v has no extent", content["id"])
	}
	temporal, ok := extent["temporal"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("collection %v has no temporal extent", content["id"])
	}
	intervals, ok := temporal["interval"].([]any)
	if !ok || len(intervals) == 0 {
		return nil, fmt.Errorf("collection %v has no temporal interval", content["id"])
	}
	interval, ok := intervals[0].([]any)
	if !ok || len(interval) < 2 {
		return nil, fmt.Errorf("collection %v temporal interval is malformed", content["id"])
	}
	return interval, nil
}

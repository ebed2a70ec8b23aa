// services/geocubes_service.go
package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/geoharvest/stacsync/config"
	"github.com/geoharvest/stacsync/models"
	"github.com/geoharvest/stacsync/scraper"
)

const geocubesTitleSuffix = " (GeoCubes)"

// GeoCubesService syncs the pre-rendered multi-resolution rasters of the
// GeoCubes service. Each logical item groups a cloud-optimized base raster
// with its lower-resolution renditions.
type GeoCubesService struct {
	Catalog CatalogClient
	Lister  FileLister
	Raster  scraper.RasterReader
	Config  config.GeoCubesConfig
}

// Sync runs one pass over every GeoCubes-backed collection.
func (g *GeoCubesService) Sync() (SyncStats, error) {
	stats := SyncStats{}

	titles, err := g.collectionTitles()
	if err != nil {
		return stats, err
	}
	translations, err := loadLayerNames(g.Config.LayerNameCSV)
	if err != nil {
		return stats, err
	}
	datasets, err := scraper.FetchGeoCubesDatasets(g.Config.APIURL, g.Config.BaseURL)
	if err != nil {
		return stats, err
	}

	for name, dataset := range datasets {
		translated, ok := translations[name]
		if !ok {
			// More datasets exist upstream than are published; only the
			// translated ones participate.
			continue
		}
		collectionID, ok := titles[translated]
		if !ok {
			log.Printf("WARN Service: no collection titled %q on the server.", translated)
			continue
		}
		collStats, err := g.syncDataset(collectionID, translated, dataset)
		if err != nil {
			return stats, err
		}
		stats.Created += collStats.Created
		stats.Skipped += collStats.Skipped
	}

	log.Printf("Service: GeoCubes sync finished, %d created, %d skipped.", stats.Created, stats.Skipped)
	return stats, nil
}

// collectionTitles maps the suffix-stripped collection titles to IDs for
// every GeoCubes collection on the server.
func (g *GeoCubesService) collectionTitles() (map[string]string, error) {
	ids, err := g.Catalog.CollectionIDs()
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string)
	for _, id := range ids {
		if !strings.HasSuffix(id, "at_geocubes") {
			continue
		}
		doc, err := g.Catalog.GetCollection(id)
		if err != nil {
			return nil, err
		}
		if title, ok := doc["title"].(string); ok {
			titles[strings.TrimSuffix(title, geocubesTitleSuffix)] = id
		}
	}
	return titles, nil
}

func (g *GeoCubesService) syncDataset(collectionID, translated string, dataset models.GeoCubesDataset) (SyncStats, error) {
	stats := SyncStats{}

	published, err := g.Catalog.CollectionItems(collectionID)
	if err != nil {
		return stats, err
	}
	inv := make(map[string]bool, len(published))
	ext := newExtentTracker(published)
	for _, item := range published {
		inv[item.ID] = true
	}

	log.Printf("Service: checking new items for %s:", collectionID)
	total := 0

	for _, yearPath := range dataset.YearPaths {
		files, err := g.Lister.ListFilesWithExt(yearPath, "tif")
		if err != nil {
			log.Printf("WARN Service: could not list %s: %v", yearPath, err)
			continue
		}

		// One logical item is the group of renditions sharing the first four
		// underscore segments of the filename stem.
		groups := groupRenditions(files)
		total += len(groups)

		year := yearFromPath(yearPath)
		for key, group := range groups {
			itemID := geocubesItemID(key, translated)
			if inv[itemID] {
				stats.Skipped++
				continue
			}
			item, err := g.buildGeoCubesItem(itemID, collectionID, yearPath, year, group)
			if err != nil {
				log.Printf("WARN Service: could not build %s: %v", itemID, err)
				continue
			}
			if err := g.Catalog.CreateItem(collectionID, item.ToDict()); err != nil {
				return stats, err
			}
			inv[itemID] = true
			ext.add(item.BBox, item.StartTime, item.EndTime)
			stats.Created++
			log.Printf(" + Added %s", itemID)
		}
	}

	log.Printf(" * %d/%d items present before this run.", len(published), total)
	if stats.Created > 0 {
		if err := updateCollectionExtents(g.Catalog, collectionID, ext); err != nil {
			return stats, err
		}
		log.Println(" + Updated collection extents.")
	} else {
		log.Println(" * All items present.")
	}
	return stats, nil
}

// groupRenditions clusters raster stems by their first four underscore
// segments, keeping the listing order within each group. The first member is
// the base raster.
func groupRenditions(files []string) map[string][]string {
	groups := make(map[string][]string)
	for _, f := range files {
		stem := strings.Split(f, ".")[0]
		segs := strings.Split(stem, "_")
		if len(segs) > 4 {
			segs = segs[:4]
		}
		prefix := strings.Join(segs, "_")
		groups[prefix] = append(groups[prefix], stem)
	}
	return groups
}

// yearFromPath takes the trailing year directory out of a listing path.
func yearFromPath(yearPath string) string {
	segs := strings.Split(strings.TrimSuffix(yearPath, "/"), "/")
	return segs[len(segs)-1]
}

// geocubesItemID derives the item ID. Sentinel and NDVI layers keep their
// native name prefix; everything else is named after the translated
// collection title.
func geocubesItemID(key, translated string) string {
	segs := strings.Split(key, "_")
	info := strings.Join(segs[1:], "_")
	switch {
	case strings.Contains(key, "sentinel"):
		name := strings.ReplaceAll(segs[0], "-", "_")
		return slugify(name) + "_" + info
	case strings.Contains(key, "ndvi"):
		return strings.ToLower(segs[0]) + "_" + info
	default:
		return slugify(translated) + "_" + info
	}
}

func slugify(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, ",", "")
}

func (g *GeoCubesService) buildGeoCubesItem(itemID, collectionID, yearPath, year string, group []string) (models.Item, error) {
	start, err := time.Parse("2006-01-02", year+"-01-01")
	if err != nil {
		return models.Item{}, fmt.Errorf("bad year directory %q: %w", year, err)
	}
	end := time.Date(start.Year(), 12, 31, 0, 0, 0, 0, time.UTC)

	item := models.Item{
		ID:         itemID,
		Collection: collectionID,
		StartTime:  start,
		EndTime:    end,
		EPSG:       3067,
		Assets:     make(map[string]models.Asset, len(group)),
	}

	for i, stem := range group {
		href := yearPath + stem + ".tif"
		header, err := g.Raster.ReadHeader(href)
		if err != nil {
			return models.Item{}, err
		}
		if i == 0 {
			item.Assets["COG"] = models.Asset{
				Href:      href,
				Title:     "COG",
				MediaType: "image/tiff; application=geotiff; profile=cloud-optimized",
				Roles:     []string{"data"},
				GSD:       header.GSD,
				Shape:     header.Shape,
				Transform: header.Transform,
			}
			item.GSD = header.GSD
			item.BBox = header.BBox
			item.Geometry = bboxPolygon(header.BBox)
			continue
		}
		segs := strings.Split(stem, "_")
		assetID := segs[len(segs)-1]
		item.Assets[assetID] = models.Asset{
			Href:      href,
			Title:     assetID,
			MediaType: "image/tiff; application=geotiff",
			Roles:     []string{"data"},
			GSD:       header.GSD,
			Shape:     header.Shape,
			Transform: header.Transform,
		}
		if header.GSD != 0 && (item.GSD == 0 || header.GSD < item.GSD) {
			item.GSD = header.GSD
		}
	}
	return item, nil
}

// loadLayerNames reads the native-to-English layer name translation table.
func loadLayerNames(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layer name CSV %s: %w", path, err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read layer name CSV %s: %w", path, err)
	}

	names := make(map[string]string)
	for {
		var row models.LayerNameRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse layer name CSV %s: %w", path, err)
		}
		names[row.Native] = row.Name
	}
	return names, nil
}

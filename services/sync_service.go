// services/sync_service.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/geoharvest/stacsync/config"
	"github.com/geoharvest/stacsync/models"
	"github.com/geoharvest/stacsync/scraper"
	"github.com/geoharvest/stacsync/stac"
	"github.com/geoharvest/stacsync/utils"
)

// DatasetSource supplies the dataset rows and candidate file index for the
// relational catalog.
type DatasetSource interface {
	GetDatasets(collectionIDs []string) (map[string][]models.DatasetDescriptor, error)
	GetIndexRecords(dataID int) ([]models.IndexRecord, error)
}

// CatalogClient is the slice of the catalog server the sync services use.
type CatalogClient interface {
	GetCollection(collectionID string) (map[string]any, error)
	CollectionIDs() ([]string, error)
	CollectionItems(collectionID string) ([]models.RemoteItem, error)
	GetItemRaw(collectionID, itemID string) (map[string]any, error)
	CreateCollection(collection map[string]any) error
	CreateItem(collectionID string, item map[string]any) error
	UpdateItem(collectionID, itemID string, item map[string]any) error
	UpdateCollection(collectionID string, collection map[string]any) error
}

// FileLister enumerates files under an HTML directory index.
type FileLister interface {
	ListFilesWithExt(dirURL, ext string) ([]string, error)
}

// PathProber answers per-file HTTP metadata questions.
type PathProber interface {
	LastModified(fileURL string) (time.Time, error)
	ResolveCasePath(fileURL string) string
}

// SyncStats counts the outcome of one sync pass.
type SyncStats struct {
	Created int
	Merged  int
	Skipped int
}

// SyncService drives the relational-catalog sync: it expands the spatial
// index into candidate files, derives item identity and timestamps, and
// reconciles the result against the published catalog.
type SyncService struct {
	Source   DatasetSource
	Catalog  CatalogClient
	Lister   FileLister
	Prober   PathProber
	Raster   scraper.RasterReader
	Resolver *stac.Resolver
	Config   config.DataSourceConfig

	AddMirror     bool
	UpdateExtents bool
}

// SyncCollections runs one idempotent sync pass over the given collections.
func (s *SyncService) SyncCollections(collectionIDs []string) (SyncStats, error) {
	stats := SyncStats{}

	datasets, err := s.Source.GetDatasets(collectionIDs)
	if err != nil {
		return stats, err
	}

	for _, stacID := range collectionIDs {
		rows, ok := datasets[stacID]
		if !ok {
			continue
		}
		collStats, err := s.syncCollection(stacID, rows)
		if err != nil {
			return stats, err
		}
		stats.Created += collStats.Created
		stats.Merged += collStats.Merged
		stats.Skipped += collStats.Skipped
	}

	log.Printf("Service: sync finished, %d created, %d merged, %d skipped.",
		stats.Created, stats.Merged, stats.Skipped)
	return stats, nil
}

func (s *SyncService) syncCollection(stacID string, rows []models.DatasetDescriptor) (SyncStats, error) {
	stats := SyncStats{}
	log.Printf("Service: checking %s:", stacID)

	createdCollection, err := s.ensureCollection(stacID, rows)
	if err != nil {
		return stats, err
	}

	published, err := s.Catalog.CollectionItems(stacID)
	if err != nil {
		return stats, err
	}

	// A NetCDF-format member anywhere in the collection switches the whole
	// collection to multi-asset reconciliation.
	multiAsset := false
	for _, row := range rows {
		if mt, ok := models.MediaTypeFor(row.Format); ok && mt.Name == "NetCDF" {
			multiAsset = true
		}
	}
	inv := stac.NewInventory(multiAsset, published)
	ext := newExtentTracker(published)

	for _, row := range rows {
		mediaType, ok := models.MediaTypeFor(row.Format)
		if !ok {
			log.Printf("WARN Service: dataset %d has unknown format %q, skipped.", row.DataID, row.Format)
			continue
		}

		records, err := s.Source.GetIndexRecords(row.DataID)
		if err != nil {
			return stats, err
		}

		for _, rec := range records {
			paths, err := s.expandPath(rec.Path, mediaType)
			if err != nil {
				log.Printf("WARN Service: could not expand %q: %v", rec.Path, err)
				continue
			}
			for _, dataPath := range paths {
				if err := s.syncFile(inv, ext, row, rec, dataPath, mediaType, &stats); err != nil {
					return stats, err
				}
			}
		}
	}

	if stats.Created > 0 || stats.Merged > 0 || createdCollection || s.UpdateExtents {
		if err := updateCollectionExtents(s.Catalog, stacID, ext); err != nil {
			return stats, err
		}
		log.Println(" + Updated collection extents.")
	} else {
		log.Printf(" - No new items for %s", stacID)
	}
	return stats, nil
}

// ensureCollection creates the collection on first encounter and folds new
// scale or coordinate-system variants into an already published one.
func (s *SyncService) ensureCollection(stacID string, rows []models.DatasetDescriptor) (bool, error) {
	doc, err := s.Catalog.GetCollection(stacID)
	if err != nil {
		coll, err := stac.BuildCollection(rows[0])
		if err != nil {
			return false, err
		}
		d := coll.ToDict()
		for _, row := range rows[1:] {
			stac.MergeCollectionVariant(d, row)
		}
		if err := s.Catalog.CreateCollection(d); err != nil {
			return false, err
		}
		log.Printf(" + Created collection %s", stacID)
		return true, nil
	}

	changed := false
	for _, row := range rows {
		if stac.MergeCollectionVariant(doc, row) {
			changed = true
		}
	}
	if changed {
		if err := s.Catalog.UpdateCollection(stacID, doc); err != nil {
			return false, err
		}
		log.Printf(" + Updated collection metadata for %s", stacID)
	}
	return false, nil
}

// expandPath turns an index path into concrete file URLs. A path can name a
// file outright, carry a "*" extension placeholder, or point at a directory
// whose index pages have to be walked.
func (s *SyncService) expandPath(path string, mediaType models.MediaType) ([]string, error) {
	prefix := s.Config.OnlinePrefix
	switch {
	case strings.HasSuffix(path, mediaType.Ext):
		return []string{prefix + path}, nil
	case strings.HasSuffix(path, ".*"):
		return []string{prefix + strings.Replace(path, "*", mediaType.Ext, 1)}, nil
	case strings.HasSuffix(path, "*"):
		return []string{prefix + strings.Replace(path, "*", "."+mediaType.Ext, 1)}, nil
	default:
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
		files, err := s.Lister.ListFilesWithExt(prefix+path, mediaType.Ext)
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(files))
		for _, f := range files {
			urls = append(urls, prefix+path+f)
		}
		return urls, nil
	}
}

func (s *SyncService) syncFile(inv *stac.CollectionInventory, ext *extentTracker,
	row models.DatasetDescriptor, rec models.IndexRecord, dataPath string,
	mediaType models.MediaType, stats *SyncStats) error {

	ts, err := s.Resolver.Resolve(dataPath, row, rec.Label)
	if err != nil {
		log.Printf("WARN Service: no timestamps for %s: %v", dataPath, err)
		return nil
	}
	itemID, err := stac.BuildItemID(dataPath, row, ts.DateToken, rec.Label)
	if err != nil {
		log.Printf("WARN Service: no item ID for %s: %v", dataPath, err)
		return nil
	}

	action := stac.Reconcile(inv, row, itemID, mediaType)
	switch action.Kind {
	case stac.ActionSkip:
		stats.Skipped++
		return nil

	case stac.ActionCreate:
		item, err := s.buildItem(action, row, rec, dataPath, mediaType, ts)
		if err != nil {
			log.Printf("WARN Service: could not build %s: %v", itemID, err)
			return nil
		}
		if err := s.Catalog.CreateItem(row.StacID, item.ToDict()); err != nil {
			return err
		}
		inv.Record(itemID, action.AssetKey, dataPath)
		ext.add(item.BBox, item.StartTime, item.EndTime)
		stats.Created++
		log.Printf(" + Added %s", itemID)
		return nil

	case stac.ActionMergeAsset:
		if err := s.mergeAsset(action, row, dataPath, mediaType); err != nil {
			return err
		}
		inv.Record(itemID, action.AssetKey, dataPath)
		stats.Merged++
		log.Printf(" + Merged %s into %s", action.AssetKey, itemID)
		return nil
	}
	return nil
}

// buildItem assembles a new item from the file header, the dataset row and
// the index geometry.
func (s *SyncService) buildItem(action stac.Action, row models.DatasetDescriptor,
	rec models.IndexRecord, dataPath string, mediaType models.MediaType,
	ts stac.Timestamps) (models.Item, error) {

	dataPath = s.Prober.ResolveCasePath(dataPath)

	header, err := s.Raster.ReadHeader(dataPath)
	if err != nil {
		return models.Item{}, err
	}

	asset := s.makeAsset(action.AssetKey, dataPath, mediaType, header)
	item := models.Item{
		ID:         action.ItemID,
		Collection: row.StacID,
		StartTime:  ts.Start,
		EndTime:    ts.End,
		GSD:        header.GSD,
		EPSG:       s.resolveEPSG(header, row, dataPath, mediaType),
		Assets:     map[string]models.Asset{action.AssetKey: asset},
	}

	// A whole-world bbox means the header carried no usable footprint; the
	// spatial index geometry takes over.
	if isWholeWorld(header.BBox) {
		var geom map[string]any
		if err := json.Unmarshal([]byte(rec.GeoJSON), &geom); err != nil {
			return models.Item{}, fmt.Errorf("bad index geometry for %s: %w", action.ItemID, err)
		}
		item.Geometry = geom
		item.BBox = geometryBBox(geom)
	} else {
		item.BBox = header.BBox
		item.Geometry = bboxPolygon(header.BBox)
	}

	if s.AddMirror {
		mirror := stac.MirrorAsset(asset, s.Config.OnlinePrefix, s.Config.MirrorPrefix,
			s.Config.MirrorTitleFrom, s.Config.MirrorTitleTo)
		item.Assets[mirror.Title] = mirror
	}
	return item, nil
}

// mergeAsset adds this format's asset to an already published item.
func (s *SyncService) mergeAsset(action stac.Action, row models.DatasetDescriptor,
	dataPath string, mediaType models.MediaType) error {

	raw, err := s.Catalog.GetItemRaw(row.StacID, action.ItemID)
	if err != nil {
		return err
	}
	assets, ok := raw["assets"].(map[string]any)
	if !ok {
		assets = map[string]any{}
		raw["assets"] = assets
	}

	dataPath = s.Prober.ResolveCasePath(dataPath)
	header, err := s.Raster.ReadHeader(dataPath)
	if err != nil {
		log.Printf("WARN Service: could not read %s: %v", dataPath, err)
		return nil
	}

	asset := s.makeAsset(action.AssetKey, dataPath, mediaType, header)
	assets[action.AssetKey] = asset.ToDict()
	if s.AddMirror {
		mirror := stac.MirrorAsset(asset, s.Config.OnlinePrefix, s.Config.MirrorPrefix,
			s.Config.MirrorTitleFrom, s.Config.MirrorTitleTo)
		assets[mirror.Title] = mirror.ToDict()
	}

	return s.Catalog.UpdateItem(row.StacID, action.ItemID, raw)
}

func (s *SyncService) makeAsset(assetKey, dataPath string, mediaType models.MediaType,
	header scraper.RasterHeader) models.Asset {
	return models.Asset{
		Href:      dataPath,
		Title:     assetKey,
		MediaType: mediaType.MIME,
		Roles:     []string{"data"},
		GSD:       header.GSD,
		Shape:     header.Shape,
		Transform: header.Transform,
	}
}

// resolveEPSG picks the item EPSG code: the raster header wins, NetCDF
// datasets are fixed to 3067, and headerless rasters fall back to the dataset
// coordinate system.
func (s *SyncService) resolveEPSG(header scraper.RasterHeader, row models.DatasetDescriptor,
	dataPath string, mediaType models.MediaType) int {
	if mediaType.Name == "NetCDF" {
		return 3067
	}
	epsg := header.EPSG
	if epsg == 0 {
		epsg = utils.EPSGForDataset(dataPath, row.CoordSys, row.StacID)
	}
	return utils.NormalizeEPSG(epsg)
}

func isWholeWorld(bbox []float64) bool {
	if len(bbox) != 4 {
		return true
	}
	for i, v := range models.WholeWorldBBox {
		if bbox[i] != v {
			return false
		}
	}
	return true
}

// bboxPolygon renders a bbox as a closed GeoJSON polygon.
func bboxPolygon(bbox []float64) map[string]any {
	return map[string]any{
		"type": "Polygon",
		"coordinates": []any{
			[]any{
				[]any{bbox[0], bbox[1]},
				[]any{bbox[2], bbox[1]},
				[]any{bbox[2], bbox[3]},
				[]any{bbox[0], bbox[3]},
				[]any{bbox[0], bbox[1]},
			},
		},
	}
}

// geometryBBox computes the bounding box of any GeoJSON geometry.
func geometryBBox(geom map[string]any) []float64 {
	bbox := []float64{180, 90, -180, -90}
	var walk func(v any)
	walk = func(v any) {
		switch coords := v.(type) {
		case []any:
			if len(coords) >= 2 {
				x, xok := coords[0].(float64)
				y, yok := coords[1].(float64)
				if xok && yok {
					if x < bbox[0] {
						bbox[0] = x
					}
					if y < bbox[1] {
						bbox[1] = y
					}
					if x > bbox[2] {
						bbox[2] = x
					}
					if y > bbox[3] {
						bbox[3] = y
					}
					return
				}
			}
			for _, c := range coords {
				walk(c)
			}
		}
	}
	walk(geom["coordinates"])
	return bbox
}

// extentTracker accumulates the spatial and temporal extent of a collection
// from its published items plus the items added during a run.
type extentTracker struct {
	bbox  []float64
	from  *time.Time
	to    *time.Time
	empty bool
}

func newExtentTracker(published []models.RemoteItem) *extentTracker {
	ext := &extentTracker{empty: true}
	for _, item := range published {
		ext.add(item.BBox, timeOrZero(item.StartTime), timeOrZero(item.EndTime))
	}
	return ext
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (e *extentTracker) add(bbox []float64, start, end time.Time) {
	if len(bbox) == 4 {
		if e.empty || len(e.bbox) != 4 {
			e.bbox = append([]float64(nil), bbox...)
		} else {
			if bbox[0] < e.bbox[0] {
				e.bbox[0] = bbox[0]
			}
			if bbox[1] < e.bbox[1] {
				e.bbox[1] = bbox[1]
			}
			if bbox[2] > e.bbox[2] {
				e.bbox[2] = bbox[2]
			}
			if bbox[3] > e.bbox[3] {
				e.bbox[3] = bbox[3]
			}
		}
	}
	if !start.IsZero() && (e.from == nil || start.Before(*e.from)) {
		s := start
		e.from = &s
	}
	if !end.IsZero() && (e.to == nil || end.After(*e.to)) {
		t := end
		e.to = &t
	}
	e.empty = false
}

// updateCollectionExtents recomputes a collection's declared extent from the
// tracked items and pushes the updated document.
func updateCollectionExtents(catalogClient CatalogClient, collectionID string, ext *extentTracker) error {
	doc, err := catalogClient.GetCollection(collectionID)
	if err != nil {
		return err
	}

	interval := []any{nil, nil}
	if ext.from != nil {
		interval[0] = models.FormatTime(*ext.from)
	}
	if ext.to != nil {
		interval[1] = models.FormatTime(*ext.to)
	}
	bbox := ext.bbox
	if len(bbox) != 4 {
		bbox = []float64{0, 0, 0, 0}
	}
	doc["extent"] = map[string]any{
		"spatial":  map[string]any{"bbox": []any{toAnySlice(bbox)}},
		"temporal": map[string]any{"interval": []any{interval}},
	}

	return catalogClient.UpdateCollection(collectionID, doc)
}

func toAnySlice(values []float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

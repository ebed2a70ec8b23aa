// services/sentinel_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/geoharvest/stacsync/allas"
	"github.com/geoharvest/stacsync/models"
	"github.com/geoharvest/stacsync/scraper"
)

// ObjectStorage is the slice of the object storage client the Sentinel sync
// uses.
type ObjectStorage interface {
	SentinelBuckets(ctx context.Context) ([]string, error)
	ListKeys(ctx context.Context, bucket string) ([]string, error)
	ObjectContent(ctx context.Context, bucket, key string) ([]byte, error)
	ObjectURL(bucket, key string) string
}

// SentinelService syncs the Sentinel-2 L2A archive from object storage. One
// SAFE package becomes one item; its band images become assets.
type SentinelService struct {
	Catalog    CatalogClient
	Storage    ObjectStorage
	Raster     scraper.RasterReader
	Collection string
}

// Sync runs one pass over the Sentinel-2 buckets.
func (s *SentinelService) Sync(ctx context.Context) (SyncStats, error) {
	stats := SyncStats{}

	published, err := s.Catalog.CollectionItems(s.Collection)
	if err != nil {
		return stats, err
	}
	inv := make(map[string]bool, len(published))
	ext := newExtentTracker(published)
	for _, item := range published {
		inv[item.ID] = true
	}

	buckets, err := s.Storage.SentinelBuckets(ctx)
	if err != nil {
		return stats, err
	}

	for _, bucket := range buckets {
		keys, err := s.Storage.ListKeys(ctx, bucket)
		if err != nil {
			log.Printf("WARN Service: could not list bucket %s: %v", bucket, err)
			continue
		}
		listing := allas.GroupBucketKeys(keys)
		log.Printf("Service: bucket %s, %d SAFE packages.", bucket, len(listing.Safes))

		for _, safe := range listing.Safes {
			safename := allas.SafeName(safe)
			if inv[safename] {
				stats.Skipped++
				continue
			}
			item, err := s.buildSafeItem(ctx, bucket, safe, safename, listing)
			if err != nil {
				log.Printf("WARN Service: skipped %s: %v", safename, err)
				continue
			}
			if item == nil {
				continue
			}
			if err := s.Catalog.CreateItem(s.Collection, item.ToDict()); err != nil {
				return stats, err
			}
			inv[safename] = true
			ext.add(item.BBox, item.StartTime, item.EndTime)
			stats.Created++
			log.Printf(" + Added %s", safename)
		}
	}

	if stats.Created > 0 {
		log.Printf(" + Number of items added: %d", stats.Created)
		if err := updateCollectionExtents(s.Catalog, s.Collection, ext); err != nil {
			return stats, err
		}
		log.Println(" + Updated collection extents.")
	} else {
		log.Println(" * All items present.")
	}
	return stats, nil
}

// buildSafeItem assembles the item for one SAFE package. A nil item with a
// nil error means the package holds no band images and is not an error.
func (s *SentinelService) buildSafeItem(ctx context.Context, bucket, safe, safename string,
	listing allas.SafeListing) (*models.Item, error) {

	mtdKey := findKey(listing.MTDKeys, safename)
	tileKey := findKey(listing.TileKeys, safename)
	if mtdKey == "" || tileKey == "" {
		// Without the two metadata files the package carries nothing usable.
		return nil, nil
	}

	var jp2Keys []string
	previewKey := ""
	for _, key := range listing.JP2Keys {
		if !strings.Contains(key, safename) {
			continue
		}
		if strings.Contains(key, "IMG_DATA") {
			jp2Keys = append(jp2Keys, key)
		}
		if previewKey == "" && strings.Contains(key, "PVI") {
			previewKey = key
		}
	}
	if len(jp2Keys) == 0 {
		return nil, nil
	}

	tileContent, err := s.Storage.ObjectContent(ctx, bucket, tileKey)
	if err != nil {
		return nil, err
	}
	crs, err := allas.ParseSafeCRS(tileContent)
	if err != nil {
		return nil, err
	}
	mtdContent, err := s.Storage.ObjectContent(ctx, bucket, mtdKey)
	if err != nil {
		return nil, err
	}
	meta, err := allas.ParseSafeMetadata(mtdContent)
	if err != nil {
		return nil, err
	}

	sensed, err := safeSensingTime(safename)
	if err != nil {
		return nil, err
	}

	header, err := s.Raster.ReadHeader(s.Storage.ObjectURL(bucket, jp2Keys[0]))
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		ID:         safename,
		Collection: s.Collection,
		StartTime:  sensed,
		EndTime:    sensed,
		GSD:        10,
		EPSG:       crs.EPSG,
		BBox:       header.BBox,
		Geometry:   bboxPolygon(header.BBox),
		Properties: map[string]any{
			"eo:cloud_cover": meta.CloudCover,
			"data_cover":     meta.DataCover,
			"orbit":          meta.Orbit,
			"baseline":       meta.Baseline,
			"platform":       "sentinel-2",
			"instrument":     "msi",
			"constellation":  "sentinel-2",
			"mission":        "copernicus",
			"eo:bands":       sentinelBandDicts(),
		},
		Assets: make(map[string]models.Asset, len(jp2Keys)+1),
	}

	for _, key := range jp2Keys {
		name, asset, err := bandAsset(s.Storage.ObjectURL(bucket, key), crs)
		if err != nil {
			log.Printf("WARN Service: skipped band image %s: %v", key, err)
			continue
		}
		item.Assets[name] = asset
	}
	if previewKey != "" {
		item.Assets["thumbnail"] = models.Asset{
			Href:      s.Storage.ObjectURL(bucket, previewKey),
			Title:     "Thumbnail image",
			MediaType: models.MediaTypes["JPEG2000"].MIME,
			Roles:     []string{"thumbnail"},
		}
	}
	return item, nil
}

// safeSensingTime parses the sensing date out of the SAFE name's third
// underscore segment.
func safeSensingTime(safename string) (time.Time, error) {
	segs := strings.Split(safename, "_")
	if len(segs) < 3 || len(segs[2]) < 8 {
		return time.Time{}, fmt.Errorf("SAFE name %q has no sensing date", safename)
	}
	t, err := time.Parse("20060102", segs[2][:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("SAFE name %q has a bad sensing date: %w", safename, err)
	}
	return t, nil
}

// bandAsset builds the asset for one band image. Filenames end in
// <band>_<resolution>m, with a trailing "geo" segment on a few reprocessed
// products.
func bandAsset(uri string, crs models.SafeCRS) (string, models.Asset, error) {
	stem := strings.Split(uri[strings.LastIndex(uri, "/")+1:], ".")[0]
	segs := strings.Split(stem, "_")

	band, resSeg := "", ""
	switch {
	case strings.HasSuffix(stem, "geo") && len(segs) >= 3:
		band = segs[len(segs)-3]
		resSeg = segs[len(segs)-2]
	case len(segs) >= 2:
		band = segs[len(segs)-2]
		resSeg = segs[len(segs)-1]
	default:
		return "", models.Asset{}, fmt.Errorf("band image %q has no band and resolution segments", stem)
	}
	name := band + "_" + resSeg
	resolution := strings.TrimSuffix(resSeg, "m")

	asset := models.Asset{
		Href:      uri,
		Title:     name,
		MediaType: models.MediaTypes["JPEG2000"].MIME,
		Roles:     []string{"data"},
	}
	if gsd, err := strconv.Atoi(resolution); err == nil {
		asset.GSD = float64(gsd)
	}
	if shape, ok := crs.Shapes[resolution]; ok {
		asset.Shape = []int{shape[0], shape[1]}
	}
	if b, ok := models.Sentinel2Bands[band]; ok {
		asset.Extra = map[string]any{"eo:bands": []any{b.ToDict()}}
	}
	return name, asset, nil
}

func sentinelBandDicts() []any {
	out := make([]any, 0, len(models.Sentinel2Bands))
	for _, key := range []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B8A", "B09", "B10", "B11", "B12"} {
		out = append(out, models.Sentinel2Bands[key].ToDict())
	}
	return out
}

func findKey(keys []string, safename string) string {
	for _, key := range keys {
		if strings.Contains(key, safename) {
			return key
		}
	}
	return ""
}

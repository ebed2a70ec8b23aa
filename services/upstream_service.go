// services/upstream_service.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geoharvest/stacsync/config"
	"github.com/geoharvest/stacsync/scraper"
	"github.com/geoharvest/stacsync/utils"
)

// UpstreamService mirrors collections from an upstream static STAC catalog
// into the local server. Local collections declare their source with a
// derived_from link; the sync follows it, walks the upstream child and item
// links, and pushes whatever is missing locally.
type UpstreamService struct {
	Catalog CatalogClient
	Raster  scraper.RasterReader
	Config  config.UpstreamConfig
	client  http.Client
}

// NewUpstreamService builds the service with a read timeout for the upstream
// catalog.
func NewUpstreamService(catalogClient CatalogClient, raster scraper.RasterReader, cfg config.UpstreamConfig) *UpstreamService {
	return &UpstreamService{
		Catalog: catalogClient,
		Raster:  raster,
		Config:  cfg,
		client:  http.Client{Timeout: 60 * time.Second},
	}
}

// Sync runs one pass over the configured upstream-derived collections. With
// no explicit list, collections are discovered by their upstream suffix.
func (u *UpstreamService) Sync() (SyncStats, error) {
	stats := SyncStats{}

	collections := u.Config.Collections
	if len(collections) == 0 {
		ids, err := u.Catalog.CollectionIDs()
		if err != nil {
			return stats, err
		}
		for _, id := range ids {
			if strings.HasSuffix(id, "at_fmi") {
				collections = append(collections, id)
			}
		}
	}

	for _, collectionID := range collections {
		collStats, err := u.syncCollection(collectionID)
		if err != nil {
			return stats, err
		}
		stats.Created += collStats.Created
		stats.Skipped += collStats.Skipped
	}

	log.Printf("Service: upstream sync finished, %d created, %d skipped.", stats.Created, stats.Skipped)
	return stats, nil
}

func (u *UpstreamService) syncCollection(collectionID string) (SyncStats, error) {
	stats := SyncStats{}
	log.Printf("Service: checking collection %s:", collectionID)

	doc, err := u.Catalog.GetCollection(collectionID)
	if err != nil {
		return stats, err
	}
	derivedFrom := linkHref(doc, "derived_from")
	if derivedFrom == "" {
		log.Printf("WARN Service: %s has no derived_from link, skipped.", collectionID)
		return stats, nil
	}

	upstream, err := u.fetchDocument(derivedFrom)
	if err != nil {
		return stats, err
	}

	itemLinks, err := u.collectItemLinks(derivedFrom, upstream)
	if err != nil {
		return stats, err
	}

	published, err := u.Catalog.CollectionItems(collectionID)
	if err != nil {
		return stats, err
	}
	publishedIDs := make(map[string]bool, len(published))
	for _, item := range published {
		publishedIDs[item.ID] = true
	}
	log.Printf(" * Number of items local and upstream: %d/%d", len(published), len(itemLinks))

	for _, link := range itemLinks {
		item := u.fetchDocumentRetry(link)
		id, _ := item["id"].(string)
		if id == "" || publishedIDs[id] {
			stats.Skipped++
			continue
		}
		item["collection"] = collectionID
		u.enrichItem(item)
		if err := u.Catalog.CreateItem(collectionID, item); err != nil {
			return stats, err
		}
		publishedIDs[id] = true
		stats.Created++
		log.Printf(" + Added item %s", id)
	}

	// The upstream extent is authoritative for mirrored collections.
	if extent, ok := upstream["extent"]; ok {
		doc["extent"] = extent
	}
	if err := u.Catalog.UpdateCollection(collectionID, doc); err != nil {
		return stats, err
	}
	log.Println(" * Updated collection.")
	return stats, nil
}

// collectItemLinks walks the upstream child collections and gathers their
// deduplicated item links.
func (u *UpstreamService) collectItemLinks(baseURL string, upstream map[string]any) ([]string, error) {
	childLinks := linkHrefs(upstream, "child")
	itemSet := make(map[string]bool)
	var itemLinks []string

	gather := func(doc map[string]any, docURL string) {
		for _, href := range linkHrefs(doc, "item") {
			resolved := resolveHref(docURL, href)
			if !itemSet[resolved] {
				itemSet[resolved] = true
				itemLinks = append(itemLinks, resolved)
			}
		}
	}

	if len(childLinks) == 0 {
		gather(upstream, baseURL)
		return itemLinks, nil
	}
	for _, href := range childLinks {
		childURL := resolveHref(baseURL, href)
		child, err := u.fetchDocument(childURL)
		if err != nil {
			return nil, err
		}
		gather(child, childURL)
	}
	return itemLinks, nil
}

// enrichItem fills the fields the local server needs that static upstream
// items lack: resolution and projection from the first asset's header, list
// roles, and no item-level license.
func (u *UpstreamService) enrichItem(item map[string]any) {
	props, ok := item["properties"].(map[string]any)
	if !ok {
		props = map[string]any{}
		item["properties"] = props
	}

	if assets, ok := item["assets"].(map[string]any); ok {
		for _, rawAsset := range assets {
			asset, ok := rawAsset.(map[string]any)
			if !ok {
				continue
			}
			if item["gsd"] == nil {
				if href, ok := asset["href"].(string); ok {
					if header, err := u.Raster.ReadHeader(href); err == nil {
						item["gsd"] = header.GSD
						props["proj:epsg"] = utils.NormalizeEPSG(header.EPSG)
						if len(header.Transform) > 0 {
							props["proj:transform"] = header.Transform
						}
					}
				}
			}
			if roles, ok := asset["roles"]; ok {
				if _, isList := roles.([]any); !isList {
					asset["roles"] = []any{roles}
				}
			}
		}
	}

	delete(props, "license")
	if links, ok := item["links"].([]any); ok {
		var kept []any
		for _, raw := range links {
			if link, ok := raw.(map[string]any); ok && link["rel"] == "license" {
				continue
			}
			kept = append(kept, raw)
		}
		item["links"] = kept
	}
}

// fetchDocument reads one JSON document from the upstream catalog, repairing
// the single known malformation: a temporal interval that is not wrapped in
// an outer list.
func (u *UpstreamService) fetchDocument(docURL string) (map[string]any, error) {
	resp, err := u.client.Get(docURL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", docURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status code %d", docURL, resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", docURL, err)
	}
	fixTemporalInterval(doc)
	return doc, nil
}

// fetchDocumentRetry keeps retrying until the upstream answers. Static
// catalogs time out under burst reads; losing an item link would break the
// idempotency of the run.
func (u *UpstreamService) fetchDocumentRetry(docURL string) map[string]any {
	for {
		doc, err := u.fetchDocument(docURL)
		if err == nil {
			return doc
		}
		log.Printf(" ! %v, retrying.", err)
		time.Sleep(5 * time.Second)
	}
}

// fixTemporalInterval wraps a bare temporal interval pair into the list of
// intervals the STAC spec requires.
func fixTemporalInterval(doc map[string]any) {
	extent, ok := doc["extent"].(map[string]any)
	if !ok {
		return
	}
	temporal, ok := extent["temporal"].(map[string]any)
	if !ok {
		return
	}
	interval, ok := temporal["interval"].([]any)
	if !ok || len(interval) == 0 {
		return
	}
	if _, nested := interval[0].([]any); !nested {
		temporal["interval"] = []any{interval}
	}
}

func linkHref(doc map[string]any, rel string) string {
	hrefs := linkHrefs(doc, rel)
	if len(hrefs) == 0 {
		return ""
	}
	return hrefs[0]
}

func linkHrefs(doc map[string]any, rel string) []string {
	links, ok := doc["links"].([]any)
	if !ok {
		return nil
	}
	var hrefs []string
	for _, raw := range links {
		link, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if link["rel"] == rel {
			if href, ok := link["href"].(string); ok {
				hrefs = append(hrefs, href)
			}
		}
	}
	return hrefs
}

func resolveHref(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// services/mirror_service.go
package services

import (
	"log"
	"strings"

	"github.com/geoharvest/stacsync/config"
)

// MirrorService backfills site-local mirror assets onto items that were
// published with only their online asset.
type MirrorService struct {
	Catalog CatalogClient
	Config  config.DataSourceConfig
}

// AddMirrorAssets walks a collection and adds a mirror variant of every asset
// on single-asset items. Items that already carry more than one asset are
// assumed done from an earlier run.
func (m *MirrorService) AddMirrorAssets(collectionID string) (int, error) {
	items, err := m.Catalog.CollectionItems(collectionID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, item := range items {
		if len(item.AssetKeys) > 1 {
			continue
		}
		raw, err := m.Catalog.GetItemRaw(collectionID, item.ID)
		if err != nil {
			return updated, err
		}
		assets, ok := raw["assets"].(map[string]any)
		if !ok || len(assets) == 0 {
			continue
		}

		mirrors := make(map[string]any)
		for _, rawAsset := range assets {
			asset, ok := rawAsset.(map[string]any)
			if !ok {
				continue
			}
			mirror := m.mirrorAssetDict(asset)
			if title, ok := mirror["title"].(string); ok && title != "" {
				mirrors[title] = mirror
			}
		}
		for key, mirror := range mirrors {
			assets[key] = mirror
		}

		if err := m.Catalog.UpdateItem(collectionID, item.ID, raw); err != nil {
			return updated, err
		}
		updated++
		log.Printf(" + Added mirror links to %s", item.ID)
	}

	log.Printf("Service: mirror links added to %d items in %s.", updated, collectionID)
	return updated, nil
}

// mirrorAssetDict clones a raw asset dictionary with the online prefix
// rewritten to the local one and the site token swapped in the title.
func (m *MirrorService) mirrorAssetDict(asset map[string]any) map[string]any {
	mirror := make(map[string]any, len(asset))
	for k, v := range asset {
		mirror[k] = v
	}
	if href, ok := mirror["href"].(string); ok {
		mirror["href"] = strings.Replace(href, m.Config.OnlinePrefix, m.Config.MirrorPrefix, 1)
	}
	if title, ok := mirror["title"].(string); ok {
		mirror["title"] = strings.ReplaceAll(title, m.Config.MirrorTitleFrom, m.Config.MirrorTitleTo)
	}
	return mirror
}

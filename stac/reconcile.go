// stac/reconcile.go
package stac

import (
	"log"
	"strings"

	"github.com/geoharvest/stacsync/models"
)

// ActionKind is the reconciliation decision for one candidate file.
type ActionKind int

const (
	// ActionSkip: the item (or this format's asset) is already published.
	ActionSkip ActionKind = iota
	// ActionCreate: no item with this identity exists yet.
	ActionCreate
	// ActionMergeAsset: the item exists but lacks an asset for this format.
	ActionMergeAsset
)

func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return "create"
	case ActionMergeAsset:
		return "merge-asset"
	default:
		return "skip"
	}
}

// Action couples the decision with the identity it applies to.
type Action struct {
	Kind     ActionKind
	ItemID   string
	AssetKey string
}

// CollectionInventory is the local snapshot of a collection's published
// items, taken once before a sync pass. MultiAsset is set when the collection
// has NetCDF-format members in this run: such collections accumulate several
// different-format assets under one logical item across repeated crawls, so
// identity collisions are resolved at asset granularity instead of item
// granularity.
type CollectionInventory struct {
	MultiAsset bool
	items      map[string][]string
	sources    map[string]string
}

// NewInventory builds the snapshot from the published items.
func NewInventory(multiAsset bool, published []models.RemoteItem) *CollectionInventory {
	inv := &CollectionInventory{
		MultiAsset: multiAsset,
		items:      make(map[string][]string, len(published)),
		sources:    make(map[string]string),
	}
	for _, item := range published {
		inv.items[item.ID] = item.AssetKeys
	}
	return inv
}

// Has reports whether an item ID is present in the snapshot.
func (inv *CollectionInventory) Has(itemID string) bool {
	_, ok := inv.items[itemID]
	return ok
}

// AssetKeys returns the asset keys recorded for an item.
func (inv *CollectionInventory) AssetKeys(itemID string) []string {
	return inv.items[itemID]
}

// Record adds an item created or merged during this run, so later candidates
// in the same pass reconcile against it. The source path is kept to flag
// identifier collisions: two different files mapping to one ID are silently
// treated as the same item by the rule table, which is worth a warning.
func (inv *CollectionInventory) Record(itemID, assetKey, sourcePath string) {
	inv.items[itemID] = append(inv.items[itemID], assetKey)
	if prev, ok := inv.sources[itemID]; ok && prev != sourcePath {
		log.Printf("WARN Reconciler: item ID %s produced by both %s and %s", itemID, prev, sourcePath)
		return
	}
	inv.sources[itemID] = sourcePath
}

// Reconcile decides whether a candidate file becomes a new item, an asset
// merged into an existing item, or nothing.
func Reconcile(inv *CollectionInventory, ds models.DatasetDescriptor, itemID string, mediaType models.MediaType) Action {
	assetKey := ds.StacID + "_" + mediaType.Key()

	if !inv.MultiAsset {
		// Single-asset collections have one file per item: seeing the ID
		// again is a re-discovery of the same file.
		if inv.Has(itemID) {
			return Action{Kind: ActionSkip, ItemID: itemID, AssetKey: assetKey}
		}
		return Action{Kind: ActionCreate, ItemID: itemID, AssetKey: assetKey}
	}

	if !inv.Has(itemID) {
		return Action{Kind: ActionCreate, ItemID: itemID, AssetKey: assetKey}
	}
	for _, key := range inv.AssetKeys(itemID) {
		segs := strings.Split(key, "_")
		if segs[len(segs)-1] == mediaType.Key() {
			return Action{Kind: ActionSkip, ItemID: itemID, AssetKey: assetKey}
		}
	}
	return Action{Kind: ActionMergeAsset, ItemID: itemID, AssetKey: assetKey}
}

// MirrorAsset derives the site-local variant of an asset by rewriting the
// online prefix to the local filesystem prefix and swapping the site token in
// the title. It is a pure transform of the primary asset.
func MirrorAsset(primary models.Asset, onlinePrefix, localPrefix, titleFrom, titleTo string) models.Asset {
	mirror := primary
	mirror.Href = strings.Replace(primary.Href, onlinePrefix, localPrefix, 1)
	mirror.Title = strings.ReplaceAll(primary.Title, titleFrom, titleTo)
	return mirror
}

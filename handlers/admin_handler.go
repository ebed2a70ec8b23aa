// handlers/admin_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/geoharvest/stacsync/config"
	"github.com/geoharvest/stacsync/services"
)

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling JSON response: %v", err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	log.Printf("API Error %d: %s", code, message)
	respondWithJSON(w, code, map[string]string{"error": message})
}

// AdminHandler exposes the sync drivers over HTTP for manual runs.
type AdminHandler struct {
	Sync     *services.SyncService
	Sentinel *services.SentinelService
	GeoCubes *services.GeoCubesService
	Upstream *services.UpstreamService
	Mirror   *services.MirrorService
}

// SyncHandler handles requests to manually run a sync pass.
// Expects POST requests to /api/admin/sync/{source}
// where {source} is "paituli", "sentinel", "geocubes" or "upstream".
func (h *AdminHandler) SyncHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// Expected path: api/admin/sync/{source}
	if len(pathParts) < 4 {
		respondWithError(w, http.StatusBadRequest, "Invalid path. Expected /api/admin/sync/{source}")
		return
	}
	source := strings.ToLower(pathParts[3])

	var stats services.SyncStats
	var err error
	switch source {
	case "paituli":
		collections := r.URL.Query()["collection"]
		if len(collections) == 0 {
			respondWithError(w, http.StatusBadRequest, "Provide at least one ?collection= parameter")
			return
		}
		stats, err = h.Sync.SyncCollections(collections)
	case "sentinel":
		stats, err = h.Sentinel.Sync(context.Background())
	case "geocubes":
		stats, err = h.GeoCubes.Sync()
	case "upstream":
		stats, err = h.Upstream.Sync()
	default:
		respondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid source '%s'. Use 'paituli', 'sentinel', 'geocubes' or 'upstream'.", source))
		return
	}

	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Sync of %s failed: %v", source, err))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%s sync finished.", source),
		"created": stats.Created,
		"merged":  stats.Merged,
		"skipped": stats.Skipped,
	})
}

// MirrorHandler handles requests to backfill mirror assets onto a collection.
// Expects POST requests to /api/admin/mirror/{collection}
func (h *AdminHandler) MirrorHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		respondWithError(w, http.StatusBadRequest, "Invalid path. Expected /api/admin/mirror/{collection}")
		return
	}
	collection := pathParts[3]

	updated, err := h.Mirror.AddMirrorAssets(collection)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Mirror backfill for %s failed: %v", collection, err))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Mirror assets added to %s.", collection),
		"updated": updated,
	})
}

// ConfigHandler reports the non-secret parts of the active configuration.
// Expects GET requests to /api/admin/config
func (h *AdminHandler) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"catalog_host":  config.AppConfig.Catalog.Host,
		"online_prefix": config.AppConfig.DataSource.OnlinePrefix,
		"mirror_prefix": config.AppConfig.DataSource.MirrorPrefix,
		"s3_endpoint":   config.AppConfig.S3.Endpoint,
		"geocubes_api":  config.AppConfig.GeoCubes.APIURL,
		"upstream_host": config.AppConfig.Upstream.Host,
	})
}

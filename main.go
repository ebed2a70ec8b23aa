// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/geoharvest/stacsync/allas"
	"github.com/geoharvest/stacsync/catalog"
	"github.com/geoharvest/stacsync/config"
	"github.com/geoharvest/stacsync/database"
	"github.com/geoharvest/stacsync/handlers"
	"github.com/geoharvest/stacsync/scraper"
	"github.com/geoharvest/stacsync/services"
	"github.com/geoharvest/stacsync/stac"
)

func main() {
	log.Println("Starting geospatial catalog sync...")

	configFlag := flag.String("config", "", "Path to the YAML config file")
	collectionsFlag := flag.String("collections", "", "Comma-separated collection IDs to sync")
	sourceFlag := flag.String("source", "paituli", "Sync source: paituli, sentinel, geocubes or upstream")
	serveFlag := flag.Bool("serve", false, "Run the admin HTTP server instead of a one-shot sync")
	addMirrorFlag := flag.Bool("add-mirror", false, "Also attach compute-cluster mirror assets to new items")
	mirrorOnlyFlag := flag.String("backfill-mirror", "", "Backfill mirror assets onto the given collection and exit")
	updateExtentsFlag := flag.Bool("update-extents", false, "Push recomputed collection extents even when nothing was added")
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		configPath = "config/config.yaml"
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config.yaml"
		}
	}
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	log.Printf("Configuration loaded. Catalog host: %s", config.AppConfig.Catalog.Host)

	if err := database.InitDB(config.AppConfig.Database); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer database.CloseDB()

	catalogClient := catalog.New(config.AppConfig.Catalog)
	prober := scraper.NewHeadProber()
	raster := scraper.NewHeadRasterReader()

	syncService := &services.SyncService{
		Source:        database.Store{},
		Catalog:       catalogClient,
		Lister:        scraper.NewListingClient(),
		Prober:        prober,
		Raster:        raster,
		Resolver:      &stac.Resolver{Prober: prober},
		Config:        config.AppConfig.DataSource,
		AddMirror:     *addMirrorFlag,
		UpdateExtents: *updateExtentsFlag,
	}
	geocubesService := &services.GeoCubesService{
		Catalog: catalogClient,
		Lister:  scraper.NewListingClient(),
		Raster:  raster,
		Config:  config.AppConfig.GeoCubes,
	}
	upstreamService := services.NewUpstreamService(catalogClient, raster, config.AppConfig.Upstream)
	mirrorService := &services.MirrorService{
		Catalog: catalogClient,
		Config:  config.AppConfig.DataSource,
	}

	storage, err := allas.New(config.AppConfig.S3)
	if err != nil {
		log.Fatalf("Error initializing object storage client: %v", err)
	}
	sentinelService := &services.SentinelService{
		Catalog:    catalogClient,
		Storage:    storage,
		Raster:     raster,
		Collection: config.AppConfig.S3.Collection,
	}

	if *serveFlag {
		serve(syncService, sentinelService, geocubesService, upstreamService, mirrorService)
		return
	}

	if *mirrorOnlyFlag != "" {
		if _, err := mirrorService.AddMirrorAssets(*mirrorOnlyFlag); err != nil {
			log.Fatalf("Mirror backfill failed: %v", err)
		}
		return
	}

	switch *sourceFlag {
	case "paituli":
		collections := splitList(*collectionsFlag)
		if len(collections) == 0 {
			log.Fatal("Provide -collections for a paituli sync.")
		}
		if _, err := syncService.SyncCollections(collections); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
	case "sentinel":
		if _, err := sentinelService.Sync(context.Background()); err != nil {
			log.Fatalf("Sentinel sync failed: %v", err)
		}
	case "geocubes":
		if _, err := geocubesService.Sync(); err != nil {
			log.Fatalf("GeoCubes sync failed: %v", err)
		}
	case "upstream":
		if _, err := upstreamService.Sync(); err != nil {
			log.Fatalf("Upstream sync failed: %v", err)
		}
	default:
		log.Fatalf("Unknown source %q. Use paituli, sentinel, geocubes or upstream.", *sourceFlag)
	}
}

func serve(syncService *services.SyncService, sentinelService *services.SentinelService,
	geocubesService *services.GeoCubesService, upstreamService *services.UpstreamService,
	mirrorService *services.MirrorService) {

	admin := &handlers.AdminHandler{
		Sync:     syncService,
		Sentinel: sentinelService,
		GeoCubes: geocubesService,
		Upstream: upstreamService,
		Mirror:   mirrorService,
	}

	http.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := database.DB.Ping(); err != nil {
			http.Error(w, `{"status": "error", "message": "database connection error"}`, http.StatusInternalServerError)
			log.Printf("Health check failed: DB ping error: %v", err)
			return
		}
		fmt.Fprintln(w, `{"status": "ok", "message": "catalog sync service is healthy"}`)
	})
	http.HandleFunc("/api/admin/sync/", admin.SyncHandler)
	http.HandleFunc("/api/admin/mirror/", admin.MirrorHandler)
	http.HandleFunc("/api/admin/config", admin.ConfigHandler)

	serverAddr := ":" + config.AppConfig.Server.Port
	log.Printf("Server starting on http://localhost%s\n", serverAddr)
	if err := http.ListenAndServe(serverAddr, nil); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

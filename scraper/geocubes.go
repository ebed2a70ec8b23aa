// scraper/geocubes.go
package scraper

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/geoharvest/stacsync/models"
)

// FetchGeoCubesDatasets reads the GeoCubes info endpoint. The endpoint
// returns plain text: datasets separated by semicolons, fields by commas.
func FetchGeoCubesDatasets(apiURL, baseURL string) (map[string]models.GeoCubesDataset, error) {
	client := http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get GeoCubes datasets from %s: %w", apiURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get GeoCubes datasets from %s: status code %d", apiURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GeoCubes dataset listing: %w", err)
	}

	datasets, err := ParseGeoCubesDatasets(string(body), baseURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Scraper: %d GeoCubes datasets listed from %s\n", len(datasets), apiURL)
	return datasets, nil
}

// ParseGeoCubesDatasets parses the semicolon/comma listing into dataset
// entries and derives the per-year listing directories.
func ParseGeoCubesDatasets(raw, baseURL string) (map[string]models.GeoCubesDataset, error) {
	datasets := make(map[string]models.GeoCubesDataset)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Split(entry, ",")
		if len(fields) < 9 {
			return nil, fmt.Errorf("malformed GeoCubes dataset entry %q", entry)
		}
		ds := models.GeoCubesDataset{
			Name:          fields[0],
			LayerName:     fields[1],
			Years:         fields[2],
			Folder:        fields[3],
			FilePrefix:    fields[4],
			MaxResolution: fields[5],
			BitDepth:      fields[6],
			Producer:      fields[7],
			MetadataURL:   fields[8],
		}
		for _, year := range strings.Split(ds.Years, ".") {
			ds.YearPaths = append(ds.YearPaths, baseURL+ds.Folder+year+"/")
		}
		datasets[ds.Name] = ds
	}
	return datasets, nil
}

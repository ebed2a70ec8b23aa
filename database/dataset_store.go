// database/dataset_store.go
package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/geoharvest/stacsync/models"
)

// Store exposes the dataset catalog queries the sync services need. It is a
// thin wrapper over the package connection so services can take it as an
// interface and tests can substitute a fake.
type Store struct{}

// GetDatasets retrieves the accessible raster datasets bound to the given
// collection IDs, keyed by collection. A collection can span several dataset
// rows (one per scale or coordinate system). The dataset family is assigned
// here, once, so downstream dispatch works over the typed tag.
func (Store) GetDatasets(collectionIDs []string) (map[string][]models.DatasetDescriptor, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	if len(collectionIDs) == 0 {
		return nil, fmt.Errorf("no collection IDs given")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(collectionIDs)), ",")
	query := fmt.Sprintf(`
		SELECT data_id, stac_id, org_eng, name_eng, scale, year, format_eng,
		       coord_sys, license_url, meta
		FROM dataset
		WHERE access = 1 AND stac_id IN (%s)
		ORDER BY data_id, stac_id, org_eng, scale, year
	`, placeholders)

	args := make([]any, len(collectionIDs))
	for i, id := range collectionIDs {
		args[i] = id
	}

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	datasets := make(map[string][]models.DatasetDescriptor)
	for rows.Next() {
		var ds models.DatasetDescriptor
		err := rows.Scan(&ds.DataID, &ds.StacID, &ds.OrgName, &ds.Name, &ds.Scale,
			&ds.YearField, &ds.Format, &ds.CoordSys, &ds.LicenseURL, &ds.MetadataID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		if ds.StacID == "" {
			continue
		}
		ds.Family = models.ClassifyDataset(ds.StacID, ds.YearField)
		datasets[ds.StacID] = append(datasets[ds.StacID], ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset query failed mid-scan: %w", err)
	}

	for _, id := range collectionIDs {
		if _, ok := datasets[id]; !ok {
			log.Printf("Database: collection %q not found, make sure the ID is correct.", id)
		}
	}
	return datasets, nil
}

// GetIndexRecords retrieves the spatial index rows for one dataset: the
// candidate files with their labels and WGS84 footprints.
func (Store) GetIndexRecords(dataID int) ([]models.IndexRecord, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(`
		SELECT gid, data_id, label, path, ST_AsGeoJSON(geom)
		FROM index_wgs84
		WHERE data_id = ?
	`, dataID)
	if err != nil {
		return nil, fmt.Errorf("failed to query index records for dataset %d: %w", dataID, err)
	}
	defer rows.Close()

	var records []models.IndexRecord
	for rows.Next() {
		var rec models.IndexRecord
		if err := rows.Scan(&rec.GID, &rec.DataID, &rec.Label, &rec.Path, &rec.GeoJSON); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index query failed mid-scan: %w", err)
	}
	return records, nil
}

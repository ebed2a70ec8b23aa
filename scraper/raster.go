// scraper/raster.go
package scraper

import (
	"fmt"
	"net/http"
	"time"

	"github.com/geoharvest/stacsync/models"
)

// RasterHeader is the per-file metadata used to populate asset fields. It
// never feeds identity or timestamp derivation.
type RasterHeader struct {
	GSD       float64
	Shape     []int
	Transform []float64
	EPSG      int
	BBox      []float64
}

// RasterReader is the port to whatever reads raster headers. Decoding
// GeoTIFF/JP2/NetCDF headers is delegated to an external tool; the pipeline
// only depends on this interface.
type RasterReader interface {
	ReadHeader(fileURL string) (RasterHeader, error)
}

// HeadRasterReader is the minimal in-tree implementation: it verifies the
// file exists and reports the whole-world bbox so callers substitute the
// index geometry. Pixel metadata stays zero and is filled from dataset
// defaults where available.
type HeadRasterReader struct {
	client http.Client
}

// NewHeadRasterReader returns a reader with a request timeout.
func NewHeadRasterReader() *HeadRasterReader {
	return &HeadRasterReader{client: http.Client{Timeout: 30 * time.Second}}
}

// ReadHeader checks the resource exists and returns a placeholder header.
func (r *HeadRasterReader) ReadHeader(fileURL string) (RasterHeader, error) {
	resp, err := r.client.Head(fileURL)
	if err != nil {
		return RasterHeader{}, fmt.Errorf("HEAD %s: %w", fileURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return RasterHeader{}, fmt.Errorf("HEAD %s: status code %d", fileURL, resp.StatusCode)
	}
	return RasterHeader{BBox: append([]float64(nil), models.WholeWorldBBox...)}, nil
}

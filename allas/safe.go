// allas/safe.go
package allas

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/geoharvest/stacsync/models"
)

// SafeListing groups the contents of one bucket by SAFE package.
type SafeListing struct {
	Safes      []string
	JP2Keys    []string
	MTDKeys    []string
	TileKeys   []string
	YearFolder bool
}

// GroupBucketKeys splits a bucket's object keys into the SAFE packages and
// the file classes the item builder needs. Some buckets carry an extra year
// pseudofolder in front of the SAFE name; those are detected and skipped.
func GroupBucketKeys(keys []string) SafeListing {
	listing := SafeListing{}
	seen := make(map[string]bool)

	for _, key := range keys {
		switch {
		case strings.HasSuffix(key, "jp2"):
			listing.JP2Keys = append(listing.JP2Keys, key)
		case strings.HasSuffix(key, "MTD_MSIL2A.xml"):
			listing.MTDKeys = append(listing.MTDKeys, key)
		case strings.HasSuffix(key, "MTD_TL.xml"):
			listing.TileKeys = append(listing.TileKeys, key)
		}
		top := strings.Split(key, "/")[0]
		if top != "index.html" && !seen[top] {
			seen[top] = true
			listing.Safes = append(listing.Safes, top)
		}
	}

	for _, safe := range listing.Safes {
		if isYearFolder(safe) {
			listing.YearFolder = true
			break
		}
	}
	if listing.YearFolder {
		listing.Safes = listing.Safes[:0]
		seen = make(map[string]bool)
		for _, key := range keys {
			segs := strings.Split(key, "/")
			if len(segs) < 2 {
				continue
			}
			if segs[1] != "index.html" && !seen[segs[1]] {
				seen[segs[1]] = true
				listing.Safes = append(listing.Safes, segs[1])
			}
		}
	}
	return listing
}

func isYearFolder(name string) bool {
	if len(name) < 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

// SafeName strips the package suffix: the part before the first dot.
func SafeName(safe string) string {
	return strings.Split(safe, ".")[0]
}

// ParseSafeMetadata reads the product-level fields from MTD_MSIL2A.xml.
func ParseSafeMetadata(content []byte) (models.SafeMetadata, error) {
	fields, err := scanElements(content, map[string]bool{
		"Cloud_Coverage_Assessment": true,
		"NODATA_PIXEL_PERCENTAGE":   true,
		"PRODUCT_START_TIME":        true,
		"PRODUCT_STOP_TIME":         true,
		"SENSING_ORBIT_NUMBER":      true,
		"PROCESSING_BASELINE":       true,
	})
	if err != nil {
		return models.SafeMetadata{}, err
	}

	cloud, err := xmlPercent(fields["Cloud_Coverage_Assessment"])
	if err != nil {
		return models.SafeMetadata{}, fmt.Errorf("bad cloud coverage value: %w", err)
	}
	nodata, err := xmlPercent(fields["NODATA_PIXEL_PERCENTAGE"])
	if err != nil {
		return models.SafeMetadata{}, fmt.Errorf("bad nodata percentage value: %w", err)
	}

	return models.SafeMetadata{
		CloudCover: cloud,
		DataCover:  100 - nodata,
		StartTime:  fields["PRODUCT_START_TIME"],
		EndTime:    fields["PRODUCT_STOP_TIME"],
		Orbit:      fields["SENSING_ORBIT_NUMBER"],
		Baseline:   fields["PROCESSING_BASELINE"],
	}, nil
}

// ParseSafeCRS reads the tile CRS code and the per-resolution raster shapes
// from MTD_TL.xml.
func ParseSafeCRS(content []byte) (models.SafeCRS, error) {
	crs := models.SafeCRS{Shapes: make(map[string][2]int)}

	dec := xml.NewDecoder(bytes.NewReader(content))
	var resolution string
	var nrows, ncols int
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "HORIZONTAL_CS_CODE":
			var code string
			if err := dec.DecodeElement(&code, &start); err != nil {
				return models.SafeCRS{}, fmt.Errorf("bad CRS code element: %w", err)
			}
			parts := strings.Split(code, ":")
			epsg, err := strconv.Atoi(parts[len(parts)-1])
			if err != nil {
				return models.SafeCRS{}, fmt.Errorf("bad CRS code %q: %w", code, err)
			}
			crs.EPSG = epsg
		case "Size":
			resolution = ""
			for _, attr := range start.Attr {
				if attr.Name.Local == "resolution" {
					resolution = attr.Value
				}
			}
		case "NROWS":
			if err := dec.DecodeElement(&nrows, &start); err != nil {
				return models.SafeCRS{}, fmt.Errorf("bad NROWS element: %w", err)
			}
		case "NCOLS":
			if err := dec.DecodeElement(&ncols, &start); err != nil {
				return models.SafeCRS{}, fmt.Errorf("bad NCOLS element: %w", err)
			}
			if resolution != "" {
				crs.Shapes[resolution] = [2]int{nrows, ncols}
			}
		}
	}

	if crs.EPSG == 0 {
		return models.SafeCRS{}, fmt.Errorf("no CRS code found in tile metadata")
	}
	return crs, nil
}

// scanElements streams the document once and captures the character data of
// the wanted elements. The first occurrence wins.
func scanElements(content []byte, wanted map[string]bool) (map[string]string, error) {
	fields := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !wanted[start.Name.Local] {
			continue
		}
		if _, done := fields[start.Name.Local]; done {
			continue
		}
		var value string
		if err := dec.DecodeElement(&value, &start); err != nil {
			return nil, fmt.Errorf("bad %s element: %w", start.Name.Local, err)
		}
		fields[start.Name.Local] = strings.TrimSpace(value)
	}

	for name := range wanted {
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("element %s not found in metadata", name)
		}
	}
	return fields, nil
}

// xmlPercent parses a percentage reported as a float into a whole number.
func xmlPercent(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

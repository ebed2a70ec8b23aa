// utils/epsg.go
package utils

import "strings"

// kkjCodes maps the Finnish KKJ coordinate system zones to EPSG codes.
var kkjCodes = map[string]int{
	"kkj":  4123,
	"kkj0": 3386,
	"kkj1": 2391,
	"kkj2": 2392,
	"kkj3": 2393,
	"kkj4": 2394,
	"kkj5": 3387,
}

// EPSGForDataset resolves an EPSG code for a file when the raster itself
// carries none. ETRS-TM35FIN datasets map to 3067; old KKJ scans carry the
// zone either in the path or implied by the dataset.
func EPSGForDataset(path, coordSys, stacID string) int {
	if coordSys == "ETRS-TM35FIN" || coordSys == "WGS84/ETRS-TM35FIN" {
		return 3067
	}
	if strings.Contains(path, "compress95") {
		// The KKJ zone is a fixed path segment in the scanned map archive.
		segs := strings.Split(path, "/")
		if len(segs) >= 7 {
			if code, ok := kkjCodes[segs[len(segs)-7]]; ok {
				return code
			}
		}
	}
	if strings.Contains(stacID, "thematic_rasters") {
		return kkjCodes["kkj3"]
	}
	return 0
}

// NormalizeEPSG rewrites codes the catalog server does not serve. 9391 is an
// ETRS-TM35FIN variant that renders identically under 3067.
func NormalizeEPSG(epsg int) int {
	if epsg == 9391 {
		return 3067
	}
	return epsg
}

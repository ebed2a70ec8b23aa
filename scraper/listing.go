// scraper/listing.go
package scraper

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ListingClient walks HTML directory index pages and enumerates the files
// underneath them. Index pages are the plain autoindex kind: a list of anchor
// tags where directories end in "/" and everything else is a file.
type ListingClient struct {
	client http.Client
}

// NewListingClient returns a walker with a sensible request timeout.
func NewListingClient() *ListingClient {
	return &ListingClient{client: http.Client{Timeout: 30 * time.Second}}
}

// pageLinks fetches one index page and returns its anchor hrefs.
func (lc *ListingClient) pageLinks(pageURL string) ([]string, error) {
	res, err := lc.client.Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get URL %s: %w", pageURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get URL %s: status code %d", pageURL, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
	}

	var hrefs []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs, nil
}

// ListFiles recursively enumerates leaf files under dirURL and returns their
// paths relative to it. Query-string anchors (sort links) and absolute-path
// anchors (parent directory) are skipped; hrefs ending in "/" are descended
// into.
func (lc *ListingClient) ListFiles(dirURL string) ([]string, error) {
	if !strings.HasSuffix(dirURL, "/") {
		dirURL += "/"
	}
	links, err := lc.pageLinks(dirURL)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, href := range links {
		if strings.HasPrefix(href, "?") || strings.HasPrefix(href, "/") {
			continue
		}
		if strings.HasSuffix(href, "/") {
			sub, err := lc.ListFiles(dirURL + href)
			if err != nil {
				return nil, err
			}
			for _, s := range sub {
				files = append(files, href+s)
			}
			continue
		}
		files = append(files, href)
	}
	return files, nil
}

// ListFilesWithExt enumerates leaf files and keeps only those with the given
// extension.
func (lc *ListingClient) ListFilesWithExt(dirURL, ext string) ([]string, error) {
	files, err := lc.ListFiles(dirURL)
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, f := range files {
		if strings.HasSuffix(f, ext) {
			matched = append(matched, f)
		}
	}
	log.Printf("Scraper: %d/%d files under %s match .%s\n", len(matched), len(files), dirURL, ext)
	return matched, nil
}

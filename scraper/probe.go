// scraper/probe.go
package scraper

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"
)

// HeadProber answers metadata questions with HTTP HEAD requests. It
// implements stac.LastModifiedProber.
type HeadProber struct {
	client http.Client
}

// NewHeadProber returns a prober with a request timeout.
func NewHeadProber() *HeadProber {
	return &HeadProber{client: http.Client{Timeout: 20 * time.Second}}
}

// LastModified returns the Last-Modified timestamp of the resource.
func (p *HeadProber) LastModified(fileURL string) (time.Time, error) {
	resp, err := p.client.Head(fileURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("HEAD %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("HEAD %s: status code %d", fileURL, resp.StatusCode)
	}
	modified := resp.Header.Get("Last-Modified")
	if modified == "" {
		return time.Time{}, fmt.Errorf("HEAD %s: no Last-Modified header", fileURL)
	}
	t, err := http.ParseTime(modified)
	if err != nil {
		return time.Time{}, fmt.Errorf("HEAD %s: bad Last-Modified %q: %w", fileURL, modified, err)
	}
	return t, nil
}

// ResolveCasePath works around files published with upper-case extensions:
// if the lower-case path 404s, the extension is flipped to upper case.
func (p *HeadProber) ResolveCasePath(fileURL string) string {
	resp, err := p.client.Head(fileURL)
	if err != nil {
		return fileURL
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		return fileURL
	}
	ext := path.Ext(fileURL)
	if ext == "" {
		return fileURL
	}
	return strings.TrimSuffix(fileURL, ext) + strings.ToUpper(ext)
}

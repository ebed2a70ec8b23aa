// catalog/client.go
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/geoharvest/stacsync/config"
	"github.com/geoharvest/stacsync/models"
)

const userAgent = "update-script"

// Client talks to the catalog server: STAC API for reads, the REST
// administration interface for writes. Writes are authenticated with basic
// auth; reads are public.
type Client struct {
	restBase string
	stacBase string
	user     string
	password string
	client   http.Client
}

// New builds a client from the catalog section of the configuration.
func New(cfg config.CatalogConfig) *Client {
	return &Client{
		restBase: cfg.Host + "/geoserver/rest/oseo/",
		stacBase: cfg.Host + "/geoserver/ogc/stac/v1/",
		user:     cfg.User,
		password: cfg.Password,
		client:   http.Client{Timeout: 120 * time.Second},
	}
}

// getJSON reads one document from the STAC API.
func (c *Client) getJSON(url string) (map[string]any, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status code %d", url, resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return doc, nil
}

// getJSONRetry keeps retrying a read until it succeeds. The catalog server
// times out under load; a sync run must not lose items over a transient read,
// so failed pages are retried until the server answers.
func (c *Client) getJSONRetry(url string) map[string]any {
	for {
		doc, err := c.getJSON(url)
		if err == nil {
			return doc
		}
		log.Printf("Catalog: %v, retrying.", err)
		time.Sleep(5 * time.Second)
	}
}

// GetCollection fetches one collection document from the STAC API.
func (c *Client) GetCollection(collectionID string) (map[string]any, error) {
	return c.getJSON(c.stacBase + "collections/" + collectionID)
}

// CollectionIDs lists the IDs of the collections published on the server.
func (c *Client) CollectionIDs() ([]string, error) {
	doc, err := c.getJSON(c.stacBase + "collections")
	if err != nil {
		return nil, err
	}
	raw, ok := doc["collections"].([]any)
	if !ok {
		return nil, fmt.Errorf("collections listing is malformed")
	}
	var ids []string
	for _, entry := range raw {
		col, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := col["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CollectionItems walks the paginated item listing of a collection and
// returns the published item inventory. Transient page failures are retried
// until the full listing is read.
func (c *Client) CollectionItems(collectionID string) ([]models.RemoteItem, error) {
	var items []models.RemoteItem
	url := c.stacBase + "collections/" + collectionID + "/items?limit=100"
	for url != "" {
		page := c.getJSONRetry(url)
		features, ok := page["features"].([]any)
		if !ok {
			return nil, fmt.Errorf("item listing for %s is malformed", collectionID)
		}
		for _, raw := range features {
			feature, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			items = append(items, parseRemoteItem(feature))
		}
		url = nextLink(page)
	}
	log.Printf("Catalog: %d items published in %s.", len(items), collectionID)
	return items, nil
}

// GetItemRaw fetches one published item document unmodified.
func (c *Client) GetItemRaw(collectionID, itemID string) (map[string]any, error) {
	return c.getJSON(c.stacBase + "collections/" + collectionID + "/items/" + itemID)
}

// CreateCollection publishes a new collection on the server.
func (c *Client) CreateCollection(collection map[string]any) error {
	converted, err := ConvertToServerJSON(collection)
	if err != nil {
		return err
	}
	return c.write(http.MethodPost, c.restBase+"collections/", converted)
}

// UpdateCollection replaces a published collection document.
func (c *Client) UpdateCollection(collectionID string, collection map[string]any) error {
	converted, err := ConvertToServerJSON(collection)
	if err != nil {
		return err
	}
	return c.write(http.MethodPut, c.restBase+"collections/"+collectionID+"/", converted)
}

// CreateItem publishes a new item under a collection.
func (c *Client) CreateItem(collectionID string, item map[string]any) error {
	converted, err := ConvertToServerJSON(item)
	if err != nil {
		return err
	}
	return c.write(http.MethodPost, c.restBase+"collections/"+collectionID+"/products", converted)
}

// UpdateItem replaces a published item document.
func (c *Client) UpdateItem(collectionID, itemID string, item map[string]any) error {
	converted, err := ConvertToServerJSON(item)
	if err != nil {
		return err
	}
	return c.write(http.MethodPut, c.restBase+"collections/"+collectionID+"/products/"+itemID, converted)
}

// write sends an authenticated mutation. A non-2xx response is an error: the
// caller aborts the run rather than continue against a rejecting server.
func (c *Client) write(method, url string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", url, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status code %d: %s", method, url, resp.StatusCode, detail)
	}
	return nil
}

func parseRemoteItem(feature map[string]any) models.RemoteItem {
	item := models.RemoteItem{}
	if id, ok := feature["id"].(string); ok {
		item.ID = id
	}
	if assets, ok := feature["assets"].(map[string]any); ok {
		for key := range assets {
			item.AssetKeys = append(item.AssetKeys, key)
		}
	}
	if props, ok := feature["properties"].(map[string]any); ok {
		item.StartTime = parseItemTime(props["start_datetime"])
		item.EndTime = parseItemTime(props["end_datetime"])
		if item.StartTime == nil && item.EndTime == nil {
			if dt := parseItemTime(props["datetime"]); dt != nil {
				item.StartTime = dt
				item.EndTime = dt
			}
		}
	}
	if raw, ok := feature["bbox"].([]any); ok {
		for _, v := range raw {
			if f, ok := v.(float64); ok {
				item.BBox = append(item.BBox, f)
			}
		}
	}
	return item
}

func parseItemTime(raw any) *time.Time {
	s, ok := raw.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func nextLink(page map[string]any) string {
	links, ok := page["links"].([]any)
	if !ok {
		return ""
	}
	for _, raw := range links {
		link, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if link["rel"] == "next" {
			if href, ok := link["href"].(string); ok {
				return href
			}
		}
	}
	return ""
}

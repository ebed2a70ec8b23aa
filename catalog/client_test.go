package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoharvest/stacsync/config"
)

func newTestClient(srv *httptest.Server) *Client {
	return New(config.CatalogConfig{
		Host:     srv.URL,
		User:     "admin",
		Password: "secret",
	})
}

func TestCollectionItemsPagination(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/geoserver/ogc/stac/v1/collections/x_at_paituli/items", func(w http.ResponseWriter, r *http.Request) {
		page := map[string]any{
			"features": []any{
				map[string]any{
					"id":     "x_at_paituli_a_2005",
					"assets": map[string]any{"x_at_paituli_tiff": map[string]any{}},
					"bbox":   []any{19.0, 59.0, 32.0, 71.0},
					"properties": map[string]any{
						"start_datetime": "2005-01-01T00:00:00Z",
						"end_datetime":   "2005-12-31T00:00:00Z",
					},
				},
			},
			"links": []any{
				map[string]any{"rel": "next", "href": srv.URL + "/geoserver/ogc/stac/v1/page2"},
			},
		}
		json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/geoserver/ogc/stac/v1/page2", func(w http.ResponseWriter, r *http.Request) {
		page := map[string]any{
			"features": []any{
				map[string]any{
					"id": "x_at_paituli_b_2005",
					"properties": map[string]any{
						"datetime": "2006-01-01T00:00:00Z",
					},
				},
			},
			"links": []any{},
		}
		json.NewEncoder(w).Encode(page)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	items, err := newTestClient(srv).CollectionItems("x_at_paituli")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "x_at_paituli_a_2005", items[0].ID)
	assert.Equal(t, []string{"x_at_paituli_tiff"}, items[0].AssetKeys)
	assert.Equal(t, []float64{19, 59, 32, 71}, items[0].BBox)
	require.NotNil(t, items[0].StartTime)
	assert.Equal(t, 2005, items[0].StartTime.Year())

	// The bare-datetime item gets it as both start and end.
	require.NotNil(t, items[1].StartTime)
	require.NotNil(t, items[1].EndTime)
	assert.Equal(t, *items[1].StartTime, *items[1].EndTime)
}

func TestCreateItemAuthAndPath(t *testing.T) {
	var gotPath, gotAuth, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		user, pass, _ := r.BasicAuth()
		gotAuth = user + ":" + pass
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	item := map[string]any{
		"type":       "Feature",
		"id":         "x_at_paituli_a_2005",
		"collection": "x_at_paituli",
		"geometry":   map[string]any{"type": "Polygon"},
		"assets":     map[string]any{},
		"properties": map[string]any{
			"start_datetime": "2005-01-01T00:00:00Z",
			"end_datetime":   "2005-12-31T00:00:00Z",
		},
	}
	err := newTestClient(srv).CreateItem("x_at_paituli", item)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/geoserver/rest/oseo/collections/x_at_paituli/products", gotPath)
	assert.Equal(t, "admin:secret", gotAuth)
}

func TestUpdateCollectionPath(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	collection := map[string]any{
		"type":        "Collection",
		"id":          "x_at_paituli",
		"title":       "X",
		"description": "test",
		"license":     "CC-BY-4.0",
		"providers":   []any{},
		"extent": map[string]any{
			"spatial":  map[string]any{"bbox": []any{[]any{19.0, 59.0, 32.0, 71.0}}},
			"temporal": map[string]any{"interval": []any{[]any{nil, nil}}},
		},
		"links": []any{},
	}
	err := newTestClient(srv).UpdateCollection("x_at_paituli", collection)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/geoserver/rest/oseo/collections/x_at_paituli/", gotPath)
}

func TestWriteRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	item := map[string]any{
		"type":       "Feature",
		"id":         "a",
		"collection": "x",
		"geometry":   nil,
		"assets":     map[string]any{},
		"properties": map[string]any{},
	}
	err := newTestClient(srv).CreateItem("x", item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 400")
}

func TestCollectionIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geoserver/ogc/stac/v1/collections", r.URL.Path)
		fmt.Fprint(w, `{"collections":[{"id":"a_at_fmi"},{"id":"b_at_geocubes"}]}`)
	}))
	t.Cleanup(srv.Close)

	ids, err := newTestClient(srv).CollectionIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a_at_fmi", "b_at_geocubes"}, ids)
}

package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexPage(links ...string) string {
	page := "<html><body><pre>"
	for _, link := range links {
		page += fmt.Sprintf(`<a href="%s">%s</a>`, link, link)
	}
	return page + "</pre></body></html>"
}

func newListingServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexPage("?C=N;O=D", "/parent/", "a.tif", "b.png", "sub/"))
	})
	mux.HandleFunc("/data/sub/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexPage("c.tif", "deep/"))
	})
	mux.HandleFunc("/data/sub/deep/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexPage("d.tif"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListFilesRecursesDirectories(t *testing.T) {
	srv := newListingServer(t)
	lc := NewListingClient()

	files, err := lc.ListFiles(srv.URL + "/data")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.tif", "b.png", "sub/c.tif", "sub/deep/d.tif"}, files)
}

func TestListFilesWithExt(t *testing.T) {
	srv := newListingServer(t)
	lc := NewListingClient()

	files, err := lc.ListFilesWithExt(srv.URL+"/data/", "tif")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.tif", "sub/c.tif", "sub/deep/d.tif"}, files)
}

func TestListFilesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	lc := NewListingClient()
	_, err := lc.ListFiles(srv.URL + "/data/")
	assert.Error(t, err)
}

func TestHeadProberLastModified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Last-Modified", "Sat, 14 May 2022 09:30:00 GMT")
	}))
	t.Cleanup(srv.Close)

	p := NewHeadProber()
	modified, err := p.LastModified(srv.URL + "/file.tif")
	require.NoError(t, err)
	assert.Equal(t, 2022, modified.Year())
	assert.Equal(t, 14, modified.Day())
}

func TestResolveCasePathFlipsExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/file.tif" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	p := NewHeadProber()
	assert.Equal(t, srv.URL+"/file.TIF", p.ResolveCasePath(srv.URL+"/file.tif"))
	assert.Equal(t, srv.URL+"/ok.tif", p.ResolveCasePath(srv.URL+"/ok.tif"))
}

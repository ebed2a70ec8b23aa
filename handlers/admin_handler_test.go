package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncHandlerRejectsGet(t *testing.T) {
	h := &AdminHandler{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/sync/paituli", nil)
	rec := httptest.NewRecorder()

	h.SyncHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSyncHandlerRejectsUnknownSource(t *testing.T) {
	h := &AdminHandler{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/sync/landsat", nil)
	rec := httptest.NewRecorder()

	h.SyncHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "landsat")
}

func TestSyncHandlerRequiresCollections(t *testing.T) {
	h := &AdminHandler{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/sync/paituli", nil)
	rec := httptest.NewRecorder()

	h.SyncHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncHandlerRejectsShortPath(t *testing.T) {
	h := &AdminHandler{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/sync", nil)
	rec := httptest.NewRecorder()

	h.SyncHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMirrorHandlerRejectsGet(t *testing.T) {
	h := &AdminHandler{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/mirror/x_at_paituli", nil)
	rec := httptest.NewRecorder()

	h.MirrorHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

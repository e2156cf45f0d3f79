package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mangareader/internal/blobstore"
	"mangareader/internal/kvstore"
	"mangareader/internal/microservices/http-api/handler"
	"mangareader/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setupUploadRouter(t *testing.T) (*upload.Pipeline, http.Handler) {
	t.Helper()
	blobs := blobstore.NewMemory()
	p := upload.NewPipeline(blobs, kvstore.NewMemory(), 2, nil)
	r := newRouter()
	handler.NewUploadHandler(p, 8<<20).RegisterRoutes(r.Group("/admin/uploads"))
	handler.NewBlobHandler(blobs).RegisterRoutes(r.Group("/blobs"))
	return p, r
}

func uploadForm(t *testing.T, fields map[string]string, files map[string]int) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for key, n := range files {
		for i := 0; i < n; i++ {
			fw, err := mw.CreateFormFile(key, key+".png")
			require.NoError(t, err)
			_, err = fw.Write(pngHeader)
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadHandler_Upload(t *testing.T) {
	p, r := setupUploadRouter(t)

	body, contentType := uploadForm(t,
		map[string]string{"title": "Gunnm", "author": "Yukito Kishiro", "genres": "Sci-Fi, Action", "rating": "8.5", "chapter_1_title": "Rusty Angel"},
		map[string]int{"cover": 1, "chapter_1": 3, "chapter_2": 2},
	)
	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-User", "a1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Manga        upload.Manga `json:"manga"`
		MissingPages int          `json:"missingPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Sci-Fi", "Action"}, resp.Manga.Genres)
	assert.Equal(t, "name-a1", resp.Manga.UploadedBy)
	require.Len(t, resp.Manga.Chapters, 2)
	assert.Equal(t, "Rusty Angel", resp.Manga.Chapters[0].Title)
	assert.Len(t, resp.Manga.Chapters[0].Pages, 3)
	assert.Zero(t, resp.MissingPages)

	stored, err := p.Get(context.Background(), resp.Manga.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Manga.CoverImage, stored.CoverImage)

	// cover is served back through the blob route
	bucket, key, err := blobstore.ParseRef(stored.CoverImage)
	require.NoError(t, err)
	w = call{method: http.MethodGet, path: "/blobs/" + bucket + "/" + key}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestUploadHandler_ValidationFailure(t *testing.T) {
	_, r := setupUploadRouter(t)

	body, contentType := uploadForm(t, map[string]string{"title": "No Author", "genres": "Drama"}, map[string]int{"chapter_1": 1})
	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestUploadHandler_EventStream(t *testing.T) {
	_, r := setupUploadRouter(t)

	body, contentType := uploadForm(t,
		map[string]string{"title": "Gunnm", "author": "Yukito Kishiro", "genres": "Sci-Fi"},
		map[string]int{"chapter_1": 2},
	)
	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	stream := w.Body.String()
	assert.True(t, strings.Contains(stream, "event:progress"))
	assert.True(t, strings.Contains(stream, "event:complete"))
	assert.Less(t, strings.LastIndex(stream, "event:progress"), strings.Index(stream, "event:complete"))
}

func TestUploadHandler_ShelfRoutes(t *testing.T) {
	_, r := setupUploadRouter(t)

	body, contentType := uploadForm(t,
		map[string]string{"title": "Gunnm", "author": "Yukito Kishiro", "genres": "Sci-Fi"},
		map[string]int{"chapter_1": 1},
	)
	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Manga upload.Manga `json:"manga"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Manga.ID

	w = call{method: http.MethodPut, path: "/admin/uploads/" + id, body: map[string]any{"status": "completed"}}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPut, "/admin/uploads/"+id, strings.NewReader("{oops"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call{method: http.MethodPut, path: "/admin/uploads/" + id, body: map[string]any{"rating": "high"}}.do(t, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = uploadForm(t, map[string]string{"number": "1"}, map[string]int{"pages": 1})
	req = httptest.NewRequest(http.MethodPost, "/admin/uploads/"+id+"/chapters", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call{method: http.MethodGet, path: "/admin/uploads/search?q=kishiro"}.do(t, r)
	assert.Contains(t, w.Body.String(), id)

	w = call{method: http.MethodGet, path: "/admin/uploads/stats"}.do(t, r)
	var stats upload.Stats
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.TotalManga)
	assert.Equal(t, 1, stats.StatusBreakdown["completed"])

	w = call{method: http.MethodDelete, path: "/admin/uploads/" + id}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call{method: http.MethodGet, path: "/admin/uploads/" + id}.do(t, r)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call{method: http.MethodGet, path: "/blobs/pages/missing"}.do(t, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

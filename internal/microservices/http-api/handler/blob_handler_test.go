package handler_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"mangareader/internal/blobstore"
	"mangareader/internal/microservices/http-api/handler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobHandler_Filesystem(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("JWT_SECRET=topsecret"), 0o600))
	blobs, err := blobstore.NewFilesystem(filepath.Join(root, "blobs"))
	require.NoError(t, err)
	_, err = blobs.Put(context.Background(), blobstore.BucketPages, "m1_ch1_p1", pngHeader)
	require.NoError(t, err)

	r := newRouter()
	handler.NewBlobHandler(blobs).RegisterRoutes(r.Group("/blobs"))

	w := call{method: http.MethodGet, path: "/blobs/pages/m1_ch1_p1"}.do(t, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	for _, path := range []string{
		"/blobs/%2E%2E/.env",
		"/blobs/pages/%2E%2E",
		"/blobs/pages/.env",
		"/blobs/secrets/m1_ch1_p1",
	} {
		w := call{method: http.MethodGet, path: path}.do(t, r)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.NotContains(t, w.Body.String(), "topsecret", path)
	}
}

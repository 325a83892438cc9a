package webservices

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-app/geometry"
	"github.com/jamesrr39/ownmap-app/maptile"
	"github.com/jamesrr39/ownmap-app/renderer"
	"github.com/jamesrr39/ownmap-app/theme"
	"github.com/jamesrr39/ownmap-app/tilecache"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *TileService {
	styleSet, err := theme.NewStyleSet([]theme.Style{&theme.DefaultStyle{}}, theme.BuiltinStyleID)
	require.NoError(t, err)

	cache, err := tilecache.NewFileSystemCache(mockfs.NewMockFs(), "/tiles", 10)
	require.NoError(t, err)

	r := renderer.NewRenderer(nil, &geometry.MemoryReader{})
	logger := logpkg.NewLogger(&bytes.Buffer{}, logpkg.LogLevelError)

	return NewTileService(logger, "fixture.map", r, cache, styleSet, false)
}

func TestHandleGetTileReturnsAPNGImage(t *testing.T) {
	ts := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/raster/3/1/1", nil)
	rec := httptest.NewRecorder()

	ts.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := png.Decode(rec.Body)
	require.NoError(t, err)
}

func TestHandleGetTileRejectsUnknownStyle(t *testing.T) {
	ts := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/raster/3/1/1?styleId=nope", nil)
	rec := httptest.NewRecorder()

	ts.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetTileCachesTheRenderedTile(t *testing.T) {
	ts := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/raster/3/1/1", nil)
	ts.ServeHTTP(httptest.NewRecorder(), req)

	job, errx := renderer.NewJob(maptile.Key{Zoom: 3, X: 1, Y: 1}, "fixture.map", 1.0)
	require.Nil(t, errx)
	require.True(t, ts.tileCache.ContainsKey(*job))
}

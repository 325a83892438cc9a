// Package webservices exposes the tile renderer over HTTP.
//
// Adapted from the teacher's webservices/tile_service.go: kept the
// chi.Router embedding, the semaphore-bounded concurrency, the
// shouldProfile pprof hook and the PNG response writing, and replaced
// ownmapdal.DBConnSet/ownmap.maprenderer.MapRenderer with
// geometry.Reader/renderer.Renderer/tilecache.Cache.
package webservices

import (
	"image"
	"image/png"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-app/dependencycache"
	"github.com/jamesrr39/ownmap-app/maptile"
	"github.com/jamesrr39/ownmap-app/renderer"
	"github.com/jamesrr39/ownmap-app/theme"
	"github.com/jamesrr39/ownmap-app/tilecache"
	"github.com/jamesrr39/semaphore"
	"github.com/pkg/profile"
)

// TileService serves rendered tiles at GET /raster/{z}/{x}/{y}.
type TileService struct {
	logger        *logpkg.Logger
	mapFilePath   string
	renderer      *renderer.Renderer
	tileCache     *tilecache.Cache
	styleSet      *theme.StyleSet
	sema          *semaphore.Semaphore
	shouldProfile bool
	chi.Router
}

// NewTileService builds a TileService rendering tiles from mapFilePath
// through r, caching results in tileCache. Concurrent render jobs are
// capped at 4, the same bound the teacher used for its DB-connection
// pool fan-out.
func NewTileService(logger *logpkg.Logger, mapFilePath string, r *renderer.Renderer, tileCache *tilecache.Cache, styleSet *theme.StyleSet, shouldProfile bool) *TileService {
	ts := &TileService{
		logger:        logger,
		mapFilePath:   mapFilePath,
		renderer:      r,
		tileCache:     tileCache,
		styleSet:      styleSet,
		sema:          semaphore.NewSemaphore(4),
		shouldProfile: shouldProfile,
		Router:        chi.NewRouter(),
	}

	ts.Get("/raster/{z}/{x}/{y}", ts.handleGetTile)

	return ts
}

func (ts *TileService) getStyle(styleID string) (theme.Style, errorsx.Error) {
	if styleID == "" {
		return ts.styleSet.GetDefaultStyle(), nil
	}

	style := ts.styleSet.GetStyleByID(styleID)
	if style == nil {
		return nil, errorsx.Errorf("couldn't get requested style %q (style not loaded)", styleID)
	}

	return style, nil
}

func (ts *TileService) handleGetTile(w http.ResponseWriter, r *http.Request) {
	if ts.shouldProfile {
		defer profile.Start().Stop()
	}

	ints, err := stringsToInts(chi.URLParam(r, "z"), chi.URLParam(r, "x"), chi.URLParam(r, "y"))
	if err != nil {
		errorsx.HTTPError(w, ts.logger, errorsx.Wrap(err), 400)
		return
	}
	tile := maptile.Key{Zoom: ints[0], X: ints[1], Y: ints[2]}

	style, errx := ts.getStyle(r.URL.Query().Get("styleId"))
	if errx != nil {
		errorsx.HTTPError(w, ts.logger, errx, 400)
		return
	}

	job, errx := renderer.NewJob(tile, ts.mapFilePath, 1.0)
	if errx != nil {
		errorsx.HTTPError(w, ts.logger, errx, 400)
		return
	}

	if img, ok := ts.tileCache.Get(*job); ok {
		writePNG(w, ts.logger, img)
		return
	}

	ts.sema.Add()
	defer ts.sema.Done()

	cache := dependencycache.NewCache()
	img, errx := ts.renderer.Render(r.Context(), *job, style, cache)
	if errx != nil {
		errorsx.HTTPError(w, ts.logger, errx, 500)
		return
	}

	if putErr := ts.tileCache.Put(*job, img); putErr != nil {
		ts.logger.Error("could not cache rendered tile: %s", putErr)
	}

	writePNG(w, ts.logger, img)
}

func writePNG(w http.ResponseWriter, logger *logpkg.Logger, img image.Image) {
	if err := png.Encode(w, img); err != nil {
		switch err.(type) {
		case *net.OpError:
			// broken pipe (request cancelled). Do nothing
		default:
			errorsx.HTTPError(w, logger, errorsx.Wrap(err), 500)
		}
	}
}

func stringsToInts(s ...string) ([]int, error) {
	var ints []int
	for _, str := range s {
		i, err := strconv.Atoi(str)
		if err != nil {
			return nil, err
		}
		ints = append(ints, i)
	}

	return ints, nil
}

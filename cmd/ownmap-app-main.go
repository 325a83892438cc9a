package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-app/fonts"
	"github.com/jamesrr39/ownmap-app/geometry"
	"github.com/jamesrr39/ownmap-app/mapfile"
	"github.com/jamesrr39/ownmap-app/renderer"
	"github.com/jamesrr39/ownmap-app/theme"
	"github.com/jamesrr39/ownmap-app/tilecache"
	"github.com/jamesrr39/ownmap-app/webservices"
	"gopkg.in/alecthomas/kingpin.v2"
)

const defaultPort = 9000
const defaultTileCacheCapacity = 1000

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	defaultPort, defaultPort, defaultPort, defaultPort,
)

func main() {
	verbose := kingpin.Flag("v", "verbose logging").Bool()

	cmd := kingpin.Command("serve", "serve rendered tiles over HTTP")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", defaultPort)).String()
	mapFilePath := cmd.Arg("map-file", "mapsforge .map file to serve tiles from").Required().String()
	fontPath := cmd.Flag("font", "path to a TTF font used to render labels").Required().String()
	defaultStyleID := cmd.Flag("default-style-id", "default style to use to render").Default(theme.BuiltinStyleID).String()
	tileCacheDir := cmd.Flag("tile-cache-dir", "directory to store rendered tiles in").Default(os.TempDir()).String()
	tileCacheCapacity := cmd.Flag("tile-cache-capacity", "maximum number of rendered tiles to keep on disk").Default(fmt.Sprintf("%d", defaultTileCacheCapacity)).Int()
	traceDir := cmd.Flag("trace-dir", "directory to write request traces to").Default(os.TempDir()).String()
	shouldProfile := cmd.Flag("profile", "profile the render performance of each request").Bool()

	kingpin.Parse()

	logLevel := logpkg.LogLevelInfo
	if *verbose {
		logLevel = logpkg.LogLevelDebug
	}
	logger := logpkg.NewLogger(os.Stderr, logLevel)

	runErr := run(logger, *addr, *mapFilePath, *fontPath, *defaultStyleID, *tileCacheDir, *tileCacheCapacity, *traceDir, *shouldProfile)
	if runErr != nil {
		log.Fatalf("failed to start server: %q\n%s\n", runErr.Error(), runErr.Stack())
	}
}

func run(logger *logpkg.Logger, addr, mapFilePath, fontPath, defaultStyleID, tileCacheDir string, tileCacheCapacity int, traceDir string, shouldProfile bool) errorsx.Error {
	fs := gofs.NewOsFs()

	mf, err := mapfile.Open(fs, mapFilePath)
	if err != nil {
		return errorsx.Wrap(err, "map file", mapFilePath)
	}
	defer mf.Close()

	logger.Info("opened map file %q, covering %v", mapFilePath, mf.Header.Info.BoundingBox)

	font, err := fonts.LoadFont(fs, fontPath)
	if err != nil {
		return errorsx.Wrap(err, "font file", fontPath)
	}

	styleSet, err := theme.NewStyleSet([]theme.Style{&theme.DefaultStyle{}}, defaultStyleID)
	if err != nil {
		return errorsx.Wrap(err)
	}

	// The geometry reader that walks a map file's sub-file tile index and
	// decodes ways/POIs is out of scope here (spec.md's "geometry reader
	// for ways/POIs beyond the header" Non-goal); MemoryReader stands in
	// as the collaborator renderer.Renderer is built against.
	reader := &geometry.MemoryReader{}

	r := renderer.NewRenderer(font, reader)

	tileCache, err := tilecache.NewFileSystemCache(fs, tileCacheDir, tileCacheCapacity)
	if err != nil {
		return errorsx.Wrap(err)
	}

	tileService := webservices.NewTileService(logger, mapFilePath, r, tileCache, styleSet, shouldProfile)

	traceFilePath := filepath.Join(traceDir, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__03_04_05")))
	logger.Info("tracing at %q", traceFilePath)

	traceFile, err2 := os.Create(traceFilePath)
	if err2 != nil {
		return errorsx.Wrap(err2)
	}

	tracer := tracing.NewTracer(traceFile)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))
	router.Mount("/", tileService)

	server := httpextra.NewServerWithTimeouts()
	server.Addr = addr
	server.Handler = router

	logger.Info("about to start serving on %q", addr)

	listenErr := server.ListenAndServe()
	if listenErr != nil && listenErr != http.ErrServerClosed {
		return errorsx.Wrap(listenErr)
	}

	return nil
}

// Package renderer implements the tile drawing pipeline (spec.md §4.5,
// C5): given a RenderJob, fetch geometry, classify it by the theme, place
// labels, and draw the result as a raster tile image.
//
// Grounded on original_source/.../renderer/DatabaseRenderer.java for the
// algorithm shape and ownmaprenderer/raster_renderer.go (read in full) for
// the Go-level drawing idiom: draw2dimg path building, freetype glyph
// rendering, tracing.StartSpan/.End phase spans, and
// ownmaprenderer/util.go's NewImageWithBackground helper.
package renderer

import (
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-app/maptile"
)

// Layers is the number of distinct "layer" tag values a way can declare
// (spec.md §4.5): buckets run -5..5 inclusive, matching mapsforge's fixed
// LAYERS constant.
const Layers = 11

// LayerIndex maps a parsed OSM "layer" tag value to a zero-based bucket
// index; values outside [-5,5] go to the nearest end bucket.
func LayerIndex(layer int8) int {
	idx := int(layer) + Layers/2
	if idx < 0 {
		idx = 0
	}
	if idx >= Layers {
		idx = Layers - 1
	}
	return idx
}

// StrokeWidthScale is the zoom-dependent line-width multiplier
// DatabaseRenderer.java applies so strokes look consistent in real-world
// thickness as the tile's ground resolution changes with zoom: 1.5 raised
// to the number of zoom levels past 12, never negative.
func StrokeWidthScale(zoom int) float64 {
	exp := zoom - 12
	if exp < 0 {
		exp = 0
	}
	return math.Pow(1.5, float64(exp))
}

// Job is one tile render request: the tile to draw, the map file to read
// geometry from, and the text scale to apply to every caption.
//
// Equality compares TextScale by its raw float32 bits rather than by
// value, matching RendererJob.java's equals()/hashCode() (it compares
// Float.floatToIntBits, which treats distinct NaN bit patterns as unequal
// even though no two NaNs are "the same value") -- spec.md §4 SUPPLEMENTED
// FEATURES. Jobs are typically used as cache keys (tilecache), where this
// matters: two jobs that are bitwise-identical compare equal, a job with
// a NaN TextScale included, while NaNs with different bit patterns compare
// unequal. NewJob refuses a NaN TextScale.
type Job struct {
	Tile        maptile.Key
	MapFilePath string
	TextScale   float32
}

// NewJob validates and constructs a Job. TextScale must be a positive,
// non-NaN value (RendererJob.java's constructor assertion).
func NewJob(tile maptile.Key, mapFilePath string, textScale float32) (*Job, errorsx.Error) {
	if textScale != textScale { // NaN
		return nil, errorsx.Errorf("textScale must not be NaN")
	}
	if textScale <= 0 {
		return nil, errorsx.Errorf("textScale must be > 0, got %f", textScale)
	}
	return &Job{Tile: tile, MapFilePath: mapFilePath, TextScale: textScale}, nil
}

// Equal compares j to other the way RendererJob.java does: tile, map file
// identity, and TextScale's raw bits.
func (j Job) Equal(other Job) bool {
	return j.Tile == other.Tile &&
		j.MapFilePath == other.MapFilePath &&
		math.Float32bits(j.TextScale) == math.Float32bits(other.TextScale)
}

// Package geometry defines the seam between the tile renderer and whatever
// holds the actual ways, points of interest and relations drawn onto a
// tile. spec.md places "the geometry reader for ways/POIs beyond the
// header" out of scope -- the renderer only needs an interface to call
// through, not an import path to any particular datastore.
//
// Grounded on the call shape of ownmap/maprenderer.MapRenderer and
// ownmapdal.DBConnSet.GetInBounds, stripped of the PBF-import/SQL-storage
// machinery behind them (ownmapdal, the protobuf-generated ownmap types):
// this package keeps the same "give me everything in these bounds" contract
// with lightweight, locally-defined types instead of protobuf messages.
package geometry

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/osm"
)

// Tag is a single OSM key/value pair.
type Tag struct {
	Key   string
	Value string
}

// Tags is a small tag list with a convenience lookup, the key/value form
// of the tag strings in mapfile's PoiTags/WayTags tables (spec.md §4.2).
type Tags []Tag

// Get returns the value for key and whether it was present.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// POI is a point of interest: a node with tags worth rendering (a label,
// an icon, or both), spec.md §4.5's "point of interest" input to the theme
// callbacks.
type POI struct {
	ID   int64
	Lat  float64
	Lon  float64
	Tags Tags
}

// Point is a single lat/lon vertex of a way.
type Point struct {
	Lat float64
	Lon float64
}

// Way is a line or area: an ordered point sequence plus tags. IsClosed
// mirrors the mapsforge convention that areas are ways whose first and
// last points coincide.
type Way struct {
	ID       int64
	Points   []Point
	Tags     Tags
	IsClosed bool
	Layer    int8 // parsed from a "layer" tag, clamped to spec.md §4.5's LAYERS range
}

// Relation groups member ways, most commonly a multipolygon's outer ring
// plus inner holes (spec.md §4 SUPPLEMENTED FEATURES, "relation holes").
type Relation struct {
	ID      int64
	Tags    Tags
	Members []Way
}

// Reader fetches everything needed to render one tile's worth of geometry.
// Implementations may back onto a mapsforge map file's sub-file geometry
// section, a database, or (in tests) an in-memory fixture; the renderer
// and label placer depend only on this interface.
type Reader interface {
	// GetInBounds returns every POI, way and relation whose geometry
	// intersects bounds at the given zoom level.
	GetInBounds(ctx context.Context, bounds osm.Bounds, zoom int) ([]POI, []Way, []Relation, errorsx.Error)
}

// MemoryReader is an in-memory Reader, for tests and for small fixed
// extracts that don't warrant parsing a map file's geometry sub-section.
type MemoryReader struct {
	POIs      []POI
	Ways      []Way
	Relations []Relation
}

// GetInBounds returns every stored POI inside bounds, every way with at
// least one point inside bounds, and every relation with such a member. A
// way that crosses bounds without a point inside them is not returned. It
// ignores zoom, since a fixture has no concept of zoom-dependent feature
// culling.
func (r *MemoryReader) GetInBounds(_ context.Context, bounds osm.Bounds, _ int) ([]POI, []Way, []Relation, errorsx.Error) {
	var pois []POI
	for _, poi := range r.POIs {
		if bounds.MinLat <= poi.Lat && poi.Lat <= bounds.MaxLat && bounds.MinLon <= poi.Lon && poi.Lon <= bounds.MaxLon {
			pois = append(pois, poi)
		}
	}

	var ways []Way
	for _, way := range r.Ways {
		if wayIntersects(way, bounds) {
			ways = append(ways, way)
		}
	}

	var relations []Relation
	for _, rel := range r.Relations {
		for _, member := range rel.Members {
			if wayIntersects(member, bounds) {
				relations = append(relations, rel)
				break
			}
		}
	}

	return pois, ways, relations, nil
}

func wayIntersects(way Way, bounds osm.Bounds) bool {
	for _, pt := range way.Points {
		if bounds.MinLat <= pt.Lat && pt.Lat <= bounds.MaxLat && bounds.MinLon <= pt.Lon && pt.Lon <= bounds.MaxLon {
			return true
		}
	}
	return false
}

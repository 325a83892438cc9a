package maptile

import (
	"math"

	"github.com/paulmach/osm"
)

// Deg2num converts a lat/lon pair to the tile coordinate containing it at
// the given zoom level.
func Deg2num(lat, lon float64, zoom int) (x, y int) {
	x = int(math.Floor((lon + 180.0) / 360.0 * math.Exp2(float64(zoom))))
	y = int(math.Floor(
		(1.0 - math.Log(math.Tan(lat*math.Pi/180.0)+1.0/math.Cos(lat*math.Pi/180.0))/math.Pi) / 2.0 * math.Exp2(float64(zoom)),
	))
	return x, y
}

// Num2deg converts a tile coordinate back to the lat/lon of its top-left corner.
func Num2deg(x, y, zoom int) (lat, lon float64) {
	n := math.Pi - 2.0*math.Pi*float64(y)/math.Exp2(float64(zoom))
	lat = 180.0 / math.Pi * math.Atan(0.5*(math.Exp(n)-math.Exp(-n)))
	lon = float64(x)/math.Exp2(float64(zoom))*360.0 - 180.0
	return lat, lon
}

// Bounds returns the lat/lon bounding box of a tile key.
func (k Key) Bounds() osm.Bounds {
	n := math.Exp2(float64(k.Zoom))

	lonMin := float64(k.X)/n*360 - 180
	latRadMin := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(k.Y)/n)))
	latMax := latRadMin * 180 / math.Pi

	lonMax := float64(k.X+1)/n*360 - 180
	latRadMax := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(k.Y+1)/n)))
	latMin := latRadMax * 180 / math.Pi

	return osm.Bounds{
		MinLat: latMin,
		MaxLat: latMax,
		MinLon: lonMin,
		MaxLon: lonMax,
	}
}

// FromLatLon returns the tile key containing the given point at the given zoom.
func FromLatLon(lat, lon float64, zoom int) Key {
	x, y := Deg2num(lat, lon, zoom)
	return Key{Zoom: zoom, X: x, Y: y}
}

// Overlaps reports whether item is at least partially inside container.
func Overlaps(container, item osm.Bounds) bool {
	if container.MinLat > item.MaxLat {
		return false
	}
	if container.MaxLat < item.MinLat {
		return false
	}
	if container.MinLon > item.MaxLon {
		return false
	}
	if container.MaxLon < item.MinLon {
		return false
	}
	return true
}

// IsTotallyInside reports whether item's box is entirely within container.
func IsTotallyInside(container, item osm.Bounds) bool {
	return item.MaxLat <= container.MaxLat && item.MaxLon <= container.MaxLon &&
		item.MinLat >= container.MinLat && item.MinLon >= container.MinLon
}

// WholeWorldBounds returns the bounding box of the entire spherical Mercator world.
func WholeWorldBounds() osm.Bounds {
	return osm.Bounds{MaxLat: 90, MinLat: -90, MaxLon: 180, MinLon: -180}
}

// IsInBounds tests if a point is strictly inside bounds.
func IsInBounds(bounds osm.Bounds, lat, lon float64) bool {
	if lat <= bounds.MinLat || lat >= bounds.MaxLat {
		return false
	}
	if lon <= bounds.MinLon || lon >= bounds.MaxLon {
		return false
	}
	return true
}

// longitudeToPixelX and latitudeToPixelY convert a geo coordinate to an
// absolute pixel coordinate in the spherical Mercator projection at the
// given zoom level, matching mapsforge's MercatorProjection.
func longitudeToPixelX(lon float64, zoom int) float64 {
	mapSize := float64(uint64(TILESize) << uint(zoom))
	return (lon + 180) / 360 * mapSize
}

func latitudeToPixelY(lat float64, zoom int) float64 {
	sinLat := math.Sin(lat * math.Pi / 180)
	mapSize := float64(uint64(TILESize) << uint(zoom))
	return (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * mapSize
}

// ScalePixel converts a geo coordinate to a pixel coordinate local to this
// tile's origin (top-left of the tile is (0,0)).
func (k Key) ScalePixel(lat, lon float64) (x, y float64) {
	tileOriginX := float64(k.X * TILESize)
	tileOriginY := float64(k.Y * TILESize)
	return longitudeToPixelX(lon, k.Zoom) - tileOriginX, latitudeToPixelY(lat, k.Zoom) - tileOriginY
}

package labelplacement

import (
	"testing"

	"github.com/jamesrr39/ownmap-app/dependencycache"
	"github.com/jamesrr39/ownmap-app/maptile"
	"github.com/jamesrr39/ownmap-app/renderitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceLabelsIsolatedPOIWithoutSymbolGetsCenteredPosition(t *testing.T) {
	tile := maptile.Key{Zoom: 10, X: 1, Y: 1}
	cache := dependencycache.NewCache()

	poi := renderitem.PointText{Text: "Cafe", X: 128, Y: 128, Width: 30, Height: 10}

	result := PlaceLabels(Input{
		Tile:       tile,
		Cache:      cache,
		PointTexts: []renderitem.PointText{poi},
	})

	require.Len(t, result.PointTexts, 1)
	placed := result.PointTexts[0]
	wantX, wantY := fourPositions(poi, 0)[0].X, fourPositions(poi, 0)[0].Y
	assert.Equal(t, wantX, placed.X)
	assert.Equal(t, wantY, placed.Y)
}

func TestPlaceLabelsFallsBackWhenPreferredPositionCollidesWithSymbol(t *testing.T) {
	tile := maptile.Key{Zoom: 10, X: 1, Y: 1}
	cache := dependencycache.NewCache()

	// A POI with its own icon gets all four quadrant candidates (spec.md
	// §4.4 step 7); without a symbol there is only the one centered
	// candidate and nothing to fall back to.
	poiSymbol := renderitem.Symbol{Bitmap: renderitem.Bitmap{Width: 4, Height: 4}, X: 128, Y: 128, AlignCenter: true}
	poi := renderitem.PointText{Text: "Cafe", X: 128, Y: 128, Width: 8, Height: 4, Symbol: &poiSymbol}
	above := fourPositions(poi, 0)[0]

	blockingSymbol := renderitem.Symbol{
		Bitmap: renderitem.Bitmap{Width: int(poi.Width), Height: int(poi.Height)},
		X:      above.X,
		Y:      above.Y - above.Height,
	}

	result := PlaceLabels(Input{
		Tile:       tile,
		Cache:      cache,
		PointTexts: []renderitem.PointText{poi},
		Symbols:    []renderitem.Symbol{poiSymbol, blockingSymbol},
	})

	require.Len(t, result.PointTexts, 1)
	placed := result.PointTexts[0]
	assert.False(t, placed.X == above.X && placed.Y == above.Y, "the above position collided and should have been skipped")
}

func TestPlaceLabelsDropsPOIWhenItsOnlyPositionCollides(t *testing.T) {
	tile := maptile.Key{Zoom: 10, X: 1, Y: 1}
	cache := dependencycache.NewCache()

	poi := renderitem.PointText{Text: "Boxed in", X: 128, Y: 128, Width: 30, Height: 10}

	// The POI has no symbol of its own, so its one centered candidate is
	// all it has; a single huge symbol centered on the POI overlaps it.
	blocker := renderitem.Symbol{
		Bitmap:      renderitem.Bitmap{Width: 200, Height: 200},
		X:           128,
		Y:           128,
		AlignCenter: true,
	}

	result := PlaceLabels(Input{
		Tile:       tile,
		Cache:      cache,
		PointTexts: []renderitem.PointText{poi},
		Symbols:    []renderitem.Symbol{blocker},
	})

	assert.Empty(t, result.PointTexts)
}

// TestPlaceLabelsNeverAcceptsTwoIntersectingCaptions is the general
// collision-avoidance property behind "four-position greedy": whatever
// PlaceLabels decides to draw for a tile, no two accepted captions may
// overlap, regardless of how many POIs start out stacked on each other.
func TestPlaceLabelsNeverAcceptsTwoIntersectingCaptions(t *testing.T) {
	tile := maptile.Key{Zoom: 10, X: 1, Y: 1}
	cache := dependencycache.NewCache()

	pois := make([]renderitem.PointText, 5)
	for i := range pois {
		pois[i] = renderitem.PointText{Text: "Stacked", X: 100, Y: 100, Width: 8, Height: 4}
	}

	result := PlaceLabels(Input{
		Tile:       tile,
		Cache:      cache,
		PointTexts: pois,
	})

	require.NotEmpty(t, result.PointTexts, "at least the first POI's preferred position should be free")
	for i := range result.PointTexts {
		for j := i + 1; j < len(result.PointTexts); j++ {
			assert.False(t, result.PointTexts[i].Boundary().Intersects(result.PointTexts[j].Boundary()),
				"placed captions %d and %d overlap", i, j)
		}
	}
}

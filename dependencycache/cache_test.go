package dependencycache

import (
	"testing"

	"github.com/jamesrr39/ownmap-app/maptile"
	"github.com/jamesrr39/ownmap-app/renderitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveAreaLabelsOutOfDrawnAreas(t *testing.T) {
	c := NewCache()
	current := maptile.Key{Zoom: 10, X: 5, Y: 5}
	c.SetCurrentTile(current)

	up := current.Neighbor(maptile.North)
	c.tiles[up].Drawn = true

	spillsUp := renderitem.PointText{Text: "spills up", X: 10, Y: 5, Width: 20, Height: 10}
	stays := renderitem.PointText{Text: "stays", X: 10, Y: 100, Width: 20, Height: 10}

	out := c.RemoveAreaLabelsOutOfDrawnAreas([]renderitem.PointText{spillsUp, stays})

	require.Len(t, out, 1)
	assert.Equal(t, "stays", out[0].Text)
}

func TestRemoveOverlappingDropsDuplicateText(t *testing.T) {
	c := NewCache()
	current := maptile.Key{Zoom: 10, X: 5, Y: 5}
	c.SetCurrentTile(current)

	paint := renderitem.Paint{FontSize: 12}
	recorded := renderitem.PointText{Text: "Main St", PaintFront: paint, X: 0, Y: 50, Width: 40, Height: 10}
	c.tiles[current].Labels = []renderitem.PointText{recorded}

	duplicate := renderitem.PointText{Text: "Main St", PaintFront: paint, X: 80, Y: 120, Width: 40, Height: 10}
	unique := renderitem.PointText{Text: "Side St", PaintFront: paint, X: 80, Y: 200, Width: 40, Height: 10}

	labels, _, _ := c.RemoveOverlapping([]renderitem.PointText{duplicate, unique}, nil, nil)

	require.Len(t, labels, 1)
	assert.Equal(t, "Side St", labels[0].Text)
}

func TestRemoveOverlappingDropsSymbolIntersectingLabel(t *testing.T) {
	c := NewCache()
	current := maptile.Key{Zoom: 10, X: 5, Y: 5}
	c.SetCurrentTile(current)

	recorded := renderitem.PointText{Text: "Main St", X: 0, Y: 20, Width: 50, Height: 20}
	c.tiles[current].Labels = []renderitem.PointText{recorded}

	overlapping := renderitem.Symbol{Bitmap: renderitem.Bitmap{Width: 16, Height: 16}, X: 10, Y: 0}
	clear := renderitem.Symbol{Bitmap: renderitem.Bitmap{Width: 16, Height: 16}, X: 200, Y: 200}

	_, _, symbols := c.RemoveOverlapping(nil, nil, []renderitem.Symbol{overlapping, clear})

	require.Len(t, symbols, 1)
	assert.Equal(t, 200.0, symbols[0].X)
}

// TestRecordSpillsLabelAcrossEdgeIntoNeighbor covers the recording half of
// cross-tile symmetry: a label whose boundary crosses into a not-yet-drawn
// neighbor is recorded once against its own tile and once, translated by
// TILESize, against that neighbor.
func TestRecordSpillsLabelAcrossEdgeIntoNeighbor(t *testing.T) {
	c := NewCache()
	current := maptile.Key{Zoom: 10, X: 5, Y: 5}
	c.SetCurrentTile(current)

	// Label sits mostly in this tile but its top edge pokes above y=0,
	// spilling into the tile above.
	spilling := renderitem.PointText{Text: "Spill", X: 10, Y: 5, Width: 30, Height: 20}

	c.Record([]renderitem.PointText{spilling}, nil, nil)

	require.True(t, c.tiles[current].Drawn)
	require.Len(t, c.tiles[current].Labels, 1, "label recorded against its own tile")

	up := current.Neighbor(maptile.North)
	require.Len(t, c.tiles[up].Labels, 1, "spilled copy recorded against the neighbor")
	assert.Equal(t, spilling.Y+maptile.TILESize, c.tiles[up].Labels[0].Y)
}

func TestRecordDoesNotSpillIntoAlreadyDrawnNeighbor(t *testing.T) {
	c := NewCache()
	current := maptile.Key{Zoom: 10, X: 5, Y: 5}
	c.SetCurrentTile(current)

	up := current.Neighbor(maptile.North)
	c.tiles[up].Drawn = true

	spilling := renderitem.PointText{Text: "Spill", X: 10, Y: 5, Width: 30, Height: 20}
	c.Record([]renderitem.PointText{spilling}, nil, nil)

	assert.Empty(t, c.tiles[up].Labels, "already-drawn neighbor is not given new spillover")
}

func TestRecordPropagatesToCornerOnlyWhenBothEdgesSpillAndUndrawn(t *testing.T) {
	c := NewCache()
	current := maptile.Key{Zoom: 10, X: 5, Y: 5}
	c.SetCurrentTile(current)

	// Spills both up (Y-Height<0) and left (X<0).
	cornerSpill := renderitem.PointText{Text: "Corner", X: -5, Y: 5, Width: 20, Height: 20}
	c.Record([]renderitem.PointText{cornerSpill}, nil, nil)

	leftup := current.Neighbor(maptile.NorthWest)
	require.Len(t, c.tiles[leftup].Labels, 1)
}

func TestLegacyDownBugRoutesSymbolSpillToUpNeighbor(t *testing.T) {
	sym := renderitem.Symbol{Bitmap: renderitem.Bitmap{Width: 10, Height: 10}, X: 10, Y: 250}
	// The label's own boundary stays fully inside the tile (no primary
	// spill); only its attached symbol pokes past the bottom edge, so the
	// secondary symbol-triggered path in fillDependencyLabels is what
	// fires here.
	label := renderitem.PointText{Text: "Icon label", X: 10, Y: 240, Width: 30, Height: 10, Symbol: &sym}

	current := maptile.Key{Zoom: 10, X: 5, Y: 5}
	down := current.Neighbor(maptile.South)
	up := current.Neighbor(maptile.North)

	fixed := NewCache()
	fixed.SetCurrentTile(current)
	fixed.Record([]renderitem.PointText{label}, nil, nil)
	require.Len(t, fixed.tiles[down].Labels, 1)
	assert.Equal(t, label.Y-maptile.TILESize, fixed.tiles[down].Labels[0].Y)

	legacy := NewCache()
	legacy.LegacyDownBug = true
	legacy.SetCurrentTile(current)
	legacy.Record([]renderitem.PointText{label}, nil, nil)
	require.Len(t, legacy.tiles[up].Labels, 1)
	assert.Equal(t, label.Y-maptile.TILESize, legacy.tiles[up].Labels[0].Y)
}

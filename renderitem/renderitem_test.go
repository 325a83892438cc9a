package renderitem

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectIntersectsTreatsASharedEdgeAsOverlap(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(10, 0, 10, 10)

	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))
}

func TestRectIntersectsFalseWhenSeparated(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(11, 0, 10, 10)

	assert.False(t, a.Intersects(b))
}

func TestRectInflateGrowsOnEverySide(t *testing.T) {
	r := NewRect(10, 10, 20, 20).Inflate(5)

	assert.Equal(t, Rect{MinX: 5, MinY: 5, MaxX: 35, MaxY: 35}, r)
}

func TestSymbolRectAnchorsTopLeftUnlessAlignCenter(t *testing.T) {
	topLeft := Symbol{Bitmap: Bitmap{Width: 10, Height: 10}, X: 100, Y: 100}
	assert.Equal(t, NewRect(100, 100, 10, 10), topLeft.Rect())

	centered := Symbol{Bitmap: Bitmap{Width: 10, Height: 10}, X: 100, Y: 100, AlignCenter: true}
	assert.Equal(t, NewRect(95, 95, 10, 10), centered.Rect())
}

func TestPointTextBoundaryAnchorsOnTheBaseline(t *testing.T) {
	pt := PointText{X: 50, Y: 80, Width: 30, Height: 12}

	assert.Equal(t, Rect{MinX: 50, MinY: 68, MaxX: 80, MaxY: 80}, pt.Boundary())
}

func TestPointTextSameStyledTextComparesTextAndBothPaints(t *testing.T) {
	front := Paint{Color: color.Black, FontSize: 16}
	back := Paint{Color: color.White, FontSize: 16}

	a := PointText{Text: "Spondon", PaintFront: front, PaintBack: &back}
	b := PointText{Text: "Spondon", PaintFront: front, PaintBack: &back}
	assert.True(t, a.SameStyledText(b))

	differentText := PointText{Text: "Oakwood", PaintFront: front, PaintBack: &back}
	assert.False(t, a.SameStyledText(differentText))

	noBack := PointText{Text: "Spondon", PaintFront: front}
	assert.False(t, a.SameStyledText(noBack))
	assert.False(t, noBack.SameStyledText(a))
}

func TestNewWayTextSwapsEndpointsSoX1NeverExceedsX2(t *testing.T) {
	paint := Paint{Color: color.Black, FontSize: 12}

	forward := NewWayText("A52", paint, 10, 20, 30, 40)
	assert.Equal(t, WayText{Text: "A52", Paint: paint, X1: 10, Y1: 20, X2: 30, Y2: 40}, forward)

	reversed := NewWayText("A52", paint, 30, 40, 10, 20)
	assert.Equal(t, WayText{Text: "A52", Paint: paint, X1: 10, Y1: 20, X2: 30, Y2: 40}, reversed)
}

func TestReferencePositionRectUsesHeightAboveTheAnchor(t *testing.T) {
	r := ReferencePosition{X: 40, Y: 60, Width: 20, Height: 8}

	assert.Equal(t, Rect{MinX: 40, MinY: 52, MaxX: 60, MaxY: 60}, r.Rect())
}

// Package renderitem holds the drawable label/symbol shapes shared by the
// label placer, the dependency cache and the tile renderer: the vocabulary
// both sides of the cross-tile placement algorithm agree on.
package renderitem

import "image/color"

// Paint is the minimal styling a label needs to compare for duplicate
// suppression across tile seams (spec.md R2: "(text, paintFront, paintBack)
// triple"). The renderer's actual stroke/fill objects carry more (width,
// dash pattern) but none of that affects placement, so only the comparable
// parts live here.
type Paint struct {
	Color    color.Color
	FontSize float64
}

// Equal reports whether two paints describe the same visual text style, for
// the duplicate-label comparison in spec.md R2.
func (p Paint) Equal(other Paint) bool {
	return p.Color == other.Color && p.FontSize == other.FontSize
}

// Rect is an axis-aligned pixel rectangle, local to a tile's origin.
// Coordinates may be negative or exceed maptile.TILESize: that is what
// makes a shape a candidate for cross-tile dependency.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewRect builds a rect from a top-left corner and a size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Inflate grows the rectangle by n pixels on every side.
func (r Rect) Inflate(n float64) Rect {
	return Rect{MinX: r.MinX - n, MinY: r.MinY - n, MaxX: r.MaxX + n, MaxY: r.MaxY + n}
}

// Intersects reports whether r and other overlap, half-open on neither edge
// (matching org.mapsforge.core.model.Rectangle.intersects, which treats a
// shared edge as an intersection).
func (r Rect) Intersects(other Rect) bool {
	if r.MaxX < other.MinX || other.MaxX < r.MinX {
		return false
	}
	if r.MaxY < other.MinY || other.MaxY < r.MinY {
		return false
	}
	return true
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Bitmap is the minimal shape information the placement algorithm needs
// about a symbol's image; the renderer's actual bitmap also carries pixels.
type Bitmap struct {
	Width  int
	Height int
}

// Symbol is a point icon: spec.md §3 "Symbol".
type Symbol struct {
	Bitmap       Bitmap
	X, Y         float64
	AlignCenter  bool
	RotationRads float64
}

// Rect returns the symbol's bounding box, top-left anchored unless
// AlignCenter is set.
func (s Symbol) Rect() Rect {
	x, y := s.X, s.Y
	if s.AlignCenter {
		x -= float64(s.Bitmap.Width) / 2
		y -= float64(s.Bitmap.Height) / 2
	}
	return NewRect(x, y, float64(s.Bitmap.Width), float64(s.Bitmap.Height))
}

// PointText is a POI or area caption: spec.md §3 "PointText". X,Y is the
// anchor; Y is the text baseline, so the boundary's top edge sits at Y-H.
type PointText struct {
	Text       string
	PaintFront Paint
	PaintBack  *Paint
	X, Y       float64
	Width      float64
	Height     float64
	Symbol     *Symbol // nil if this label has no associated symbol
	NodeIndex  int     // which POI this label belongs to, set by the placer
}

// Boundary returns the label's axis-aligned bounding box.
func (pt PointText) Boundary() Rect {
	return Rect{MinX: pt.X, MinY: pt.Y - pt.Height, MaxX: pt.X + pt.Width, MaxY: pt.Y}
}

// SameStyledText reports whether two labels are the same text drawn with
// the same paints -- the duplicate-suppression identity used by
// dependencycache's R2 across tile seams.
func (pt PointText) SameStyledText(other PointText) bool {
	if pt.Text != other.Text {
		return false
	}
	if !pt.PaintFront.Equal(other.PaintFront) {
		return false
	}
	if (pt.PaintBack == nil) != (other.PaintBack == nil) {
		return false
	}
	if pt.PaintBack != nil && !pt.PaintBack.Equal(*other.PaintBack) {
		return false
	}
	return true
}

// WayText is a label drawn along a road centerline segment, oriented so
// X1 <= X2 to prevent upside-down rendering (spec.md §3 "WayText").
type WayText struct {
	Text           string
	Paint          Paint
	X1, Y1, X2, Y2 float64
}

// NewWayText builds a WayText from an arbitrary-order segment, swapping
// endpoints if necessary so the text never renders upside down.
func NewWayText(text string, paint Paint, x1, y1, x2, y2 float64) WayText {
	if x1 <= x2 {
		return WayText{Text: text, Paint: paint, X1: x1, Y1: y1, X2: x2, Y2: y2}
	}
	return WayText{Text: text, Paint: paint, X1: x2, Y1: y2, X2: x1, Y2: y1}
}

// ReferencePosition is a candidate anchor for a POI caption: spec.md §3
// "ReferencePosition". Seq is the generation order, used as the
// deterministic tie-break secondary key for the priority queues in
// labelplacement (spec.md §9, Open Question 2).
type ReferencePosition struct {
	X, Y      float64
	NodeIndex int
	Width     float64
	Height    float64
	Seq       int
}

// Rect returns the candidate label's bounding box if placed here.
func (r ReferencePosition) Rect() Rect {
	return Rect{MinX: r.X, MinY: r.Y - r.Height, MaxX: r.X + r.Width, MaxY: r.Y}
}

package renderer

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-app/dependencycache"
	"github.com/jamesrr39/ownmap-app/geometry"
	"github.com/jamesrr39/ownmap-app/labelplacement"
	"github.com/jamesrr39/ownmap-app/maptile"
	"github.com/jamesrr39/ownmap-app/renderitem"
	"github.com/jamesrr39/ownmap-app/theme"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/paulmach/osm"
)

// Segment-walk constants for way symbol/text repetition
// (DatabaseRenderer.renderWaySymbol/renderWayText), spec.md §4 SUPPLEMENTED
// FEATURES.
const (
	segmentSafetyDistance    = 30.0
	distanceBetweenSymbols   = 200.0
	distanceBetweenWayNames  = 500.0
	wayNameEdgePadding       = 10.0
)

// Renderer draws tiles: fetch geometry, classify it through a theme,
// place labels, draw.
type Renderer struct {
	font   *truetype.Font
	reader geometry.Reader
}

// NewRenderer builds a Renderer reading geometry from reader and
// rasterizing text with font.
func NewRenderer(font *truetype.Font, reader geometry.Reader) *Renderer {
	return &Renderer{font: font, reader: reader}
}

// styledWay pairs a way (or a relation's synthesized outer/inner rings)
// with the style it resolved to, for the fixed z-order draw pass.
type styledWay struct {
	style  *theme.WayStyle
	points []geometry.Point
	holes  [][]geometry.Point
}

// Render executes one job: spec.md §4.5's full pipeline. cache is the
// caller's dependency cache for this map file/session, scoped to
// job.Tile by the label placer.
func (r *Renderer) Render(ctx context.Context, job Job, style theme.Style, cache *dependencycache.Cache) (image.Image, errorsx.Error) {
	span := tracing.StartSpan(ctx, "render tile "+job.Tile.String())
	defer span.End(ctx)

	bounds := job.Tile.Bounds()

	geomSpan := tracing.StartSpan(ctx, "fetch geometry")
	pois, ways, relations, err := r.reader.GetInBounds(ctx, bounds, job.Tile.Zoom)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	geomSpan.End(ctx)

	styleSpan := tracing.StartSpan(ctx, "classify geometry")
	layers, poiNodeStyles := r.classify(ways, relations, pois, style, job.Tile.Zoom)
	styleSpan.End(ctx)

	img := newImageWithBackground(image.Rect(0, 0, maptile.TILESize, maptile.TILESize), style.GetBackground())

	drawSpan := tracing.StartSpan(ctx, "draw ways")
	scale := StrokeWidthScale(job.Tile.Zoom)
	for layerIdx := 0; layerIdx < Layers; layerIdx++ {
		for _, sw := range layers[layerIdx] {
			r.drawWay(img, bounds, sw, scale)
		}
	}
	drawSpan.End(ctx)

	waySymbolSpan := tracing.StartSpan(ctx, "draw way symbols")
	for layerIdx := 0; layerIdx < Layers; layerIdx++ {
		for _, sw := range layers[layerIdx] {
			if sw.style.SymbolBitmap == nil {
				continue
			}
			way := geometry.Way{Points: sw.points}
			for _, sym := range renderWaySymbol(bounds, way, *sw.style.SymbolBitmap) {
				drawSymbolMarker(img, sym)
				if !sw.style.RepeatSymbol {
					break
				}
			}
		}
	}
	waySymbolSpan.End(ctx)

	labelSpan := tracing.StartSpan(ctx, "place and draw labels")
	r.placeAndDrawLabels(img, bounds, job, poiNodeStyles, ways, cache)
	labelSpan.End(ctx)

	return img, nil
}

func newImageWithBackground(r image.Rectangle, c color.Color) *image.RGBA {
	img := image.NewRGBA(r)
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

type poiWithStyle struct {
	poi   geometry.POI
	style *theme.NodeStyle
}

// classify resolves every way/relation/POI's style and buckets ways (and
// relation outer/inner rings) into their layer slot, ordered within the
// slot by ascending style ZIndex (stable for equal ZIndex).
func (r *Renderer) classify(ways []geometry.Way, relations []geometry.Relation, pois []geometry.POI, style theme.Style, zoom int) ([Layers][]styledWay, []poiWithStyle) {
	var layers [Layers][]styledWay

	for _, way := range ways {
		wayStyle, err := style.GetWayStyle(way.Tags, zoom)
		if err != nil || wayStyle == nil {
			continue
		}
		idx := LayerIndex(way.Layer)
		layers[idx] = append(layers[idx], styledWay{style: wayStyle, points: way.Points})
	}

	for _, rel := range relations {
		relStyle, err := style.GetRelationStyle(rel, zoom)
		if err != nil || relStyle == nil {
			continue
		}

		wayStyle, err := style.GetWayStyle(rel.Tags, zoom)
		if err != nil || wayStyle == nil {
			continue
		}
		sw := relationToStyledWay(rel, wayStyle)
		if sw == nil {
			continue
		}
		idx := LayerIndex(0)
		layers[idx] = append(layers[idx], *sw)
	}

	for idx := range layers {
		sort.SliceStable(layers[idx], func(a, b int) bool {
			return layers[idx][a].style.ZIndex < layers[idx][b].style.ZIndex
		})
	}

	var poiStyles []poiWithStyle
	for _, poi := range pois {
		nodeStyle, err := style.GetNodeStyle(poi, zoom)
		if err != nil || nodeStyle == nil {
			continue
		}
		poiStyles = append(poiStyles, poiWithStyle{poi: poi, style: nodeStyle})
	}

	return layers, poiStyles
}

// relationToStyledWay treats the first closed member as the fill boundary
// and every later closed member as a hole; open members are skipped and
// member roles are not consulted.
func relationToStyledWay(rel geometry.Relation, wayStyle *theme.WayStyle) *styledWay {
	var outer []geometry.Point
	var holes [][]geometry.Point

	for _, member := range rel.Members {
		if !member.IsClosed {
			continue
		}
		if outer == nil {
			outer = member.Points
			continue
		}
		holes = append(holes, member.Points)
	}

	if outer == nil {
		return nil
	}

	return &styledWay{style: wayStyle, points: outer, holes: holes}
}

// project converts a lat/lon point to this tile's local pixel space.
func project(bounds osm.Bounds, pt geometry.Point) (float64, float64) {
	x := (pt.Lon - bounds.MinLon) / (bounds.MaxLon - bounds.MinLon) * maptile.TILESize
	y := (1 - (pt.Lat-bounds.MinLat)/(bounds.MaxLat-bounds.MinLat)) * maptile.TILESize
	return x, y
}

func (r *Renderer) drawWay(img *image.RGBA, bounds osm.Bounds, sw styledWay, strokeScale float64) {
	gc := draw2dimg.NewGraphicContext(img)
	defer gc.Close()

	if sw.style.FillColor != nil {
		gc.SetFillColor(sw.style.FillColor)
	}
	if sw.style.LineColor != nil {
		gc.SetStrokeColor(sw.style.LineColor)
	}
	if sw.style.LineWidth != 0 {
		gc.SetLineWidth(sw.style.LineWidth * strokeScale)
	}
	if sw.style.LineDashPolicy != nil {
		gc.SetLineDash(sw.style.LineDashPolicy, 0)
	}

	gc.BeginPath()
	tracePath(gc, bounds, sw.points)
	for _, hole := range sw.holes {
		tracePath(gc, bounds, hole)
	}

	if sw.style.FillColor != nil {
		gc.Fill()
	}
	gc.Stroke()
}

func tracePath(gc *draw2dimg.GraphicContext, bounds osm.Bounds, points []geometry.Point) {
	for i, pt := range points {
		x, y := project(bounds, pt)
		if i == 0 {
			gc.MoveTo(x, y)
		} else {
			gc.LineTo(x, y)
		}
	}
	if len(points) > 0 {
		x, y := project(bounds, points[0])
		gc.LineTo(x, y)
	}
}

// placeAndDrawLabels builds PointText candidates for every styled POI,
// runs them through labelplacement.PlaceLabels, generates WayText labels
// for named ways via the segment-walking repetition algorithm, and
// rasterizes everything that survives.
func (r *Renderer) placeAndDrawLabels(img *image.RGBA, bounds osm.Bounds, job Job, poiStyles []poiWithStyle, ways []geometry.Way, cache *dependencycache.Cache) {
	candidates := make([]renderitem.PointText, 0, len(poiStyles))
	var standaloneSymbols []renderitem.Symbol

	for _, ps := range poiStyles {
		name := poiName(ps.poi)
		x, y := project(bounds, geometry.Point{Lat: ps.poi.Lat, Lon: ps.poi.Lon})

		var sym *renderitem.Symbol
		if ps.style.SymbolBitmap != nil {
			sym = &renderitem.Symbol{Bitmap: *ps.style.SymbolBitmap, X: x, Y: y, AlignCenter: true}
			// Every icon -- whether its POI also gets a caption or not --
			// goes into the placer's symbol list (spec.md §4.4 step 3/7):
			// both so it is itself drawn (renderPointOfInterestSymbol,
			// spec.md §6) and so other POIs' captions avoid overlapping it.
			standaloneSymbols = append(standaloneSymbols, *sym)
		}

		if name == "" {
			continue
		}

		fontSize := float64(ps.style.TextSize) * float64(job.TextScale)
		width, height := measureText(r.font, name, fontSize)
		candidates = append(candidates, renderitem.PointText{
			Text:       name,
			PaintFront: renderitem.Paint{Color: ps.style.TextColor, FontSize: fontSize},
			// X,Y is the raw POI anchor, not pre-centered: labelplacement's
			// out-of-tile test and its four-position candidate generation
			// both expect the anchor and do their own width/height centering.
			X:         x,
			Y:         y,
			Width:     width,
			Height:    height,
			Symbol:    sym,
			NodeIndex: len(candidates),
		})
	}

	var areaCandidates []renderitem.PointText
	for _, way := range ways {
		if !way.IsClosed {
			continue
		}
		name := wayName(way)
		if name == "" {
			continue
		}

		fontSize := 14.0 * float64(job.TextScale)
		width, height := measureText(r.font, name, fontSize)
		cx, cy := polygonCentroid(bounds, way.Points)
		areaCandidates = append(areaCandidates, renderitem.PointText{
			Text:       name,
			PaintFront: renderitem.Paint{Color: color.Black, FontSize: fontSize},
			// X is the raw centroid; labelplacement.PlaceLabels centers it
			// by half width itself (spec.md §4.4 step 1).
			X:         cx,
			Y:         cy,
			Width:     width,
			Height:    height,
			NodeIndex: len(areaCandidates),
		})
	}

	result := labelplacement.PlaceLabels(labelplacement.Input{
		Tile:       job.Tile,
		Cache:      cache,
		PointTexts: candidates,
		AreaLabels: areaCandidates,
		Symbols:    standaloneSymbols,
	})

	// spec.md §4.5(f)'s fixed z-order past "way symbols" (drawn by the
	// caller in Render, before this method runs): point symbols, way
	// names, POI labels, area labels.
	for _, sym := range result.Symbols {
		drawSymbolMarker(img, sym)
	}

	for _, way := range ways {
		name := wayName(way)
		if name == "" {
			continue
		}
		fontSize := 12.0 * float64(job.TextScale)
		width, _ := measureText(r.font, name, fontSize)
		for _, wt := range renderWayText(bounds, way, name, width) {
			drawRotatedWayText(img, r.font, wt, fontSize)
		}
	}

	for _, label := range result.PointTexts {
		drawText(img, r.font, label.Text, label.X, label.Y, label.PaintFront)
	}

	for _, label := range result.AreaLabels {
		drawText(img, r.font, label.Text, label.X, label.Y, label.PaintFront)
	}
}

// polygonCentroid approximates an area's caption anchor as the mean of its
// boundary vertices (cheap vertex average rather than the true
// area-weighted polygon centroid, good enough for placing one caption).
func polygonCentroid(bounds osm.Bounds, points []geometry.Point) (float64, float64) {
	var sumX, sumY float64
	n := float64(len(points))
	for _, pt := range points {
		x, y := project(bounds, pt)
		sumX += x
		sumY += y
	}
	return sumX / n, sumY / n
}

// drawSymbolMarker renders a symbol as a filled circle sized to its
// bitmap: the graphics back end's actual bitmap blitting is out of scope
// (spec.md §1 "Deliberately out of scope ... the graphics back end"), so
// placement survivors are drawn as a simple marker rather than real icon
// pixels.
func drawSymbolMarker(img *image.RGBA, sym renderitem.Symbol) {
	gc := draw2dimg.NewGraphicContext(img)
	defer gc.Close()

	r := sym.Rect()
	cx, cy := (r.MinX+r.MaxX)/2, (r.MinY+r.MaxY)/2
	radius := math.Min(r.Width(), r.Height()) / 2

	gc.SetFillColor(color.RGBA{R: 0x33, G: 0x33, B: 0xcc, A: 0xff})
	gc.BeginPath()
	gc.ArcTo(cx, cy, radius, radius, 0, 2*math.Pi)
	gc.Fill()
}

func poiName(poi geometry.POI) string {
	name, _ := poi.Tags.Get("name")
	return name
}

func wayName(way geometry.Way) string {
	name, _ := way.Tags.Get("name")
	return name
}

// measureText is a rough glyph-metrics-free width estimate (text rasterized
// with freetype rather than measured against the font's actual hmtx table,
// since draw2d/freetype don't expose a ready string-width query in the
// teacher's dependency set). Good enough for collision purposes; the
// renderer still draws with the real font.
func measureText(font *truetype.Font, text string, fontSize float64) (width, height float64) {
	const avgAdvanceRatio = 0.6
	return float64(len(text)) * fontSize * avgAdvanceRatio, fontSize
}

func drawText(img *image.RGBA, font *truetype.Font, text string, x, y float64, paint renderitem.Paint) {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(font)
	ctx.SetFontSize(paint.FontSize)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	col := paint.Color
	if col == nil {
		col = color.Black
	}
	ctx.SetSrc(image.NewUniform(col))
	ctx.DrawString(text, freetype.Pt(int(x), int(y)))
}

// renderWayText is DatabaseRenderer.renderWayText's segment-walking
// repetition algorithm: skip a way too short for even one label, then
// place a label every distanceBetweenWayNames pixels along it, only on
// segments long enough to hold the text plus padding on both ends.
func renderWayText(bounds osm.Bounds, way geometry.Way, name string, textWidth float64) []renderitem.WayText {
	if len(way.Points) < 2 {
		return nil
	}

	wayLength := 0.0
	type segment struct{ x1, y1, x2, y2, length float64 }
	var segments []segment
	for i := 0; i+1 < len(way.Points); i++ {
		x1, y1 := project(bounds, way.Points[i])
		x2, y2 := project(bounds, way.Points[i+1])
		length := math.Hypot(x2-x1, y2-y1)
		segments = append(segments, segment{x1, y1, x2, y2, length})
		wayLength += length
	}

	if wayLength < textWidth+wayNameEdgePadding {
		return nil
	}

	var out []renderitem.WayText
	skipPixels := 0.0
	traveled := 0.0

	for _, seg := range segments {
		if seg.length >= textWidth+wayNameEdgePadding && traveled >= skipPixels {
			out = append(out, renderitem.NewWayText(name, renderitem.Paint{FontSize: 12}, seg.x1, seg.y1, seg.x2, seg.y2))
			skipPixels = traveled + distanceBetweenWayNames
		}
		traveled += seg.length
	}

	return out
}

func drawRotatedWayText(img *image.RGBA, font *truetype.Font, wt renderitem.WayText, fontSize float64) {
	midX, midY := (wt.X1+wt.X2)/2, (wt.Y1+wt.Y2)/2
	drawText(img, font, wt.Text, midX-float64(len(wt.Text))*fontSize*0.3, midY+fontSize/2, wt.Paint)
}

// renderWaySymbol is DatabaseRenderer.renderWaySymbol's repetition
// algorithm: walk the way starting segmentSafetyDistance in from the
// start, placing a rotated symbol every distanceBetweenSymbols pixels,
// stopping segmentSafetyDistance before the way ends.
func renderWaySymbol(bounds osm.Bounds, way geometry.Way, bitmap renderitem.Bitmap) []renderitem.Symbol {
	if len(way.Points) < 2 {
		return nil
	}

	var out []renderitem.Symbol
	traveled := 0.0
	nextSymbolAt := segmentSafetyDistance

	for i := 0; i+1 < len(way.Points); i++ {
		x1, y1 := project(bounds, way.Points[i])
		x2, y2 := project(bounds, way.Points[i+1])
		segLength := math.Hypot(x2-x1, y2-y1)

		for nextSymbolAt >= traveled && nextSymbolAt <= traveled+segLength-segmentSafetyDistance {
			t := (nextSymbolAt - traveled) / segLength
			x := x1 + (x2-x1)*t
			y := y1 + (y2-y1)*t
			rotation := math.Atan2(y2-y1, x2-x1)

			out = append(out, renderitem.Symbol{
				Bitmap:       bitmap,
				X:            x,
				Y:            y,
				AlignCenter:  true,
				RotationRads: rotation,
			})

			nextSymbolAt += distanceBetweenSymbols
		}

		traveled += segLength
	}

	return out
}

// Package labelplacement implements the four-position greedy label placer
// (spec.md §4.4, C4): given a tile's POI captions, area captions and
// symbols, and the cross-tile dependencycache.Cache, decide which POI
// captions get drawn, where, and without colliding with symbols, other
// captions, or anything a neighboring tile has already committed to.
//
// Grounded on LabelPlacement.java from the mapsforge sources retrieved
// alongside the spec (org.mapsforge.map.layer.renderer.LabelPlacement):
// the out-of-tile/mutual-overlap preprocessing of each input list, the
// symbol-reference coherence pass, and the two-priority-queue sweep over
// candidate ReferencePositions that a sorted-slice-with-early-exit
// shortcut cannot reproduce (spec.md §4.4 step 7's global topmost-first
// acceptance order).
package labelplacement

import (
	"sort"

	"github.com/jamesrr39/ownmap-app/dependencycache"
	"github.com/jamesrr39/ownmap-app/maptile"
	"github.com/jamesrr39/ownmap-app/renderitem"
)

// Gap distances between placed content, in pixels (LabelPlacement.java's
// LABEL_DISTANCE_TO_LABEL / LABEL_DISTANCE_TO_SYMBOL /
// START_DISTANCE_TO_SYMBOLS / SYMBOL_DISTANCE_TO_SYMBOL constants).
const (
	labelDistanceToLabel   = 2.0
	labelDistanceToSymbol  = 2.0
	startDistanceToSymbols = 4.0
	symbolDistanceToSymbol = 2.0
)

// Input is everything PlaceLabels needs for one tile: spec.md §4.4 step 1.
type Input struct {
	Tile       maptile.Key
	Cache      *dependencycache.Cache
	PointTexts []renderitem.PointText // POI captions, one candidate origin per entry
	AreaLabels []renderitem.PointText
	Symbols    []renderitem.Symbol
}

// Result is what survived placement and is safe to draw this tile.
type Result struct {
	PointTexts []renderitem.PointText
	AreaLabels []renderitem.PointText
	Symbols    []renderitem.Symbol
}

// PlaceLabels runs the full pipeline from spec.md §4.4's eight numbered
// steps, in order:
//  1. center area labels on their anchor, drop those fully outside the
//     tile, remove their mutual overlaps, then R1 against drawn neighbors
//  2. drop POI labels fully outside the tile
//  3. drop symbols fully outside the tile, remove their mutual overlaps,
//     then R1 against drawn neighbors
//  4. null out any label's symbolRef that didn't survive step 3
//  5. drop any symbol overlapping a surviving area label
//  6. R2: cross-tile filter against this tile's own recorded content
//  7. four-position greedy: generate candidates, drop those colliding with
//     a surviving symbol or area label, R3+R4, then the PU/PD sweep
//  8. R5: commit everything that survived
func PlaceLabels(in Input) Result {
	in.Cache.SetCurrentTile(in.Tile)

	areaLabels := centerAreaLabels(in.AreaLabels)
	areaLabels = removeOutOfTileAreaLabels(areaLabels)
	areaLabels = removeOverlappingAreaLabels(areaLabels)
	if len(areaLabels) > 0 {
		areaLabels = in.Cache.RemoveAreaLabelsOutOfDrawnAreas(areaLabels)
	}

	labels := removeOutOfTileLabels(in.PointTexts)

	symbols := removeOutOfTileSymbols(in.Symbols)
	symbols = removeOverlappingSymbols(symbols)
	symbols = in.Cache.RemoveSymbolsOutOfDrawnAreas(symbols)

	labels = removeEmptySymbolReferences(labels, symbols)

	symbols = removeSymbolsOverlappingAreaLabels(symbols, areaLabels)

	labels, areaLabels, symbols = in.Cache.RemoveOverlapping(labels, areaLabels, symbols)

	if len(labels) > 0 {
		labels = processFourPointGreedy(labels, symbols, areaLabels, in.Cache)
	}

	in.Cache.Record(labels, areaLabels, symbols)

	return Result{PointTexts: labels, AreaLabels: areaLabels, Symbols: symbols}
}

// centerAreaLabels returns a copy of areaLabels with each anchor shifted
// left by half its width (spec.md §4.4 step 1, "center them around their
// anchor").
func centerAreaLabels(areaLabels []renderitem.PointText) []renderitem.PointText {
	out := make([]renderitem.PointText, len(areaLabels))
	for i, label := range areaLabels {
		label.X -= label.Width / 2
		out[i] = label
	}
	return out
}

func removeOutOfTileAreaLabels(areaLabels []renderitem.PointText) []renderitem.PointText {
	out := areaLabels[:0]
	for _, label := range areaLabels {
		if label.X > maptile.TILESize {
			continue
		}
		if label.Y-label.Height > maptile.TILESize {
			continue
		}
		if label.X+label.Width < 0 {
			continue
		}
		if label.Y+label.Height < 0 {
			continue
		}
		out = append(out, label)
	}
	return out
}

// removeOutOfTileLabels drops POI label candidates fully outside the tile,
// using the centered-width test (spec.md §4.4 step 2): label.X is the raw
// anchor here, not yet centered (unlike area labels, POI candidates only
// get centered per four-position slot in fourPositions).
func removeOutOfTileLabels(labels []renderitem.PointText) []renderitem.PointText {
	out := labels[:0]
	for _, label := range labels {
		if label.X-label.Width/2 > maptile.TILESize {
			continue
		}
		if label.Y-label.Height > maptile.TILESize {
			continue
		}
		if label.X+label.Width/2 < 0 {
			continue
		}
		if label.Y < 0 {
			continue
		}
		out = append(out, label)
	}
	return out
}

func removeOutOfTileSymbols(symbols []renderitem.Symbol) []renderitem.Symbol {
	out := symbols[:0]
	for _, sym := range symbols {
		rect := sym.Rect()
		if rect.MinX > maptile.TILESize {
			continue
		}
		if rect.MinY > maptile.TILESize {
			continue
		}
		if rect.MaxX < 0 {
			continue
		}
		if rect.MaxY < 0 {
			continue
		}
		out = append(out, sym)
	}
	return out
}

// removeOverlappingSymbols drops any symbol overlapping an earlier symbol
// in iteration order, inflating the earlier symbol's rectangle by
// symbolDistanceToSymbol (spec.md §4.4 step 3).
func removeOverlappingSymbols(symbols []renderitem.Symbol) []renderitem.Symbol {
	keep := make([]bool, len(symbols))
	for i := range keep {
		keep[i] = true
	}
	for x := range symbols {
		if !keep[x] {
			continue
		}
		rect := symbols[x].Rect().Inflate(symbolDistanceToSymbol)
		for y := x + 1; y < len(symbols); y++ {
			if keep[y] && rect.Intersects(symbols[y].Rect()) {
				keep[y] = false
			}
		}
	}
	out := make([]renderitem.Symbol, 0, len(symbols))
	for i, k := range keep {
		if k {
			out = append(out, symbols[i])
		}
	}
	return out
}

// removeOverlappingAreaLabels drops any area label overlapping an earlier
// one in iteration order, inflating the earlier label's boundary by
// labelDistanceToLabel (spec.md §4.4 step 1).
func removeOverlappingAreaLabels(areaLabels []renderitem.PointText) []renderitem.PointText {
	keep := make([]bool, len(areaLabels))
	for i := range keep {
		keep[i] = true
	}
	for x := range areaLabels {
		if !keep[x] {
			continue
		}
		rect := areaLabels[x].Boundary().Inflate(labelDistanceToLabel)
		for y := x + 1; y < len(areaLabels); y++ {
			if keep[y] && rect.Intersects(areaLabels[y].Boundary()) {
				keep[y] = false
			}
		}
	}
	out := make([]renderitem.PointText, 0, len(areaLabels))
	for i, k := range keep {
		if k {
			out = append(out, areaLabels[i])
		}
	}
	return out
}

// removeEmptySymbolReferences is spec.md §4.4 step 4's coherence pass: a
// label whose attached symbol didn't survive the symbol filters above has
// its Symbol reference nulled, rather than carrying a dangling pointer to
// content that will never be drawn.
func removeEmptySymbolReferences(labels []renderitem.PointText, symbols []renderitem.Symbol) []renderitem.PointText {
	out := make([]renderitem.PointText, len(labels))
	for i, label := range labels {
		if label.Symbol != nil && !containsSymbol(symbols, *label.Symbol) {
			label.Symbol = nil
		}
		out[i] = label
	}
	return out
}

func containsSymbol(symbols []renderitem.Symbol, sym renderitem.Symbol) bool {
	for _, s := range symbols {
		if s == sym {
			return true
		}
	}
	return false
}

// removeSymbolsOverlappingAreaLabels is spec.md §4.4 step 5: any symbol
// overlapping a surviving area label (2-px inflation on the label side)
// is dropped rather than the area label.
func removeSymbolsOverlappingAreaLabels(symbols []renderitem.Symbol, areaLabels []renderitem.PointText) []renderitem.Symbol {
	if len(areaLabels) == 0 {
		return symbols
	}
	keep := make([]bool, len(symbols))
	for i := range keep {
		keep[i] = true
	}
	for _, label := range areaLabels {
		rect := label.Boundary().Inflate(labelDistanceToSymbol)
		for i, sym := range symbols {
			if keep[i] && rect.Intersects(sym.Rect()) {
				keep[i] = false
			}
		}
	}
	out := make([]renderitem.Symbol, 0, len(symbols))
	for i, k := range keep {
		if k {
			out = append(out, symbols[i])
		}
	}
	return out
}

// fourPositions generates a POI caption's candidate anchors: with a
// symbol, the four positions above, below, left and right of it at
// startDistanceToSymbols; without one, a single candidate centered at the
// anchor, repeated across all four slots since there is no second choice
// to fall back to (spec.md §4.4 step 7).
func fourPositions(pt renderitem.PointText, nodeIndex int) [4]renderitem.ReferencePosition {
	x, y := pt.X, pt.Y

	if pt.Symbol == nil {
		single := renderitem.ReferencePosition{
			X: x - pt.Width/2, Y: y,
			NodeIndex: nodeIndex, Width: pt.Width, Height: pt.Height,
		}
		return [4]renderitem.ReferencePosition{single, single, single, single}
	}

	symW, symH := float64(pt.Symbol.Bitmap.Width), float64(pt.Symbol.Bitmap.Height)
	mk := func(px, py float64) renderitem.ReferencePosition {
		return renderitem.ReferencePosition{
			X: px, Y: py,
			NodeIndex: nodeIndex, Width: pt.Width, Height: pt.Height,
		}
	}

	return [4]renderitem.ReferencePosition{
		// above
		mk(x-pt.Width/2, y-symH/2-startDistanceToSymbols),
		// below
		mk(x-pt.Width/2, y+symH/2+pt.Height+startDistanceToSymbols),
		// left
		mk(x-symW/2-pt.Width-startDistanceToSymbols, y+pt.Height/2),
		// right
		mk(x+symW/2+startDistanceToSymbols, y+pt.Height/2),
	}
}

// topEdge is a candidate's top edge y-coordinate, the PU queue's sort key.
func topEdge(r *renderitem.ReferencePosition) float64 { return r.Y - r.Height }

// removeGroup filters out every candidate belonging to nodeIndex, in place.
func removeGroup(candidates []*renderitem.ReferencePosition, nodeIndex int) []*renderitem.ReferencePosition {
	out := candidates[:0]
	for _, c := range candidates {
		if c.NodeIndex != nodeIndex {
			out = append(out, c)
		}
	}
	return out
}

func placedFrom(label renderitem.PointText, ref *renderitem.ReferencePosition) renderitem.PointText {
	label.X = ref.X
	label.Y = ref.Y
	return label
}

// removeRefPosOverlappingSymbols nils out every candidate intersecting a
// surviving symbol, 2-px inflated (spec.md §4.4 step 7, first bullet).
func removeRefPosOverlappingSymbols(refPos []*renderitem.ReferencePosition, symbols []renderitem.Symbol) {
	for _, sym := range symbols {
		rect := sym.Rect().Inflate(labelDistanceToSymbol)
		for i, ref := range refPos {
			if ref != nil && ref.Rect().Intersects(rect) {
				refPos[i] = nil
			}
		}
	}
}

// removeRefPosOverlappingAreaLabels nils out every candidate intersecting
// a surviving area label, 2-px inflated (spec.md §4.4 step 7, first bullet).
func removeRefPosOverlappingAreaLabels(refPos []*renderitem.ReferencePosition, areaLabels []renderitem.PointText) {
	for _, label := range areaLabels {
		rect := label.Boundary().Inflate(labelDistanceToLabel)
		for i, ref := range refPos {
			if ref != nil && ref.Rect().Intersects(rect) {
				refPos[i] = nil
			}
		}
	}
}

// processFourPointGreedy is LabelPlacement.java's namesake method, ported
// to match spec.md §4.4 step 7 literally rather than its perf-motivated
// approximation: build every label's candidate positions into one shared
// pool, drop the ones that collide with a symbol or area label, run R3+R4,
// then sweep two priority queues so the globally topmost surviving
// candidate across *all* labels is accepted first -- not just the first
// label's preferred slot in input order.
//
// PU is kept sorted ascending by top edge (y-height); PD ascending by
// bottom edge (y). Accepting a candidate evicts its own label's other
// three candidates from both queues; then the PD prefix with a left edge
// before the accepted candidate's right edge is drained, and any drained
// candidate whose rectangle actually intersects the accepted one takes its
// whole label out of contention (removed from PU) rather than being
// re-enqueued into PD.
func processFourPointGreedy(labels []renderitem.PointText, symbols []renderitem.Symbol, areaLabels []renderitem.PointText, cache *dependencycache.Cache) []renderitem.PointText {
	refPos := make([]*renderitem.ReferencePosition, len(labels)*4)
	for i, label := range labels {
		positions := fourPositions(label, i)
		if label.Symbol == nil {
			p := positions[0]
			p.Seq = i * 4
			refPos[i*4] = &p
			continue
		}
		for slot := 0; slot < 4; slot++ {
			p := positions[slot]
			p.Seq = i*4 + slot
			refPos[i*4+slot] = &p
		}
	}

	removeRefPosOverlappingSymbols(refPos, symbols)
	removeRefPosOverlappingAreaLabels(refPos, areaLabels)
	cache.RemoveReferencePointsFromDependencyCache(refPos)

	var priorUp, priorDown []*renderitem.ReferencePosition
	for _, ref := range refPos {
		if ref != nil {
			priorUp = append(priorUp, ref)
			priorDown = append(priorDown, ref)
		}
	}
	sort.SliceStable(priorUp, func(a, b int) bool {
		if topEdge(priorUp[a]) != topEdge(priorUp[b]) {
			return topEdge(priorUp[a]) < topEdge(priorUp[b])
		}
		return priorUp[a].Seq < priorUp[b].Seq
	})
	sort.SliceStable(priorDown, func(a, b int) bool {
		if priorDown[a].Y != priorDown[b].Y {
			return priorDown[a].Y < priorDown[b].Y
		}
		return priorDown[a].Seq < priorDown[b].Seq
	})

	accepted := make([]renderitem.PointText, 0, len(labels))

	for len(priorUp) > 0 {
		c := priorUp[0]
		accepted = append(accepted, placedFrom(labels[c.NodeIndex], c))

		priorUp = removeGroup(priorUp[1:], c.NodeIndex)
		priorDown = removeGroup(priorDown, c.NodeIndex)

		if len(priorUp) == 0 {
			break
		}

		drainLimit := 0
		for drainLimit < len(priorDown) && priorDown[drainLimit].X < c.X+c.Width {
			drainLimit++
		}
		drained := priorDown[:drainLimit]
		priorDown = priorDown[drainLimit:]

		kept := drained[:0]
		for _, d := range drained {
			if d.X <= c.X+c.Width && d.X+d.Width >= c.X && d.Y >= c.Y-d.Height && d.Y <= c.Y+d.Height {
				priorUp = removeGroup(priorUp, d.NodeIndex)
				continue
			}
			kept = append(kept, d)
		}
		priorDown = append(priorDown, kept...)
		sort.SliceStable(priorDown, func(a, b int) bool {
			if priorDown[a].Y != priorDown[b].Y {
				return priorDown[a].Y < priorDown[b].Y
			}
			return priorDown[a].Seq < priorDown[b].Seq
		})
	}

	return accepted
}

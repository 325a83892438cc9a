// Package dependencycache implements the cross-tile label/symbol dependency
// cache (spec.md §4.3, C3): the state a tile's placement pass consults so
// labels and symbols never visibly collide with whatever a neighboring tile
// already drew, and the bookkeeping that lets a tile hand spillover content
// to its neighbors before they are drawn.
//
// Grounded on DependencyCache.java from the mapsforge sources retrieved
// alongside the spec (org.mapsforge.map.layer.renderer.DependencyCache).
package dependencycache

import (
	"github.com/jamesrr39/ownmap-app/maptile"
	"github.com/jamesrr39/ownmap-app/renderitem"
)

// referenceInflation is the pixel inflation R4 applies to recorded labels
// before testing candidate reference positions against them.
const referenceInflation = 2

// overlapInflation is the pixel inflation R2 applies to recorded symbols
// (and the inter-tile symbol-vs-symbol test) before testing the current
// tile's symbols against them.
const overlapInflation = 2

// DependencyOnTile is the per-tile record of labels and symbols that spill
// across tile seams: spec.md §3 "DependencyOnTile".
type DependencyOnTile struct {
	Drawn   bool
	Labels  []renderitem.PointText
	Symbols []renderitem.Symbol
}

// Cache maps a tile key to its DependencyOnTile record: spec.md §3
// "DependencyCache". It is not safe for concurrent use -- per spec.md §5,
// all operations on it run from the single rendering worker that owns it.
type Cache struct {
	tiles map[maptile.Key]*DependencyOnTile

	current maptile.Key

	// LegacyDownBug reproduces the original fillDependencyLabels'
	// symbol-spill branch (spec.md §9, Open Question 1): its down leg
	// records the spilled copy on the up neighbor instead of the down
	// neighbor, and its left/right legs translate the copy by the opposite
	// sign. Default false records on the down neighbor with the corrected
	// signs; set true only to reproduce the original's rendering exactly
	// for regression tests.
	LegacyDownBug bool
}

// NewCache returns an empty dependency cache, one per render session or map
// file open (spec.md §3 "Lifecycles").
func NewCache() *Cache {
	return &Cache{tiles: make(map[maptile.Key]*DependencyOnTile, 60)}
}

// SetCurrentTile scopes subsequent R1-R5 calls to tile. It ensures entries
// exist for tile and all eight neighbors, created empty with Drawn=false.
func (c *Cache) SetCurrentTile(tile maptile.Key) {
	c.current = tile
	c.ensure(tile)
	for _, dir := range maptile.AllDirections() {
		c.ensure(tile.Neighbor(dir))
	}
}

// CurrentTile returns the tile set by the most recent SetCurrentTile call.
func (c *Cache) CurrentTile() maptile.Key {
	return c.current
}

// DependencyOnTile returns the dependency record for key, if one has been
// created (by SetCurrentTile or by a neighbor's Record call).
func (c *Cache) DependencyOnTile(key maptile.Key) (*DependencyOnTile, bool) {
	d, ok := c.tiles[key]
	return d, ok
}

func (c *Cache) ensure(key maptile.Key) *DependencyOnTile {
	d, ok := c.tiles[key]
	if !ok {
		d = &DependencyOnTile{}
		c.tiles[key] = d
	}
	return d
}

// isDrawn reports whether key's neighbor has finished placement. Tiles
// outside the world bounds count as not-drawn (spec.md R1).
func (c *Cache) isDrawn(key maptile.Key) bool {
	if !key.IsInWorld() {
		return false
	}
	d, ok := c.tiles[key]
	if !ok {
		return false
	}
	return d.Drawn
}

// edges bundles the four edge-drawn tests shared by R1, R3 and R5: whether
// the neighbor across each of the current tile's four edges has already
// been drawn.
type edges struct {
	up, down, left, right bool
}

func (c *Cache) edges() edges {
	return edges{
		up:    c.isDrawn(c.current.Neighbor(maptile.North)),
		down:  c.isDrawn(c.current.Neighbor(maptile.South)),
		left:  c.isDrawn(c.current.Neighbor(maptile.West)),
		right: c.isDrawn(c.current.Neighbor(maptile.East)),
	}
}

// RemoveAreaLabelsOutOfDrawnAreas is R1 for area labels: drop any label
// whose boundary crosses into a neighbor already marked drawn.
func (c *Cache) RemoveAreaLabelsOutOfDrawnAreas(areaLabels []renderitem.PointText) []renderitem.PointText {
	e := c.edges()
	out := areaLabels[:0]
	for _, label := range areaLabels {
		if e.up && label.Y-label.Height < 0 {
			continue
		}
		if e.down && label.Y > maptile.TILESize {
			continue
		}
		if e.left && label.X < 0 {
			continue
		}
		if e.right && label.X+label.Width > maptile.TILESize {
			continue
		}
		out = append(out, label)
	}
	return out
}

// RemoveSymbolsOutOfDrawnAreas is R1 for symbols.
func (c *Cache) RemoveSymbolsOutOfDrawnAreas(symbols []renderitem.Symbol) []renderitem.Symbol {
	e := c.edges()
	out := symbols[:0]
	for _, sym := range symbols {
		r := sym.Rect()
		if e.up && r.MinY < 0 {
			continue
		}
		if e.down && r.MaxY > maptile.TILESize {
			continue
		}
		if e.left && r.MinX < 0 {
			continue
		}
		if e.right && r.MaxX > maptile.TILESize {
			continue
		}
		out = append(out, sym)
	}
	return out
}

// RemoveOverlapping is R2: drop any symbol or area label that intersects a
// label or symbol already recorded for the current tile, and any POI label
// whose (text, paintFront, paintBack) triple matches a recorded label --
// duplicate-text suppression across tile seams. POI labels are not tested
// for intersection here; their candidate positions are tested against the
// recorded content by RemoveReferencePointsFromDependencyCache.
func (c *Cache) RemoveOverlapping(labels, areaLabels []renderitem.PointText, symbols []renderitem.Symbol) ([]renderitem.PointText, []renderitem.PointText, []renderitem.Symbol) {
	current := c.ensure(c.current)

	if len(current.Labels) > 0 {
		labels = removeDuplicateLabels(labels, current.Labels)
		symbols = removeSymbolsOverlappingLabels(symbols, current.Labels)
		areaLabels = removeAreaLabelsOverlappingLabels(areaLabels, current.Labels)
	}

	if len(current.Symbols) > 0 {
		symbols = removeSymbolsOverlappingSymbols(symbols, current.Symbols)
		areaLabels = removeAreaLabelsOverlappingSymbols(areaLabels, current.Symbols)
	}

	return labels, areaLabels, symbols
}

func removeDuplicateLabels(labels []renderitem.PointText, recorded []renderitem.PointText) []renderitem.PointText {
	out := labels[:0]
	for _, label := range labels {
		duplicate := false
		for _, rec := range recorded {
			if label.SameStyledText(rec) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, label)
		}
	}
	return out
}

func removeSymbolsOverlappingLabels(symbols []renderitem.Symbol, recorded []renderitem.PointText) []renderitem.Symbol {
	out := symbols[:0]
	for _, sym := range symbols {
		overlaps := false
		symRect := sym.Rect()
		for _, rec := range recorded {
			if rec.Boundary().Intersects(symRect) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, sym)
		}
	}
	return out
}

func removeAreaLabelsOverlappingLabels(areaLabels []renderitem.PointText, recorded []renderitem.PointText) []renderitem.PointText {
	out := areaLabels[:0]
	for _, label := range areaLabels {
		overlaps := false
		for _, rec := range recorded {
			if label.Boundary().Intersects(rec.Boundary()) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, label)
		}
	}
	return out
}

func removeSymbolsOverlappingSymbols(symbols []renderitem.Symbol, recorded []renderitem.Symbol) []renderitem.Symbol {
	out := symbols[:0]
	for _, sym := range symbols {
		symRect := sym.Rect()
		overlaps := false
		for _, rec := range recorded {
			if rec.Rect().Inflate(overlapInflation).Intersects(symRect) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, sym)
		}
	}
	return out
}

func removeAreaLabelsOverlappingSymbols(areaLabels []renderitem.PointText, recorded []renderitem.Symbol) []renderitem.PointText {
	out := areaLabels[:0]
	for _, label := range areaLabels {
		overlaps := false
		for _, rec := range recorded {
			if label.Boundary().Intersects(rec.Rect()) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, label)
		}
	}
	return out
}

// RemoveReferencePointsFromDependencyCache is the combined R3+R4 operation
// (spec.md §9, Open Question 3: the original source's call site expects
// three separate methods -- removeOutOfTileReferencePoints,
// removeOverlappingLabels, removeOverlappingSymbols -- but
// DependencyCache.java implements them as a single
// removeReferencePointsFromDependencyCache that does all three jobs in one
// pass; this mirrors the method that actually has a body).
//
// It nullifies (in place) any candidate that either spills into an
// already-drawn neighbor (R3), or intersects a label already recorded for
// the current tile (R4, 2-pixel inflation) or a recorded symbol (R4, no
// inflation). refs may already contain nils from an earlier pass; those
// are left alone.
func (c *Cache) RemoveReferencePointsFromDependencyCache(refs []*renderitem.ReferencePosition) {
	e := c.edges()
	for i, ref := range refs {
		if ref == nil {
			continue
		}
		if e.up && ref.Y-ref.Height < 0 {
			refs[i] = nil
			continue
		}
		if e.down && ref.Y >= maptile.TILESize {
			refs[i] = nil
			continue
		}
		if e.left && ref.X < 0 {
			refs[i] = nil
			continue
		}
		if e.right && ref.X+ref.Width > maptile.TILESize {
			refs[i] = nil
		}
	}

	current, ok := c.tiles[c.current]
	if !ok {
		return
	}

	for _, rec := range current.Labels {
		rect := rec.Boundary().Inflate(referenceInflation)
		for i, ref := range refs {
			if ref == nil {
				continue
			}
			if ref.Rect().Intersects(rect) {
				refs[i] = nil
			}
		}
	}

	for _, rec := range current.Symbols {
		rect := rec.Rect()
		for i, ref := range refs {
			if ref == nil {
				continue
			}
			if ref.Rect().Intersects(rect) {
				refs[i] = nil
			}
		}
	}
}

// Record is R5: commit accepted labels, area labels and symbols. Sets
// Drawn(current)=true and propagates spillover entries to neighbors that
// are not yet drawn.
func (c *Cache) Record(labels, areaLabels []renderitem.PointText, symbols []renderitem.Symbol) {
	current := c.ensure(c.current)
	current.Drawn = true

	if len(labels) == 0 && len(symbols) == 0 && len(areaLabels) == 0 {
		return
	}

	c.fillDependencyLabels(labels)
	c.fillDependencyLabels(areaLabels)
	c.fillDependencySymbols(symbols)
}

// neighborKeys names the eight neighbors of the current tile, computed
// once per Record call.
type neighborKeys struct {
	left, right, up, down                 maptile.Key
	leftup, leftdown, rightup, rightdown maptile.Key
}

func (c *Cache) neighborKeys() neighborKeys {
	t := c.current
	return neighborKeys{
		left:      t.Neighbor(maptile.West),
		right:     t.Neighbor(maptile.East),
		up:        t.Neighbor(maptile.North),
		down:      t.Neighbor(maptile.South),
		leftup:    t.Neighbor(maptile.NorthWest),
		leftdown:  t.Neighbor(maptile.SouthWest),
		rightup:   t.Neighbor(maptile.NorthEast),
		rightdown: t.Neighbor(maptile.SouthEast),
	}
}

// translateLabel returns a copy of item anchored dx,dy pixels from its
// original position -- the same logical label as seen from a neighbor
// tile's local frame.
func translateLabel(item renderitem.PointText, dx, dy float64) renderitem.PointText {
	item.X += dx
	item.Y += dy
	if item.Symbol != nil {
		sym := *item.Symbol
		sym.X += dx
		sym.Y += dy
		item.Symbol = &sym
	}
	return item
}

func translateSymbol(sym renderitem.Symbol, dx, dy float64) renderitem.Symbol {
	sym.X += dx
	sym.Y += dy
	return sym
}

// fillDependencyLabels is fillDependencyLabels/fillDependencyOnTile2 from
// DependencyCache.java: for each label, work out which neighbors its
// boundary spills into, record the label once under the current tile's own
// list, and push a translated copy into each undrawn neighbor it spills
// into. Corner neighbors are only pushed to when both the horizontal and
// vertical spill happen together and the corresponding axial neighbor is
// itself undrawn (spec.md R5).
func (c *Cache) fillDependencyLabels(items []renderitem.PointText) {
	if len(items) == 0 {
		return
	}
	n := c.neighborKeys()

	for _, item := range items {
		added := false
		ensureAdded := func() {
			if !added {
				current := c.ensure(c.current)
				current.Labels = append(current.Labels, item)
				added = true
			}
		}

		if item.Y-item.Height < 0 && !c.isDrawn(n.up) {
			ensureAdded()
			c.ensure(n.up).Labels = append(c.ensure(n.up).Labels, translateLabel(item, 0, maptile.TILESize))

			if item.X < 0 && !c.isDrawn(n.leftup) {
				c.ensure(n.leftup).Labels = append(c.ensure(n.leftup).Labels, translateLabel(item, maptile.TILESize, maptile.TILESize))
			}
			if item.X+item.Width > maptile.TILESize && !c.isDrawn(n.rightup) {
				c.ensure(n.rightup).Labels = append(c.ensure(n.rightup).Labels, translateLabel(item, -maptile.TILESize, maptile.TILESize))
			}
		}

		if item.Y > maptile.TILESize && !c.isDrawn(n.down) {
			ensureAdded()
			c.ensure(n.down).Labels = append(c.ensure(n.down).Labels, translateLabel(item, 0, -maptile.TILESize))

			if item.X < 0 && !c.isDrawn(n.leftdown) {
				c.ensure(n.leftdown).Labels = append(c.ensure(n.leftdown).Labels, translateLabel(item, maptile.TILESize, -maptile.TILESize))
			}
			if item.X+item.Width > maptile.TILESize && !c.isDrawn(n.rightdown) {
				c.ensure(n.rightdown).Labels = append(c.ensure(n.rightdown).Labels, translateLabel(item, -maptile.TILESize, -maptile.TILESize))
			}
		}

		if item.X < 0 && !c.isDrawn(n.left) {
			ensureAdded()
			c.ensure(n.left).Labels = append(c.ensure(n.left).Labels, translateLabel(item, maptile.TILESize, 0))
		}

		if item.X+item.Width > maptile.TILESize && !c.isDrawn(n.right) {
			ensureAdded()
			c.ensure(n.right).Labels = append(c.ensure(n.right).Labels, translateLabel(item, -maptile.TILESize, 0))
		}

		// Secondary path: the label's own boundary didn't spill, but its
		// attached symbol's boundary does (a caption anchored centrally on
		// a POI whose icon pokes past the tile edge). Only taken if the
		// primary boundary checks above found nothing.
		if item.Symbol != nil && !added {
			c.fillDependencySymbolSpill(item, n)
		}
	}
}

// fillDependencySymbolSpill is the symbol-triggered secondary spill path.
// See the LegacyDownBug doc comment: with LegacyDownBug=true the down leg
// records on the up neighbor and the left/right legs use the opposite
// sign, as the original does.
func (c *Cache) fillDependencySymbolSpill(item renderitem.PointText, n neighborKeys) {
	sym := *item.Symbol
	symW, symH := float64(sym.Bitmap.Width), float64(sym.Bitmap.Height)
	added := false
	ensureAdded := func() {
		if !added {
			current := c.ensure(c.current)
			current.Labels = append(current.Labels, item)
			added = true
		}
	}

	if sym.Y <= 0 && !c.isDrawn(n.up) {
		ensureAdded()
		c.ensure(n.up).Labels = append(c.ensure(n.up).Labels, translateLabel(item, 0, maptile.TILESize))

		if sym.X < 0 && !c.isDrawn(n.leftup) {
			c.ensure(n.leftup).Labels = append(c.ensure(n.leftup).Labels, translateLabel(item, maptile.TILESize, maptile.TILESize))
		}
		if sym.X+symW > maptile.TILESize && !c.isDrawn(n.rightup) {
			c.ensure(n.rightup).Labels = append(c.ensure(n.rightup).Labels, translateLabel(item, -maptile.TILESize, maptile.TILESize))
		}
	}

	if sym.Y+symH >= maptile.TILESize && !c.isDrawn(n.down) {
		ensureAdded()
		downTarget := n.down
		if c.LegacyDownBug {
			downTarget = n.up
		}
		c.ensure(downTarget).Labels = append(c.ensure(downTarget).Labels, translateLabel(item, 0, -maptile.TILESize))

		if sym.X < 0 && !c.isDrawn(n.leftdown) {
			c.ensure(n.leftdown).Labels = append(c.ensure(n.leftdown).Labels, translateLabel(item, maptile.TILESize, -maptile.TILESize))
		}
		if sym.X+symW > maptile.TILESize && !c.isDrawn(n.rightdown) {
			c.ensure(n.rightdown).Labels = append(c.ensure(n.rightdown).Labels, translateLabel(item, -maptile.TILESize, -maptile.TILESize))
		}
	}

	if sym.X <= 0 && !c.isDrawn(n.left) {
		ensureAdded()
		leftDx := maptile.TILESize
		if c.LegacyDownBug {
			leftDx = -maptile.TILESize
		}
		c.ensure(n.left).Labels = append(c.ensure(n.left).Labels, translateLabel(item, float64(leftDx), 0))
	}

	if sym.X+symW >= maptile.TILESize && !c.isDrawn(n.right) {
		ensureAdded()
		rightDx := -maptile.TILESize
		if c.LegacyDownBug {
			rightDx = maptile.TILESize
		}
		c.ensure(n.right).Labels = append(c.ensure(n.right).Labels, translateLabel(item, float64(rightDx), 0))
	}
}

// fillDependencySymbols is the symbol half of fillDependencyOnTile2.
func (c *Cache) fillDependencySymbols(symbols []renderitem.Symbol) {
	if len(symbols) == 0 {
		return
	}
	n := c.neighborKeys()

	for _, sym := range symbols {
		symW, symH := float64(sym.Bitmap.Width), float64(sym.Bitmap.Height)
		added := false
		ensureAdded := func() {
			if !added {
				current := c.ensure(c.current)
				current.Symbols = append(current.Symbols, sym)
				added = true
			}
		}

		if sym.Y < 0 && !c.isDrawn(n.up) {
			ensureAdded()
			c.ensure(n.up).Symbols = append(c.ensure(n.up).Symbols, translateSymbol(sym, 0, maptile.TILESize))

			if sym.X < 0 && !c.isDrawn(n.leftup) {
				c.ensure(n.leftup).Symbols = append(c.ensure(n.leftup).Symbols, translateSymbol(sym, maptile.TILESize, maptile.TILESize))
			}
			if sym.X+symW > maptile.TILESize && !c.isDrawn(n.rightup) {
				c.ensure(n.rightup).Symbols = append(c.ensure(n.rightup).Symbols, translateSymbol(sym, -maptile.TILESize, maptile.TILESize))
			}
		}

		if sym.Y+symH > maptile.TILESize && !c.isDrawn(n.down) {
			ensureAdded()
			c.ensure(n.down).Symbols = append(c.ensure(n.down).Symbols, translateSymbol(sym, 0, -maptile.TILESize))

			if sym.X < 0 && !c.isDrawn(n.leftdown) {
				c.ensure(n.leftdown).Symbols = append(c.ensure(n.leftdown).Symbols, translateSymbol(sym, maptile.TILESize, -maptile.TILESize))
			}
			if sym.X+symW > maptile.TILESize && !c.isDrawn(n.rightdown) {
				c.ensure(n.rightdown).Symbols = append(c.ensure(n.rightdown).Symbols, translateSymbol(sym, -maptile.TILESize, -maptile.TILESize))
			}
		}

		if sym.X < 0 && !c.isDrawn(n.left) {
			ensureAdded()
			c.ensure(n.left).Symbols = append(c.ensure(n.left).Symbols, translateSymbol(sym, maptile.TILESize, 0))
		}

		if sym.X+symW > maptile.TILESize && !c.isDrawn(n.right) {
			ensureAdded()
			c.ensure(n.right).Symbols = append(c.ensure(n.right).Symbols, translateSymbol(sym, -maptile.TILESize, 0))
		}
	}
}

// Package theme decides how geometry becomes drawing instructions: a
// Style maps a POI's or way's tags to a z-ordered paint description,
// which the renderer looks up through the Style interface and turns into
// draw2d/freetype calls. There is no render* callback interface for a
// style to call back into.
//
// Adapted from styling/styling.go and styling/custom_basic_style.go: kept
// the StyleSet validation logic and the WayStyle/NodeStyle/RelationStyle
// shapes, replaced ownmap's protobuf-tag types with geometry.Tags and the
// mapbox/cartocss-sourced style loading (out of scope) with one built-in
// default style.
package theme

import (
	"image/color"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-app/geometry"
	"github.com/jamesrr39/ownmap-app/renderitem"
)

// BuiltinStyleID is the style ID of the default, hand-coded style: the
// only style this repository ships, since the render-theme XML/JSON rule
// tree loaders are out of scope (spec.md Non-goals).
const BuiltinStyleID = "__maptiles_builtin"

// ItemStyle is satisfied by WayStyle, NodeStyle and RelationStyle; it
// exists so renderer code can sort mixed style results by z-index without
// a type switch.
type ItemStyle interface {
	GetZIndex() int
}

// WayStyle is how a way or relation member should be drawn.
type WayStyle struct {
	FillColor      color.Color
	LineColor      color.Color
	LineDashPolicy []float64
	LineWidth      float64
	ZIndex         int

	// SymbolBitmap, if set, makes the renderer repeat a symbol along the
	// way's centerline instead of (or alongside) stroking it (spec.md
	// §4.5 "Way symbol repetition along a polyline").
	SymbolBitmap *renderitem.Bitmap
	RepeatSymbol bool
}

func (ws *WayStyle) GetZIndex() int { return ws.ZIndex }

// NodeStyle is how a POI's caption and/or icon should be drawn.
type NodeStyle struct {
	TextSize  int
	TextColor color.Color
	ZIndex    int

	// SymbolBitmap, if set, draws an icon at the POI's anchor in addition
	// to (or instead of) its caption (spec.md §6 "renderPointOfInterestSymbol").
	SymbolBitmap *renderitem.Bitmap
}

func (ns *NodeStyle) GetZIndex() int { return ns.ZIndex }

// RelationStyle is how a multipolygon relation should be drawn.
type RelationStyle struct {
	ZIndex int
}

func (rs *RelationStyle) GetZIndex() int { return rs.ZIndex }

// Style decides whether and how to draw a piece of geometry at a given
// zoom level. A nil *XStyle with a nil error means "don't draw this".
type Style interface {
	GetNodeStyle(poi geometry.POI, zoom int) (*NodeStyle, errorsx.Error)
	GetWayStyle(tags geometry.Tags, zoom int) (*WayStyle, errorsx.Error)
	GetRelationStyle(relation geometry.Relation, zoom int) (*RelationStyle, errorsx.Error)
	GetBackground() color.Color
	GetStyleID() string
}

// StyleSet is a named collection of styles with one designated default,
// matching the teacher's StyleSet (kept verbatim: this validation has
// nothing domain-specific to generalize).
type StyleSet struct {
	stylesMap      map[string]Style
	defaultStyleID string
}

// NewStyleSet builds a StyleSet, rejecting duplicate style IDs and a
// defaultStyleID absent from styles.
func NewStyleSet(styles []Style, defaultStyleID string) (*StyleSet, errorsx.Error) {
	styleSet := &StyleSet{
		stylesMap:      make(map[string]Style, len(styles)),
		defaultStyleID: defaultStyleID,
	}

	defaultIDFound := false

	for _, style := range styles {
		styleID := style.GetStyleID()
		if _, ok := styleSet.stylesMap[styleID]; ok {
			return nil, errorsx.Errorf("duplicate style ID found: %q", styleID)
		}

		styleSet.stylesMap[styleID] = style

		if defaultStyleID == styleID {
			defaultIDFound = true
		}
	}

	if !defaultIDFound {
		return nil, errorsx.Errorf("default ID %q not found in any supplied styles", defaultStyleID)
	}

	return styleSet, nil
}

// GetStyleByID returns the style registered under id, or nil if none was.
func (s *StyleSet) GetStyleByID(id string) Style {
	return s.stylesMap[id]
}

// GetDefaultStyle returns the style this set was constructed with as its
// default.
func (s *StyleSet) GetDefaultStyle() Style {
	return s.stylesMap[s.defaultStyleID]
}

// GetAllStyleIDs returns every style ID registered in this set.
func (s *StyleSet) GetAllStyleIDs() []string {
	ids := make([]string, 0, len(s.stylesMap))
	for id := range s.stylesMap {
		ids = append(ids, id)
	}
	return ids
}

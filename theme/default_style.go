package theme

import (
	"image/color"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-app/geometry"
	"github.com/jamesrr39/ownmap-app/renderitem"
)

// z-index bands, low to high: layers are drawn low to high, and within a
// layer the renderer draws ways in ascending z-index order, each way's
// fill and stroke together.
const (
	zIndexForest      = 1
	zIndexResidential = 2
	zIndexRailway     = 3
	zIndexHighway     = 4
	zIndexPlace       = 5
)

var forestStyle = &WayStyle{
	FillColor: color.RGBA{R: 172, G: 200, B: 160, A: 0xff},
	ZIndex:    zIndexForest,
}

// amenitySymbol is the one icon this built-in style ships, a generic
// 16x16 pin shared by every recognized amenity value -- standing in for
// the theme XML's per-tag bitmap lookup (spec.md Non-goals: "the
// render-theme XML loader and styling rule tree").
var amenitySymbol = &renderitem.Bitmap{Width: 16, Height: 16}

const zIndexAmenity = zIndexPlace

// DefaultStyle is the only style this repository ships (BuiltinStyleID):
// a small hand-coded ruleset covering the tag values a hand-built extract
// is likely to exercise, standing in for the render-theme XML/JSON rule
// tree that spec.md places out of scope.
type DefaultStyle struct{}

func (*DefaultStyle) GetBackground() color.Color { return color.White }

func (*DefaultStyle) GetStyleID() string { return BuiltinStyleID }

// amenityValues lists the amenity tag values this built-in style draws an
// icon for; anything else with an amenity tag is left undrawn, same as an
// untagged POI.
var amenityValues = map[string]bool{
	"restaurant": true, "cafe": true, "fuel": true, "pharmacy": true,
	"hospital": true, "parking": true,
}

func (*DefaultStyle) GetNodeStyle(poi geometry.POI, _ int) (*NodeStyle, errorsx.Error) {
	var name, amenity string
	var isPlace bool
	for _, tag := range poi.Tags {
		switch tag.Key {
		case "place":
			isPlace = true
		case "name":
			name = tag.Value
		case "amenity":
			amenity = tag.Value
		}
	}

	if amenityValues[amenity] {
		return &NodeStyle{
			TextSize:     14,
			TextColor:    color.Black,
			ZIndex:       zIndexAmenity,
			SymbolBitmap: amenitySymbol,
		}, nil
	}

	if !isPlace || name == "" {
		return nil, nil
	}

	return &NodeStyle{
		TextSize:  16,
		TextColor: color.Black,
		ZIndex:    zIndexPlace,
	}, nil
}

// fenceSymbol marks a repeated post along barrier=fence ways (spec.md
// §4.5 "Way symbol repetition along a polyline").
var fenceSymbol = &renderitem.Bitmap{Width: 6, Height: 6}

func (*DefaultStyle) GetWayStyle(tags geometry.Tags, _ int) (*WayStyle, errorsx.Error) {
	var highwayType string
	for _, tag := range tags {
		switch tag.Key {
		case "barrier":
			if tag.Value == "fence" {
				return &WayStyle{
					LineColor:    color.RGBA{R: 120, G: 90, B: 60, A: 0xff},
					LineWidth:    1,
					ZIndex:       zIndexResidential,
					SymbolBitmap: fenceSymbol,
					RepeatSymbol: true,
				}, nil
			}
		case "highway":
			highwayType = tag.Value
		case "railway":
			return &WayStyle{
				LineColor: color.RGBA{R: 190, G: 190, B: 190, A: 0xff},
				LineWidth: 3,
				ZIndex:    zIndexRailway,
			}, nil
		case "natural":
			if tag.Value == "wood" {
				return forestStyle, nil
			}
		case "landuse":
			switch tag.Value {
			case "forest":
				return forestStyle, nil
			case "residential":
				return &WayStyle{
					FillColor: color.RGBA{R: 223, G: 223, B: 223, A: 0xff},
					ZIndex:    zIndexResidential,
				}, nil
			}
		}
	}

	if highwayType == "" {
		return nil, nil
	}

	wayStyle := &WayStyle{ZIndex: zIndexHighway}
	switch highwayType {
	case "motorway":
		wayStyle.LineColor = color.RGBA{R: 0xf3, G: 0x8d, B: 0x9e, A: 0xff}
	case "trunk":
		wayStyle.LineColor = color.RGBA{R: 0xff, G: 0xae, B: 0x9b, A: 0xff}
	case "primary", "primary_link":
		wayStyle.LineColor = color.RGBA{R: 0xff, G: 0xd4, B: 0xa5, A: 0xff}
	case "secondary":
		wayStyle.LineColor = color.RGBA{R: 0xf6, G: 0xf9, B: 0xbf, A: 0xff}
	case "tertiary":
		wayStyle.LineColor = color.RGBA{R: 0xf3, G: 0x8d, B: 0x9e, A: 0xff}
	case "unclassified", "residential", "service", "track":
		wayStyle.LineColor = color.RGBA{R: 0xbc, G: 0xac, B: 0xa5, A: 0xff}
	case "footway", "path", "steps":
		wayStyle.LineColor = color.RGBA{G: 0xff, A: 0xff}
		wayStyle.LineDashPolicy = []float64{1, 2, 3}
	case "bridleway", "cycleway":
		wayStyle.LineColor = color.RGBA{G: 0xff, A: 0xff}
		wayStyle.LineDashPolicy = []float64{20, 5}
	default:
		return nil, errorsx.Errorf("unhandled highway type: %q", highwayType)
	}

	return wayStyle, nil
}

func (s *DefaultStyle) GetRelationStyle(relation geometry.Relation, zoom int) (*RelationStyle, errorsx.Error) {
	wayStyle, err := s.GetWayStyle(relation.Tags, zoom)
	if err != nil {
		return nil, err
	}

	if wayStyle == nil {
		return nil, nil
	}

	return &RelationStyle{ZIndex: wayStyle.ZIndex}, nil
}

package geometry

import (
	"context"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReaderFiltersByBounds(t *testing.T) {
	reader := &MemoryReader{
		POIs: []POI{
			{ID: 1, Lat: 0, Lon: 0, Tags: Tags{{Key: "amenity", Value: "cafe"}}},
			{ID: 2, Lat: 50, Lon: 50},
		},
		Ways: []Way{
			{ID: 10, Points: []Point{{Lat: 0, Lon: 0}, {Lat: 0.5, Lon: 0.5}}},
			{ID: 11, Points: []Point{{Lat: 80, Lon: 80}}},
		},
	}

	bounds := osm.Bounds{MinLat: -1, MaxLat: 1, MinLon: -1, MaxLon: 1}
	pois, ways, relations, err := reader.GetInBounds(context.Background(), bounds, 10)

	require.Nil(t, err)
	require.Len(t, pois, 1)
	assert.EqualValues(t, 1, pois[0].ID)
	value, ok := pois[0].Tags.Get("amenity")
	assert.True(t, ok)
	assert.Equal(t, "cafe", value)

	require.Len(t, ways, 1)
	assert.EqualValues(t, 10, ways[0].ID)

	assert.Empty(t, relations)
}

func TestMemoryReaderRelationSurfacesIfAnyMemberIntersects(t *testing.T) {
	outer := Way{ID: 20, Points: []Point{{Lat: 0, Lon: 0}, {Lat: 80, Lon: 80}}}
	reader := &MemoryReader{
		Relations: []Relation{
			{ID: 30, Tags: Tags{{Key: "type", Value: "multipolygon"}}, Members: []Way{outer}},
		},
	}

	bounds := osm.Bounds{MinLat: -1, MaxLat: 1, MinLon: -1, MaxLon: 1}
	_, _, relations, err := reader.GetInBounds(context.Background(), bounds, 10)

	require.Nil(t, err)
	require.Len(t, relations, 1)
	assert.EqualValues(t, 30, relations[0].ID)
}

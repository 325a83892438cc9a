package renderer

import (
	"math"
	"testing"

	"github.com/jamesrr39/ownmap-app/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobRejectsNaNTextScale(t *testing.T) {
	_, err := NewJob(maptile.Key{}, "some.map", float32(math.NaN()))
	require.NotNil(t, err)
}

func TestNewJobRejectsNonPositiveTextScale(t *testing.T) {
	_, err := NewJob(maptile.Key{Zoom: 10}, "some.map", 0)
	require.NotNil(t, err)

	_, err = NewJob(maptile.Key{Zoom: 10}, "some.map", -1)
	require.NotNil(t, err)
}

func TestNewJobAcceptsValidTextScale(t *testing.T) {
	job, err := NewJob(maptile.Key{Zoom: 10, X: 1, Y: 2}, "some.map", 1.5)
	require.Nil(t, err)
	assert.Equal(t, float32(1.5), job.TextScale)
}

func TestJobEqualComparesTextScaleByRawBits(t *testing.T) {
	a := Job{Tile: maptile.Key{Zoom: 5, X: 1, Y: 1}, MapFilePath: "x.map", TextScale: 1.0}
	b := Job{Tile: maptile.Key{Zoom: 5, X: 1, Y: 1}, MapFilePath: "x.map", TextScale: 1.0}
	assert.True(t, a.Equal(b))

	c := b
	c.TextScale = 1.0000001
	assert.False(t, a.Equal(c))
}

func TestJobEqualTreatsDistinctNaNBitPatternsAsUnequal(t *testing.T) {
	nan1 := math.Float32frombits(0x7fc00001)
	nan2 := math.Float32frombits(0x7fc00002)

	a := Job{TextScale: nan1}
	b := Job{TextScale: nan2}
	assert.False(t, a.Equal(b))
}

func TestLayerIndexClampsToRange(t *testing.T) {
	assert.Equal(t, 0, LayerIndex(-5))
	assert.Equal(t, 0, LayerIndex(-20))
	assert.Equal(t, Layers/2, LayerIndex(0))
	assert.Equal(t, Layers-1, LayerIndex(5))
	assert.Equal(t, Layers-1, LayerIndex(20))
}

func TestStrokeWidthScaleIsFlatBelowZoom12(t *testing.T) {
	assert.Equal(t, 1.0, StrokeWidthScale(0))
	assert.Equal(t, 1.0, StrokeWidthScale(12))
}

func TestStrokeWidthScaleGrowsAboveZoom12(t *testing.T) {
	assert.InDelta(t, 1.5, StrokeWidthScale(13), 0.0001)
	assert.InDelta(t, 2.25, StrokeWidthScale(14), 0.0001)
}

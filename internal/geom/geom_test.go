package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolygonClosesRing(t *testing.T) {
	g, err := NewPolygon([]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	require.NoError(t, err)
	pts := g.Points()
	require.Len(t, pts, 5)
	assert.Equal(t, pts[0], pts[4])
	assert.Equal(t, KindPolygon, g.Kind())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		make func() (Geometry, error)
		want error
	}{
		{"triangle missing a vertex", func() (Geometry, error) { return NewPolygon([]Point{{0, 0}, {1, 1}}) }, ErrTooFewPoints},
		{"single point line", func() (Geometry, error) { return NewLineString([]Point{{0, 0}}) }, ErrTooFewPoints},
		{"nan coordinate", func() (Geometry, error) { return NewLineString([]Point{{0, 0}, {math.NaN(), 1}}) }, ErrNonFinite},
		{"valid line", func() (Geometry, error) { return NewLineString([]Point{{0, 0}, {1, 1}}) }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.make()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEnvelope(t *testing.T) {
	g, err := NewLineString([]Point{{3, -1}, {-2, 4}, {1, 1}})
	require.NoError(t, err)
	e := g.Envelope()
	assert.Equal(t, -2.0, e.MinX())
	assert.Equal(t, -1.0, e.MinY())
	assert.Equal(t, 3.0, e.MaxX())
	assert.Equal(t, 4.0, e.MaxY())
	assert.Equal(t, orb.Bound{Min: orb.Point{-2, -1}, Max: orb.Point{3, 4}}, e.Bound())
	assert.True(t, Geometry{}.Envelope().IsEmpty())
}

func TestEnvelopeIntersectsIsBoundaryInclusive(t *testing.T) {
	a := Rect(0, 0, 1, 1).Envelope()
	b := Rect(1, 0, 2, 1).Envelope()
	c := Rect(1.5, 1.5, 2, 2).Envelope()
	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))
	assert.False(t, a.Intersects(c))
	assert.False(t, a.Intersects(Envelope{}))
}

func TestMap(t *testing.T) {
	g := Rect(0, 0, 1, 1).Map(func(p Point) Point { return Point{p.X + 10, p.Y} })
	assert.Equal(t, KindPolygon, g.Kind())
	assert.Equal(t, 10.0, g.Envelope().MinX())
}

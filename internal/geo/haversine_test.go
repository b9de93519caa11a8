package geo

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_IdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, Distance(Point{0, 0}, Point{0, 0}))
	assert.Equal(t, 0.0, Distance(Point{-6.2, 106.8}, Point{-6.2, 106.8}))
}

func TestDistance_OneHundredthDegreeAtEquator(t *testing.T) {
	// 0.01 градуса долготы на экваторе = 6371 * 0.01 * pi / 180
	want := EarthRadiusKm * 0.01 * math.Pi / 180
	got := Distance(Point{0, 0}, Point{0, 0.01})
	assert.InDelta(t, want, got, 0.01)
	assert.InDelta(t, 1.11, got, 0.01)
}

func TestDistance_KnownPair(t *testing.T) {
	// Jakarta (Monas) -> Bandung (Gedung Sate), около 119 км по прямой
	jakarta := Point{Lat: -6.1754, Lon: 106.8272}
	bandung := Point{Lat: -6.9025, Lon: 107.6188}
	d := Distance(jakarta, bandung)
	assert.InDelta(t, 119.0, d, 5.0)
	assert.InDelta(t, d, Distance(bandung, jakarta), 1e-9, "distance must be symmetric")
}

func TestDistance_Antipodal(t *testing.T) {
	d := Distance(Point{0, 0}, Point{0, 180})
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 0.001)
	assert.False(t, math.IsNaN(Distance(Point{90, 0}, Point{-90, 0})))
}

func TestWithinRadius_Inclusive(t *testing.T) {
	assert.True(t, WithinRadius(10, 10))
	assert.True(t, WithinRadius(9.99, 10))
	assert.False(t, WithinRadius(10.0001, 10))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, Point{90, 180}.Valid())
	assert.True(t, Point{-90, -180}.Valid())
	assert.False(t, Point{90.1, 0}.Valid())
	assert.False(t, Point{0, -180.5}.Valid())
}

func TestSQLDistance_UsesSameRadiusAndArgs(t *testing.T) {
	expr, args := SQLDistance("jobs.latitude", "jobs.longitude", Point{Lat: 1.5, Lon: 2.5})
	assert.True(t, strings.HasPrefix(expr, "(6371 * 2 * atan2("))
	assert.Contains(t, expr, "radians(jobs.latitude - ?)")
	assert.Contains(t, expr, "radians(jobs.longitude - ?)")
	assert.Equal(t, strings.Count(expr, "?"), len(args))
	assert.Equal(t, []interface{}{1.5, 1.5, 2.5, 1.5, 1.5, 2.5}, args)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.11, Round2(1.1119))
	assert.Equal(t, 4.67, Round2(14.0/3.0))
}

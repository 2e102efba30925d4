package dem_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/cageo/Barnes-2013-FlatSurfaces"
)

// assertDrains follows the flow direction from every data cell and checks
// that it leaves the DEM without climbing or cycling.
func assertDrains(t *testing.T, elevations *dem.Float32Grid, dirs *dem.Int8Grid) {
	t.Helper()
	maxSteps := elevations.Width() * elevations.Height()
	for y := 0; y < elevations.Height(); y++ {
		for x := 0; x < elevations.Width(); x++ {
			if elevations.At(x, y) == elevations.NoData {
				continue
			}
			c := dem.Coord{X: x, Y: y}
			for steps := 0; ; steps++ {
				assert.True(t, steps <= maxSteps)
				d := dirs.At(c.X, c.Y)
				assert.True(t, d >= 1 && d <= 8)
				next := dem.Downstream(c, d)
				if !elevations.InGrid(next.X, next.Y) {
					break
				}
				assert.True(t, elevations.At(next.X, next.Y) <= elevations.At(c.X, c.Y))
				c = next
			}
		}
	}
}

func TestResolveFlats(t *testing.T) {
	elevations := newTestDEM([][]float32{
		{9, 9, 9, 9, 9},
		{9, 5, 5, 5, 9},
		{9, 5, 5, 5, 3},
		{9, 5, 5, 5, 9},
		{9, 9, 9, 9, 9},
	})
	dirs := dem.D8FlowDirections(elevations)

	// The outlet column drains straight to the low cell, diagonals included,
	// so the unresolved flat is the remaining 3x2 block of the plateau.
	unresolved := 0
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if dirs.At(x, y) == dem.FlowNone {
				unresolved++
			}
		}
	}
	assert.Equal(t, 6, unresolved)

	resolved, err := dem.ResolveFlats(elevations, dirs)
	assert.NoError(t, err)
	assert.Equal(t, 6, resolved)
	assertDrains(t, elevations, dirs)
}

func TestResolveFlats_EdgePlateau(t *testing.T) {
	elevations := newTestDEM([][]float32{
		{5, 5, 9},
		{5, 5, 9},
		{5, 5, 9},
	})
	dirs := dem.D8FlowDirections(elevations)
	assert.Equal(t, dem.FlowNone, dirs.At(1, 1))

	resolved, err := dem.ResolveFlats(elevations, dirs)
	assert.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assertDrains(t, elevations, dirs)
}

func TestResolveFlats_NoFlats(t *testing.T) {
	elevations := newTestDEM([][]float32{
		{0, 1, 2},
		{1, 2, 3},
		{2, 3, 4},
	})
	dirs := dem.D8FlowDirections(elevations)
	resolved, err := dem.ResolveFlats(elevations, dirs)
	assert.NoError(t, err)
	assert.Equal(t, 0, resolved)
	assertDrains(t, elevations, dirs)
}

func TestResolveFlats_NoOutlet(t *testing.T) {
	// A pit: the depression bottom has nowhere to drain.
	elevations := newTestDEM([][]float32{
		{9, 9, 9},
		{9, 5, 9},
		{9, 9, 9},
	})
	dirs := dem.D8FlowDirections(elevations)
	_, err := dem.ResolveFlats(elevations, dirs)
	assert.IsError(t, err, dem.ErrNoOutlet)
}

func TestResolveFlats_TwoFlats(t *testing.T) {
	// Two plateaus at different elevations, each with its own outlet.
	elevations := newTestDEM([][]float32{
		{9, 9, 9, 9, 9, 9, 9},
		{9, 7, 7, 9, 5, 5, 9},
		{9, 7, 7, 6, 5, 5, 3},
		{9, 7, 7, 9, 5, 5, 9},
		{9, 9, 9, 9, 9, 9, 9},
	})
	dirs := dem.D8FlowDirections(elevations)
	resolved, err := dem.ResolveFlats(elevations, dirs)
	assert.NoError(t, err)
	assert.True(t, resolved > 0)
	assertDrains(t, elevations, dirs)
}

package dem_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/cageo/Barnes-2013-FlatSurfaces"
)

// newTestDEM builds a Float32Grid from rows of elevations, top row first,
// with a 10 unit cell size and a NoData of -9999.
func newTestDEM(rows [][]float32) *dem.Float32Grid {
	g := dem.NewFloat32(dem.WithResizeObserver[float32](nil))
	g.Resize(len(rows[0]), len(rows))
	g.CellSize = 10
	g.XLLCorner = 0
	g.YLLCorner = 0
	g.NoData = -9999
	g.DataCells = 0
	for y, row := range rows {
		for x, v := range row {
			g.Set(x, y, v)
			if v != g.NoData {
				g.DataCells++
			}
		}
	}
	return g
}

func TestD8FlowDirections(t *testing.T) {
	elevations := newTestDEM([][]float32{
		{0, 1, 2},
		{1, 2, 3},
		{2, 3, 4},
	})
	dirs := dem.D8FlowDirections(elevations)

	// The interior cell drains along the steepest descent, the diagonal.
	assert.Equal(t, int8(8), dirs.At(1, 1)) // NW
	// Cells next to the low corner drain straight into it.
	assert.Equal(t, int8(7), dirs.At(1, 0)) // W
	assert.Equal(t, int8(1), dirs.At(0, 1)) // N
	// The low corner has no downslope neighbor but sits on the grid edge,
	// so it drains off the DEM.
	assert.NotEqual(t, dem.FlowNone, dirs.At(0, 0))
	assert.False(t, elevations.InGrid(
		dem.Downstream(dem.Coord{X: 0, Y: 0}, dirs.At(0, 0)).X,
		dem.Downstream(dem.Coord{X: 0, Y: 0}, dirs.At(0, 0)).Y,
	))
}

func TestD8FlowDirections_Metadata(t *testing.T) {
	elevations := newTestDEM([][]float32{
		{0, 1},
		{1, 2},
	})
	dirs := dem.D8FlowDirections(elevations)
	assert.Equal(t, elevations.CellSize, dirs.CellSize)
	assert.Equal(t, elevations.XLLCorner, dirs.XLLCorner)
	assert.Equal(t, elevations.YLLCorner, dirs.YLLCorner)
	assert.Equal(t, elevations.DataCells, dirs.DataCells)
	assert.Equal(t, dem.FlowNoData, dirs.NoData)
}

func TestD8FlowDirections_NoData(t *testing.T) {
	elevations := newTestDEM([][]float32{
		{5, 4, 3},
		{4, -9999, 2},
		{3, 2, 1},
	})
	dirs := dem.D8FlowDirections(elevations)
	assert.Equal(t, dem.FlowNoData, dirs.At(1, 1))
	// Neighbors never drain into the NoData hole.
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			d := dirs.At(x, y)
			if d == dem.FlowNoData || d == dem.FlowNone {
				continue
			}
			downstream := dem.Downstream(dem.Coord{X: x, Y: y}, d)
			if elevations.InGrid(downstream.X, downstream.Y) {
				assert.NotEqual(t, elevations.NoData, elevations.At(downstream.X, downstream.Y))
			}
		}
	}
}

func TestD8FlowDirections_FlatInterior(t *testing.T) {
	elevations := newTestDEM([][]float32{
		{9, 9, 9, 9, 9},
		{9, 5, 5, 5, 9},
		{9, 5, 5, 5, 9},
		{9, 5, 5, 5, 9},
		{9, 9, 9, 9, 9},
	})
	dirs := dem.D8FlowDirections(elevations)
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			assert.Equal(t, dem.FlowNone, dirs.At(x, y))
		}
	}
}

package dem

import "math"

// Flow direction codes stored in an Int8Grid. Directions run 1..8 clockwise
// from north; row 0 is the top of the raster, so north is -y.
const (
	FlowNoData int8 = -1
	FlowNone   int8 = 0
)

var (
	d8DX = [9]int{0, 0, 1, 1, 1, 0, -1, -1, -1}
	d8DY = [9]int{0, -1, -1, 0, 1, 1, 1, 0, -1}

	// d8Dist is the distance to each neighbor in cell widths.
	d8Dist = [9]float64{0, 1, math.Sqrt2, 1, math.Sqrt2, 1, math.Sqrt2, 1, math.Sqrt2}
)

// Downstream returns the coordinate the direction code d points to from c.
// d must be in 0..8; FlowNoData and other codes outside that range panic.
func Downstream(c Coord, d int8) Coord {
	return Coord{X: c.X + d8DX[d], Y: c.Y + d8DY[d]}
}

// D8FlowDirections computes a flow direction grid from dem: each cell gets
// the direction code of its steepest downslope neighbor. A cell on the grid
// edge with no downslope neighbor drains off the DEM, pointing at the
// nearest out-of-grid neighbor. Interior cells with no strictly lower
// neighbor, pits and flats alike, get FlowNone; resolve the flats among
// them afterwards with ResolveFlats. NoData cells get FlowNoData.
func D8FlowDirections(dem *Float32Grid) *Int8Grid {
	dirs := NewLike(Int8Traits, dem)
	dirs.NoData = FlowNoData
	for y := 0; y < dem.Height(); y++ {
		for x := 0; x < dem.Width(); x++ {
			elevation := dem.At(x, y)
			if elevation == dem.NoData {
				dirs.Set(x, y, FlowNoData)
				continue
			}
			best := FlowNone
			bestSlope := 0.0
			for n := 1; n <= 8; n++ {
				nx, ny := x+d8DX[n], y+d8DY[n]
				if !dem.InGrid(nx, ny) || dem.At(nx, ny) == dem.NoData {
					continue
				}
				slope := float64(elevation-dem.At(nx, ny)) / d8Dist[n]
				if slope > bestSlope {
					bestSlope = slope
					best = int8(n)
				}
			}
			if best == FlowNone && dem.EdgeGrid(x, y) {
				for n := 1; n <= 8; n++ {
					if !dem.InGrid(x+d8DX[n], y+d8DY[n]) {
						best = int8(n)
						break
					}
				}
			}
			dirs.Set(x, y, best)
		}
	}
	dirs.DataCells = dem.DataCells
	return dirs
}

package dem

import "math"

// SampleBilinear returns the bilinearly interpolated value of g at the world
// coordinate (x, y), treating each cell's value as located at the cell
// center. It returns NaN when any of the four surrounding cells is outside
// the grid or holds NoData.
func SampleBilinear(g *Float32Grid, x, y float64) float64 {
	top := g.YLLCorner + float64(g.Height())*g.CellSize
	gx := (x-g.XLLCorner)/g.CellSize - 0.5
	gy := (top-y)/g.CellSize - 0.5
	x0 := int(math.Floor(gx))
	y0 := int(math.Floor(gy))
	dx := gx - float64(x0)
	dy := gy - float64(y0)

	// Zero-weight neighbors collapse onto the cell itself, so exact cell
	// centers sample a single cell.
	x1, y1 := x0+1, y0+1
	if dx == 0 {
		x1 = x0
	}
	if dy == 0 {
		y1 = y0
	}

	s00, ok00 := sample(g, x0, y0)
	s10, ok10 := sample(g, x1, y0)
	s01, ok01 := sample(g, x0, y1)
	s11, ok11 := sample(g, x1, y1)
	if !ok00 || !ok10 || !ok01 || !ok11 {
		return math.NaN()
	}
	return 0 +
		s00*(1-dx)*(1-dy) +
		s10*dx*(1-dy) +
		s01*(1-dx)*dy +
		s11*dx*dy
}

func sample(g *Float32Grid, x, y int) (float64, bool) {
	if !g.InGrid(x, y) {
		return 0, false
	}
	v := g.At(x, y)
	if v == g.NoData {
		return 0, false
	}
	return float64(v), true
}

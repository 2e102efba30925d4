package dem

import "errors"

// ErrNoOutlet is returned by ResolveFlats when the DEM contains flat cells
// but no flat drains anywhere. Filling the DEM's pits first usually fixes
// this.
var ErrNoOutlet = errors.New("flat has no outlet")

// iterationMarker separates BFS generations in the gradient queues.
var iterationMarker = Coord{X: -1, Y: -1}

// ResolveFlats assigns flow directions across the flat surfaces of dem using
// the two-gradient method of Barnes, Lehman & Mulla (2014), "An efficient
// assignment of drainage direction over flat surfaces in raster digital
// elevation models". dirs must be the D8 direction grid of dem; its FlowNone
// cells are updated in place. Flats that drain nowhere are left untouched.
// It returns the number of cells that received a direction.
func ResolveFlats(dem *Float32Grid, dirs *Int8Grid) (int, error) {
	lowEdges, highEdges := findFlatEdges(dem, dirs)
	if len(lowEdges) == 0 {
		if hasFlats(dem, dirs) {
			return 0, ErrNoOutlet
		}
		return 0, nil
	}

	// Label each flat reachable from a low edge.
	labels := NewLike(Uint32Traits, dem)
	label := uint32(1)
	for _, c := range lowEdges {
		if labels.At(c.X, c.Y) == 0 {
			labelFlat(dem, labels, c, label)
			label++
		}
	}

	// High edges of flats with no outlet stay unresolved.
	drainable := highEdges[:0]
	for _, c := range highEdges {
		if labels.At(c.X, c.Y) != 0 {
			drainable = append(drainable, c)
		}
	}

	flatMask := NewLike(Int32Traits, dem)
	flatHeight := make([]int32, label)
	buildAwayGradient(dirs, flatMask, labels, drainable, flatHeight)
	buildTowardsCombinedGradient(dirs, flatMask, labels, lowEdges, flatHeight)

	resolved := 0
	for y := 0; y < dem.Height(); y++ {
		for x := 0; x < dem.Width(); x++ {
			if dirs.At(x, y) != FlowNone || labels.At(x, y) == 0 {
				continue
			}
			if d := maskedFlowDirection(flatMask, labels, x, y); d != FlowNone {
				dirs.Set(x, y, d)
				resolved++
			}
		}
	}
	return resolved, nil
}

// findFlatEdges locates the perimeter of every flat. A low edge is a cell
// with a resolved direction adjacent to a flat cell of its own elevation,
// the point the flat drains through; a high edge is a flat cell adjacent to
// higher terrain.
func findFlatEdges(dem *Float32Grid, dirs *Int8Grid) (lowEdges, highEdges []Coord) {
	for y := 0; y < dem.Height(); y++ {
		for x := 0; x < dem.Width(); x++ {
			if dirs.At(x, y) == FlowNoData {
				continue
			}
			for n := 1; n <= 8; n++ {
				nx, ny := x+d8DX[n], y+d8DY[n]
				if !dem.InGrid(nx, ny) || dem.At(nx, ny) == dem.NoData {
					continue
				}
				if dirs.At(x, y) != FlowNone && dirs.At(nx, ny) == FlowNone && dem.At(nx, ny) == dem.At(x, y) {
					lowEdges = append(lowEdges, Coord{X: x, Y: y})
					break
				} else if dirs.At(x, y) == FlowNone && dem.At(x, y) < dem.At(nx, ny) {
					highEdges = append(highEdges, Coord{X: x, Y: y})
					break
				}
			}
		}
	}
	return lowEdges, highEdges
}

func hasFlats(dem *Float32Grid, dirs *Int8Grid) bool {
	for y := 0; y < dem.Height(); y++ {
		for x := 0; x < dem.Width(); x++ {
			if dirs.At(x, y) == FlowNone && dem.At(x, y) != dem.NoData {
				return true
			}
		}
	}
	return false
}

// labelFlat labels the connected region of cells sharing c's elevation.
func labelFlat(dem *Float32Grid, labels *Uint32Grid, c Coord, label uint32) {
	elevation := dem.At(c.X, c.Y)
	queue := []Coord{c}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if !dem.InGrid(c.X, c.Y) || labels.At(c.X, c.Y) != 0 || dem.At(c.X, c.Y) != elevation {
			continue
		}
		labels.Set(c.X, c.Y, label)
		for n := 1; n <= 8; n++ {
			queue = append(queue, Coord{X: c.X + d8DX[n], Y: c.Y + d8DY[n]})
		}
	}
}

// buildAwayGradient floods each flat from its high edges, recording in
// flatMask the number of BFS generations each cell lies away from higher
// terrain, and in flatHeight the largest such distance per flat.
func buildAwayGradient(dirs *Int8Grid, flatMask *Int32Grid, labels *Uint32Grid, highEdges []Coord, flatHeight []int32) {
	loops := int32(1)
	queue := make([]Coord, 0, len(highEdges)+1)
	queue = append(queue, highEdges...)
	queue = append(queue, iterationMarker)
	for len(queue) > 1 {
		c := queue[0]
		queue = queue[1:]
		if c == iterationMarker {
			loops++
			queue = append(queue, iterationMarker)
			continue
		}
		if flatMask.At(c.X, c.Y) > 0 {
			continue
		}
		flatMask.Set(c.X, c.Y, loops)
		flatHeight[labels.At(c.X, c.Y)] = loops
		queue = appendFlatNeighbors(queue, dirs, labels, c)
	}
}

// buildTowardsCombinedGradient floods each flat from its low edges and folds
// the inverted away-from-higher gradient into the mask, so that the combined
// mask decreases monotonically along some path from every flat cell to a low
// edge.
func buildTowardsCombinedGradient(dirs *Int8Grid, flatMask *Int32Grid, labels *Uint32Grid, lowEdges []Coord, flatHeight []int32) {
	for y := 0; y < flatMask.Height(); y++ {
		for x := 0; x < flatMask.Width(); x++ {
			if m := flatMask.At(x, y); m > 0 {
				flatMask.Set(x, y, -m)
			}
		}
	}

	loops := int32(1)
	queue := make([]Coord, 0, len(lowEdges)+1)
	queue = append(queue, lowEdges...)
	queue = append(queue, iterationMarker)
	for len(queue) > 1 {
		c := queue[0]
		queue = queue[1:]
		if c == iterationMarker {
			loops++
			queue = append(queue, iterationMarker)
			continue
		}
		switch m := flatMask.At(c.X, c.Y); {
		case m > 0:
			continue
		case m < 0:
			flatMask.Set(c.X, c.Y, flatHeight[labels.At(c.X, c.Y)]+m+2*loops)
		default:
			flatMask.Set(c.X, c.Y, 2*loops)
		}
		queue = appendFlatNeighbors(queue, dirs, labels, c)
	}
}

func appendFlatNeighbors(queue []Coord, dirs *Int8Grid, labels *Uint32Grid, c Coord) []Coord {
	for n := 1; n <= 8; n++ {
		nx, ny := c.X+d8DX[n], c.Y+d8DY[n]
		if dirs.InGrid(nx, ny) && labels.At(nx, ny) == labels.At(c.X, c.Y) && dirs.At(nx, ny) == FlowNone {
			queue = append(queue, Coord{X: nx, Y: ny})
		}
	}
	return queue
}

// maskedFlowDirection picks the direction of the same-flat neighbor with the
// lowest combined mask below the cell's own.
func maskedFlowDirection(flatMask *Int32Grid, labels *Uint32Grid, x, y int) int8 {
	best := FlowNone
	bestMask := flatMask.At(x, y)
	label := labels.At(x, y)
	for n := 1; n <= 8; n++ {
		nx, ny := x+d8DX[n], y+d8DY[n]
		if !flatMask.InGrid(nx, ny) || labels.At(nx, ny) != label {
			continue
		}
		if m := flatMask.At(nx, ny); m > 0 && m < bestMask {
			bestMask = m
			best = int8(n)
		}
	}
	return best
}

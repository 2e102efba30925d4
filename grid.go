package dem

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"
)

// initParallelCells is the cell count above which Init fans out across
// goroutines.
const initParallelCells = 1 << 16

// A ResizeObserver is told the dimensions and the approximate allocation, in
// whole megabytes, of a resize before the allocation happens.
type ResizeObserver func(width, height int, megabytes int64)

// StderrResizeObserver reports the approximate allocation on stderr in the
// format operators watch before large runs.
func StderrResizeObserver(width, height int, megabytes int64) {
	fmt.Fprintf(os.Stderr, "\n\tApprox RAM requirement: %dMB\n", megabytes)
}

// A Grid is a dense rectangular raster of cells of type T plus the spatial
// metadata of the region it covers. Storage is row-major with row 0 at the
// top of the raster. The zero Grid is not meaningful; use one of the
// constructors.
//
// A Grid performs no internal locking. Callers must ensure that no other
// goroutine touches the grid while any method that mutates it runs.
type Grid[T Cell] struct {
	// CellSize is the edge length of one square cell in the grid's spatial
	// units.
	CellSize float64
	// XLLCorner and YLLCorner locate the lower left corner of the grid in
	// the external spatial reference.
	XLLCorner float64
	YLLCorner float64
	// DataCells counts the cells holding real (non-NoData) values. It is
	// maintained by callers, never recomputed here.
	DataCells int
	// NoData marks a cell as holding no valid value.
	NoData T

	width  int
	height int
	cells  []T

	traits  Traits[T]
	observe ResizeObserver
}

// Canonical grid instantiations. Algorithm code requests these by name:
// elevations are Float32Grids, D8 flow directions are Int8Grids, flat labels
// are Uint32Grids, masks are BoolGrids.
type (
	Float64Grid = Grid[float64]
	Float32Grid = Grid[float32]
	Int8Grid    = Grid[int8]
	BoolGrid    = Grid[bool]
	Uint32Grid  = Grid[uint32]
	Int32Grid   = Grid[int32]
)

// An Option sets an option on a Grid.
type Option[T Cell] func(*Grid[T])

// WithResizeObserver replaces the grid's resize diagnostic. Passing nil
// silences it.
func WithResizeObserver[T Cell](observe ResizeObserver) Option[T] {
	return func(g *Grid[T]) {
		g.observe = observe
	}
}

// New returns an empty 0x0 grid. CellSize, XLLCorner, YLLCorner, and
// DataCells start at -1 and NoData starts at the traits' equivalent of -1;
// all of them mean "unset" until a caller or a metadata copy assigns them.
func New[T Cell](traits Traits[T], options ...Option[T]) *Grid[T] {
	g := &Grid[T]{
		CellSize:  -1,
		XLLCorner: -1,
		YLLCorner: -1,
		DataCells: -1,
		NoData:    traits.Unset,
		traits:    traits,
		observe:   StderrResizeObserver,
	}
	for _, option := range options {
		option(g)
	}
	return g
}

func NewFloat64(options ...Option[float64]) *Float64Grid { return New(Float64Traits, options...) }
func NewFloat32(options ...Option[float32]) *Float32Grid { return New(Float32Traits, options...) }
func NewInt8(options ...Option[int8]) *Int8Grid          { return New(Int8Traits, options...) }
func NewBool(options ...Option[bool]) *BoolGrid          { return New(BoolTraits, options...) }
func NewUint32(options ...Option[uint32]) *Uint32Grid    { return New(Uint32Traits, options...) }
func NewInt32(options ...Option[int32]) *Int32Grid       { return New(Int32Traits, options...) }

// NewLike returns a new grid with traits' element type that covers the same
// region as src: all spatial metadata is copied from src and the storage is
// resized to src's dimensions. Cell values are not copied.
func NewLike[T, U Cell](traits Traits[T], src *Grid[U], options ...Option[T]) *Grid[T] {
	g := New(traits, options...)
	CopyMetadata(g, src)
	return g
}

// CopyMetadata copies src's CellSize, XLLCorner, YLLCorner, DataCells, and
// NoData into dst and resizes dst to src's dimensions. The element types may
// differ; the NoData sentinel is converted through the grids' traits and cell
// values are never copied.
func CopyMetadata[T, U Cell](dst *Grid[T], src *Grid[U]) {
	dst.CellSize = src.CellSize
	dst.XLLCorner = src.XLLCorner
	dst.YLLCorner = src.YLLCorner
	dst.DataCells = src.DataCells
	dst.NoData = dst.traits.FromFloat64(src.traits.ToFloat64(src.NoData))
	dst.Resize(src.width, src.height)
}

// Width returns the number of columns.
func (g *Grid[T]) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid[T]) Height() int { return g.height }

// Resize reshapes the storage to width x height cells. Existing cell values
// do not survive a resize. The approximate size of the new allocation is
// reported to the grid's resize observer first, so operators can anticipate
// memory pressure before it happens.
func (g *Grid[T]) Resize(width, height int) {
	megabytes := int64(width) * int64(height) * int64(g.traits.SizeBytes) / 1024 / 1024
	if g.observe != nil {
		g.observe(width, height, megabytes)
	}
	gridResizes.Inc()
	gridAllocatedMegabytes.Set(float64(megabytes))
	g.width = width
	g.height = height
	g.cells = make([]T, width*height)
}

// Clear releases the storage immediately. The grid becomes 0x0; metadata is
// untouched.
func (g *Grid[T]) Clear() {
	g.width = 0
	g.height = 0
	g.cells = nil
}

// Init sets every cell to v. Rows are split across goroutines for large
// grids; every write touches a disjoint cell, so no locking is needed as
// long as nothing else touches the grid concurrently.
func (g *Grid[T]) Init(v T) {
	if len(g.cells) < initParallelCells {
		for i := range g.cells {
			g.cells[i] = v
		}
		return
	}

	workers := min(runtime.GOMAXPROCS(0), g.height)
	rowsPerWorker := (g.height + workers - 1) / workers
	var wg sync.WaitGroup
	for row := 0; row < g.height; row += rowsPerWorker {
		lo := row * g.width
		hi := min(row+rowsPerWorker, g.height) * g.width
		wg.Add(1)
		go func(cells []T) {
			defer wg.Done()
			for i := range cells {
				cells[i] = v
			}
		}(g.cells[lo:hi])
	}
	wg.Wait()
}

// At returns the cell at column x, row y. Bounds are not checked: callers on
// hot paths are trusted to have validated coordinates with InGrid and
// friends, and out-of-range coordinates are a caller contract violation.
func (g *Grid[T]) At(x, y int) T {
	return g.cells[y*g.width+x]
}

// Set writes the cell at column x, row y. Bounds are not checked.
func (g *Grid[T]) Set(x, y int, v T) {
	g.cells[y*g.width+x] = v
}

// Ptr returns a pointer to the cell at column x, row y. Bounds are not
// checked. The pointer is invalidated by Resize and Clear.
func (g *Grid[T]) Ptr(x, y int) *T {
	return &g.cells[y*g.width+x]
}

// InGrid reports whether (x, y) addresses a cell of the grid.
func (g *Grid[T]) InGrid(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// InteriorGrid reports whether (x, y) addresses a cell strictly inside the
// grid, off the outermost ring of cells.
func (g *Grid[T]) InteriorGrid(x, y int) bool {
	return x >= 1 && y >= 1 && x < g.width-1 && y < g.height-1
}

// EdgeGrid reports whether (x, y) lies on the outermost ring of cells. The
// coordinate must be in the grid; EdgeGrid is unspecified for out-of-range
// input.
func (g *Grid[T]) EdgeGrid(x, y int) bool {
	return x == 0 || y == 0 || x == g.width-1 || y == g.height-1
}

// Equal reports whether g and other have the same dimensions and every pair
// of corresponding cells is equal. Metadata takes no part in the comparison.
func (g *Grid[T]) Equal(other *Grid[T]) bool {
	if g.width != other.width || g.height != other.height {
		return false
	}
	return slices.Equal(g.cells, other.cells)
}

// EstimatedOutputSize returns an estimate, in bytes, of a whitespace
// delimited textual serialization of the grid. It is meant for sizing output
// buffers and disk-usage warnings, not as an exact count. It panics if the
// grid's element type has no registered estimate.
func (g *Grid[T]) EstimatedOutputSize() int {
	if g.traits.OutputBytes == 0 {
		panic(fmt.Sprintf("dem: no output size estimate registered for %T cells", g.NoData))
	}
	return g.traits.OutputBytes * g.width * g.height
}

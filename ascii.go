package dem

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
)

// esriDefaultNoData is assumed when an ESRI ASCII header omits NODATA_value.
const esriDefaultNoData = -9999

// ReadASCII reads an ESRI ASCII grid from filename in fsys into a new
// Float32Grid. Grid row 0 holds the first data row of the file, which is the
// top of the raster. DataCells is set to the number of non-NoData cells
// read.
func ReadASCII(fsys fs.FS, filename string, options ...Option[float32]) (*Float32Grid, error) {
	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanWords)
	next := func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("%s: %w", filename, io.ErrUnexpectedEOF)
		}
		return scanner.Text(), nil
	}

	var (
		ncols, nrows       int
		xll, yll, cellSize float64
		xCenter, yCenter   bool
		noData             float64 = esriDefaultNoData
		firstValue         string
	)
	ncols, nrows = -1, -1
header:
	for {
		token, err := next()
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(token)
		switch key {
		case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
		default:
			// First cell value; the header is over.
			firstValue = token
			break header
		}
		value, err := next()
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", filename, key, err)
		}
		switch key {
		case "ncols":
			ncols = int(n)
		case "nrows":
			nrows = int(n)
		case "xllcorner":
			xll = n
		case "xllcenter":
			xll, xCenter = n, true
		case "yllcorner":
			yll = n
		case "yllcenter":
			yll, yCenter = n, true
		case "cellsize":
			cellSize = n
		case "nodata_value":
			noData = n
		}
	}
	if ncols <= 0 || nrows <= 0 || cellSize <= 0 {
		return nil, fmt.Errorf("%s: %w", filename, errParse)
	}
	if xCenter {
		xll -= cellSize / 2
	}
	if yCenter {
		yll -= cellSize / 2
	}

	g := NewFloat32(options...)
	g.Resize(ncols, nrows)
	g.CellSize = cellSize
	g.XLLCorner = xll
	g.YLLCorner = yll
	g.NoData = float32(noData)
	g.DataCells = 0
	for i := 0; i < ncols*nrows; i++ {
		token := firstValue
		if i > 0 {
			var err error
			if token, err = next(); err != nil {
				return nil, err
			}
		}
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: cell %d: %w", filename, i, err)
		}
		g.Set(i%ncols, i/ncols, float32(v))
		if float32(v) != g.NoData {
			g.DataCells++
		}
	}
	return g, nil
}

// WriteASCII writes g to w as an ESRI ASCII grid. Cells are rendered with
// the grid's per-element-type formatter, one raster row per line, top row
// first. When the element type has a registered output size estimate, the
// write buffer is sized from it.
func WriteASCII[T Cell](w io.Writer, g *Grid[T]) error {
	bw := bufio.NewWriter(w)
	if g.traits.OutputBytes > 0 {
		bw = bufio.NewWriterSize(w, g.EstimatedOutputSize())
	}
	fmt.Fprintf(bw, "ncols %d\n", g.Width())
	fmt.Fprintf(bw, "nrows %d\n", g.Height())
	fmt.Fprintf(bw, "xllcorner %s\n", strconv.FormatFloat(g.XLLCorner, 'f', -1, 64))
	fmt.Fprintf(bw, "yllcorner %s\n", strconv.FormatFloat(g.YLLCorner, 'f', -1, 64))
	fmt.Fprintf(bw, "cellsize %s\n", strconv.FormatFloat(g.CellSize, 'f', -1, 64))
	fmt.Fprintf(bw, "NODATA_value %s\n", g.traits.Format(g.NoData))
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if x > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(g.traits.Format(g.At(x, y))); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Package dem provides a generic georeferenced raster grid for digital
// elevation models, loaders for ESRI ASCII and GeoTIFF rasters, D8 flow
// direction computation, and drainage resolution across flat surfaces.
package dem

// A Coord is a grid coordinate.
type Coord struct {
	X int
	Y int
}

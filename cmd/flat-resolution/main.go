package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cageo/Barnes-2013-FlatSurfaces"
)

func run() error {
	input := flag.String("input", "", "input DEM (.asc, .txt, .tif, .tiff)")
	output := flag.String("output", "", "output flow direction grid (ESRI ASCII)")
	flag.Parse()

	if *input == "" || *output == "" {
		return errors.New("syntax: flat-resolution -input dem.asc -output flowdirs.asc")
	}

	dir, filename := filepath.Split(*input)
	if dir == "" {
		dir = "."
	}
	demSet, err := dem.NewDEMSet(dem.WithDEMSetFS(os.DirFS(dir)))
	if err != nil {
		return err
	}
	elevations, err := demSet.Open(filename)
	if err != nil {
		return err
	}
	if elevations == nil {
		return fmt.Errorf("%s: no such DEM", *input)
	}

	dirs := dem.D8FlowDirections(elevations)
	resolved, err := dem.ResolveFlats(elevations, dirs)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "resolved %d flat cells\n", resolved)
	fmt.Fprintf(os.Stderr, "writing approx %dkB to %s\n", dirs.EstimatedOutputSize()/1024, *output)

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := dem.WriteASCII(f, dirs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

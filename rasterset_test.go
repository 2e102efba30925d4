package dem_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/alecthomas/assert/v2"

	"github.com/cageo/Barnes-2013-FlatSurfaces"
)

func testDEMSetFS() fstest.MapFS {
	asc := []byte("" +
		"ncols 2\n" +
		"nrows 2\n" +
		"xllcorner 0\n" +
		"yllcorner 0\n" +
		"cellsize 10\n" +
		"NODATA_value -9999\n" +
		"1 2\n" +
		"3 4\n")
	return fstest.MapFS{
		"a.asc":      &fstest.MapFile{Data: asc},
		"b.asc":      &fstest.MapFile{Data: asc},
		"broken.asc": &fstest.MapFile{Data: []byte("ncols x\n")},
		"c.xyz":      &fstest.MapFile{Data: []byte("")},
	}
}

func newTestDEMSet(t *testing.T, options ...dem.DEMSetOption) *dem.DEMSet {
	t.Helper()
	options = append([]dem.DEMSetOption{
		dem.WithDEMSetFS(testDEMSetFS()),
		dem.WithDEMSetGridOptions(dem.WithResizeObserver[float32](nil)),
	}, options...)
	s, err := dem.NewDEMSet(options...)
	assert.NoError(t, err)
	return s
}

func TestDEMSet_Open(t *testing.T) {
	s := newTestDEMSet(t)
	g, err := s.Open("a.asc")
	assert.NoError(t, err)
	assert.Equal(t, 2, g.Width())
	assert.Equal(t, 2, g.Height())
	assert.Equal(t, 1, g.At(0, 0))
	assert.Equal(t, 4, g.At(1, 1))
}

func TestDEMSet_OpenCached(t *testing.T) {
	s := newTestDEMSet(t)
	g1, err := s.Open("a.asc")
	assert.NoError(t, err)
	g2, err := s.Open("a.asc")
	assert.NoError(t, err)
	assert.True(t, g1 == g2)
}

func TestDEMSet_OpenMissing(t *testing.T) {
	s := newTestDEMSet(t)
	for i := 0; i < 2; i++ { // second lookup hits the missing cache
		g, err := s.Open("nope.asc")
		assert.NoError(t, err)
		assert.Zero(t, g)
	}
}

func TestDEMSet_OpenErrors(t *testing.T) {
	s := newTestDEMSet(t)
	_, err := s.Open("broken.asc")
	assert.Error(t, err)
	_, err = s.Open("c.xyz")
	assert.IsError(t, err, errors.ErrUnsupported)
}

func TestDEMSet_Eviction(t *testing.T) {
	s := newTestDEMSet(t, dem.WithDEMSetCacheSize(1))
	g1, err := s.Open("a.asc")
	assert.NoError(t, err)
	_, err = s.Open("b.asc") // evicts a.asc
	assert.NoError(t, err)
	g2, err := s.Open("a.asc") // reloaded, not the cached grid
	assert.NoError(t, err)
	assert.True(t, g1 != g2)
	assert.True(t, g1.Equal(g2))
}

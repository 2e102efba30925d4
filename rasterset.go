package dem

import (
	"errors"
	"io/fs"
	"path"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	demSetMissingHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dem_set_missing_cache_hits_total",
		Help: "The total number of hits on the missing DEM cache",
	})
	demSetCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dem_set_cache_hits_total",
		Help: "The total number of hits on the loaded DEM cache",
	})
	demSetCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dem_set_cache_misses_total",
		Help: "The total number of misses on the loaded DEM cache",
	})
	demSetCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dem_set_cache_evictions_total",
		Help: "The total number of evictions from the loaded DEM cache",
	})
)

// A DEMSet is a set of DEM files loaded on demand and kept in an LRU cache.
// DEMs are loaded by filename extension: .tif and .tiff with ReadGeoTIFF,
// .asc and .txt with ReadASCII. Files that turn out not to exist are
// remembered so repeated lookups stay cheap.
type DEMSet struct {
	mutex       sync.Mutex
	fsys        fs.FS
	cacheSize   int
	gridOptions []Option[float32]
	missing     sync.Map
	cache       *lru.Cache[string, *Float32Grid]
}

// A DEMSetOption sets an option on a DEMSet.
type DEMSetOption func(*DEMSet)

// NewDEMSet returns a new DEMSet with the given options.
func NewDEMSet(options ...DEMSetOption) (*DEMSet, error) {
	s := &DEMSet{
		cacheSize: 4,
	}
	for _, option := range options {
		option(s)
	}

	var err error
	s.cache, err = lru.New[string, *Float32Grid](s.cacheSize)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func WithDEMSetFS(fsys fs.FS) DEMSetOption {
	return func(s *DEMSet) {
		s.fsys = fsys
	}
}

func WithDEMSetCacheSize(cacheSize int) DEMSetOption {
	return func(s *DEMSet) {
		s.cacheSize = cacheSize
	}
}

func WithDEMSetGridOptions(gridOptions ...Option[float32]) DEMSetOption {
	return func(s *DEMSet) {
		s.gridOptions = gridOptions
	}
}

// Open returns the DEM in filename, using the cache if possible. It returns
// nil with no error if the file does not exist.
func (s *DEMSet) Open(filename string) (*Float32Grid, error) {
	if _, ok := s.missing.Load(filename); ok {
		demSetMissingHits.Inc()
		return nil, nil
	}

	if g, ok := s.cache.Get(filename); ok {
		demSetCacheHits.Inc()
		return g, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.missing.Load(filename); ok {
		demSetMissingHits.Inc()
		return nil, nil
	}

	if g, ok := s.cache.Get(filename); ok {
		demSetCacheHits.Inc()
		return g, nil
	}

	demSetCacheMisses.Inc()

	g, err := s.load(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.missing.Store(filename, struct{}{})
		return nil, nil
	case err != nil:
		return nil, err
	}

	if eviction := s.cache.Add(filename, g); eviction {
		demSetCacheEvictions.Inc()
	}

	return g, nil
}

// load reads the DEM in filename, dispatching on its extension.
func (s *DEMSet) load(filename string) (*Float32Grid, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".tif", ".tiff":
		return ReadGeoTIFF(s.fsys, filename, s.gridOptions...)
	case ".asc", ".txt":
		return ReadASCII(s.fsys, filename, s.gridOptions...)
	default:
		return nil, errors.ErrUnsupported
	}
}

package dem

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseGeoKeys(t *testing.T) {
	directory := []uint16{
		1, 1, 0, 6,
		1024, 0, 1, 1,
		1025, 0, 1, 1,
		1026, 34737, 28, 0,
		2055, 34736, 1, 0,
		3072, 0, 1, 3035,
		3076, 0, 1, 9001,
	}
	doubleParams := []float64{0.0174532925199433}
	asciiParams := []byte("PCS Name = ETRS89_ETRS_LAEA|")

	actual, err := ParseGeoKeys(directory, doubleParams, asciiParams)
	assert.NoError(t, err)
	assert.Equal(t, &ParsedGeoKeys{
		Params: map[GeoKey]int{
			GeoKeyGTModelType:  1,
			GeoKeyGTRasterType: 1,
			GeoKeyProjectedCRS: 3035,
			GeoKeyLinearUnits:  9001,
		},
		DoubleParams: map[GeoKey]float64{
			GeoKey(2055): 0.0174532925199433,
		},
		ASCIIParams: map[GeoKey]string{
			GeoKeyGTCitation: "PCS Name = ETRS89_ETRS_LAEA|",
		},
	}, actual)
}

func TestParseGeoKeys_Invalid(t *testing.T) {
	for name, directory := range map[string][]uint16{
		"empty":       {},
		"short":       {1, 1, 0},
		"bad_version": {2, 1, 0, 0},
		"bad_count":   {1, 1, 0, 2, 1024, 0, 1, 1},
		"bad_index":   {1, 1, 0, 1, 2055, 34736, 1, 9},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGeoKeys(directory, nil, nil)
			assert.Error(t, err)
		})
	}
}

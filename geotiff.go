package dem

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
	"golang.org/x/image/tiff/lzw"
)

var errShortRead = errors.New("short read")

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type geoTIFFIFD struct {
	ImageWidth                uint16    `tiff:"field,tag=256"`
	ImageLength               uint16    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	TileLength                uint16    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag         string    `tiff:"field,tag=34737"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

// ReadGeoTIFF reads a DEM GeoTIFF from filename in fsys into a new
// Float32Grid. The file must be a tiled, LZW-compressed, single-band 32-bit
// float GeoTIFF in a projected CRS with square pixels and a (0, 0) tiepoint,
// which covers the DEM products this package is used with; anything else
// returns [errors.ErrUnsupported]. Grid row 0 holds the top raster row.
func ReadGeoTIFF(fsys fs.FS, filename string, options ...Option[float32]) (*Float32Grid, error) {
	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	osFile, ok := file.(*os.File)
	if !ok {
		return nil, errors.ErrUnsupported
	}

	tiffTIFF, err := tiff.Parse(osFile, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, err
	}
	if len(tiffTIFF.IFDs()) != 1 {
		return nil, fmt.Errorf("found %d IFDs, expected 1", len(tiffTIFF.IFDs()))
	}
	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, err
	}

	if ifd.BitsPerSample != 32 ||
		ifd.Compression != 5 ||
		ifd.PhotometricInterpretation != 1 ||
		ifd.SamplesPerPixel != 1 ||
		ifd.PlanarConfiguration != 1 ||
		ifd.Predictor != 1 ||
		ifd.SampleFormat != 3 ||
		ifd.TileWidth == 0 || ifd.TileLength == 0 ||
		len(ifd.ModelPixelScaleTag) != 3 || ifd.ModelPixelScaleTag[2] != 0 ||
		len(ifd.ModelTiepointTag) != 6 {
		return nil, errors.ErrUnsupported
	}

	geoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
	if err != nil {
		return nil, err
	}
	if geoKeys.Params[GeoKeyGTModelType] != gtModelTypeProjected ||
		geoKeys.Params[GeoKeyGTRasterType] != gtRasterPixelIsArea {
		return nil, errors.ErrUnsupported
	}

	scaleX, scaleY := ifd.ModelPixelScaleTag[0], ifd.ModelPixelScaleTag[1]
	if scaleX <= 0 || scaleX != scaleY {
		return nil, errors.ErrUnsupported
	}
	i, j, k := ifd.ModelTiepointTag[0], ifd.ModelTiepointTag[1], ifd.ModelTiepointTag[2]
	if i != 0 || j != 0 || k != 0 || ifd.ModelTiepointTag[5] != 0 {
		return nil, errors.ErrUnsupported
	}
	originX, originY := ifd.ModelTiepointTag[3], ifd.ModelTiepointTag[4]

	noData := float32(-math.MaxFloat32)
	if ifd.GDALNoData != "" {
		v, err := strconv.ParseFloat(ifd.GDALNoData, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: GDALNoData: %w", filename, err)
		}
		noData = float32(v)
	}

	imageWidth := int(ifd.ImageWidth)
	imageLength := int(ifd.ImageLength)
	tileWidth := int(ifd.TileWidth)
	tileLength := int(ifd.TileLength)
	tilesAcross := (imageWidth + tileWidth - 1) / tileWidth
	tilesDown := (imageLength + tileLength - 1) / tileLength
	tilesPerImage := tilesAcross * tilesDown
	if len(ifd.TileByteCounts) != tilesPerImage || len(ifd.TileOffsets) != tilesPerImage {
		return nil, errors.New("incorrect number of tile byte counts or offsets")
	}
	tileByteCountUncompressed := tileWidth * tileLength * 4

	g := NewFloat32(options...)
	g.Resize(imageWidth, imageLength)
	g.CellSize = scaleX
	g.XLLCorner = originX
	// The tiepoint locates the upper left corner of the raster.
	g.YLLCorner = originY - float64(imageLength)*scaleY
	g.NoData = noData
	g.DataCells = 0

	compressedData := make([]byte, 0)
	for r := 0; r < tilesDown; r++ {
		for c := 0; c < tilesAcross; c++ {
			tileIndex := c + tilesAcross*r
			tileByteCount := ifd.TileByteCounts[tileIndex]
			tileOffset := ifd.TileOffsets[tileIndex]
			if uint64(cap(compressedData)) < tileByteCount {
				compressedData = make([]byte, tileByteCount)
			}
			compressedData = compressedData[:tileByteCount]
			switch n, err := osFile.ReadAt(compressedData, int64(tileOffset)); {
			case err != nil:
				return nil, err
			case n != int(tileByteCount):
				return nil, errShortRead
			}
			tileData, err := decompressTileData(compressedData, tileByteCountUncompressed)
			if err != nil {
				return nil, err
			}
			samples := decodeFloat32Samples(tileData, tileWidth*tileLength)
			for ty := 0; ty < tileLength; ty++ {
				gy := r*tileLength + ty
				if gy >= imageLength {
					break
				}
				for tx := 0; tx < tileWidth; tx++ {
					gx := c*tileWidth + tx
					if gx >= imageWidth {
						break
					}
					sample := samples[ty*tileWidth+tx]
					g.Set(gx, gy, sample)
					if sample != noData {
						g.DataCells++
					}
				}
			}
		}
	}
	return g, nil
}

// decompressTileData decompresses the LZW tile data in compressedData.
func decompressTileData(compressedData []byte, uncompressedByteCount int) ([]byte, error) {
	tileData := make([]byte, uncompressedByteCount)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	for bytesRead := 0; bytesRead < uncompressedByteCount; {
		n, err := r.Read(tileData[bytesRead:])
		if err != nil {
			return nil, err
		}
		bytesRead += n
	}
	return tileData, nil
}

// decodeFloat32Samples decodes n little-endian float32 samples from data.
func decodeFloat32Samples(data []byte, n int) []float32 {
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		b := binary.LittleEndian.Uint32(data[i*4 : (i+1)*4])
		samples[i] = math.Float32frombits(b)
	}
	return samples
}

package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/ironsheep/uhi-profile/internal/geo"
)

// TIFF and GeoTIFF tag numbers.
const (
	tagImageWidth          = 256
	tagImageLength         = 257
	tagBitsPerSample       = 258
	tagCompression         = 259
	tagStripOffsets        = 273
	tagSamplesPerPixel     = 277
	tagRowsPerStrip        = 278
	tagStripByteCounts     = 279
	tagPlanarConfiguration = 284
	tagTileWidth           = 322
	tagSampleFormat        = 339
	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectory     = 34735
	tagGDALNoData          = 42113
)

const (
	geoKeyRasterType   = 1025
	rasterPixelIsPoint = 2

	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3
)

// TIFF field types and their sizes in bytes.
var tiffTypeSize = map[uint16]int{
	1: 1, 2: 1, 6: 1, 7: 1, // BYTE ASCII SBYTE UNDEFINED
	3: 2, 8: 2, // SHORT SSHORT
	4: 4, 9: 4, 11: 4, // LONG SLONG FLOAT
	5: 8, 10: 8, 12: 8, // RATIONAL SRATIONAL DOUBLE
}

type ifdEntry struct {
	typ   uint16
	count int
	raw   []byte
}

// tiffHeader is the first IFD of a classic TIFF with every entry's value
// bytes resolved.
type tiffHeader struct {
	order   binary.ByteOrder
	entries map[uint16]ifdEntry
}

// OpenGeoTIFF reads a GeoTIFF's first image. Uncompressed stripped images are
// decoded directly, including 32/64-bit floating point bands; compressed
// integer images are decoded with golang.org/x/image/tiff.
func OpenGeoTIFF(path string) (*Raster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raster: %w", err)
	}
	hdr, err := parseTIFFHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	width := int(hdr.uintOr(tagImageWidth, 0))
	height := int(hdr.uintOr(tagImageLength, 0))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s has no image dimensions", ErrUnsupportedLayout, path)
	}
	if err := checkDims(width, height); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	bands := int(hdr.uintOr(tagSamplesPerPixel, 1))

	transform, georef := hdr.geoTransform()

	r := &Raster{
		path:      path,
		driver:    "GTiff",
		width:     width,
		height:    height,
		bands:     bands,
		transform: transform,
		georef:    georef,
	}

	layout, err := hdr.layout(width, height, bands)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	nodata := hdr.noData()
	r.readBand = func(index int) (*Grid, error) {
		var g *Grid
		var err error
		if layout.raw {
			g, err = layout.readRaw(data, hdr.order, index)
		} else {
			g, err = layout.decode(data, index)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read band %d of %s: %w", index, path, err)
		}
		g.NoData = nodata
		return g, nil
	}
	return r, nil
}

func parseTIFFHeader(data []byte) (*tiffHeader, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: file too short", ErrUnsupportedLayout)
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: not a TIFF file", ErrUnsupportedLayout)
	}
	switch order.Uint16(data[2:4]) {
	case 42:
	case 43:
		return nil, fmt.Errorf("%w: BigTIFF", ErrUnsupportedLayout)
	default:
		return nil, fmt.Errorf("%w: bad TIFF magic", ErrUnsupportedLayout)
	}

	off := int(order.Uint32(data[4:8]))
	if off+2 > len(data) {
		return nil, fmt.Errorf("%w: IFD offset %d past end of file", ErrUnsupportedLayout, off)
	}
	n := int(order.Uint16(data[off : off+2]))
	if off+2+12*n > len(data) {
		return nil, fmt.Errorf("%w: truncated IFD", ErrUnsupportedLayout)
	}

	hdr := &tiffHeader{order: order, entries: make(map[uint16]ifdEntry, n)}
	for i := 0; i < n; i++ {
		e := data[off+2+12*i : off+2+12*(i+1)]
		tag := order.Uint16(e[0:2])
		typ := order.Uint16(e[2:4])
		count := int(order.Uint32(e[4:8]))
		size, ok := tiffTypeSize[typ]
		if !ok {
			continue
		}
		total := size * count
		var raw []byte
		if total <= 4 {
			raw = e[8 : 8+total]
		} else {
			vo := int(order.Uint32(e[8:12]))
			if vo < 0 || vo+total > len(data) {
				return nil, fmt.Errorf("%w: tag %d value past end of file", ErrUnsupportedLayout, tag)
			}
			raw = data[vo : vo+total]
		}
		hdr.entries[tag] = ifdEntry{typ: typ, count: count, raw: raw}
	}
	return hdr, nil
}

// uints returns an integer-typed tag's values.
func (h *tiffHeader) uints(tag uint16) []uint64 {
	e, ok := h.entries[tag]
	if !ok {
		return nil
	}
	out := make([]uint64, e.count)
	for i := range out {
		switch e.typ {
		case 1, 7:
			out[i] = uint64(e.raw[i])
		case 3:
			out[i] = uint64(h.order.Uint16(e.raw[2*i:]))
		case 4:
			out[i] = uint64(h.order.Uint32(e.raw[4*i:]))
		default:
			return nil
		}
	}
	return out
}

func (h *tiffHeader) uintOr(tag uint16, def uint64) uint64 {
	if v := h.uints(tag); len(v) > 0 {
		return v[0]
	}
	return def
}

// floats returns a numeric tag's values as float64.
func (h *tiffHeader) floats(tag uint16) []float64 {
	e, ok := h.entries[tag]
	if !ok {
		return nil
	}
	out := make([]float64, e.count)
	for i := range out {
		switch e.typ {
		case 12:
			out[i] = math.Float64frombits(h.order.Uint64(e.raw[8*i:]))
		case 11:
			out[i] = float64(math.Float32frombits(h.order.Uint32(e.raw[4*i:])))
		case 5:
			num := h.order.Uint32(e.raw[8*i:])
			den := h.order.Uint32(e.raw[8*i+4:])
			out[i] = float64(num) / float64(den)
		case 3:
			out[i] = float64(h.order.Uint16(e.raw[2*i:]))
		case 4:
			out[i] = float64(h.order.Uint32(e.raw[4*i:]))
		default:
			return nil
		}
	}
	return out
}

func (h *tiffHeader) ascii(tag uint16) string {
	e, ok := h.entries[tag]
	if !ok || e.typ != 2 {
		return ""
	}
	return strings.TrimRight(string(e.raw), "\x00")
}

// geoTransform derives the affine transform from ModelTransformation, or from
// ModelTiepoint plus ModelPixelScale. PixelIsPoint rasters are shifted by half
// a pixel so the origin is the corner of pixel (0,0), as GDAL does.
func (h *tiffHeader) geoTransform() (geo.Transform, bool) {
	var t geo.Transform
	if m := h.floats(tagModelTransformation); len(m) >= 16 {
		t = geo.Transform{m[3], m[0], m[1], m[7], m[4], m[5]}
	} else {
		tp := h.floats(tagModelTiepoint)
		scale := h.floats(tagModelPixelScale)
		if len(tp) < 6 || len(scale) < 2 {
			return geo.Identity, false
		}
		sx, sy := scale[0], scale[1]
		t = geo.NewTransform(tp[3]-tp[0]*sx, tp[4]+tp[1]*sy, sx, -sy)
	}
	if h.geoKey(geoKeyRasterType) == rasterPixelIsPoint {
		t[0] -= 0.5*t[1] + 0.5*t[2]
		t[3] -= 0.5*t[4] + 0.5*t[5]
	}
	return t, true
}

// geoKey looks up a SHORT-valued key in the GeoKeyDirectory, returning 0 when
// absent.
func (h *tiffHeader) geoKey(id uint64) uint64 {
	dir := h.uints(tagGeoKeyDirectory)
	if len(dir) < 4 {
		return 0
	}
	n := int(dir[3])
	for i := 0; i < n && 4+4*i+3 < len(dir); i++ {
		k := dir[4+4*i : 4+4*i+4]
		if k[0] == id && k[1] == 0 {
			return k[3]
		}
	}
	return 0
}

func (h *tiffHeader) noData() *float64 {
	s := strings.TrimSpace(h.ascii(tagGDALNoData))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// tiffLayout describes where band samples live in the file.
type tiffLayout struct {
	raw          bool
	width        int
	height       int
	samples      int
	bits         int
	sampleFormat int
	planar       int
	rowsPerStrip int
	offsets      []uint64
	counts       []uint64
}

func (h *tiffHeader) layout(width, height, samples int) (*tiffLayout, error) {
	l := &tiffLayout{
		width:        width,
		height:       height,
		samples:      samples,
		bits:         int(h.uintOr(tagBitsPerSample, 1)),
		sampleFormat: int(h.uintOr(tagSampleFormat, sampleFormatUint)),
		planar:       int(h.uintOr(tagPlanarConfiguration, 1)),
		rowsPerStrip: int(h.uintOr(tagRowsPerStrip, uint64(height))),
		offsets:      h.uints(tagStripOffsets),
		counts:       h.uints(tagStripByteCounts),
	}
	if l.rowsPerStrip <= 0 || l.rowsPerStrip > height {
		l.rowsPerStrip = height
	}

	compression := h.uintOr(tagCompression, 1)
	_, tiled := h.entries[tagTileWidth]
	switch l.bits {
	case 8, 16, 32, 64:
	default:
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedLayout, l.bits)
	}
	if l.sampleFormat == sampleFormatFloat && l.bits < 32 {
		return nil, fmt.Errorf("%w: %d-bit floating point", ErrUnsupportedLayout, l.bits)
	}

	if compression == 1 && !tiled && len(l.offsets) > 0 {
		l.raw = true
		return l, nil
	}
	if l.sampleFormat == sampleFormatFloat {
		return nil, fmt.Errorf("%w: compressed or tiled floating point (compression %d)", ErrUnsupportedLayout, compression)
	}
	if l.bits > 16 {
		return nil, fmt.Errorf("%w: compressed %d-bit integers", ErrUnsupportedLayout, l.bits)
	}
	return l, nil
}

func (l *tiffLayout) format() SampleFormat {
	switch {
	case l.sampleFormat == sampleFormatFloat && l.bits == 32:
		return SampleFloat32
	case l.sampleFormat == sampleFormatFloat:
		return SampleFloat64
	case l.sampleFormat == sampleFormatInt:
		return SampleInt
	default:
		return SampleUint
	}
}

// readRaw reads one band of an uncompressed stripped image.
func (l *tiffLayout) readRaw(data []byte, order binary.ByteOrder, band int) (*Grid, error) {
	bytesPer := l.bits / 8
	stride, sampleOff := l.samples*bytesPer, (band-1)*bytesPer
	stripsPerBand := (l.height + l.rowsPerStrip - 1) / l.rowsPerStrip
	if l.planar == 2 {
		stride, sampleOff = bytesPer, 0
	}

	g := NewGrid(l.height, l.width, l.format())
	for row := 0; row < l.height; row++ {
		strip := row / l.rowsPerStrip
		if l.planar == 2 {
			strip += (band - 1) * stripsPerBand
		}
		if strip >= len(l.offsets) {
			return nil, fmt.Errorf("%w: missing strip %d", ErrUnsupportedLayout, strip)
		}
		base := int(l.offsets[strip]) + (row%l.rowsPerStrip)*l.width*stride
		end := base + (l.width-1)*stride + sampleOff + bytesPer
		if base < 0 || end > len(data) {
			return nil, fmt.Errorf("%w: strip %d past end of file", ErrUnsupportedLayout, strip)
		}
		for col := 0; col < l.width; col++ {
			p := data[base+col*stride+sampleOff:]
			g.Values[row*l.width+col] = l.sample(p, order)
		}
	}
	return g, nil
}

func (l *tiffLayout) sample(p []byte, order binary.ByteOrder) float64 {
	switch l.sampleFormat {
	case sampleFormatFloat:
		if l.bits == 32 {
			return float64(math.Float32frombits(order.Uint32(p)))
		}
		return math.Float64frombits(order.Uint64(p))
	case sampleFormatInt:
		switch l.bits {
		case 8:
			return float64(int8(p[0]))
		case 16:
			return float64(int16(order.Uint16(p)))
		case 32:
			return float64(int32(order.Uint32(p)))
		default:
			return float64(int64(order.Uint64(p)))
		}
	default:
		switch l.bits {
		case 8:
			return float64(p[0])
		case 16:
			return float64(order.Uint16(p))
		case 32:
			return float64(order.Uint32(p))
		default:
			return float64(order.Uint64(p))
		}
	}
}

// decode uses golang.org/x/image/tiff for compressed or tiled integer images.
// Gray images expose one band; colour images expose their channels in RGBA
// order at the file's bit depth.
func (l *tiffLayout) decode(data []byte, band int) (*Grid, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode TIFF: %w", err)
	}
	b := img.Bounds()
	g := NewGrid(b.Dy(), b.Dx(), l.format())

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v, err := channel(img, b.Min.X+x, b.Min.Y+y, band)
			if err != nil {
				return nil, err
			}
			if l.sampleFormat == sampleFormatInt {
				v = signed(v, l.bits)
			}
			g.Values[y*g.Width+x] = v
		}
	}
	return g, nil
}

func channel(img image.Image, x, y, band int) (float64, error) {
	switch im := img.(type) {
	case *image.Gray:
		if band == 1 {
			return float64(im.GrayAt(x, y).Y), nil
		}
	case *image.Gray16:
		if band == 1 {
			return float64(im.Gray16At(x, y).Y), nil
		}
	case *image.NRGBA:
		if band <= 4 {
			return float64(im.Pix[im.PixOffset(x, y)+band-1]), nil
		}
	case *image.RGBA:
		if band <= 4 {
			return float64(im.Pix[im.PixOffset(x, y)+band-1]), nil
		}
	case *image.NRGBA64:
		if band <= 4 {
			c := im.NRGBA64At(x, y)
			return float64([4]uint16{c.R, c.G, c.B, c.A}[band-1]), nil
		}
	case *image.RGBA64:
		if band <= 4 {
			c := im.RGBA64At(x, y)
			return float64([4]uint16{c.R, c.G, c.B, c.A}[band-1]), nil
		}
	default:
		if band <= 4 {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			return float64([4]uint8{c.R, c.G, c.B, c.A}[band-1]), nil
		}
	}
	return 0, fmt.Errorf("%w: band %d of %T", ErrBandIndex, band, img)
}

// signed reinterprets an unsigned sample as two's complement.
func signed(v float64, bits int) float64 {
	switch bits {
	case 8:
		return float64(int8(uint8(v)))
	case 16:
		return float64(int16(uint16(v)))
	}
	return v
}

package raster

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/uhi-profile/internal/geo"
)

type tiffTag struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func shortTag(tag uint16, vals ...uint16) tiffTag {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return tiffTag{tag, 3, uint32(len(vals)), b}
}

func longTag(tag uint16, vals ...uint32) tiffTag {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return tiffTag{tag, 4, uint32(len(vals)), b}
}

func doubleTag(tag uint16, vals ...float64) tiffTag {
	b := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return tiffTag{tag, 12, uint32(len(vals)), b}
}

func asciiTag(tag uint16, s string) tiffTag {
	b := append([]byte(s), 0)
	return tiffTag{tag, 2, uint32(len(b)), b}
}

// encodeTIFF lays out a little-endian TIFF: header, pixel data, out-of-line
// tag values, then the IFD. The StripOffsets tag must be the single LONG
// value 8 so it points at the pixel block.
func encodeTIFF(pixels []byte, tags []tiffTag) []byte {
	var body bytes.Buffer
	body.Write([]byte("II"))
	binary.Write(&body, binary.LittleEndian, uint16(42))
	binary.Write(&body, binary.LittleEndian, uint32(0)) // patched below
	body.Write(pixels)

	type placed struct {
		t      tiffTag
		offset uint32
	}
	var entries []placed
	for _, t := range tags {
		p := placed{t: t}
		if len(t.data) > 4 {
			if body.Len()%2 == 1 {
				body.WriteByte(0)
			}
			p.offset = uint32(body.Len())
			body.Write(t.data)
		}
		entries = append(entries, p)
	}
	if body.Len()%2 == 1 {
		body.WriteByte(0)
	}

	ifd := uint32(body.Len())
	binary.Write(&body, binary.LittleEndian, uint16(len(entries)))
	for _, p := range entries {
		binary.Write(&body, binary.LittleEndian, p.t.tag)
		binary.Write(&body, binary.LittleEndian, p.t.typ)
		binary.Write(&body, binary.LittleEndian, p.t.count)
		if len(p.t.data) > 4 {
			binary.Write(&body, binary.LittleEndian, p.offset)
		} else {
			var v [4]byte
			copy(v[:], p.t.data)
			body.Write(v[:])
		}
	}
	binary.Write(&body, binary.LittleEndian, uint32(0))

	out := body.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], ifd)
	return out
}

// float32GeoTIFF builds an uncompressed single-band float32 GeoTIFF with a
// north-up tiepoint/scale georeference.
func float32GeoTIFF(height, width int, values []float32, t geo.Transform, extra ...tiffTag) []byte {
	pixels := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(pixels[4*i:], math.Float32bits(v))
	}
	tags := []tiffTag{
		longTag(256, uint32(width)),
		longTag(257, uint32(height)),
		shortTag(258, 32),
		shortTag(259, 1),
		shortTag(262, 1),
		longTag(273, 8),
		shortTag(277, 1),
		longTag(278, uint32(height)),
		longTag(279, uint32(len(pixels))),
		shortTag(284, 1),
		shortTag(339, 3),
		doubleTag(33550, t.PixelWidth(), -t.PixelHeight(), 0),
		doubleTag(33922, 0, 0, 0, t.OriginX(), t.OriginY(), 0),
	}
	return encodeTIFF(pixels, append(tags, extra...))
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// distinctValues returns 0.5, 1.5, 2.5, ... so every cell differs and is
// exactly representable as float32.
func distinctValues(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i) + 0.5
	}
	return out
}

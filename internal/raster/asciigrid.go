package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/uhi-profile/internal/geo"
)

// OpenASCIIGrid reads an ESRI ASCII raster (.asc). The header is a run of
// "key value" pairs (ncols, nrows, xllcorner|xllcenter, yllcorner|yllcenter,
// cellsize, optional nodata_value) followed by nrows lines of ncols values,
// northernmost row first. The whole grid is decoded on open.
func OpenASCIIGrid(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	header := make(map[string]float64)
	var first string
	for sc.Scan() {
		tok := sc.Text()
		if !isHeaderKey(tok) {
			first = tok
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: %s: header key %s has no value", ErrUnsupportedLayout, path, tok)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: header %s: %v", ErrUnsupportedLayout, path, tok, err)
		}
		header[strings.ToLower(tok)] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raster: %w", err)
	}

	nc, nr := header["ncols"], header["nrows"]
	cell, hasCell := header["cellsize"]
	if !(nc > 0 && nr > 0) || !hasCell || !(cell > 0) {
		return nil, fmt.Errorf("%w: %s: header needs ncols, nrows and cellsize", ErrUnsupportedLayout, path)
	}
	if nc > maxCells || nr > maxCells {
		return nil, fmt.Errorf("%w: %s: %gx%g cells", ErrUnsupportedLayout, path, nc, nr)
	}
	cols, rows := int(nc), int(nr)
	if err := checkDims(cols, rows); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	xll, okX := header["xllcorner"]
	if c, ok := header["xllcenter"]; ok {
		xll, okX = c-cell/2, true
	}
	yll, okY := header["yllcorner"]
	if c, ok := header["yllcenter"]; ok {
		yll, okY = c-cell/2, true
	}

	g := NewGrid(rows, cols, SampleFloat64)
	if nd, ok := header["nodata_value"]; ok {
		g.NoData = &nd
	}

	n := 0
	put := func(tok string) error {
		if n >= len(g.Values) {
			return fmt.Errorf("%w: %s: more than %d values", ErrUnsupportedLayout, path, len(g.Values))
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: value %d: %v", ErrUnsupportedLayout, path, n+1, err)
		}
		g.Values[n] = v
		n++
		return nil
	}
	if first != "" {
		if err := put(first); err != nil {
			return nil, err
		}
	}
	for sc.Scan() {
		if err := put(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raster: %w", err)
	}
	if n != len(g.Values) {
		return nil, fmt.Errorf("%w: %s: got %d values, want %d", ErrUnsupportedLayout, path, n, len(g.Values))
	}

	transform := geo.Identity
	if okX && okY {
		transform = geo.NewTransform(xll, yll+float64(rows)*cell, cell, -cell)
	}

	return &Raster{
		path:      path,
		driver:    "AAIGrid",
		width:     cols,
		height:    rows,
		bands:     1,
		transform: transform,
		georef:    okX && okY,
		readBand: func(int) (*Grid, error) {
			return g, nil
		},
	}, nil
}

var asciiHeaderKeys = map[string]bool{
	"ncols":        true,
	"nrows":        true,
	"xllcorner":    true,
	"xllcenter":    true,
	"yllcorner":    true,
	"yllcenter":    true,
	"cellsize":     true,
	"nodata_value": true,
}

// isHeaderKey reports whether tok names a header field. Data values such as
// "nan" or "inf" are not keys.
func isHeaderKey(tok string) bool {
	return asciiHeaderKeys[strings.ToLower(tok)]
}

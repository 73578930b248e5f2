package region

import "github.com/ironsheep/region-tools-mcp/internal/geometry"

// Part selects a sub-region for Get. Values from 200 to 999 encode a raster
// in decimal digits: hundreds is the raster size N (N x N cells), tens the
// row and units the column. A row or column digit equal to N selects the
// whole column or row instead of one cell.
type Part int

// Named parts. The numeric values are the ones scripts have always used;
// the names describe the original intent and not always the cell the digits
// select (East, 220, is the left half of a 2x2 raster).
const (
	TT Part = 200
	RR Part = 201
	LL Part = 210
	BB Part = 211

	North     Part = 202
	South     Part = 212
	East      Part = 220
	West      Part = 221
	NorthWest Part = 300
	NorthMid  Part = 301
	NorthEast Part = 302
	EastMid   Part = 310
	MidThird  Part = 311
	WestMid   Part = 312
	SouthWest Part = 320
	SouthMid  Part = 321
	SouthEast Part = 322

	// MidVertical is the middle half of the width at full height.
	MidVertical Part = -1
	// MidHorizontal is the middle half of the height at full width.
	MidHorizontal Part = -2
	// MidBig is the centred region of half width and half height.
	MidBig Part = -3
)

// SetRaster divides the region into rows x cols cells and returns the
// top-left cell. Non-positive sizes leave the raster unchanged and return r.
func (r *Region) SetRaster(rows, cols int) *Region {
	if rows <= 0 || cols <= 0 {
		return r
	}
	r.rows, r.cols = rows, cols
	return r.Cell(0, 0)
}

// SetRows sets the number of raster rows. The column count becomes 1 if it
// was unset.
func (r *Region) SetRows(rows int) {
	r.rows = rows
	if r.cols == 0 {
		r.cols = 1
	}
}

// SetCols sets the number of raster columns. The row count becomes 1 if it
// was unset.
func (r *Region) SetCols(cols int) {
	r.cols = cols
	if r.rows == 0 {
		r.rows = 1
	}
}

// Rows returns the raster row count, 0 when no raster is set.
func (r *Region) Rows() int { return r.rows }

// Cols returns the raster column count, 0 when no raster is set.
func (r *Region) Cols() int { return r.cols }

// RowH returns the nominal row height, 0 when no raster is set.
func (r *Region) RowH() int {
	if r.rows <= 0 {
		return 0
	}
	return r.rect.H / r.rows
}

// ColW returns the nominal column width, 0 when no raster is set.
func (r *Region) ColW() int {
	if r.cols <= 0 {
		return 0
	}
	return r.rect.W / r.cols
}

// IsRasterValid reports whether a raster is set.
func (r *Region) IsRasterValid() bool {
	return r.rows > 0 && r.cols > 0
}

// Row returns raster row idx across the full width. Without a raster it
// returns r. See rasterIndex for how idx is mapped.
func (r *Region) Row(idx int) *Region {
	if !r.IsRasterValid() {
		return r
	}
	return r.rowOf(idx, r.rows)
}

// Col returns raster column idx across the full height. Without a raster
// it returns r.
func (r *Region) Col(idx int) *Region {
	if !r.IsRasterValid() {
		return r
	}
	return r.colOf(idx, r.cols)
}

// Cell returns the raster cell at (row, col). Without a raster it returns r.
func (r *Region) Cell(row, col int) *Region {
	if !r.IsRasterValid() {
		return r
	}
	return r.cellOf(row, col, r.rows, r.cols)
}

// Get returns the part of r selected by p. Unknown parts return r. The N x N
// grid a part code names is only used for the lookup: the raster of r, set
// or not, is left unchanged.
func (r *Region) Get(p Part) *Region {
	x, y, w, h := r.rect.X, r.rect.Y, r.rect.W, r.rect.H
	switch {
	case p == MidVertical:
		return r.derive(geometry.NewRect(x+w/4, y, w/2, h))
	case p == MidHorizontal:
		return r.derive(geometry.NewRect(x, y+h/4, w, h/2))
	case p == MidBig:
		return r.derive(geometry.NewRect(x+w/4, y+h/4, w/2, h/2))
	case p < 200 || p > 999:
		return r
	}

	n, row, col := int(p)/100, int(p)/10%10, int(p)%10
	switch {
	case row == n && col == n:
		return r
	case row == n:
		return r.colOf(col, n)
	case col == n:
		return r.rowOf(row, n)
	default:
		return r.cellOf(row, col, n, n)
	}
}

func (r *Region) rowOf(idx, n int) *Region {
	y, h := span(rasterIndex(idx, n), n, r.rect.H)
	return r.derive(geometry.NewRect(r.rect.X, r.rect.Y+y, r.rect.W, h))
}

func (r *Region) colOf(idx, n int) *Region {
	x, w := span(rasterIndex(idx, n), n, r.rect.W)
	return r.derive(geometry.NewRect(r.rect.X+x, r.rect.Y, w, r.rect.H))
}

func (r *Region) cellOf(row, col, rows, cols int) *Region {
	y, h := span(rasterIndex(row, rows), rows, r.rect.H)
	x, w := span(rasterIndex(col, cols), cols, r.rect.W)
	return r.derive(geometry.NewRect(r.rect.X+x, r.rect.Y+y, w, h))
}

// rasterIndex maps a row or column index onto a raster of n slots the way
// scripts have always relied on:
//
//   - 0..n-1 select that slot.
//   - n is accepted and selects the slot just past the raster.
//   - indexes above n select slot 0.
//   - a negative index becomes n - idx, which always lands past the end of
//     the raster (-1 on three rows gives slot 4). It does not count from
//     the end.
func rasterIndex(idx, n int) int {
	switch {
	case idx < 0:
		return n - idx
	case idx > n:
		return 0
	default:
		return idx
	}
}

// span returns the offset and length of slot i when size is divided into n
// slots. Slot boundaries are at i*size/n, so in-range slots tile size
// exactly and differ in length by at most one.
func span(i, n, size int) (offset, length int) {
	offset = i * size / n
	return offset, (i+1)*size/n - offset
}

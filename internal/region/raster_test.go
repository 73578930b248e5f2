package region

import (
	"testing"

	"github.com/ironsheep/region-tools-mcp/internal/geometry"
)

func TestSetRaster_TilesRegion(t *testing.T) {
	s, _ := newTestSession(t)

	sizes := []geometry.Rect{
		geometry.NewRect(0, 0, 90, 60),
		geometry.NewRect(5, 7, 100, 100),
		geometry.NewRect(-3, 2, 31, 17),
	}
	for _, rect := range sizes {
		r, _ := s.RegionOf(rect)
		first := r.SetRaster(3, 3)
		if first.Rect() != r.Cell(0, 0).Rect() {
			t.Errorf("%v: SetRaster returned %v, want cell (0,0)", rect, first.Rect())
		}
		if r.Cell(0, 0).Rect() == r.Cell(2, 2).Rect() {
			t.Errorf("%v: cell (0,0) equals cell (2,2)", rect)
		}

		var union geometry.Rect
		area := 0
		var cells []geometry.Rect
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				c := r.Cell(row, col).Rect()
				for _, prev := range cells {
					if c.Overlaps(prev) {
						t.Errorf("%v: cell %v overlaps %v", rect, c, prev)
					}
				}
				cells = append(cells, c)
				union = union.Union(c)
				area += c.W * c.H
			}
		}
		if union != rect || area != rect.W*rect.H {
			t.Errorf("%v: cells cover %v with area %d", rect, union, area)
		}
	}
}

func TestRaster_Indexing(t *testing.T) {
	s, _ := newTestSession(t)
	r, _ := s.NewRegion(0, 0, 90, 60)
	r.SetRaster(3, 3)

	tests := []struct {
		name string
		got  *Region
		want geometry.Rect
	}{
		{"row 1", r.Row(1), geometry.NewRect(0, 20, 90, 20)},
		{"col 2", r.Col(2), geometry.NewRect(60, 0, 30, 60)},
		{"cell 1,2", r.Cell(1, 2), geometry.NewRect(60, 20, 30, 20)},

		// Index equal to the count selects the slot just past the raster.
		{"row 3", r.Row(3), geometry.NewRect(0, 60, 90, 20)},
		// Indexes beyond the count fall back to the first slot.
		{"row 5", r.Row(5), geometry.NewRect(0, 0, 90, 20)},
		{"cell 1,7", r.Cell(1, 7), geometry.NewRect(0, 20, 30, 20)},
		// Negative indexes become count - index, past the end.
		{"row -1", r.Row(-1), geometry.NewRect(0, 80, 90, 20)},
		{"col -1", r.Col(-1), geometry.NewRect(120, 0, 30, 60)},
		{"cell -2,1", r.Cell(-2, 1), geometry.NewRect(30, 100, 30, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Rect() != tt.want {
				t.Errorf("got %v, want %v", tt.got.Rect(), tt.want)
			}
		})
	}
}

func TestRaster_Unset(t *testing.T) {
	s, _ := newTestSession(t)
	r, _ := s.NewRegion(0, 0, 90, 60)

	if r.Row(0) != r || r.Col(1) != r || r.Cell(0, 0) != r {
		t.Error("raster accessors without a raster should return the region itself")
	}
	if r.SetRaster(0, 3) != r || r.IsRasterValid() {
		t.Error("SetRaster with a zero size should leave the raster unset")
	}
	if r.RowH() != 0 || r.ColW() != 0 {
		t.Errorf("RowH/ColW without raster: got %d/%d, want 0/0", r.RowH(), r.ColW())
	}
}

func TestSetRowsAndCols(t *testing.T) {
	s, _ := newTestSession(t)

	r, _ := s.NewRegion(0, 0, 90, 60)
	r.SetRows(4)
	if r.Rows() != 4 || r.Cols() != 1 {
		t.Errorf("SetRows(4): got %dx%d, want 4x1", r.Rows(), r.Cols())
	}
	if r.RowH() != 15 || r.ColW() != 90 {
		t.Errorf("RowH/ColW: got %d/%d, want 15/90", r.RowH(), r.ColW())
	}

	r, _ = s.NewRegion(0, 0, 90, 60)
	r.SetCols(3)
	if r.Rows() != 1 || r.Cols() != 3 {
		t.Errorf("SetCols(3): got %dx%d, want 1x3", r.Rows(), r.Cols())
	}
	r.SetRows(2)
	if r.Rows() != 2 || r.Cols() != 3 {
		t.Errorf("SetRows after SetCols: got %dx%d, want 2x3", r.Rows(), r.Cols())
	}
}

func TestGet(t *testing.T) {
	s, _ := newTestSession(t)
	r, _ := s.NewRegion(10, 20, 100, 100)

	tests := []struct {
		name string
		part Part
		want geometry.Rect
	}{
		{"north", North, geometry.NewRect(10, 20, 100, 50)},
		{"south", South, geometry.NewRect(10, 70, 100, 50)},
		// The historical values select the left column for East.
		{"east", East, geometry.NewRect(10, 20, 50, 100)},
		{"west", West, geometry.NewRect(60, 20, 50, 100)},
		{"north west", NorthWest, geometry.NewRect(10, 20, 33, 33)},
		{"mid third", MidThird, geometry.NewRect(43, 53, 33, 33)},
		{"south east", SouthEast, geometry.NewRect(76, 86, 34, 34)},
		{"cell 522", 522, geometry.NewRect(50, 60, 20, 20)},
		{"row 525", 525, geometry.NewRect(10, 60, 100, 20)},
		{"col 552", 552, geometry.NewRect(50, 20, 20, 100)},
		{"out of range digits", 239, geometry.NewRect(10, 20, 50, 50)},
		{"mid vertical", MidVertical, geometry.NewRect(35, 20, 50, 100)},
		{"mid horizontal", MidHorizontal, geometry.NewRect(10, 45, 100, 50)},
		{"mid big", MidBig, geometry.NewRect(35, 45, 50, 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Get(tt.part).Rect(); got != tt.want {
				t.Errorf("Get(%d): got %v, want %v", int(tt.part), got, tt.want)
			}
		})
	}

	for _, p := range []Part{555, 199, 1000} {
		if r.Get(p) != r {
			t.Errorf("Get(%d) should return the region itself", int(p))
		}
	}
	if r.IsRasterValid() {
		t.Error("Get must not set a raster on the region")
	}
}

func TestGet_KeepsExistingRaster(t *testing.T) {
	s, _ := newTestSession(t)
	r := mustRegion(t, s, 10, 20, 100, 100)
	r.SetRaster(4, 5)

	if got := r.Get(522).Rect(); got != geometry.NewRect(50, 60, 20, 20) {
		t.Errorf("Get(522): got %v, want (50,60,20,20)", got)
	}
	if r.Rows() != 4 || r.Cols() != 5 {
		t.Errorf("raster after Get: got %dx%d, want 4x5", r.Rows(), r.Cols())
	}
	if got := r.Cell(0, 0).Rect(); got != geometry.NewRect(10, 20, 20, 25) {
		t.Errorf("Cell(0,0) after Get: got %v, want (10,20,20,25)", got)
	}
}

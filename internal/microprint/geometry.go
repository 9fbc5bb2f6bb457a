package microprint

import (
	"math"

	"github.com/ternarybob/runcanvas/internal/models"
)

// MinHeight is the smallest height a microprint element is given.
const MinHeight = 30

// Geometry maps segment indices to cells and back. Cells are CellSize
// wide with a one pixel gutter, laid out row-major on the layout's columns.
type Geometry struct {
	CellSize float64
}

// Pitch is the distance between the origins of adjacent cells.
func (g Geometry) Pitch() float64 {
	return g.CellSize + 1
}

// Size returns the element size for a layout.
func (g Geometry) Size(layout models.MicroprintLayout) (width, height float64) {
	width = float64(layout.Columns) * g.Pitch()
	height = math.Max(float64(layout.Rows)*g.Pitch(), MinHeight)
	return width, height
}

// CellOrigin returns the top-left of the cell for index, relative to the
// element origin.
func (g Geometry) CellOrigin(layout models.MicroprintLayout, index int) models.Point {
	columns := max(layout.Columns, 1)
	row, col := index/columns, index%columns
	return models.Point{X: float64(col) * g.Pitch(), Y: float64(row) * g.Pitch()}
}

// CellCenter returns the centre of the cell for index, relative to the
// element origin.
func (g Geometry) CellCenter(layout models.MicroprintLayout, index int) models.Point {
	p := g.CellOrigin(layout, index)
	return models.Point{X: p.X + g.CellSize/2, Y: p.Y + g.CellSize/2}
}

// SegmentAt resolves a point relative to the element origin to a segment
// index. It returns false for points in the gutter beyond the last column
// or in the padding after the last segment.
func (g Geometry) SegmentAt(layout models.MicroprintLayout, count int, rel models.Point) (int, bool) {
	columns := max(layout.Columns, 1)
	col := int(math.Floor(rel.X / g.Pitch()))
	row := int(math.Floor(rel.Y / g.Pitch()))
	if col < 0 || col >= columns || row < 0 {
		return -1, false
	}
	index := row*columns + col
	if index < 0 || index >= count {
		return -1, false
	}
	return index, true
}

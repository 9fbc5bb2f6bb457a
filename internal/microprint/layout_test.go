package microprint

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/runcanvas/internal/models"
)

func TestPlanLayout_Empty(t *testing.T) {
	layout := PlanLayout(0)
	assert.Equal(t, models.MicroprintLayout{Columns: 1, Rows: 1, ActualRatio: 1, Efficiency: 100}, layout)
	assert.Equal(t, layout, PlanLayout(-5))
}

func TestPlanLayout_Tiers(t *testing.T) {
	tests := []struct {
		n       int
		columns int
		rows    int
	}{
		{n: 1, columns: 2, rows: 1},      // ideal ceil(sqrt(2.5)) = 2, min(3, 1) = 1
		{n: 2, columns: 3, rows: 1},      // ideal 3
		{n: 10, columns: 5, rows: 2},     // ideal ceil(sqrt(25)) = 5
		{n: 100, columns: 12, rows: 9},   // ideal 16 capped at 12
		{n: 101, columns: 18, rows: 6},   // ideal ceil(sqrt(303)) = 18
		{n: 1000, columns: 25, rows: 40}, // capped at 25
		{n: 10000, columns: 50, rows: 200},
		{n: 50000, columns: 100, rows: 500},
		{n: 199000, columns: 200, rows: 995},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			layout := PlanLayout(tt.n)
			assert.Equal(t, tt.columns, layout.Columns)
			assert.Equal(t, tt.rows, layout.Rows)
			assert.InDelta(t, float64(tt.columns)/float64(tt.rows), layout.ActualRatio, 1e-9)
			assert.InDelta(t, float64(tt.n)/float64(tt.columns*tt.rows)*100, layout.Efficiency, 1e-9)
		})
	}
}

func TestPlanLayout_GridInvariant(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 50, 99, 100, 101, 555, 1001, 9999, 10001, 49999, 50001, 123456} {
		layout := PlanLayout(n)
		require.Equal(t, layout, PlanLayout(n), "layout must be deterministic")
		assert.Less(t, layout.Columns*(layout.Rows-1), n, "n=%d", n)
		assert.LessOrEqual(t, n, layout.Columns*layout.Rows, "n=%d", n)
	}
}

func TestGeometry_SegmentAtCellCenters(t *testing.T) {
	g := Geometry{CellSize: 9}

	for _, n := range []int{1, 5, 37, 100, 1234} {
		layout := PlanLayout(n)
		for index := 0; index < n; index++ {
			got, ok := g.SegmentAt(layout, n, g.CellCenter(layout, index))
			require.True(t, ok, "n=%d index=%d", n, index)
			require.Equal(t, index, got)
		}
	}
}

func TestGeometry_SegmentAtOutOfRange(t *testing.T) {
	g := Geometry{CellSize: 9}
	layout := PlanLayout(10) // 5 columns, 2 rows, all cells used

	_, ok := g.SegmentAt(layout, 7, models.Point{X: 3 * g.Pitch(), Y: g.Pitch() + 1})
	assert.False(t, ok, "padding after the last segment")

	_, ok = g.SegmentAt(layout, 10, models.Point{X: 5*g.Pitch() + 1, Y: 1})
	assert.False(t, ok, "beyond the last column")

	_, ok = g.SegmentAt(layout, 10, models.Point{X: -1, Y: 1})
	assert.False(t, ok)

	_, ok = g.SegmentAt(layout, 10, models.Point{X: 1, Y: 25})
	assert.False(t, ok, "height floor padding below the grid")
}

func TestGeometry_Size(t *testing.T) {
	g := Geometry{CellSize: 9}

	w, h := g.Size(PlanLayout(10))
	assert.Equal(t, 50.0, w)
	assert.Equal(t, 30.0, h, "two rows are shorter than the minimum height")

	w, h = g.Size(PlanLayout(1000))
	assert.Equal(t, 250.0, w)
	assert.Equal(t, 400.0, h)
}

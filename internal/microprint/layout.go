package microprint

import (
	"math"

	"github.com/ternarybob/runcanvas/internal/models"
)

// tier picks the target aspect ratio and column cap for a segment count.
type tier struct {
	limit       int
	targetRatio float64
	maxColumns  int
}

var tiers = []tier{
	{limit: 100, targetRatio: 2.5, maxColumns: 12},
	{limit: 1000, targetRatio: 3.0, maxColumns: 25},
	{limit: 10000, targetRatio: 3.5, maxColumns: 50},
	{limit: 50000, targetRatio: 4.0, maxColumns: 100},
}

var lastTier = tier{targetRatio: 5.0, maxColumns: 200}

func tierFor(n int) tier {
	for _, t := range tiers {
		if n <= t.limit {
			return t
		}
	}
	return lastTier
}

// PlanLayout computes a near-square grid for n segments. It is pure: the
// same n always yields the same layout, and for n >= 1
// columns*(rows-1) < n <= columns*rows.
func PlanLayout(n int) models.MicroprintLayout {
	if n <= 0 {
		return models.MicroprintLayout{Columns: 1, Rows: 1, ActualRatio: 1, Efficiency: 100}
	}

	t := tierFor(n)
	ideal := int(math.Ceil(math.Sqrt(float64(n) * t.targetRatio)))
	minColumns := min(3, n)
	columns := max(minColumns, min(t.maxColumns, ideal))
	rows := (n + columns - 1) / columns

	return models.MicroprintLayout{
		Columns:     columns,
		Rows:        rows,
		ActualRatio: float64(columns) / float64(rows),
		Efficiency:  float64(n) / float64(columns*rows) * 100,
	}
}

package canvas

import "github.com/ternarybob/runcanvas/internal/models"

// ElementAt returns the topmost element containing p. Elements are drawn in
// slice order, so the search runs from the end.
func ElementAt(elements []models.Element, p models.Point) (models.Element, bool) {
	for i := len(elements) - 1; i >= 0; i-- {
		if elements[i].Rect.Contains(p) {
			return elements[i], true
		}
	}
	return models.Element{}, false
}

// Normalize maps v from [min,max] linearly onto [lo,hi]. Equal bounds map
// to lo, and the result is clamped to [lo,hi].
func Normalize(v, min, max, lo, hi float64) float64 {
	if max == min {
		return lo
	}
	out := lo + (v-min)/(max-min)*(hi-lo)
	if out < lo {
		return lo
	}
	if out > hi {
		return hi
	}
	return out
}

package canvas

import (
	"github.com/ternarybob/runcanvas/internal/models"
	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

var statusColors = map[pkgmodels.Status]models.Color{
	pkgmodels.StatusSuccess:    models.Hex("#22c55e"),
	pkgmodels.StatusFailure:    models.Hex("#ef4444"),
	pkgmodels.StatusCancelled:  models.Hex("#9ca3af"),
	pkgmodels.StatusUnknown:    models.Hex("#d1d5db"),
	pkgmodels.StatusInProgress: models.Hex("#f59e0b"),
}

// MicroprintFill is the background of a microprint element.
var MicroprintFill = models.RGBA(59, 130, 246, 0.1)

// StatusColor returns the fill used for a status.
func StatusColor(status pkgmodels.Status) models.Color {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return statusColors[pkgmodels.StatusUnknown]
}

// LayerLabels names each occupied layer above its bounding box.
var LayerLabels = map[int]string{
	models.LayerRuns:       "Runs",
	models.LayerAttempts:   "Attempts",
	models.LayerJobs:       "Jobs",
	models.LayerSteps:      "Steps",
	models.LayerMicroprint: "Microprint",
}

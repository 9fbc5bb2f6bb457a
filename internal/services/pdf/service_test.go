package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/canvas"
	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

func testScene(t *testing.T) canvas.Scene {
	t.Helper()
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []*pkgmodels.Run{
		{ID: "1", Name: "ci", Conclusion: pkgmodels.StatusFailure, Attempts: []*pkgmodels.Attempt{
			{ID: "1-1", Number: 1, Conclusion: pkgmodels.StatusFailure, RunStartedAt: start, UpdatedAt: start.Add(time.Minute)},
		}},
		{ID: "2", Name: "ci", Conclusion: pkgmodels.StatusSuccess, Attempts: []*pkgmodels.Attempt{
			{ID: "2-1", Number: 1, Conclusion: pkgmodels.StatusSuccess, RunStartedAt: start, UpdatedAt: start.Add(3 * time.Minute)},
		}},
	}
	c := canvas.NewController(canvas.NewCamera(canvas.DefaultCameraOptions()),
		canvas.NewLayerManager(canvas.DefaultLayoutConfig()), canvas.DefaultControllerOptions())
	c.Resize(800, 600)
	c.SetRuns(runs)

	el, ok := c.Layers().Find("run-2")
	require.True(t, ok)
	require.True(t, c.PointerDown(canvas.PointerEvent{X: el.Rect.X + 1, Y: el.Rect.Y + 1}))
	c.Wheel(canvas.WheelEvent{X: 100, Y: 100, DeltaY: 1})
	return c.Scene()
}

func TestExportScene(t *testing.T) {
	service := NewService(arbor.NewLogger())

	tests := []struct {
		name   string
		report string
		pages  int
	}{
		{
			name:   "Diagram only",
			report: "",
			pages:  1,
		},
		{
			name: "Diagram with report",
			report: `# ci

| Metric | Value |
|--------|-------|
| Runs | 2 |
| Success rate | 50% |

Selected line **12** of ` + "`build`" + `:

` + "```\nERROR: boom\n```",
			pages: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := service.ExportScene(testScene(t), "ci", tt.report)
			require.NoError(t, err)
			require.NotEmpty(t, data)
			assert.Equal(t, "%PDF", string(data[:4]))

			meta, err := service.Inspect(data)
			require.NoError(t, err)
			assert.Equal(t, tt.pages, meta.PageCount)
			assert.Equal(t, int64(len(data)), meta.FileSize)
		})
	}
}

func TestExportScene_Unmounted(t *testing.T) {
	service := NewService(arbor.NewLogger())
	_, err := service.ExportScene(canvas.Scene{Camera: *canvas.NewCamera(canvas.DefaultCameraOptions())}, "x", "")
	assert.Error(t, err)
}

func TestInspect_RejectsGarbage(t *testing.T) {
	service := NewService(arbor.NewLogger())
	_, err := service.Inspect([]byte("not a pdf"))
	assert.Error(t, err)
}

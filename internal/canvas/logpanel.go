package canvas

import "github.com/ternarybob/runcanvas/internal/models"

const (
	// LogWindow is how many segments are shown either side of the selected one.
	LogWindow = 25
	// LogBatch is how many segments ExtendUp and ExtendDown reveal at a time.
	LogBatch = 15
)

func openLogPanel(segments []models.LogSegment, index int) models.LogPanelState {
	return models.LogPanelState{
		Segments: segments,
		Selected: models.SelectedLogLine{SegmentIndex: index, Text: segments[index].Text},
		Visible:  true,
		Start:    max(0, index-LogWindow),
		End:      min(len(segments), index+LogWindow+1),
	}
}

func extendUp(p models.LogPanelState) (models.LogPanelState, bool) {
	if !p.Visible || p.Start == 0 {
		return p, false
	}
	p.Start = max(0, p.Start-LogBatch)
	return p, true
}

func extendDown(p models.LogPanelState) (models.LogPanelState, bool) {
	if !p.Visible || p.End >= len(p.Segments) {
		return p, false
	}
	p.End = min(len(p.Segments), p.End+LogBatch)
	return p, true
}

package models

// SelectedSegment identifies one highlighted microprint cell.
type SelectedSegment struct {
	ElementID    string `json:"element_id"`
	SegmentIndex int    `json:"segment_index"`
}

// TooltipState follows the raw screen position of the pointer.
type TooltipState struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible bool    `json:"visible"`
}

// SelectedLogLine is the log line the panel is centred on.
type SelectedLogLine struct {
	SegmentIndex int    `json:"segment_index"`
	Text         string `json:"text"`
}

// LogPanelState describes the log panel. Start and End bound the window of
// segments currently shown, End exclusive.
type LogPanelState struct {
	Segments []LogSegment    `json:"segments"`
	Selected SelectedLogLine `json:"selected"`
	Visible  bool            `json:"visible"`
	Start    int             `json:"start"`
	End      int             `json:"end"`
}

// Window returns the segments between Start and End.
func (s LogPanelState) Window() []LogSegment {
	if !s.Visible || s.Start >= s.End {
		return nil
	}
	return s.Segments[s.Start:s.End]
}

package models

import (
	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

// LogSegment is one logical log line.
type LogSegment struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}

// MicroprintLayout is the grid a microprint is drawn on.
type MicroprintLayout struct {
	Columns     int     `json:"columns"`
	Rows        int     `json:"rows"`
	ActualRatio float64 `json:"actual_ratio"`
	Efficiency  float64 `json:"efficiency"`
}

// MicroprintData is the payload of a microprint element.
type MicroprintData struct {
	StepID   string           `json:"step_id"`
	Step     *pkgmodels.Step  `json:"-"`
	Segments []LogSegment     `json:"segments"`
	Layout   MicroprintLayout `json:"layout"`
}
